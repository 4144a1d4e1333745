package mow

import (
	"bytes"

	"github.com/RowanDark/internpool/cell"
	"github.com/RowanDark/internpool/pool"
)

// IStr is an immutable interned string. Two IStr values from the same pool
// holding equal text are the same entry, so Equal is a pointer comparison.
//
// An IStr owns one pool reference and must be released once.
type IStr struct {
	pool *pool.Pool
	h    pool.Handle
}

// NewIStr interns s in p. A nil p selects the process-wide text registry.
func NewIStr(p *pool.Pool, s string) IStr {
	p = strPool(p)
	return IStr{pool: p, h: p.InternString(s)}
}

// IStrFromBytes interns a copy of b. It panics if b is not valid UTF-8.
func IStrFromBytes(p *pool.Pool, b []byte) IStr {
	mustUTF8(b)
	p = strPool(p)
	return IStr{pool: p, h: p.Intern(b)}
}

func (i IStr) IsZero() bool {
	return i.h.IsZero()
}

// Handle returns the pool handle without taking a reference.
func (i IStr) Handle() pool.Handle {
	return i.h
}

func (i IStr) Pool() *pool.Pool {
	return i.pool
}

// String returns the text without copying.
func (i IStr) String() string {
	if i.h.IsZero() {
		return ""
	}
	return i.h.String()
}

// Bytes returns the text. The slice must not be modified.
func (i IStr) Bytes() []byte {
	if i.h.IsZero() {
		return nil
	}
	return i.h.Bytes()
}

func (i IStr) Len() int {
	return len(i.Bytes())
}

// Equal reports whether i and o are the same entry.
func (i IStr) Equal(o IStr) bool {
	return i.h.Equal(o.h)
}

// Compare orders by content.
func (i IStr) Compare(o IStr) int {
	if i.h.Equal(o.h) {
		return 0
	}
	return bytes.Compare(i.Bytes(), o.Bytes())
}

// Hash returns the content hash, which matches Str.Hash for equal text.
func (i IStr) Hash() uint64 {
	if i.h.IsZero() {
		return cell.Digest(nil)
	}
	return i.h.Hash()
}

// Clone takes another reference to the same entry.
func (i IStr) Clone() IStr {
	return IStr{pool: i.pool, h: i.h.Clone()}
}

// IntoMut converts i into a Shared Str, handing over its reference.
func (i IStr) IntoMut() Str {
	return StrFromIStr(i)
}

// Release gives back the reference and zeroes i.
func (i *IStr) Release() {
	if i.h.IsZero() {
		return
	}
	i.h.Release()
	*i = IStr{}
}
