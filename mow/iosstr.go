package mow

import (
	"bytes"

	"github.com/RowanDark/internpool/cell"
	"github.com/RowanDark/internpool/pool"
)

// IOSStr is an immutable interned OS string. Like IStr it owns one pool
// reference and compares by identity.
type IOSStr struct {
	pool *pool.Pool
	h    pool.Handle
}

// NewIOSStr interns a copy of b in p. A nil p selects the process-wide OS
// string registry.
func NewIOSStr(p *pool.Pool, b []byte) IOSStr {
	p = osStrPool(p)
	return IOSStr{pool: p, h: p.Intern(b)}
}

func (i IOSStr) IsZero() bool {
	return i.h.IsZero()
}

func (i IOSStr) Handle() pool.Handle {
	return i.h
}

func (i IOSStr) Pool() *pool.Pool {
	return i.pool
}

// Bytes returns the contents. The slice must not be modified.
func (i IOSStr) Bytes() []byte {
	if i.h.IsZero() {
		return nil
	}
	return i.h.Bytes()
}

func (i IOSStr) String() string {
	if i.h.IsZero() {
		return ""
	}
	return i.h.String()
}

func (i IOSStr) Len() int {
	return len(i.Bytes())
}

// Equal reports whether i and o are the same entry.
func (i IOSStr) Equal(o IOSStr) bool {
	return i.h.Equal(o.h)
}

func (i IOSStr) Compare(o IOSStr) int {
	if i.h.Equal(o.h) {
		return 0
	}
	return bytes.Compare(i.Bytes(), o.Bytes())
}

func (i IOSStr) Hash() uint64 {
	if i.h.IsZero() {
		return cell.Digest(nil)
	}
	return i.h.Hash()
}

func (i IOSStr) Clone() IOSStr {
	return IOSStr{pool: i.pool, h: i.h.Clone()}
}

// IntoMut converts i into a Shared OSStr, handing over its reference.
func (i IOSStr) IntoMut() OSStr {
	return OSStrFromIOSStr(i)
}

// Release gives back the reference and zeroes i.
func (i *IOSStr) Release() {
	if i.h.IsZero() {
		return
	}
	i.h.Release()
	*i = IOSStr{}
}
