package mow

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"
	"unsafe"

	"github.com/RowanDark/internpool/internal/intern"
	"github.com/RowanDark/internpool/pool"
)

// ErrInvalidUTF8 is returned by the io.Writer methods of Str when the input
// is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("mow: invalid UTF-8")

// Str is a mutable-on-write UTF-8 string.
type Str struct {
	value
}

func strPool(p *pool.Pool) *pool.Pool {
	if p == nil {
		return intern.Str()
	}
	return p
}

// NewStr interns s in p and returns a Shared value. A nil p selects the
// process-wide text registry.
func NewStr(p *pool.Pool, s string) Str {
	p = strPool(p)
	return Str{sharedValue(p, p.InternString(s))}
}

// NewStrBytes is NewStr for a byte slice, which is copied. It panics if b is
// not valid UTF-8.
func NewStrBytes(p *pool.Pool, b []byte) Str {
	mustUTF8(b)
	p = strPool(p)
	return Str{sharedValue(p, p.Intern(b))}
}

// NewMutStr returns an Exclusive value holding a copy of s. The pool is not
// touched until Intern is called.
func NewMutStr(p *pool.Pool, s string) Str {
	return Str{exclusiveValue(strPool(p), []byte(s))}
}

// StrFromBytesMut returns an Exclusive value that takes ownership of b.
// It panics if b is not valid UTF-8.
func StrFromBytesMut(p *pool.Pool, b []byte) Str {
	mustUTF8(b)
	return Str{exclusiveValue(strPool(p), b)}
}

// MutEmptyStr returns an empty Exclusive value.
func MutEmptyStr(p *pool.Pool) Str {
	return Str{exclusiveValue(strPool(p), []byte{})}
}

// MutStrWithCapacity returns an empty Exclusive value with room for n bytes.
func MutStrWithCapacity(p *pool.Pool, n int) Str {
	return Str{exclusiveValue(strPool(p), make([]byte, 0, n))}
}

// StrFromIStr returns a Shared value that takes over i's reference.
func StrFromIStr(i IStr) Str {
	return Str{sharedValue(i.pool, i.h)}
}

// Intern makes the value Shared. It does nothing when already Shared.
func (s *Str) Intern() {
	s.internIn(strPool(s.pool))
}

// Interned interns s and moves it into the returned value, leaving s empty
// and Exclusive.
func (s *Str) Interned() Str {
	s.Intern()
	return Str{s.moveOut()}
}

// Muterned makes s Exclusive and moves it into the returned value, leaving
// s empty.
func (s *Str) Muterned() Str {
	s.ToMut()
	return Str{s.moveOut()}
}

// ToMutBy makes a Shared value Exclusive with the contents returned by fn,
// which receives the current entry. The IStr passed to fn is borrowed and
// must not be released. It does nothing when already Exclusive.
func (s *Str) ToMutBy(fn func(IStr) string) {
	if s.state != stateShared {
		return
	}
	next := fn(IStr{pool: s.pool, h: s.shared})
	s.swap([]byte(next), false)
}

// SwapMut replaces the contents with next and leaves the value Exclusive.
// The previous private buffer is returned when there was one.
func (s *Str) SwapMut(next string) (string, bool) {
	old, ok := s.swap([]byte(next), false)
	if !ok {
		return "", false
	}
	return string(old), true
}

// TrySwapMut is SwapMut that leaves a Shared value untouched.
func (s *Str) TrySwapMut(next string) (string, bool) {
	old, ok := s.swap([]byte(next), true)
	if !ok {
		return "", false
	}
	return string(old), true
}

// TryIStr returns a new reference to the backing entry when Shared.
func (s *Str) TryIStr() (IStr, bool) {
	h, ok := s.tryHandle()
	if !ok {
		return IStr{}, false
	}
	return IStr{pool: s.pool, h: h}, true
}

// String returns the contents. Shared values are returned without copying;
// Exclusive ones are copied since their buffer may still change.
func (s *Str) String() string {
	if s.state == stateShared {
		return s.shared.String()
	}
	return string(s.buf)
}

// IntoString moves the contents out as a string and empties s.
func (s *Str) IntoString() string {
	b := s.takeBytes()
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// IntoBytes moves the contents out and empties s.
func (s *Str) IntoBytes() []byte {
	return s.takeBytes()
}

// IntoIStr interns the contents and moves them out as an IStr.
func (s *Str) IntoIStr() IStr {
	p := strPool(s.pool)
	return IStr{pool: p, h: s.takeHandle(p)}
}

// Clone returns an independent value. Exclusive values clone into a Shared
// copy.
func (s *Str) Clone() Str {
	return Str{s.cloneIn(strPool(s.pool))}
}

// Equal reports whether s and o hold the same text.
func (s *Str) Equal(o *Str) bool {
	return s.equal(&o.value)
}

// EqualString reports whether s holds x.
func (s *Str) EqualString(x string) bool {
	return string(s.Bytes()) == x
}

// Compare orders values by content.
func (s *Str) Compare(o *Str) int {
	return s.compare(&o.value)
}

// PushStr appends x.
func (s *Str) PushStr(x string) {
	b := s.mutable()
	*b = append(*b, x...)
}

// Push appends r.
func (s *Str) Push(r rune) {
	b := s.mutable()
	*b = utf8.AppendRune(*b, r)
}

// Reserve ensures room for at least additional more bytes.
func (s *Str) Reserve(additional int) {
	s.reserve(additional)
}

// ShrinkToFit drops spare capacity.
func (s *Str) ShrinkToFit() {
	s.shrinkToFit()
}

// Truncate shortens the value to n bytes, making it Exclusive even when n
// is not below the current length, and panics if n is not on a rune boundary.
func (s *Str) Truncate(n int) {
	if n < s.Len() {
		mustBoundary(s.Bytes(), n, "truncate")
	}
	b := s.mutable()
	if n >= len(*b) {
		return
	}
	*b = (*b)[:n]
}

// Pop removes and returns the last rune.
func (s *Str) Pop() (rune, bool) {
	b := s.mutable()
	if len(*b) == 0 {
		return 0, false
	}
	r, size := utf8.DecodeLastRune(*b)
	*b = (*b)[:len(*b)-size]
	return r, true
}

// Remove deletes and returns the rune at byte offset idx.
func (s *Str) Remove(idx int) rune {
	if cur := s.Bytes(); idx < 0 || idx >= len(cur) {
		panic(fmt.Sprintf("mow: remove index %d out of range for length %d", idx, len(cur)))
	} else {
		mustBoundary(cur, idx, "remove")
	}
	b := s.mutable()
	r, size := utf8.DecodeRune((*b)[idx:])
	*b = slices.Delete(*b, idx, idx+size)
	return r
}

// Retain keeps only the runes for which keep returns true.
func (s *Str) Retain(keep func(rune) bool) {
	b := s.mutable()
	src := *b
	out := src[:0]
	for i := 0; i < len(src); {
		r, size := utf8.DecodeRune(src[i:])
		if keep(r) {
			out = append(out, src[i:i+size]...)
		}
		i += size
	}
	*b = out
}

// Insert inserts r at byte offset idx.
func (s *Str) Insert(idx int, r rune) {
	var enc [utf8.UTFMax]byte
	n := utf8.EncodeRune(enc[:], r)
	s.insertBytes(idx, enc[:n], "insert")
}

// InsertStr inserts x at byte offset idx.
func (s *Str) InsertStr(idx int, x string) {
	s.insertBytes(idx, []byte(x), "insert")
}

func (s *Str) insertBytes(idx int, x []byte, op string) {
	if cur := s.Bytes(); idx < 0 || idx > len(cur) {
		panic(fmt.Sprintf("mow: %s index %d out of range for length %d", op, idx, len(cur)))
	} else {
		mustBoundary(cur, idx, op)
	}
	b := s.mutable()
	*b = slices.Insert(*b, idx, x...)
}

// SplitOff splits at byte offset at: s keeps [0, at) and the returned
// Exclusive value holds [at, len).
func (s *Str) SplitOff(at int) Str {
	mustRange(s.Bytes(), at, s.Len(), "split")
	b := s.mutable()
	tail := bytes.Clone((*b)[at:])
	*b = (*b)[:at]
	return Str{exclusiveValue(s.pool, tail)}
}

// Clear empties the value, keeping its capacity.
func (s *Str) Clear() {
	s.clear()
}

// Drain removes the byte range [start, end) and returns it.
func (s *Str) Drain(start, end int) string {
	mustRange(s.Bytes(), start, end, "drain")
	b := s.mutable()
	removed := string((*b)[start:end])
	*b = slices.Delete(*b, start, end)
	return removed
}

// ReplaceRange replaces the byte range [start, end) with x.
func (s *Str) ReplaceRange(start, end int, x string) {
	mustRange(s.Bytes(), start, end, "replace")
	b := s.mutable()
	*b = slices.Replace(*b, start, end, []byte(x)...)
}

// Write appends p, which must be valid UTF-8.
func (s *Str) Write(p []byte) (int, error) {
	if !utf8.Valid(p) {
		return 0, ErrInvalidUTF8
	}
	b := s.mutable()
	*b = append(*b, p...)
	return len(p), nil
}

// WriteString appends x.
func (s *Str) WriteString(x string) (int, error) {
	s.PushStr(x)
	return len(x), nil
}

// WriteRune appends r.
func (s *Str) WriteRune(r rune) (int, error) {
	s.Push(r)
	return utf8.RuneLen(r), nil
}

func mustUTF8(b []byte) {
	if !utf8.Valid(b) {
		panic("mow: invalid UTF-8")
	}
}

func isBoundary(b []byte, i int) bool {
	if i == 0 || i == len(b) {
		return true
	}
	return i > 0 && i < len(b) && utf8.RuneStart(b[i])
}

func mustBoundary(b []byte, i int, op string) {
	if !isBoundary(b, i) {
		panic(fmt.Sprintf("mow: %s offset %d is not on a rune boundary", op, i))
	}
}

func mustRange(b []byte, start, end int, op string) {
	if start < 0 || end > len(b) || start > end {
		panic(fmt.Sprintf("mow: %s range [%d, %d) out of bounds for length %d", op, start, end, len(b)))
	}
	mustBoundary(b, start, op)
	mustBoundary(b, end, op)
}
