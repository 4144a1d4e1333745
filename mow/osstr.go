package mow

import (
	"github.com/RowanDark/internpool/internal/intern"
	"github.com/RowanDark/internpool/pool"
)

// OSStr is a mutable-on-write byte string with no encoding requirement,
// suitable for file names, environment values and other platform strings.
type OSStr struct {
	value
}

func osStrPool(p *pool.Pool) *pool.Pool {
	if p == nil {
		return intern.OSStr()
	}
	return p
}

// NewOSStr interns a copy of b in p and returns a Shared value. A nil p
// selects the process-wide OS string registry.
func NewOSStr(p *pool.Pool, b []byte) OSStr {
	p = osStrPool(p)
	return OSStr{sharedValue(p, p.Intern(b))}
}

// NewOSStrString is NewOSStr for a string.
func NewOSStrString(p *pool.Pool, s string) OSStr {
	p = osStrPool(p)
	return OSStr{sharedValue(p, p.InternString(s))}
}

// NewMutOSStr returns an Exclusive value that takes ownership of b.
func NewMutOSStr(p *pool.Pool, b []byte) OSStr {
	if b == nil {
		b = []byte{}
	}
	return OSStr{exclusiveValue(osStrPool(p), b)}
}

func MutEmptyOSStr(p *pool.Pool) OSStr {
	return OSStr{exclusiveValue(osStrPool(p), []byte{})}
}

// MutOSStrWithCapacity returns an empty Exclusive value with room for n bytes.
func MutOSStrWithCapacity(p *pool.Pool, n int) OSStr {
	return OSStr{exclusiveValue(osStrPool(p), make([]byte, 0, n))}
}

// OSStrFromIOSStr returns a Shared value that takes over i's reference.
func OSStrFromIOSStr(i IOSStr) OSStr {
	return OSStr{sharedValue(i.pool, i.h)}
}

// Intern makes the value Shared. It does nothing when already Shared.
func (s *OSStr) Intern() {
	s.internIn(osStrPool(s.pool))
}

// Interned interns s and moves it into the returned value, leaving s empty
// and Exclusive.
func (s *OSStr) Interned() OSStr {
	s.Intern()
	return OSStr{s.moveOut()}
}

// Muterned makes s Exclusive and moves it into the returned value, leaving
// s empty.
func (s *OSStr) Muterned() OSStr {
	s.ToMut()
	return OSStr{s.moveOut()}
}

// ToMutBy makes a Shared value Exclusive with the buffer returned by fn,
// which receives a borrowed IOSStr. It does nothing when already Exclusive.
func (s *OSStr) ToMutBy(fn func(IOSStr) []byte) {
	if s.state != stateShared {
		return
	}
	next := fn(IOSStr{pool: s.pool, h: s.shared})
	if next == nil {
		next = []byte{}
	}
	s.swap(next, false)
}

// SwapMut replaces the contents with next, which the value takes ownership
// of, and leaves the value Exclusive. The previous private buffer is
// returned when there was one.
func (s *OSStr) SwapMut(next []byte) ([]byte, bool) {
	if next == nil {
		next = []byte{}
	}
	return s.swap(next, false)
}

// TrySwapMut is SwapMut that leaves a Shared value untouched.
func (s *OSStr) TrySwapMut(next []byte) ([]byte, bool) {
	if next == nil {
		next = []byte{}
	}
	return s.swap(next, true)
}

// TryIOSStr returns a new reference to the backing entry when Shared.
func (s *OSStr) TryIOSStr() (IOSStr, bool) {
	h, ok := s.tryHandle()
	if !ok {
		return IOSStr{}, false
	}
	return IOSStr{pool: s.pool, h: h}, true
}

// String returns the contents as a string, copying Exclusive buffers.
func (s *OSStr) String() string {
	if s.state == stateShared {
		return s.shared.String()
	}
	return string(s.buf)
}

// IntoBytes moves the contents out and empties s.
func (s *OSStr) IntoBytes() []byte {
	return s.takeBytes()
}

// IntoIOSStr interns the contents and moves them out as an IOSStr.
func (s *OSStr) IntoIOSStr() IOSStr {
	p := osStrPool(s.pool)
	return IOSStr{pool: p, h: s.takeHandle(p)}
}

// Clone returns an independent value. Exclusive values clone into a Shared
// copy.
func (s *OSStr) Clone() OSStr {
	return OSStr{s.cloneIn(osStrPool(s.pool))}
}

func (s *OSStr) Equal(o *OSStr) bool {
	return s.equal(&o.value)
}

// EqualBytes reports whether s holds b.
func (s *OSStr) EqualBytes(b []byte) bool {
	return string(s.Bytes()) == string(b)
}

func (s *OSStr) Compare(o *OSStr) int {
	return s.compare(&o.value)
}

// Push appends b.
func (s *OSStr) Push(b []byte) {
	buf := s.mutable()
	*buf = append(*buf, b...)
}

// PushString appends x.
func (s *OSStr) PushString(x string) {
	buf := s.mutable()
	*buf = append(*buf, x...)
}

func (s *OSStr) Clear() {
	s.clear()
}

func (s *OSStr) Reserve(additional int) {
	s.reserve(additional)
}

func (s *OSStr) ShrinkToFit() {
	s.shrinkToFit()
}

// Truncate shortens the value to n bytes, making it Exclusive even when n
// is not below the current length, and panics when n is negative.
func (s *OSStr) Truncate(n int) {
	if n < 0 {
		panic("mow: truncate to negative length")
	}
	buf := s.mutable()
	if n >= len(*buf) {
		return
	}
	*buf = (*buf)[:n]
}

// Mutdown makes the value Exclusive and returns its buffer for in-place
// editing. The pointer is valid until the next call on s.
func (s *OSStr) Mutdown() *[]byte {
	return s.mutable()
}

// Write appends p.
func (s *OSStr) Write(p []byte) (int, error) {
	s.Push(p)
	return len(p), nil
}
