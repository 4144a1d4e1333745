// Package mow provides mutable-on-write interned values.
//
// A Str or OSStr is either Shared, backed by a pool entry, or Exclusive,
// backed by a private buffer nobody else can see. Reading never changes the
// state. Every mutating method first makes the value Exclusive by copying
// the shared bytes out of the pool, and Intern hands the private buffer to
// the pool, which may answer with an entry some other goroutine created for
// the same content.
//
// Equality, ordering and hashing only look at content, so a Shared and an
// Exclusive value holding the same bytes are equal and hash alike.
//
// A value is single-owner: concurrent use of one Str from several
// goroutines must be serialised by the caller. Values built for different
// goroutines from the same pool are independent.
//
// The zero Str and zero OSStr are empty Exclusive values bound to the
// process-wide registries.
//
//	s := mow.NewStr(nil, "hello")
//	s.IsInterned() // true
//	s.PushStr(" world")
//	s.IsMutable() // true
//	s.Intern()
//	s.IsInterned() // true
package mow

import (
	"bytes"
	"slices"

	"github.com/RowanDark/internpool/cell"
	"github.com/RowanDark/internpool/pool"
)

type state uint8

const (
	stateExclusive state = iota
	stateShared
)

// value is the tagged core shared by Str and OSStr. Exactly one of shared
// and buf is meaningful, selected by state.
type value struct {
	pool   *pool.Pool
	state  state
	shared pool.Handle
	buf    []byte
}

func sharedValue(p *pool.Pool, h pool.Handle) value {
	return value{pool: p, state: stateShared, shared: h}
}

func exclusiveValue(p *pool.Pool, buf []byte) value {
	return value{pool: p, state: stateExclusive, buf: buf}
}

// IsInterned reports whether the value is Shared.
func (v *value) IsInterned() bool {
	return v.state == stateShared
}

// IsMutable reports whether the value is Exclusive.
func (v *value) IsMutable() bool {
	return v.state == stateExclusive
}

// Pool returns the registry the value interns into; nil means the
// process-wide default for the value's kind.
func (v *value) Pool() *pool.Pool {
	return v.pool
}

// Bytes returns the current contents in O(1) regardless of state. The slice
// must not be modified, and is only valid until the next mutation.
func (v *value) Bytes() []byte {
	switch v.state {
	case stateShared:
		return v.shared.Bytes()
	case stateExclusive:
		return v.buf
	}
	panic("mow: invalid state")
}

// Len returns the length in bytes.
func (v *value) Len() int {
	return len(v.Bytes())
}

func (v *value) IsEmpty() bool {
	return v.Len() == 0
}

// Hash returns a content hash that does not depend on the state.
func (v *value) Hash() uint64 {
	switch v.state {
	case stateShared:
		return v.shared.Hash()
	case stateExclusive:
		return cell.Digest(v.buf)
	}
	panic("mow: invalid state")
}

// ToMut makes the value Exclusive, copying the shared contents into a
// private buffer. It does nothing when the value is already Exclusive.
func (v *value) ToMut() {
	switch v.state {
	case stateExclusive:
		return
	case stateShared:
		src := v.shared.Bytes()
		buf := make([]byte, len(src), len(src)+len(src)/4)
		copy(buf, src)
		v.shared.Release()
		v.buf = buf
		v.state = stateExclusive
	}
}

// internIn makes the value Shared through p.
func (v *value) internIn(p *pool.Pool) {
	switch v.state {
	case stateShared:
		return
	case stateExclusive:
		buf := v.buf
		v.buf = nil
		v.shared = p.InternOwned(buf)
		v.pool = p
		v.state = stateShared
	}
}

// swap replaces the private buffer with next. A Shared value has no private
// buffer: strict leaves it untouched, otherwise it becomes Exclusive with
// next. The previous buffer is returned only when there was one.
func (v *value) swap(next []byte, strict bool) ([]byte, bool) {
	switch v.state {
	case stateExclusive:
		old := v.buf
		v.buf = next
		return old, true
	case stateShared:
		if strict {
			return nil, false
		}
		v.shared.Release()
		v.buf = next
		v.state = stateExclusive
		return nil, false
	}
	panic("mow: invalid state")
}

// tryHandle returns a new reference to the backing entry when Shared.
func (v *value) tryHandle() (pool.Handle, bool) {
	if v.state != stateShared {
		return pool.Handle{}, false
	}
	return v.shared.Clone(), true
}

// TryBuffer returns the private buffer when the value is Exclusive.
func (v *value) TryBuffer() ([]byte, bool) {
	if v.state != stateExclusive {
		return nil, false
	}
	return v.buf, true
}

// takeBytes moves the contents out, leaving the value empty and Exclusive.
func (v *value) takeBytes() []byte {
	var out []byte
	switch v.state {
	case stateShared:
		out = bytes.Clone(v.shared.Bytes())
		v.shared.Release()
	case stateExclusive:
		out = v.buf
	}
	if out == nil {
		out = []byte{}
	}
	*v = exclusiveValue(v.pool, nil)
	return out
}

// takeHandle moves the contents into p, leaving the value empty.
func (v *value) takeHandle(p *pool.Pool) pool.Handle {
	v.internIn(p)
	h := v.shared
	*v = exclusiveValue(v.pool, nil)
	return h
}

// moveOut returns the value and leaves v empty and Exclusive, so no two
// values ever share a private buffer or a handle reference.
func (v *value) moveOut() value {
	out := *v
	*v = exclusiveValue(v.pool, nil)
	return out
}

// Release drops the pool reference, if any, and leaves the value empty and
// Exclusive. Release is safe to call on any value, any number of times.
func (v *value) Release() {
	if v.state == stateShared {
		v.shared.Release()
	}
	*v = exclusiveValue(v.pool, nil)
}

// cloneIn copies the value. A Shared value clones its handle; an Exclusive
// one is interned into p, as the copy has no reason to stay private.
func (v *value) cloneIn(p *pool.Pool) value {
	switch v.state {
	case stateShared:
		return sharedValue(v.pool, v.shared.Clone())
	case stateExclusive:
		return sharedValue(p, p.Intern(v.buf))
	}
	panic("mow: invalid state")
}

func (v *value) equal(o *value) bool {
	if v.state == stateShared && o.state == stateShared && v.pool == o.pool {
		return v.shared.Equal(o.shared)
	}
	return bytes.Equal(v.Bytes(), o.Bytes())
}

func (v *value) compare(o *value) int {
	if v.state == stateShared && o.state == stateShared && v.shared.Equal(o.shared) {
		return 0
	}
	return bytes.Compare(v.Bytes(), o.Bytes())
}

// mutable returns the private buffer, switching state first if needed.
func (v *value) mutable() *[]byte {
	v.ToMut()
	return &v.buf
}

func (v *value) reserve(additional int) {
	b := v.mutable()
	*b = slices.Grow(*b, additional)
}

func (v *value) shrinkToFit() {
	b := v.mutable()
	if cap(*b) == len(*b) {
		return
	}
	*b = slices.Clip(bytes.Clone(*b))
}

func (v *value) clear() {
	b := v.mutable()
	*b = (*b)[:0]
}
