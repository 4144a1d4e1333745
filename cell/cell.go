// Package cell implements the reference-counted immutable buffer that pools
// hand out as canonical content.
//
// A Cell is a small handle made of two pointers: a control block holding the
// strong count and an optional cached digest, and a separately allocated
// buffer holding the bytes. Copying a Cell value does not take a reference;
// only Clone and TryClone do, and every reference must be given back with
// Release exactly once.
//
// Memory ordering: Go's sync/atomic operations are sequentially consistent,
// which is strictly stronger than the relaxed increment / release decrement /
// acquire fence protocol of a classic atomically reference-counted pointer.
// The last Release therefore observes every write made by earlier holders.
package cell

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sync/atomic"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// MaxRefCount is the largest strong count a Cell may reach. Cloning past it
// aborts the process.
const MaxRefCount = math.MaxInt64 / 2

type control struct {
	strong    atomic.Int64
	digest    uint64
	hasDigest bool
}

type buffer struct {
	data []byte
}

// Cell is a shared-ownership handle over one immutable buffer.
//
// The zero Cell holds no reference. Cells compare with == by identity, which
// makes them usable as sync.Map values.
type Cell struct {
	ctl *control
	buf *buffer
}

// abort terminates the process. Tests swap it out to observe overflow.
var abort = func(msg string) {
	fmt.Fprintf(os.Stderr, "cell: fatal: %s\n", msg)
	os.Exit(134)
}

// Digest returns the content digest used by cells and pools.
func Digest(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// New allocates a Cell that takes ownership of b with a strong count of one.
// The caller must not modify b afterwards.
func New(b []byte) Cell {
	return newWithDigest(b, Digest(b))
}

// FromString allocates a Cell holding a copy of s.
func FromString(s string) Cell {
	return New([]byte(s))
}

// newWithDigest is New with a digest the caller already computed from b.
func newWithDigest(b []byte, digest uint64) Cell {
	c := alloc(b)
	c.ctl.digest = digest
	c.ctl.hasDigest = true
	return c
}

// NewNoDigest allocates a Cell without a cached digest.
func NewNoDigest(b []byte) Cell {
	return alloc(b)
}

func alloc(b []byte) Cell {
	if b == nil {
		b = []byte{}
	}
	ctl := &control{}
	ctl.strong.Store(1)
	return Cell{ctl: ctl, buf: &buffer{data: b}}
}

// IsZero reports whether c holds no reference.
func (c Cell) IsZero() bool {
	return c.ctl == nil
}

// Clone takes another strong reference. c must be a live reference owned by
// the caller; no further synchronisation is needed because the caller already
// observes a valid handle.
func (c Cell) Clone() Cell {
	c.mustHold("clone")
	n := c.ctl.strong.Add(1)
	if n == 1 {
		panic("cell: clone of released cell")
	}
	if n-1 > MaxRefCount {
		abort("reference count overflow")
	}
	return c
}

// TryClone takes another strong reference unless the count already reached
// zero. It is the only safe way to clone a Cell the caller does not itself
// hold a reference to, such as one read out of a shared index.
func (c Cell) TryClone() (Cell, bool) {
	if c.ctl == nil {
		return Cell{}, false
	}
	for {
		n := c.ctl.strong.Load()
		if n == 0 {
			return Cell{}, false
		}
		if n > MaxRefCount {
			abort("reference count overflow")
		}
		if c.ctl.strong.CompareAndSwap(n, n+1) {
			return c, true
		}
	}
}

// Release gives back the reference held by c and zeroes c. When the last
// reference is released the buffer is dropped.
func (c *Cell) Release() {
	c.mustHold("release")
	ctl, buf := c.ctl, c.buf
	*c = Cell{}

	n := ctl.strong.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic("cell: reference count underflow")
	}
	buf.data = nil
}

// ReleaseIfUnique releases c only when it is the sole remaining reference,
// moving the count from one straight to zero. It reports whether the cell
// was freed; on false c is left untouched.
func (c *Cell) ReleaseIfUnique() bool {
	c.mustHold("release")
	if !c.ctl.strong.CompareAndSwap(1, 0) {
		return false
	}
	buf := c.buf
	*c = Cell{}
	buf.data = nil
	return true
}

// StrongCount returns the current number of strong references.
func (c Cell) StrongCount() int64 {
	if c.ctl == nil {
		return 0
	}
	return c.ctl.strong.Load()
}

// Digest returns the cached digest, if any.
func (c Cell) Digest() (uint64, bool) {
	c.mustHold("digest")
	return c.ctl.digest, c.ctl.hasDigest
}

// Hash returns the cached digest, computing it when the cell has none.
func (c Cell) Hash() uint64 {
	if d, ok := c.Digest(); ok {
		return d
	}
	return Digest(c.Bytes())
}

// Bytes returns the cell contents. The slice must not be modified.
func (c Cell) Bytes() []byte {
	c.mustHold("read")
	data := c.buf.data
	if data == nil {
		panic("cell: use of released cell")
	}
	return data
}

// String returns the contents as a string without copying.
func (c Cell) String() string {
	b := c.Bytes()
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// Len returns the content length in bytes.
func (c Cell) Len() int {
	return len(c.Bytes())
}

// Same reports whether c and o share one allocation.
func (c Cell) Same(o Cell) bool {
	return c.ctl == o.ctl
}

// Equal reports whether a and b hold the same bytes. Digests only ever reject;
// a digest match is always confirmed against the full contents.
func Equal(a, b Cell) bool {
	if a.Same(b) {
		return true
	}
	ab, bb := a.Bytes(), b.Bytes()
	if a.ctl.hasDigest && b.ctl.hasDigest && a.ctl.digest != b.ctl.digest {
		return false
	}
	return bytes.Equal(ab, bb)
}

// Compare orders cells by content.
func Compare(a, b Cell) int {
	if a.Same(b) {
		return 0
	}
	return bytes.Compare(a.Bytes(), b.Bytes())
}

func (c Cell) mustHold(op string) {
	if c.ctl == nil {
		panic("cell: " + op + " of zero handle")
	}
}
