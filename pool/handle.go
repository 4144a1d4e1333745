package pool

import (
	"github.com/RowanDark/internpool/cell"
)

// Handle is a reference to an interned entry. Handles obtained from the same
// Pool for equal content share one allocation, so Equal is a pointer
// comparison.
//
// Every Handle returned by a Pool owns one reference and must be released
// once. The zero Handle owns nothing.
type Handle struct {
	c cell.Cell
}

// IsZero reports whether h owns no reference.
func (h Handle) IsZero() bool {
	return h.c.IsZero()
}

// Cell returns the underlying cell without taking a reference.
func (h Handle) Cell() cell.Cell {
	return h.c
}

// Bytes returns the interned contents. The slice must not be modified.
func (h Handle) Bytes() []byte {
	return h.c.Bytes()
}

// String returns the interned contents without copying.
func (h Handle) String() string {
	return h.c.String()
}

func (h Handle) Len() int {
	return h.c.Len()
}

// Equal reports whether h and o are the same interned entry.
func (h Handle) Equal(o Handle) bool {
	return h.c.Same(o.c)
}

// Compare orders handles by content.
func (h Handle) Compare(o Handle) int {
	return cell.Compare(h.c, o.c)
}

// Hash returns the content digest.
func (h Handle) Hash() uint64 {
	return h.c.Hash()
}

func (h Handle) StrongCount() int64 {
	return h.c.StrongCount()
}

// Clone takes another reference to the same entry.
func (h Handle) Clone() Handle {
	return Handle{c: h.c.Clone()}
}

// Release gives back the reference and zeroes h.
func (h *Handle) Release() {
	h.c.Release()
}
