// Package bufpool recycles byte buffers by size class.
package bufpool

import "sync"

// Buffers are bucketed by capacity: 64B, 256B, 1KiB, 4KiB, 16KiB, 64KiB.
// Larger buffers are left to the garbage collector.
const (
	minShift   = 6
	classShift = 2
	numClasses = 6
	maxPooled  = 1 << (minShift + classShift*(numClasses-1))
)

var classes [numClasses]sync.Pool

func classFor(n int) int {
	size := 1 << minShift
	for i := 0; i < numClasses; i++ {
		if n <= size {
			return i
		}
		size <<= classShift
	}
	return -1
}

func classSize(i int) int {
	return 1 << (minShift + classShift*i)
}

// Get returns an empty buffer with capacity of at least n.
//
//go:inline
func Get(n int) []byte {
	class := classFor(n)
	if class < 0 {
		return make([]byte, 0, n)
	}
	if v := classes[class].Get(); v != nil {
		buf := v.(*[]byte)
		return (*buf)[:0]
	}
	return make([]byte, 0, classSize(class))
}

// Put hands buf back for reuse. The caller must not touch buf afterwards.
func Put(buf []byte) {
	c := cap(buf)
	if c < 1<<minShift || c > maxPooled {
		return
	}
	// File under the largest class the capacity fully covers.
	class := classFor(c)
	if classSize(class) > c {
		class--
	}
	if class < 0 {
		return
	}
	reset(buf[:c])
	buf = buf[:0]
	classes[class].Put(&buf)
}
