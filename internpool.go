// Package internpool deduplicates strings and byte strings across
// goroutines.
//
// Values are interned into a pool that hands out pointer-comparable
// handles, and the mow package wraps those handles in values that can be
// edited in place: the first mutation copies the shared bytes into a private
// buffer, and Intern hands the buffer back to the pool.
//
// The helpers in this package work on the two process-wide registries, one
// for text and one for OS strings. Nothing is ever removed from them until
// CollectGarbage runs, either called directly or from a sweep.Scheduler
// built with NewScheduler.
//
//	a := internpool.IStr("example.com")
//	b := internpool.IStr("example.com")
//	a.Equal(b) // true: same entry
//	a.Release()
//	b.Release()
//	internpool.CollectGarbage() // 1
package internpool

import (
	"github.com/RowanDark/internpool/internal/intern"
	"github.com/RowanDark/internpool/mow"
	"github.com/RowanDark/internpool/pool"
	"github.com/RowanDark/internpool/sweep"
)

// Str returns a Shared value for s from the text registry.
func Str(s string) mow.Str {
	return mow.NewStr(nil, s)
}

// MutStr returns an Exclusive value holding a copy of s.
func MutStr(s string) mow.Str {
	return mow.NewMutStr(nil, s)
}

// IStr interns s in the text registry.
func IStr(s string) mow.IStr {
	return mow.NewIStr(nil, s)
}

// OSStr returns a Shared value for b from the OS string registry.
func OSStr(b []byte) mow.OSStr {
	return mow.NewOSStr(nil, b)
}

// IOSStr interns b in the OS string registry.
func IOSStr(b []byte) mow.IOSStr {
	return mow.NewIOSStr(nil, b)
}

// Intern returns the canonical copy of s. The entry is not pinned.
func Intern(s string) string {
	return intern.String(s)
}

// Pools returns the text and OS string registries.
func Pools() []*pool.Pool {
	return intern.Pools()
}

// Stats returns the counters of both registries.
func Stats() []pool.Stats {
	pools := Pools()
	out := make([]pool.Stats, 0, len(pools))
	for _, p := range pools {
		out = append(out, p.Stats())
	}
	return out
}

// CollectGarbage sweeps both registries and returns how many entries were
// removed.
func CollectGarbage() int {
	return intern.CollectGarbage()
}

// NewScheduler returns a sweep.Scheduler over both registries. The caller
// starts and stops it.
func NewScheduler(opts sweep.Options) *sweep.Scheduler {
	pools := Pools()
	targets := make([]sweep.Collector, 0, len(pools))
	for _, p := range pools {
		targets = append(targets, p)
	}
	return sweep.New(opts, targets...)
}
