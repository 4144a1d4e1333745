// Package intern owns the process-wide registries: one for UTF-8 text and
// one for OS strings. Both are created on first use and live until the
// process exits; nothing sweeps them unless CollectGarbage is called.
package intern

import (
	"sync"

	"github.com/RowanDark/internpool/pool"
)

var (
	strPool   = sync.OnceValue(func() *pool.Pool { return pool.New(pool.WithName("str")) })
	osStrPool = sync.OnceValue(func() *pool.Pool { return pool.New(pool.WithName("os_str")) })
)

// Str returns the process-wide text registry.
func Str() *pool.Pool {
	return strPool()
}

// OSStr returns the process-wide OS string registry.
func OSStr() *pool.Pool {
	return osStrPool()
}

// Pools returns both registries.
func Pools() []*pool.Pool {
	return []*pool.Pool{Str(), OSStr()}
}

// CollectGarbage sweeps both registries and returns the number of entries
// removed.
func CollectGarbage() int {
	removed := 0
	for _, p := range Pools() {
		removed += p.CollectGarbage()
	}
	return removed
}

// String returns a canonical copy of s from the text registry. The entry is
// not pinned: the returned string stays valid, but once a sweep removes the
// entry later calls may return a different copy.
func String(s string) string {
	if s == "" {
		return ""
	}
	h := Str().InternString(s)
	defer h.Release()
	return h.String()
}
