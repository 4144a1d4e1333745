// Package pool implements a concurrent interning registry.
//
// A Pool maps content to one canonical cell.Cell and holds one strong
// reference to every entry it keeps. Entries are never dropped implicitly:
// CollectGarbage removes the entries whose only remaining holder is the pool
// itself. Callers decide when to sweep, typically from an idle hook or a
// sweep.Scheduler.
//
// Interning bytes that are already present is lock-free: a sync.Map lookup
// followed by a conditional increment of the entry's count. A miss allocates
// a new cell and publishes it with LoadOrStore while two references exist, so
// a freshly published entry never looks collectable. When two goroutines race
// to publish equal content, the loser discards its cell and adopts the
// winner's under the read side of the gc lock; sweeps take the write side,
// so the winner cannot be collected between the failed insert and the
// lookup that follows it.
package pool

import (
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/RowanDark/internpool/cell"
	"github.com/RowanDark/internpool/internal/bufpool"
	"github.com/RowanDark/internpool/logging"
)

// Pool is a concurrent set of canonical cells keyed by content.
// A Pool must not be copied after first use.
type Pool struct {
	name    string
	logger  *logging.Logger
	entries sync.Map // string -> cell.Cell
	gcLock  sync.RWMutex

	live            atomic.Int64
	hits            atomic.Uint64
	misses          atomic.Uint64
	reconciliations atomic.Uint64
	retries         atomic.Uint64
	sweeps          atomic.Uint64
	collected       atomic.Uint64
}

// Option configures a Pool.
type Option func(*Pool)

// WithName labels the pool in logs and statistics.
func WithName(name string) Option {
	return func(p *Pool) { p.name = name }
}

// WithLogger enables debug logging of sweeps.
func WithLogger(logger *logging.Logger) Option {
	return func(p *Pool) { p.logger = logger }
}

// New returns an empty pool.
func New(opts ...Option) *Pool {
	p := &Pool{}
	for _, opt := range opts {
		opt(p)
	}
	if p.name == "" {
		p.name = "pool"
	}
	if p.logger != nil {
		p.logger = p.logger.With(p.name)
	}
	return p
}

// Name returns the label given with WithName.
func (p *Pool) Name() string {
	return p.name
}

// Intern returns the canonical handle for a copy of b.
func (p *Pool) Intern(b []byte) Handle {
	if h, ok := p.lookup(bytesKey(b)); ok {
		return h
	}
	buf := bufpool.Get(len(b))
	buf = append(buf, b...)
	return p.insert(cell.New(buf), true)
}

// InternString returns the canonical handle for s.
func (p *Pool) InternString(s string) Handle {
	if h, ok := p.lookup(s); ok {
		return h
	}
	buf := bufpool.Get(len(s))
	buf = append(buf, s...)
	return p.insert(cell.New(buf), true)
}

// InternOwned is Intern for a buffer the caller hands over. On a miss b
// itself becomes the canonical contents; on a hit it is dropped. The caller
// must not use b afterwards.
func (p *Pool) InternOwned(b []byte) Handle {
	if h, ok := p.lookup(bytesKey(b)); ok {
		return h
	}
	return p.insert(cell.New(b), false)
}

// InternCell adopts the caller's reference to c. If equal content is already
// interned that reference is released and the existing entry returned.
func (p *Pool) InternCell(c cell.Cell) Handle {
	if h, ok := p.lookup(c.String()); ok {
		c.Release()
		return h
	}
	return p.insert(c, false)
}

// Lookup returns the canonical handle for b without inserting.
func (p *Pool) Lookup(b []byte) (Handle, bool) {
	return p.lookup(bytesKey(b))
}

// Contains reports whether s is currently interned.
func (p *Pool) Contains(s string) bool {
	_, ok := p.entries.Load(s)
	return ok
}

func (p *Pool) lookup(key string) (Handle, bool) {
	v, ok := p.entries.Load(key)
	if !ok {
		return Handle{}, false
	}
	// A zero count means a sweep claimed the entry and has not yet removed
	// it; treat it as a miss and let insert wait for the sweep.
	c, ok := v.(cell.Cell).TryClone()
	if !ok {
		return Handle{}, false
	}
	p.hits.Add(1)
	return Handle{c: c}, true
}

// insert publishes c, which the caller owns exclusively.
func (p *Pool) insert(c cell.Cell, recyclable bool) Handle {
	key := c.String()
	published := c.Clone()
	if _, loaded := p.entries.LoadOrStore(key, published); !loaded {
		p.live.Add(1)
		p.misses.Add(1)
		return Handle{c: c}
	}
	published.Release()
	return p.reconcile(key, c, recyclable)
}

// reconcile runs after losing a publication race. Holding the read side of
// the gc lock keeps sweeps out, so an entry found here stays alive long
// enough to be cloned.
func (p *Pool) reconcile(key string, c cell.Cell, recyclable bool) Handle {
	p.gcLock.RLock()
	defer p.gcLock.RUnlock()
	p.reconciliations.Add(1)

	for {
		if v, ok := p.entries.Load(key); ok {
			if winner, ok := v.(cell.Cell).TryClone(); ok {
				p.hits.Add(1)
				discard(c, recyclable)
				return Handle{c: winner}
			}
		}

		// The winner was collected before we got the lock.
		p.retries.Add(1)
		published := c.Clone()
		if _, loaded := p.entries.LoadOrStore(key, published); !loaded {
			p.live.Add(1)
			p.misses.Add(1)
			return Handle{c: c}
		}
		published.Release()
	}
}

func discard(c cell.Cell, recyclable bool) {
	if !recyclable {
		c.Release()
		return
	}
	buf := c.Bytes()
	if c.ReleaseIfUnique() {
		bufpool.Put(buf)
		return
	}
	c.Release()
}

// CollectGarbage removes every entry the pool alone still references and
// returns how many were removed. It is safe to call concurrently with
// interning; handles already returned to callers are never invalidated.
func (p *Pool) CollectGarbage() int {
	start := time.Now()
	p.gcLock.Lock()
	defer p.gcLock.Unlock()

	removed, scanned := 0, 0
	p.entries.Range(func(key, value any) bool {
		scanned++
		c := value.(cell.Cell)
		if c.ReleaseIfUnique() {
			p.entries.CompareAndDelete(key, value)
			removed++
		}
		return true
	})

	p.live.Add(int64(-removed))
	p.sweeps.Add(1)
	p.collected.Add(uint64(removed))
	if p.logger.Enabled(logging.LevelDebug) {
		p.logger.Debugf("sweep removed %d of %d entries in %s", removed, scanned, time.Since(start))
	}
	return removed
}

// Len returns the number of entries currently held.
func (p *Pool) Len() int {
	return int(p.live.Load())
}

// Range calls fn for every live entry until fn returns false. The handle
// passed to fn is borrowed; Clone it to keep it past the call. Entries are
// snapshotted under the gc lock and fn runs after it is released, so fn may
// intern into p or collect it.
func (p *Pool) Range(fn func(Handle) bool) {
	var snapshot []cell.Cell
	p.gcLock.RLock()
	p.entries.Range(func(_, value any) bool {
		if c, ok := value.(cell.Cell).TryClone(); ok {
			snapshot = append(snapshot, c)
		}
		return true
	})
	p.gcLock.RUnlock()

	defer func() {
		for i := range snapshot {
			snapshot[i].Release()
		}
	}()
	for _, c := range snapshot {
		if !fn(Handle{c: c}) {
			return
		}
	}
}

func bytesKey(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}
