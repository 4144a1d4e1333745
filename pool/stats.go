package pool

import (
	"fmt"
	"strings"
)

// Stats is a point-in-time view of a pool's counters.
type Stats struct {
	Name            string
	Live            int
	Hits            uint64
	Misses          uint64
	Reconciliations uint64
	Retries         uint64
	Sweeps          uint64
	Collected       uint64
}

// Stats returns the current counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Name:            p.name,
		Live:            p.Len(),
		Hits:            p.hits.Load(),
		Misses:          p.misses.Load(),
		Reconciliations: p.reconciliations.Load(),
		Retries:         p.retries.Load(),
		Sweeps:          p.sweeps.Load(),
		Collected:       p.collected.Load(),
	}
}

// Lookups returns the number of intern calls served.
func (s Stats) Lookups() uint64 {
	return s.Hits + s.Misses
}

// HitRate is the percentage of intern calls answered by an existing entry.
func (s Stats) HitRate() float64 {
	total := s.Lookups()
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

func (s Stats) String() string {
	parts := []string{
		fmt.Sprintf("pool=%s", s.Name),
		fmt.Sprintf("live=%d", s.Live),
		fmt.Sprintf("hits=%d", s.Hits),
		fmt.Sprintf("misses=%d", s.Misses),
		fmt.Sprintf("hit_rate=%.1f%%", s.HitRate()),
		fmt.Sprintf("sweeps=%d", s.Sweeps),
		fmt.Sprintf("collected=%d", s.Collected),
	}
	if s.Reconciliations > 0 {
		parts = append(parts, fmt.Sprintf("reconciled=%d", s.Reconciliations))
	}
	return strings.Join(parts, " ")
}
