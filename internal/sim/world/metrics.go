package world

import (
	"sync"
	"sync/atomic"
)

// WorldStats counts navigation outcomes for the /metrics endpoint. It is
// written by the world loop and read by HTTP handlers, hence the lock; it
// is never part of digests or snapshots.
type WorldStats struct {
	mu sync.Mutex

	events map[string]uint64

	agents  atomic.Int64
	clients atomic.Int64
	stepUS  atomic.Int64
}

func (s *WorldStats) CountEvent(kind string) {
	s.mu.Lock()
	if s.events == nil {
		s.events = map[string]uint64{}
	}
	s.events[kind]++
	s.mu.Unlock()
}

// EventCounts returns a copy of the per-kind event counters.
func (s *WorldStats) EventCounts() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]uint64, len(s.events))
	for k, v := range s.events {
		out[k] = v
	}
	return out
}

// Gauges updated once per tick by the world loop.
func (s *WorldStats) Agents() int64     { return s.agents.Load() }
func (s *WorldStats) Clients() int64    { return s.clients.Load() }
func (s *WorldStats) StepMicros() int64 { return s.stepUS.Load() }

func (s *WorldStats) setGauges(agents, clients int) {
	s.agents.Store(int64(agents))
	s.clients.Store(int64(clients))
}
func (s *WorldStats) setStepMicros(us int64) { s.stepUS.Store(us) }

// Stats exposes the world's counters to HTTP handlers.
func (w *World) Stats() *WorldStats { return &w.stats }

// AgentCount must only be called while the world loop is not running.
func (w *World) AgentCount() int { return len(w.agents) }
