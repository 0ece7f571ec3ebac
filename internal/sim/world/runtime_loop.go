package world

import (
	"context"
	"time"
)

// Run drives the world at the configured tick rate until the context is
// canceled or Stop is called. Joins, leaves, and actions received between
// ticks queue up and apply at the next tick boundary, in arrival order.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.Tuning.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingActions []ActionEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case req := <-w.attach:
			w.handleAttach(req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case q := <-w.query:
			evs, next := w.eventsSince(q.SinceCursor, q.Limit)
			if q.Resp != nil {
				q.Resp <- EventQueryResult{Events: evs, NextCursor: next}
			}
		case req := <-w.obsJoin:
			w.handleObserverJoin(req)
		case sid := <-w.obsLeave:
			w.handleObserverLeave(sid)
		case env := <-w.inbox:
			pendingActions = append(pendingActions, env)
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingActions)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingActions = pendingActions[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// sendLatest delivers b without blocking the world loop: if the client's
// queue is full the oldest frame is dropped so the freshest observation
// wins.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
