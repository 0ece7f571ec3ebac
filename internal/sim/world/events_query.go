package world

import "github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/protocol"

// eventRing keeps the most recent diagnostic events with a monotonic
// cursor so a reconnecting client can catch up over EVENT_BATCH.
type eventRing struct {
	buf  []protocol.EventBatchItem
	head int
	len  int
	next uint64 // cursor assigned to the next appended event
}

func (r *eventRing) init(capacity int) {
	if capacity <= 0 {
		capacity = 1024
	}
	r.buf = make([]protocol.EventBatchItem, capacity)
	r.next = 1
}

func (r *eventRing) append(e protocol.Event) {
	r.buf[r.head] = protocol.EventBatchItem{Cursor: r.next, Event: e}
	r.next++
	r.head = (r.head + 1) % len(r.buf)
	if r.len < len(r.buf) {
		r.len++
	}
}

// since returns up to limit events with cursor > after, oldest first, and
// the cursor to resume from next time.
func (r *eventRing) since(after uint64, limit int) ([]protocol.EventBatchItem, uint64) {
	if limit <= 0 || limit > r.len {
		limit = r.len
	}
	out := make([]protocol.EventBatchItem, 0, limit)
	start := r.head - r.len
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < r.len && len(out) < limit; i++ {
		it := r.buf[(start+i)%len(r.buf)]
		if it.Cursor <= after {
			continue
		}
		out = append(out, it)
	}
	nextCursor := after
	if n := len(out); n > 0 {
		nextCursor = out[n-1].Cursor
	} else if r.next > 1 {
		nextCursor = r.next - 1
	}
	return out, nextCursor
}

// EventsSince serves missed-event recovery. It reads the ring owned by
// the world loop, so transports must call it through QueryEvents.
func (w *World) eventsSince(after uint64, limit int) ([]protocol.EventBatchItem, uint64) {
	return w.eventLog.since(after, limit)
}

// EventQuery is answered by the world loop between ticks.
type EventQuery struct {
	SinceCursor uint64
	Limit       int
	Resp        chan EventQueryResult
}

type EventQueryResult struct {
	Events     []protocol.EventBatchItem
	NextCursor uint64
}
