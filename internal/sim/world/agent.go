package world

import (
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/protocol"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/nav"
)

// Agent wraps the navigation state with session-level identity. All fields
// are owned by the world loop.
type Agent struct {
	nav.Agent

	Name string

	// ResumeToken is a transport-level token used for reconnects.
	// It is intentionally NOT included in snapshots/digests.
	ResumeToken string

	// MoveTaskID is the client task id of the active MOVE_TO, echoed in
	// task observations and results.
	MoveTaskID string

	JoinedTick uint64

	Events []protocol.Event
}

func (a *Agent) AddEvent(e protocol.Event) {
	a.Events = append(a.Events, e)
	// Cap per-tick event backlog; oldest first out.
	const maxEvents = 64
	if len(a.Events) > maxEvents {
		a.Events = a.Events[len(a.Events)-maxEvents:]
	}
}

// DrainEvents returns the queued events and clears the queue.
func (a *Agent) DrainEvents() []protocol.Event {
	evs := a.Events
	a.Events = nil
	return evs
}
