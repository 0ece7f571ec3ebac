package world

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/persistence/snapshot"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/protocol"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/nav"
)

type JoinRequest struct {
	Name       string
	Role       string
	Controlled bool
	Out        chan []byte
	Resp       chan JoinResponse
}

type AttachRequest struct {
	ResumeToken string
	Out         chan []byte
	Resp        chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

type ActionEnvelope struct {
	AgentID string
	Act     protocol.ActMsg
}

type RecordedJoin struct {
	AgentID    string `json:"agent_id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Controlled bool   `json:"controlled,omitempty"`
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg WorldConfig

	tick atomic.Uint64

	bounds    nav.Bounds
	obstacles *nav.ObstacleStore
	grid      *nav.SpatialGrid

	agents    map[string]*Agent
	clients   map[string]*clientState
	observers map[string]*observerState

	inbox    chan ActionEnvelope
	join     chan JoinRequest
	attach   chan AttachRequest
	leave    chan string
	query    chan EventQuery
	obsJoin  chan ObserverJoinRequest
	obsLeave chan string
	stop     chan struct{}

	nextAgentNum atomic.Uint64
	nextTaskNum  atomic.Uint64

	// Global diagnostic event log with a monotonic cursor, served to
	// clients through EVENT_BATCH for missed-event recovery.
	eventLog eventRing

	// Diagnostics raised during the current tick, for the observer feed.
	tickDiags []DiagnosticEntry

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger TickLogger
	diagLogger DiagnosticLogger

	// Optional snapshot sink (may be nil). Snapshot writing is off-thread.
	snapshotSink chan<- snapshot.SnapshotV1

	stats WorldStats
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// DiagnosticLogger receives the navigation diagnostics stream (path
// failures, stalls, recoveries, abandons, arrivals).
type DiagnosticLogger interface {
	WriteDiagnostic(entry DiagnosticEntry) error
}

type TickLogEntry struct {
	Tick    uint64           `json:"tick"`
	Joins   []RecordedJoin   `json:"joins,omitempty"`
	Leaves  []string         `json:"leaves,omitempty"`
	Actions []RecordedAction `json:"actions,omitempty"`
	Digest  string           `json:"digest"`
}

type RecordedAction struct {
	AgentID string          `json:"agent_id"`
	Act     protocol.ActMsg `json:"act"`
}

type DiagnosticEntry struct {
	Tick    uint64         `json:"tick"`
	AgentID string         `json:"agent_id"`
	Kind    string         `json:"kind"`
	Detail  map[string]any `json:"detail,omitempty"`
}

type clientState struct {
	Out chan []byte
}

func New(cfg WorldConfig) (*World, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("world %s: %w", cfg.ID, err)
	}
	w := &World{
		cfg:       cfg,
		bounds:    cfg.Layout.Bounds,
		obstacles: cfg.Layout.ObstacleStore(),
		grid:      nav.NewSpatialGrid(cfg.Tuning.Grid.CellSize, cfg.Layout.Bounds),
		agents:    map[string]*Agent{},
		clients:   map[string]*clientState{},
		observers: map[string]*observerState{},
		inbox:     make(chan ActionEnvelope, 1024),
		join:      make(chan JoinRequest, 64),
		attach:    make(chan AttachRequest, 64),
		leave:     make(chan string, 64),
		query:     make(chan EventQuery, 64),
		obsJoin:   make(chan ObserverJoinRequest, 16),
		obsLeave:  make(chan string, 16),
		stop:      make(chan struct{}),
	}
	w.eventLog.init(4096)
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetDiagnosticLogger(l DiagnosticLogger)        { w.diagLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) Inbox() chan<- ActionEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Attach() chan<- AttachRequest { return w.attach }
func (w *World) Leave() chan<- string         { return w.leave }
func (w *World) Query() chan<- EventQuery     { return w.query }

func (w *World) ObserverJoin() chan<- ObserverJoinRequest { return w.obsJoin }
func (w *World) ObserverLeave() chan<- string             { return w.obsLeave }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }
func (w *World) ID() string          { return w.cfg.ID }

// Config returns the world's configuration. It is immutable after New,
// so reading it from other goroutines is safe.
func (w *World) Config() WorldConfig { return w.cfg }

// sortedAgents returns the agents in id order. Every per-tick iteration
// over the agent set goes through this; map order must never leak into
// simulation state.
func (w *World) sortedAgents() []*Agent {
	ids := make([]string, 0, len(w.agents))
	for id := range w.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Agent, 0, len(ids))
	for _, id := range ids {
		out = append(out, w.agents[id])
	}
	return out
}

func (w *World) joinAgent(name, role string, controlled bool, out chan []byte) JoinResponse {
	if name == "" {
		name = "agent"
	}

	idNum := w.nextAgentNum.Add(1)
	agentID := fmt.Sprintf("A%d", idNum)
	nowTick := w.tick.Load()

	spawn := w.cfg.Layout.SpawnFor(int(idNum) - 1)
	spawn, _ = w.obstacles.NearestWalkable(spawn, w.bounds, w.cfg.Tuning.Stall.RelocateRadius)

	a := &Agent{Name: name, JoinedTick: nowTick}
	a.Agent = nav.Agent{
		ID:         agentID,
		Role:       nav.RoleFromString(role),
		Pos:        spawn,
		Controlled: controlled,
		Modifiers:  nav.DefaultModifiers(),
	}

	w.agents[agentID] = a
	w.grid.Upsert(agentID, a.Pos)
	if out != nil {
		w.clients[agentID] = &clientState{Out: out}
	}

	a.ResumeToken = uuid.NewString()

	return JoinResponse{Welcome: w.welcomeFor(a)}
}

func (w *World) welcomeFor(a *Agent) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		AgentID:         a.ID,
		ResumeToken:     a.ResumeToken,
		WorldParams: protocol.WorldParams{
			TickRateHz: w.cfg.Tuning.TickRateHz,
			ObsRadius:  w.cfg.Tuning.ObsRadius,
			CellSize:   w.cfg.Tuning.Grid.CellSize,
			Bounds: protocol.BoundsWire{
				Min: w.bounds.Min.ToArray(),
				Max: w.bounds.Max.ToArray(),
			},
			Seed:       w.cfg.Seed,
			LayoutName: w.cfg.Layout.Name,
		},
	}
}

func (w *World) handleJoin(req JoinRequest) {
	resp := w.joinAgent(req.Name, req.Role, req.Controlled, req.Out)
	if req.Resp != nil {
		req.Resp <- resp
	}
}

// handleAttach reconnects a client to an existing agent by resume token.
// It does not touch simulation state and so runs immediately rather than
// at the tick boundary.
func (w *World) handleAttach(req AttachRequest) {
	token := strings.TrimSpace(req.ResumeToken)
	if token == "" || req.Out == nil {
		if req.Resp != nil {
			req.Resp <- JoinResponse{}
		}
		return
	}

	var a *Agent
	for _, cand := range w.sortedAgents() {
		if cand.ResumeToken == token {
			a = cand
			break
		}
	}
	if a == nil {
		if req.Resp != nil {
			req.Resp <- JoinResponse{}
		}
		return
	}

	w.clients[a.ID] = &clientState{Out: req.Out}

	// Rotate the token on successful resume.
	a.ResumeToken = uuid.NewString()

	if req.Resp != nil {
		req.Resp <- JoinResponse{Welcome: w.welcomeFor(a)}
	}
}

// handleLeave detaches the client. The agent stays in the world and keeps
// simulating; a later attach with the resume token picks it back up.
func (w *World) handleLeave(agentID string) {
	delete(w.clients, agentID)
}

func (w *World) newTaskID() string {
	n := w.nextTaskNum.Add(1)
	return fmt.Sprintf("T%06d", n)
}

// DebugSetAgentPos teleports an agent for test preconditions. Not for
// production use; call only while the world loop is not running.
func (w *World) DebugSetAgentPos(agentID string, pos nav.Vec3) bool {
	a := w.agents[agentID]
	if a == nil {
		return false
	}
	a.Pos = w.bounds.Clamp(pos)
	w.grid.Upsert(a.ID, a.Pos)
	return true
}
