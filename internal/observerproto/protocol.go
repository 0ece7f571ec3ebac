package observerproto

import "github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/protocol"

// Version is the observer protocol version (separate from the agent WS protocol).
const Version = "0.1"

// Client -> Server. First message on the observer WS connection, and can
// be re-sent to update settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// Optional extras beyond agent states.
	IncludeActions     bool `json:"include_actions,omitempty"`
	IncludeDiagnostics bool `json:"include_diagnostics,omitempty"`
}

// HTTP response for GET /admin/v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	Obstacles       []Obstacle  `json:"obstacles"`
	Spawns          []Spawn     `json:"spawns,omitempty"`
}

type WorldParams struct {
	TickRateHz int           `json:"tick_rate_hz"`
	CellSize   float32       `json:"cell_size"`
	Bounds     [2][3]float32 `json:"bounds"`
	Seed       int64         `json:"seed"`
	LayoutName string        `json:"layout_name"`
}

type Obstacle struct {
	ID  string     `json:"id"`
	Min [3]float32 `json:"min"`
	Max [3]float32 `json:"max"`
}

type Spawn struct {
	Name string     `json:"name"`
	Pos  [3]float32 `json:"pos"`
}

// Server -> Client. Sent every tick.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`

	Agents      []AgentState     `json:"agents"`
	Joins       []JoinInfo       `json:"joins,omitempty"`
	Leaves      []string         `json:"leaves,omitempty"`
	Actions     []RecordedAction `json:"actions,omitempty"`
	Diagnostics []Diagnostic     `json:"diagnostics,omitempty"`
}

type JoinInfo struct {
	AgentID string `json:"agent_id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
}

type RecordedAction struct {
	AgentID string          `json:"agent_id"`
	Act     protocol.ActMsg `json:"act"`
}

type Diagnostic struct {
	AgentID string         `json:"agent_id"`
	Kind    string         `json:"kind"`
	Detail  map[string]any `json:"detail,omitempty"`
}

type AgentState struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`

	Pos  [3]float32 `json:"pos"`
	Role string     `json:"role"`

	Activity   string `json:"activity"`
	StallTicks int    `json:"stall_ticks,omitempty"`
	Attempts   int    `json:"attempts,omitempty"`

	MoveTask *TaskState `json:"move_task,omitempty"`
}

type TaskState struct {
	TaskID   string     `json:"task_id"`
	Target   [3]float32 `json:"target"`
	Progress float64    `json:"progress"`
	EtaTicks int        `json:"eta_ticks,omitempty"`
	PathLen  int        `json:"path_len,omitempty"`
}
