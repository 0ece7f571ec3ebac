package protocol

type ObsMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	AgentID         string `json:"agent_id"`

	Self      SelfObs     `json:"self"`
	Neighbors []EntityObs `json:"neighbors"`
	Events    []Event     `json:"events"`
	Tasks     []TaskObs   `json:"tasks"`
}

type SelfObs struct {
	Pos      [3]float32 `json:"pos"`
	Role     string     `json:"role"`
	Activity string     `json:"activity"` // "IDLE","MOVING","STALLED","ARRIVED"
	Speed    float32    `json:"speed"`

	Dest       *[3]float32 `json:"dest,omitempty"`
	Waypoint   *[3]float32 `json:"waypoint,omitempty"`
	PathLen    int         `json:"path_len,omitempty"`
	StallTicks int         `json:"stall_ticks,omitempty"`
	Attempts   int         `json:"recovery_attempts,omitempty"`
}

type EntityObs struct {
	ID       string     `json:"id"`
	Type     string     `json:"type"` // "AGENT"
	Role     string     `json:"role,omitempty"`
	Pos      [3]float32 `json:"pos"`
	Activity string     `json:"activity,omitempty"`
}

type Event map[string]interface{}

type TaskObs struct {
	TaskID   string     `json:"task_id"`
	Kind     string     `json:"kind"`
	Progress float64    `json:"progress"` // 0..1 distance-based estimate
	Target   [3]float32 `json:"target,omitempty"`
	EtaTicks int        `json:"eta_ticks,omitempty"`
}

// ACT (client -> server)
type ActMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Tick            uint64    `json:"tick"`
	AgentID         string    `json:"agent_id"`
	Tasks           []TaskReq `json:"tasks,omitempty"`
	Cancel          []string  `json:"cancel,omitempty"`
}

// Task types.
const (
	TaskMoveTo           = "MOVE_TO"
	TaskClearDestination = "CLEAR_DESTINATION"
	TaskSetModifiers     = "SET_MODIFIERS"
	TaskSetPos           = "SET_POS"
)

type TaskReq struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	// MOVE_TO / SET_POS target position.
	Target [3]float32 `json:"target,omitempty"`

	// SET_MODIFIERS multipliers.
	Mobility *float32 `json:"mobility,omitempty"`
	Terrain  *float32 `json:"terrain,omitempty"`
}
