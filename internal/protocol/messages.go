package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	AgentName       string     `json:"agent_name"`
	Role            string     `json:"role,omitempty"`
	Controlled      bool       `json:"controlled,omitempty"`
	Auth            *HelloAuth `json:"auth,omitempty"`
}

type HelloAuth struct {
	Token       string `json:"token,omitempty"`
	ResumeToken string `json:"resume_token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id,omitempty"`
	AgentID         string      `json:"agent_id"`
	ResumeToken     string      `json:"resume_token"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	TickRateHz int        `json:"tick_rate_hz"`
	ObsRadius  float32    `json:"obs_radius"`
	CellSize   float32    `json:"cell_size"`
	Bounds     BoundsWire `json:"bounds"`
	Seed       int64      `json:"seed"`
	LayoutName string     `json:"layout_name,omitempty"`
}

type BoundsWire struct {
	Min [3]float32 `json:"min"`
	Max [3]float32 `json:"max"`
}

type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
}
