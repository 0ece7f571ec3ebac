package nav

// Role is a closed set of speed classes. Base speeds come from a lookup
// table rather than dispatch: the set is fixed and digest-relevant.
type Role uint8

const (
	RoleLaborer Role = iota
	RoleMerchant
	RoleGuard
	RoleElder
	RoleChild
	numRoles
)

var roleNames = [numRoles]string{"LABORER", "MERCHANT", "GUARD", "ELDER", "CHILD"}

// Base walking speed in world units per second.
var roleBaseSpeeds = [numRoles]float32{1.4, 1.2, 1.6, 0.8, 1.1}

func (r Role) String() string {
	if r >= numRoles {
		return roleNames[RoleLaborer]
	}
	return roleNames[r]
}

func (r Role) BaseSpeed() float32 {
	if r >= numRoles {
		r = RoleLaborer
	}
	return roleBaseSpeeds[r]
}

// RoleFromString maps a wire name onto a Role, defaulting to LABORER for
// anything unrecognized (bad external input is sanitized, not rejected).
func RoleFromString(s string) Role {
	for i, name := range roleNames {
		if name == s {
			return Role(i)
		}
	}
	return RoleLaborer
}

// Modifiers are the externally supplied per-tick speed multipliers.
// Negative inputs are invalid and treated as zero.
type Modifiers struct {
	Mobility float32 `json:"mobility"`
	Terrain  float32 `json:"terrain"`
}

func (m Modifiers) Sanitized() Modifiers {
	if !(m.Mobility >= 0) { // also catches NaN
		m.Mobility = 0
	}
	if !(m.Terrain >= 0) {
		m.Terrain = 0
	}
	return m
}

func DefaultModifiers() Modifiers { return Modifiers{Mobility: 1, Terrain: 1} }

// HistoryLen is the rolling position-history window the stall detector
// reads. An agent that closes less than the minimum progress over this many
// ticks is considered stalled.
const HistoryLen = 30

// Agent is the navigation state of one simulated entity. It is mutated only
// by the world loop, one phase at a time.
type Agent struct {
	ID   string
	Role Role
	Pos  Vec3

	// Controlled agents (the player) move by direct position updates and
	// never path-plan; they still occupy the spatial index.
	Controlled bool

	HasDest bool
	Dest    Vec3
	// Destination the current path was computed for: drift between this and
	// Dest is one of the recalculation triggers.
	DestAtPlan Vec3

	Path         Path
	NextWaypoint int

	Modifiers Modifiers

	LastPlanTick     uint64
	StallTicks       int
	RecoveryAttempts int
	Stalled          bool
	Arrived          bool

	// NeedsPlan forces a recalculation on the next scheduler pass.
	NeedsPlan bool

	hist     [HistoryLen]Vec3
	histLen  int
	histHead int
}

// EffectiveSpeed is base speed times the sanitized per-tick modifiers,
// clamped to >= 0.
func (a *Agent) EffectiveSpeed() float32 {
	m := a.Modifiers.Sanitized()
	s := a.Role.BaseSpeed() * m.Mobility * m.Terrain
	if s < 0 {
		return 0
	}
	return s
}

// SetDestination assigns a destination: stall and recovery counters reset
// and the next scheduler pass replans. A superseding assignment invalidates
// the old path; keeping it would let the agent finish a journey at a target
// it no longer has. Re-issuing the current destination is a no-op beyond
// the counter reset.
func (a *Agent) SetDestination(d Vec3) {
	changed := !a.HasDest || d != a.Dest
	a.HasDest = true
	a.Dest = d
	a.StallTicks = 0
	a.RecoveryAttempts = 0
	a.Stalled = false
	a.Arrived = false
	a.ClearHistory()
	if changed {
		a.Path = Path{}
		a.NextWaypoint = 0
		a.NeedsPlan = true
	}
}

// ClearDestination returns the agent to idle: no destination, no path.
func (a *Agent) ClearDestination() {
	a.HasDest = false
	a.Dest = Vec3{}
	a.DestAtPlan = Vec3{}
	a.Path = Path{}
	a.NextWaypoint = 0
	a.Stalled = false
	a.StallTicks = 0
	a.NeedsPlan = false
	a.ClearHistory()
}

// PathExhausted reports whether there is no waypoint left to walk.
func (a *Agent) PathExhausted() bool {
	return !a.Path.Valid || a.NextWaypoint >= len(a.Path.Waypoints)
}

// Activity is the externally visible state flag.
func (a *Agent) Activity() string {
	switch {
	case a.Stalled:
		return "STALLED"
	case a.HasDest && a.Path.Valid:
		return "MOVING"
	case a.Arrived:
		return "ARRIVED"
	default:
		return "IDLE"
	}
}

// RecordPosition appends to the rolling history ring.
func (a *Agent) RecordPosition(p Vec3) {
	a.hist[a.histHead] = p
	a.histHead = (a.histHead + 1) % HistoryLen
	if a.histLen < HistoryLen {
		a.histLen++
	}
}

// OldestRecorded returns the position HistoryLen ticks ago; ok is false
// until the window has filled.
func (a *Agent) OldestRecorded() (Vec3, bool) {
	if a.histLen < HistoryLen {
		return Vec3{}, false
	}
	return a.hist[a.histHead], true
}

func (a *Agent) ClearHistory() {
	a.histLen = 0
	a.histHead = 0
}

// HistorySlice copies the recorded window, oldest first. Used by snapshot
// export so a resumed world reaches the same stall verdicts.
func (a *Agent) HistorySlice() []Vec3 {
	out := make([]Vec3, 0, a.histLen)
	start := a.histHead - a.histLen
	if start < 0 {
		start += HistoryLen
	}
	for i := 0; i < a.histLen; i++ {
		out = append(out, a.hist[(start+i)%HistoryLen])
	}
	return out
}
