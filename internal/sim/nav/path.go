package nav

// Path is an ordered waypoint sequence toward a goal. Valid=false means no
// route was found (empty waypoints); callers treat that as a normal outcome.
// A path is replaced wholesale on recalculation; only the owner's
// next-waypoint index advances in place.
type Path struct {
	Waypoints []Vec3  `json:"waypoints,omitempty"`
	Cost      float32 `json:"cost"`
	Valid     bool    `json:"valid"`
}
