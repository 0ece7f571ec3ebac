package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/nav"
)

// stateDigest hashes the complete simulation-visible state in a fixed
// order. Two runs fed the same inputs must produce the same digest every
// tick; floats are hashed by their exact bit pattern.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteI64(h, &tmp, w.cfg.Seed)
	digestVec(h, &tmp, w.bounds.Min)
	digestVec(h, &tmp, w.bounds.Max)

	for _, o := range w.obstacles.All() {
		h.Write([]byte(o.ID))
		digestVec(h, &tmp, o.Min)
		digestVec(h, &tmp, o.Max)
	}

	for _, a := range w.sortedAgents() {
		h.Write([]byte(a.ID))
		h.Write([]byte{byte(a.Role), boolByte(a.Controlled)})
		digestVec(h, &tmp, a.Pos)
		digestF32(h, &tmp, a.Modifiers.Mobility)
		digestF32(h, &tmp, a.Modifiers.Terrain)

		h.Write([]byte{
			boolByte(a.HasDest), boolByte(a.Stalled),
			boolByte(a.Arrived), boolByte(a.NeedsPlan),
		})
		digestVec(h, &tmp, a.Dest)
		digestVec(h, &tmp, a.DestAtPlan)
		digestWriteU64(h, &tmp, a.LastPlanTick)
		digestWriteU64(h, &tmp, uint64(a.StallTicks))
		digestWriteU64(h, &tmp, uint64(a.RecoveryAttempts))

		h.Write([]byte{boolByte(a.Path.Valid)})
		digestF32(h, &tmp, a.Path.Cost)
		digestWriteU64(h, &tmp, uint64(a.NextWaypoint))
		digestWriteU64(h, &tmp, uint64(len(a.Path.Waypoints)))
		for _, wp := range a.Path.Waypoints {
			digestVec(h, &tmp, wp)
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestF32(h hashWriter, tmp *[8]byte, v float32) {
	digestWriteU64(h, tmp, uint64(math.Float32bits(v)))
}

func digestVec(h hashWriter, tmp *[8]byte, v nav.Vec3) {
	digestF32(h, tmp, v.X)
	digestF32(h, tmp, v.Y)
	digestF32(h, tmp, v.Z)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}
