package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 captures the full deterministic state of one world: resuming
// from it and replaying the same action stream reproduces the same digests.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed       int64  `json:"seed"`
	TickRate   int    `json:"tick_rate_hz"`
	LayoutName string `json:"layout_name,omitempty"`

	Bounds    BoundsV1     `json:"bounds"`
	Obstacles []ObstacleV1 `json:"obstacles"`
	Agents    []AgentV1    `json:"agents"`

	Counters CountersV1 `json:"counters"`
}

type BoundsV1 struct {
	Min [3]float32 `json:"min"`
	Max [3]float32 `json:"max"`
}

type ObstacleV1 struct {
	ID  string     `json:"id"`
	Min [3]float32 `json:"min"`
	Max [3]float32 `json:"max"`
}

type CountersV1 struct {
	NextAgent uint64 `json:"next_agent"`
	NextTask  uint64 `json:"next_task"`
}

type AgentV1 struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Role       string     `json:"role"`
	Pos        [3]float32 `json:"pos"`
	Controlled bool       `json:"controlled,omitempty"`
	JoinedTick uint64     `json:"joined_tick,omitempty"`

	Modifiers ModifiersV1 `json:"modifiers"`

	HasDest    bool       `json:"has_dest,omitempty"`
	Dest       [3]float32 `json:"dest,omitempty"`
	DestAtPlan [3]float32 `json:"dest_at_plan,omitempty"`
	MoveTaskID string     `json:"move_task_id,omitempty"`

	Path         *PathV1 `json:"path,omitempty"`
	NextWaypoint int     `json:"next_waypoint,omitempty"`

	LastPlanTick     uint64 `json:"last_plan_tick,omitempty"`
	StallTicks       int    `json:"stall_ticks,omitempty"`
	RecoveryAttempts int    `json:"recovery_attempts,omitempty"`
	Stalled          bool   `json:"stalled,omitempty"`
	Arrived          bool   `json:"arrived,omitempty"`
	NeedsPlan        bool   `json:"needs_plan,omitempty"`

	// Rolling position history, oldest first. Needed so a resumed world
	// reaches the same stall verdicts as one that never stopped.
	History [][3]float32 `json:"history,omitempty"`
}

type ModifiersV1 struct {
	Mobility float32 `json:"mobility"`
	Terrain  float32 `json:"terrain"`
}

type PathV1 struct {
	Waypoints [][3]float32 `json:"waypoints"`
	Cost      float32      `json:"cost"`
	Valid     bool         `json:"valid"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Read header line (ignore it for now, gob also contains header).
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
