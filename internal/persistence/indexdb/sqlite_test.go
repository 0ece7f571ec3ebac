package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/persistence/snapshot"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/protocol"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/tuning"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/world"
)

func openTestIndex(t *testing.T) (*SQLiteIndex, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s, path
}

func queryInt(t *testing.T, db *sql.DB, q string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow(q, args...).Scan(&n); err != nil {
		t.Fatalf("query %q: %v", q, err)
	}
	return n
}

func TestSQLiteIndexTicksAndDiagnostics(t *testing.T) {
	s, path := openTestIndex(t)

	for tick := uint64(0); tick < 5; tick++ {
		entry := world.TickLogEntry{Tick: tick, Digest: "d"}
		if tick == 0 {
			entry.Joins = []world.RecordedJoin{{AgentID: "A1", Name: "ana", Role: "LABORER"}}
			entry.Actions = []world.RecordedAction{{
				AgentID: "A1",
				Act:     protocol.ActMsg{Tick: 0, Tasks: []protocol.TaskReq{{ID: "K1", Type: protocol.TaskMoveTo}}},
			}}
		}
		if err := s.WriteTick(entry); err != nil {
			t.Fatalf("write tick: %v", err)
		}
	}
	_ = s.WriteDiagnostic(world.DiagnosticEntry{Tick: 3, AgentID: "A1", Kind: protocol.EventStall})
	_ = s.WriteDiagnostic(world.DiagnosticEntry{Tick: 3, AgentID: "A1", Kind: protocol.EventRecovery})

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	if n := queryInt(t, db, `SELECT COUNT(*) FROM ticks`); n != 5 {
		t.Fatalf("ticks = %d, want 5", n)
	}
	if n := queryInt(t, db, `SELECT COUNT(*) FROM joins WHERE agent_id='A1'`); n != 1 {
		t.Fatalf("joins = %d, want 1", n)
	}
	if n := queryInt(t, db, `SELECT COUNT(*) FROM actions WHERE agent_id='A1'`); n != 1 {
		t.Fatalf("actions = %d, want 1", n)
	}
	if n := queryInt(t, db, `SELECT COUNT(*) FROM diagnostics WHERE kind=?`, protocol.EventStall); n != 1 {
		t.Fatalf("stall diagnostics = %d, want 1", n)
	}
	// Per-tick diagnostic sequence restarts at 0.
	if n := queryInt(t, db, `SELECT seq FROM diagnostics WHERE kind=?`, protocol.EventRecovery); n != 1 {
		t.Fatalf("recovery seq = %d, want 1", n)
	}
}

func TestSQLiteIndexSnapshotRow(t *testing.T) {
	s, path := openTestIndex(t)

	snap := snapshot.SnapshotV1{
		Header:     snapshot.Header{Version: 1, WorldID: "w", Tick: 2999},
		Seed:       42,
		LayoutName: "field",
		Agents:     []snapshot.AgentV1{{ID: "A1"}, {ID: "A2"}},
	}
	s.RecordSnapshot("/data/snap_2999.bin", snap)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var (
		p      string
		seed   int64
		layout string
		agents int
	)
	if err := db.QueryRow(`SELECT path, seed, layout, agents FROM snapshots WHERE tick=2999`).
		Scan(&p, &seed, &layout, &agents); err != nil {
		t.Fatalf("snapshot row: %v", err)
	}
	if p != "/data/snap_2999.bin" || seed != 42 || layout != "field" || agents != 2 {
		t.Fatalf("snapshot row = %s %d %s %d", p, seed, layout, agents)
	}
}

func TestSQLiteIndexRecordTuning(t *testing.T) {
	s, path := openTestIndex(t)
	if err := s.RecordTuning(tuning.Defaults()); err != nil {
		t.Fatalf("record tuning: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var digest string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key='tuning_digest'`).Scan(&digest); err != nil {
		t.Fatalf("tuning digest: %v", err)
	}
	if len(digest) != 64 {
		t.Fatalf("digest %q is not a sha256 hex", digest)
	}
}

func TestSQLiteIndexWriteAfterCloseIsNoop(t *testing.T) {
	s, _ := openTestIndex(t)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.WriteTick(world.TickLogEntry{Tick: 1, Digest: "d"}); err != nil {
		t.Fatalf("write after close: %v", err)
	}
	_ = s.WriteDiagnostic(world.DiagnosticEntry{Tick: 1})
	s.RecordSnapshot("p", snapshot.SnapshotV1{})
	// Double close stays idempotent.
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
