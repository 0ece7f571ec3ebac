package archive

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSnap(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLatestSnapshot(t *testing.T) {
	dir := t.TempDir()
	if p, err := LatestSnapshot(dir); err != nil || p != "" {
		t.Fatalf("empty dir: %q, %v", p, err)
	}
	writeSnap(t, dir, "snap_0000000000000100.bin")
	writeSnap(t, dir, "snap_0000000000003000.bin")
	writeSnap(t, dir, "snap_0000000000000900.bin")
	writeSnap(t, dir, "notes.txt")

	p, err := LatestSnapshot(dir)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if filepath.Base(p) != "snap_0000000000003000.bin" {
		t.Fatalf("latest = %s", p)
	}
}

func TestPruneSnapshotsKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{
		"snap_0000000000000100.bin",
		"snap_0000000000000200.bin",
		"snap_0000000000000300.bin",
		"snap_0000000000000400.bin",
	} {
		writeSnap(t, dir, n)
	}

	removed, err := PruneSnapshots(dir, 2)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	left, _ := snapshotNames(dir)
	if len(left) != 2 || left[0] != "snap_0000000000000300.bin" {
		t.Fatalf("remaining = %v", left)
	}

	// keep <= 0 disables pruning.
	if removed, err := PruneSnapshots(dir, 0); err != nil || removed != 0 {
		t.Fatalf("disabled prune removed %d, %v", removed, err)
	}
}
