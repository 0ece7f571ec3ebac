package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/persistence/snapshot"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/layout"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/tuning"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/world"
)

// replay rebuilds a world from a snapshot (or a fresh seed) and re-steps
// it against recorded tick logs, verifying the per-tick state digests.

func main() {
	var (
		snapPath  = flag.String("snapshot", "", "path to snap_*.bin (optional; fresh world when empty)")
		ticksDir  = flag.String("ticks", "", "dir containing ticks-*.jsonl.zst")
		configDir = flag.String("configs", "./configs", "config directory")
		worldID   = flag.String("world", "world_1", "world id (fresh world only)")
		seed      = flag.Int64("seed", 1337, "world seed (fresh world only)")
		fromTick  = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick    = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *ticksDir == "" {
		fmt.Fprintln(os.Stderr, "missing -ticks")
		os.Exit(2)
	}

	tune, err := tuning.Load(filepath.Join(*configDir, "tuning.yaml"))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = tuning.Defaults()
	}
	lay, err := layout.Load(filepath.Join(*configDir, "layout.yaml"))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(os.Stderr, "load layout:", err)
			os.Exit(1)
		}
		lay = layout.Default()
	}

	cfg := world.WorldConfig{ID: *worldID, Seed: *seed, Tuning: tune, Layout: lay}

	var w *world.World
	if *snapPath != "" {
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		fmt.Printf("snapshot v%d world=%s tick=%d seed=%d layout=%s agents=%d\n",
			snap.Header.Version, snap.Header.WorldID, snap.Header.Tick, snap.Seed,
			snap.LayoutName, len(snap.Agents))
		cfg.ID = snap.Header.WorldID
		w, err = world.ImportSnapshot(cfg, snap)
		if err != nil {
			fmt.Fprintln(os.Stderr, "import snapshot:", err)
			os.Exit(1)
		}
	} else {
		w, err = world.New(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "world:", err)
			os.Exit(1)
		}
	}

	startTick := w.CurrentTick()
	verifyFrom := *fromTick
	if verifyFrom == 0 {
		verifyFrom = startTick
	}

	files, err := listTickFiles(*ticksDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list ticks:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no tick files found in", *ticksDir)
		os.Exit(1)
	}

	var checked uint64
	for _, path := range files {
		if err := replayFile(w, path, startTick, verifyFrom, *toTick, &checked); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
		if *toTick != 0 && w.CurrentTick() > *toTick {
			break
		}
	}
	fmt.Printf("replay ok: checked=%d ticks (from tick=%d)\n", checked, startTick)
}

func listTickFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "ticks-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func replayFile(w *world.World, path string, startTick, verifyFrom, toTick uint64, checked *uint64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	for sc.Scan() {
		line := sc.Bytes()
		var entry world.TickLogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if entry.Tick < startTick {
			continue
		}
		if toTick != 0 && entry.Tick > toTick {
			return nil
		}
		if entry.Tick != w.CurrentTick() {
			return fmt.Errorf("tick mismatch: want=%d got=%d (file=%s)", w.CurrentTick(), entry.Tick, filepath.Base(path))
		}

		joins := make([]world.JoinRequest, 0, len(entry.Joins))
		for _, j := range entry.Joins {
			joins = append(joins, world.JoinRequest{Name: j.Name, Role: j.Role, Controlled: j.Controlled})
		}
		leaves := entry.Leaves

		acts := make([]world.ActionEnvelope, 0, len(entry.Actions))
		for _, ra := range entry.Actions {
			acts = append(acts, world.ActionEnvelope{AgentID: ra.AgentID, Act: ra.Act})
		}

		tick, gotDigest := w.StepOnce(joins, leaves, acts)

		// Sanity check: StepOnce should have stepped the same tick.
		if tick != entry.Tick {
			return fmt.Errorf("internal tick mismatch: stepped=%d entry=%d (file=%s)", tick, entry.Tick, filepath.Base(path))
		}

		if tick >= verifyFrom {
			*checked++
			if gotDigest != entry.Digest {
				return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, gotDigest, entry.Digest)
			}
		}
	}
	return sc.Err()
}
