package archive

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Snapshot files are named snap_<tick>.bin; lexical order on the
// zero-padded tick equals tick order.

// LatestSnapshot returns the path of the newest snapshot in dir, or ""
// when none exist.
func LatestSnapshot(dir string) (string, error) {
	names, err := snapshotNames(dir)
	if err != nil || len(names) == 0 {
		return "", err
	}
	return filepath.Join(dir, names[len(names)-1]), nil
}

// PruneSnapshots deletes the oldest snapshots in dir, keeping at most
// keep of them. keep <= 0 disables pruning.
func PruneSnapshots(dir string, keep int) (removed int, err error) {
	if keep <= 0 {
		return 0, nil
	}
	names, err := snapshotNames(dir)
	if err != nil {
		return 0, err
	}
	for len(names) > keep {
		if err := os.Remove(filepath.Join(dir, names[0])); err != nil {
			return removed, err
		}
		removed++
		names = names[1:]
	}
	return removed, nil
}

func snapshotNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "snap_") && strings.HasSuffix(name, ".bin") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
