// Package cache persists the last good result state to disk so the
// dashboard has something to show before the first fetch of a session
// completes. Stale data is acceptable here; the cache is best
// effort and removed by the election-deactivation reset.
//
// The on-disk format is a msgpack-encoded Snapshot with a format version;
// a version mismatch reads as cache-miss, never as an error.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/scrutin-io/scrutin/types"
)

// FormatVersion identifies the snapshot encoding. Bump on any breaking
// change to the Snapshot shape.
const FormatVersion = 2

// Snapshot is the persisted view of the result state.
type Snapshot struct {
	FormatVersion      int                       `msgpack:"format_version"`
	SavedAt            time.Time                 `msgpack:"saved_at"`
	Scope              types.Scope               `msgpack:"scope"`
	ActiveElection     *types.Election           `msgpack:"active_election"`
	DepartmentResults  *types.DepartmentResults  `msgpack:"department_results"`
	ConstituencyTotals *types.ConstituencyTotals `msgpack:"constituency_totals"`
	Roster             []types.Party             `msgpack:"roster"`
	Localities         []types.Locality          `msgpack:"localities"`
}

// DefaultPath returns the default snapshot path under the user cache dir.
func DefaultPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "scrutin", "snapshot.msgpack")
}

// Save writes the snapshot atomically (temp file + rename).
func Save(path string, snap *Snapshot) error {
	snap.FormatVersion = FormatVersion
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot. A missing file, an undecodable file, or a
// format version mismatch all return (nil, nil): a cache miss.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, nil
	}
	if snap.FormatVersion != FormatVersion {
		return nil, nil
	}
	return &snap, nil
}

// Remove deletes the snapshot. Missing is not an error.
func Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}
