package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/scrutin-io/scrutin/types"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		SavedAt: time.Date(2026, 6, 14, 20, 15, 0, 0, time.UTC),
		Scope:   types.Scope{Region: "Bretagne", Department: "Finistere", ConstituencyID: 12},
		ActiveElection: &types.Election{
			ID: 3, Name: "Legislatives", Round: 1, Year: 2026, Active: true,
		},
		Roster: []types.Party{{ID: 1, Name: "Parti A", Label: "PA"}},
		ConstituencyTotals: &types.ConstituencyTotals{
			Totals:  types.GlobalTotals{Registered: 900, Voters: 612},
			Parties: []types.PartyTotal{{PartyID: 1, Votes: 250}},
		},
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snapshot.msgpack")

	if err := Save(path, testSnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded == nil {
		t.Fatal("load = nil, want snapshot")
	}

	if loaded.Scope.ConstituencyID != 12 {
		t.Errorf("scope = %+v", loaded.Scope)
	}
	if loaded.ActiveElection == nil || loaded.ActiveElection.ID != 3 {
		t.Errorf("active election = %+v", loaded.ActiveElection)
	}
	if loaded.ConstituencyTotals == nil || loaded.ConstituencyTotals.Parties[0].Votes != 250 {
		t.Errorf("constituency totals = %+v", loaded.ConstituencyTotals)
	}
	if len(loaded.Roster) != 1 || loaded.Roster[0].Label != "PA" {
		t.Errorf("roster = %+v", loaded.Roster)
	}
}

func TestLoad_MissingIsCacheMiss(t *testing.T) {
	snap, err := Load(filepath.Join(t.TempDir(), "absent.msgpack"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		t.Errorf("snap = %+v, want nil", snap)
	}
}

func TestLoad_GarbageIsCacheMiss(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.msgpack")
	if err := os.WriteFile(path, []byte("not msgpack"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	snap, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		t.Errorf("snap = %+v, want nil for undecodable file", snap)
	}
}

func TestLoad_VersionMismatchIsCacheMiss(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.msgpack")

	old := testSnapshot()
	old.FormatVersion = FormatVersion - 1
	data, err := msgpack.Marshal(old)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	snap, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		t.Errorf("snap = %+v, want nil for old format version", snap)
	}
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.msgpack")
	if err := Save(path, testSnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("snapshot still on disk")
	}
	// Removing twice is fine.
	if err := Remove(path); err != nil {
		t.Errorf("second remove: %v", err)
	}
}
