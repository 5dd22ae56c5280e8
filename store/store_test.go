package store

import (
	"errors"
	"testing"

	"github.com/scrutin-io/scrutin/types"
)

func testElections() []types.Election {
	return []types.Election{
		{ID: 1, Name: "Legislatives", Round: 1, Year: 2026, Active: false},
		{ID: 2, Name: "Municipales", Round: 2, Year: 2026, Active: true},
		{ID: 3, Name: "Europeennes", Round: 1, Year: 2024, Active: true},
	}
}

func TestSetElections_DerivesActiveElection(t *testing.T) {
	s := New()
	s.SetElections(testElections())

	active := s.ActiveElection()
	if active == nil {
		t.Fatal("ActiveElection = nil, want the first active entry")
	}
	if active.ID != 2 {
		t.Errorf("ActiveElection.ID = %d, want 2 (first flagged active)", active.ID)
	}
}

func TestSetElections_NoneActive(t *testing.T) {
	s := New()
	s.SetElections([]types.Election{{ID: 1, Active: false}})

	if s.ActiveElection() != nil {
		t.Error("ActiveElection != nil, want nil when nothing is active")
	}
}

func TestParams_Derivation(t *testing.T) {
	s := New()
	s.SetElections(testElections())
	s.SetScope(types.Scope{Region: "Bretagne", Department: "Finistere", ConstituencyID: 12})

	p := s.Params()
	if p.ElectionID != 2 || p.Round != 2 || p.Year != 2026 {
		t.Errorf("election params = %+v, want from active election", p)
	}
	if p.ConstituencyID != 12 || p.Department != "Finistere" {
		t.Errorf("scope params = %+v, want from scope", p)
	}
}

func TestParams_ZeroWithoutElection(t *testing.T) {
	s := New()
	if p := s.Params(); p.ElectionID != 0 {
		t.Errorf("ElectionID = %d, want 0 with no active election", p.ElectionID)
	}
}

func TestSetScope_ClearsResults(t *testing.T) {
	s := New()
	s.SetDepartmentResults(&types.DepartmentResults{Department: "Finistere"})
	s.SetConstituencyTotals(&types.ConstituencyTotals{})
	s.SetLocalities([]types.Locality{{Name: "Brest"}})
	s.SetRoster([]types.Party{{ID: 1}})

	s.SetScope(types.Scope{Department: "Morbihan", ConstituencyID: 4})

	v := s.Snapshot()
	if v.DepartmentResults != nil || v.ConstituencyTotals != nil || len(v.Localities) != 0 {
		t.Error("result slices survived a scope change")
	}
	// The roster belongs to the election, not the scope.
	if len(v.Roster) != 1 {
		t.Error("roster cleared by scope change, want kept")
	}
}

func TestReset_ClearsEverything(t *testing.T) {
	s := New()
	s.SetElections(testElections())
	s.SetScope(types.Scope{Department: "Finistere", ConstituencyID: 12})
	s.SetDepartmentResults(&types.DepartmentResults{})
	s.SetRoster([]types.Party{{ID: 1}})
	s.BeginLoad(types.TargetElections, false)

	s.Reset()

	v := s.Snapshot()
	if v.ActiveElection != nil || v.DepartmentResults != nil || len(v.Roster) != 0 {
		t.Error("reset left result state behind")
	}
	if !v.Scope.IsZero() {
		t.Errorf("scope = %+v, want zero after reset", v.Scope)
	}
	if s.Loading(types.TargetElections) {
		t.Error("loading flag survived reset")
	}
}

func TestBeginLoad_SilentLeavesIndicatorUntouched(t *testing.T) {
	s := New()

	s.BeginLoad(types.TargetDepartmentResults, true)
	if s.Loading(types.TargetDepartmentResults) {
		t.Error("silent BeginLoad toggled the loading indicator")
	}

	s.BeginLoad(types.TargetDepartmentResults, false)
	if !s.Loading(types.TargetDepartmentResults) {
		t.Error("visible BeginLoad did not toggle the loading indicator")
	}
}

func TestFail_KeepsStaleData(t *testing.T) {
	s := New()
	s.SetDepartmentResults(&types.DepartmentResults{Department: "Finistere"})

	s.BeginLoad(types.TargetDepartmentResults, false)
	s.Fail(types.TargetDepartmentResults, errors.New("backend down"))

	v := s.Snapshot()
	if v.DepartmentResults == nil || v.DepartmentResults.Department != "Finistere" {
		t.Error("stale data discarded on failure, want kept")
	}
	if s.Loading(types.TargetDepartmentResults) {
		t.Error("loading still set after failure")
	}
	if got := s.Err(types.TargetDepartmentResults); got != "backend down" {
		t.Errorf("Err = %q, want the failure message", got)
	}
}

func TestSet_ClearsError(t *testing.T) {
	s := New()
	s.Fail(types.TargetRegions, errors.New("boom"))
	s.SetRegions([]types.Region{{ID: 1, Name: "Bretagne"}})

	if got := s.Err(types.TargetRegions); got != "" {
		t.Errorf("Err = %q after successful set, want empty", got)
	}
}

func TestWholesaleReplacement(t *testing.T) {
	s := New()
	s.SetLocalities([]types.Locality{{Name: "Brest"}, {Name: "Quimper"}})
	s.SetLocalities([]types.Locality{{Name: "Rennes"}})

	v := s.Snapshot()
	if len(v.Localities) != 1 || v.Localities[0].Name != "Rennes" {
		t.Errorf("localities = %v, want wholesale replacement, not merge", v.Localities)
	}
}

func TestOnChange_LastRegistrationWins(t *testing.T) {
	s := New()
	firstCalls, secondCalls := 0, 0
	s.OnChange(func() { firstCalls++ })
	s.OnChange(func() { secondCalls++ })

	s.SetRegions(nil)

	if firstCalls != 0 {
		t.Errorf("first subscriber called %d times after re-registration", firstCalls)
	}
	if secondCalls != 1 {
		t.Errorf("second subscriber called %d times, want 1", secondCalls)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := New()
	s.SetRoster([]types.Party{{ID: 1, Name: "Parti A"}})

	v := s.Snapshot()
	v.Roster[0].Name = "mutated"

	if got := s.Snapshot().Roster[0].Name; got != "Parti A" {
		t.Errorf("store roster = %q, snapshot mutation leaked in", got)
	}
}
