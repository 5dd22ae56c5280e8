package refresh

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/scrutin-io/scrutin/log"
	"github.com/scrutin-io/scrutin/metrics"
	"github.com/scrutin-io/scrutin/store"
	"github.com/scrutin-io/scrutin/types"
)

func testLogger() *log.Logger {
	return log.NewLogger("test").WithOutput(io.Discard)
}

// fakeFetcher substitutes the REST client. Unset funcs return zero values.
type fakeFetcher struct {
	elections          func(ctx context.Context) ([]types.Election, error)
	regions            func(ctx context.Context) ([]types.Region, error)
	departmentResults  func(ctx context.Context, p types.Params) (*types.DepartmentResults, error)
	constituencyTotals func(ctx context.Context, p types.Params) (*types.ConstituencyTotals, error)
	roster             func(ctx context.Context, p types.Params) ([]types.Party, error)
	locationResults    func(ctx context.Context, department string) ([]types.Locality, error)
}

func (f *fakeFetcher) Elections(ctx context.Context) ([]types.Election, error) {
	if f.elections == nil {
		return nil, nil
	}
	return f.elections(ctx)
}

func (f *fakeFetcher) Regions(ctx context.Context) ([]types.Region, error) {
	if f.regions == nil {
		return nil, nil
	}
	return f.regions(ctx)
}

func (f *fakeFetcher) DepartmentResults(ctx context.Context, p types.Params) (*types.DepartmentResults, error) {
	if f.departmentResults == nil {
		return &types.DepartmentResults{}, nil
	}
	return f.departmentResults(ctx, p)
}

func (f *fakeFetcher) ConstituencyTotals(ctx context.Context, p types.Params) (*types.ConstituencyTotals, error) {
	if f.constituencyTotals == nil {
		return &types.ConstituencyTotals{}, nil
	}
	return f.constituencyTotals(ctx, p)
}

func (f *fakeFetcher) Roster(ctx context.Context, p types.Params) ([]types.Party, error) {
	if f.roster == nil {
		return nil, nil
	}
	return f.roster(ctx, p)
}

func (f *fakeFetcher) LocationResults(ctx context.Context, department string) ([]types.Locality, error) {
	if f.locationResults == nil {
		return nil, nil
	}
	return f.locationResults(ctx, department)
}

func keyedParams() types.Params {
	return types.Params{ElectionID: 3, ConstituencyID: 12, Round: 1, Department: "Finistere"}
}

func TestExecute_AppliesFetchResults(t *testing.T) {
	st := store.New()
	f := &fakeFetcher{
		departmentResults: func(context.Context, types.Params) (*types.DepartmentResults, error) {
			return &types.DepartmentResults{Department: "Finistere"}, nil
		},
		roster: func(context.Context, types.Params) ([]types.Party, error) {
			return []types.Party{{ID: 1, Name: "Parti A"}}, nil
		},
	}
	o := New(f, st, testLogger(), nil)

	o.Execute(t.Context(), []types.Intent{
		{Target: types.TargetDepartmentResults, Silent: true, Params: keyedParams()},
		{Target: types.TargetCandidateRoster, Silent: true, Params: keyedParams()},
	})

	v := st.Snapshot()
	if v.DepartmentResults == nil || v.DepartmentResults.Department != "Finistere" {
		t.Error("department results not applied")
	}
	if len(v.Roster) != 1 {
		t.Error("roster not applied")
	}
}

func TestExecute_SkipsWithoutPrerequisites(t *testing.T) {
	var fetches atomic.Int32
	st := store.New()
	f := &fakeFetcher{
		departmentResults: func(context.Context, types.Params) (*types.DepartmentResults, error) {
			fetches.Add(1)
			return &types.DepartmentResults{}, nil
		},
		locationResults: func(context.Context, string) ([]types.Locality, error) {
			fetches.Add(1)
			return nil, nil
		},
	}
	m := metrics.NewCollector()
	o := New(f, st, testLogger(), m)

	// No election, no constituency, no department: every keyed intent skips.
	o.Execute(t.Context(), []types.Intent{
		{Target: types.TargetDepartmentResults, Silent: true},
		{Target: types.TargetConstituencyTotals, Silent: true},
		{Target: types.TargetCandidateRoster, Silent: true},
		{Target: types.TargetLocationResults, Silent: true},
	})

	if got := fetches.Load(); got != 0 {
		t.Errorf("fetches = %d, want 0", got)
	}
	if got := m.Snapshot().RefreshesSkipped; got != 4 {
		t.Errorf("RefreshesSkipped = %d, want 4", got)
	}
	for _, target := range []types.RefreshTarget{
		types.TargetDepartmentResults,
		types.TargetConstituencyTotals,
		types.TargetCandidateRoster,
		types.TargetLocationResults,
	} {
		if got := st.Err(target); got != "" {
			t.Errorf("%s: Err = %q, skip must not surface an error", target, got)
		}
	}
}

func TestExecute_FailureIsolation(t *testing.T) {
	st := store.New()
	f := &fakeFetcher{
		departmentResults: func(context.Context, types.Params) (*types.DepartmentResults, error) {
			return nil, errors.New("backend down")
		},
		constituencyTotals: func(context.Context, types.Params) (*types.ConstituencyTotals, error) {
			return &types.ConstituencyTotals{Totals: types.GlobalTotals{Voters: 9}}, nil
		},
	}
	o := New(f, st, testLogger(), nil)

	o.Execute(t.Context(), []types.Intent{
		{Target: types.TargetDepartmentResults, Silent: true, Params: keyedParams()},
		{Target: types.TargetConstituencyTotals, Silent: true, Params: keyedParams()},
	})

	if got := st.Err(types.TargetDepartmentResults); got != "backend down" {
		t.Errorf("failed slice Err = %q", got)
	}
	v := st.Snapshot()
	if v.ConstituencyTotals == nil || v.ConstituencyTotals.Totals.Voters != 9 {
		t.Error("sibling slice disturbed by the failure")
	}
}

func TestExecute_LastResponseWins(t *testing.T) {
	st := store.New()
	firstStarted := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	f := &fakeFetcher{
		departmentResults: func(context.Context, types.Params) (*types.DepartmentResults, error) {
			if calls.Add(1) == 1 {
				close(firstStarted)
				<-release
				return &types.DepartmentResults{Department: "stale"}, nil
			}
			return &types.DepartmentResults{Department: "fresh"}, nil
		},
	}
	o := New(f, st, testLogger(), nil)

	in := types.Intent{Target: types.TargetDepartmentResults, Silent: true, Params: keyedParams()}

	firstDone := make(chan struct{})
	go func() {
		o.Execute(t.Context(), []types.Intent{in})
		close(firstDone)
	}()
	<-firstStarted

	// The second fetch resolves while the first is still in flight.
	o.Execute(t.Context(), []types.Intent{in})
	close(release)
	<-firstDone

	// Wholesale replacement: the delayed first response lands last and wins.
	v := st.Snapshot()
	if v.DepartmentResults.Department != "stale" {
		t.Errorf("Department = %q, want the last response to resolve", v.DepartmentResults.Department)
	}
}

func TestExecute_ResetRunsHook(t *testing.T) {
	st := store.New()
	st.SetElections([]types.Election{{ID: 1, Active: true}})
	o := New(&fakeFetcher{}, st, testLogger(), nil)

	hookRan := false
	o.OnReset(func() { hookRan = true })

	o.Execute(t.Context(), []types.Intent{{Target: types.TargetReset}})

	if !hookRan {
		t.Error("reset hook did not run")
	}
	if st.ActiveElection() != nil {
		t.Error("active election survived the reset")
	}
}

func TestExecute_RegionsClearsBeforeRefetch(t *testing.T) {
	st := store.New()
	st.SetRegions([]types.Region{{ID: 1, Name: "Bretagne"}})

	var seen atomic.Int32
	f := &fakeFetcher{
		regions: func(context.Context) ([]types.Region, error) {
			// The cached list must already be gone when the fetch runs.
			if len(st.Snapshot().Regions) == 0 {
				seen.Add(1)
			}
			return []types.Region{{ID: 2, Name: "Normandie"}}, nil
		},
	}
	o := New(f, st, testLogger(), nil)
	o.Execute(t.Context(), []types.Intent{{Target: types.TargetRegions}})

	if seen.Load() != 1 {
		t.Error("regions cache not cleared before the refetch")
	}
	v := st.Snapshot()
	if len(v.Regions) != 1 || v.Regions[0].ID != 2 {
		t.Errorf("regions = %v, want the refetched list", v.Regions)
	}
}

func TestExecute_SilentIntentNoLoadingFlash(t *testing.T) {
	st := store.New()
	blocked := make(chan struct{})
	f := &fakeFetcher{
		constituencyTotals: func(context.Context, types.Params) (*types.ConstituencyTotals, error) {
			<-blocked
			return &types.ConstituencyTotals{}, nil
		},
	}
	o := New(f, st, testLogger(), nil)

	done := make(chan struct{})
	go func() {
		o.Execute(t.Context(), []types.Intent{
			{Target: types.TargetConstituencyTotals, Silent: true, Params: keyedParams()},
		})
		close(done)
	}()

	if st.Loading(types.TargetConstituencyTotals) {
		t.Error("silent refresh toggled the loading indicator")
	}
	close(blocked)
	<-done
}
