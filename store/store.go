// Package store is the single shared mutable state of the client.
//
// Each slice is mutated only through its own update operations; no other
// component writes a slice directly. Result slices are replaced wholesale
// on every successful fetch completion, which makes overlapping fetches
// last-write-wins by construction: whichever response lands last owns the
// slice. That race between the poller and push-triggered refreshes is an
// accepted trade-off, not a defect.
package store

import (
	"sync"

	"github.com/scrutin-io/scrutin/types"
)

// sliceMeta carries the per-slice fetch status surfaced to the view.
type sliceMeta struct {
	loading bool
	err     string
}

// Store holds every data slice the dashboard reads.
type Store struct {
	mu sync.RWMutex

	elections      []types.Election
	activeElection *types.Election
	regions        []types.Region

	departmentResults  *types.DepartmentResults
	constituencyTotals *types.ConstituencyTotals
	roster             []types.Party
	localities         []types.Locality

	scope types.Scope
	meta  map[types.RefreshTarget]*sliceMeta

	onChange func()
}

// New creates an empty store.
func New() *Store {
	return &Store{meta: make(map[types.RefreshTarget]*sliceMeta)}
}

// OnChange registers the change subscriber. A single subscriber is active
// at a time; the last registration wins. The callback runs synchronously
// after every mutation, outside the store lock.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (s *Store) metaFor(target types.RefreshTarget) *sliceMeta {
	m, ok := s.meta[target]
	if !ok {
		m = &sliceMeta{}
		s.meta[target] = m
	}
	return m
}

// BeginLoad marks a slice as loading. Silent refreshes leave the loading
// indicator untouched; that distinction is the whole point of the flag.
func (s *Store) BeginLoad(target types.RefreshTarget, silent bool) {
	if silent {
		return
	}
	s.mu.Lock()
	m := s.metaFor(target)
	m.loading = true
	m.err = ""
	s.mu.Unlock()
	s.notify()
}

// Fail records a fetch failure: the slice keeps its stale data, shows the
// error, and stops loading.
func (s *Store) Fail(target types.RefreshTarget, err error) {
	s.mu.Lock()
	m := s.metaFor(target)
	m.loading = false
	m.err = err.Error()
	s.mu.Unlock()
	s.notify()
}

func (s *Store) complete(target types.RefreshTarget) {
	m := s.metaFor(target)
	m.loading = false
	m.err = ""
}

// Loading reports whether a visible fetch for the slice is in flight.
func (s *Store) Loading(target types.RefreshTarget) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meta[target]
	return ok && m.loading
}

// Err returns the slice's last fetch error, empty when healthy.
func (s *Store) Err(target types.RefreshTarget) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meta[target]
	if !ok {
		return ""
	}
	return m.err
}

// SetElections replaces the elections list and re-derives the active
// election (the first entry flagged active).
func (s *Store) SetElections(elections []types.Election) {
	s.mu.Lock()
	s.elections = elections
	s.activeElection = nil
	for i := range elections {
		if elections[i].Active {
			e := elections[i]
			s.activeElection = &e
			break
		}
	}
	s.complete(types.TargetElections)
	s.mu.Unlock()
	s.notify()
}

// SetRegions replaces the regions list.
func (s *Store) SetRegions(regions []types.Region) {
	s.mu.Lock()
	s.regions = regions
	s.complete(types.TargetRegions)
	s.mu.Unlock()
	s.notify()
}

// ClearRegions drops the cached regions list ahead of a refetch.
func (s *Store) ClearRegions() {
	s.mu.Lock()
	s.regions = nil
	s.mu.Unlock()
	s.notify()
}

// SetDepartmentResults replaces the department aggregates slice.
func (s *Store) SetDepartmentResults(r *types.DepartmentResults) {
	s.mu.Lock()
	s.departmentResults = r
	s.complete(types.TargetDepartmentResults)
	s.mu.Unlock()
	s.notify()
}

// SetConstituencyTotals replaces the constituency totals slice.
func (s *Store) SetConstituencyTotals(t *types.ConstituencyTotals) {
	s.mu.Lock()
	s.constituencyTotals = t
	s.complete(types.TargetConstituencyTotals)
	s.mu.Unlock()
	s.notify()
}

// SetRoster replaces the candidate/party roster.
func (s *Store) SetRoster(roster []types.Party) {
	s.mu.Lock()
	s.roster = roster
	s.complete(types.TargetCandidateRoster)
	s.mu.Unlock()
	s.notify()
}

// SetLocalities replaces the location result tree wholesale.
func (s *Store) SetLocalities(localities []types.Locality) {
	s.mu.Lock()
	s.localities = localities
	s.complete(types.TargetLocationResults)
	s.mu.Unlock()
	s.notify()
}

// SetScope records a new administrative selection and clears all result
// slices: data fetched for the previous scope must not bleed into the new
// one.
func (s *Store) SetScope(scope types.Scope) {
	s.mu.Lock()
	s.scope = scope
	s.clearResultsLocked()
	s.mu.Unlock()
	s.notify()
}

// Reset is the election-deactivation hard reset: result state, roster,
// active election, and scope selection all go.
func (s *Store) Reset() {
	s.mu.Lock()
	s.clearResultsLocked()
	s.roster = nil
	s.activeElection = nil
	s.scope = types.Scope{}
	s.meta = make(map[types.RefreshTarget]*sliceMeta)
	s.mu.Unlock()
	s.notify()
}

func (s *Store) clearResultsLocked() {
	s.departmentResults = nil
	s.constituencyTotals = nil
	s.localities = nil
}

// Params returns the fetch parameters derived from the active election and
// the selected scope. Zero fields mean "missing prerequisite" and make the
// corresponding intents silent skips at the orchestrator.
func (s *Store) Params() types.Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := types.Params{
		ConstituencyID: s.scope.ConstituencyID,
		Department:     s.scope.Department,
	}
	if s.activeElection != nil {
		p.ElectionID = s.activeElection.ID
		p.Round = s.activeElection.Round
		p.Year = s.activeElection.Year
	}
	return p
}

// Scope returns the current administrative selection.
func (s *Store) Scope() types.Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scope
}

// ActiveElection returns the active election, nil when none.
func (s *Store) ActiveElection() *types.Election {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeElection == nil {
		return nil
	}
	e := *s.activeElection
	return &e
}

// View is an immutable snapshot of everything the dashboard renders.
type View struct {
	Elections          []types.Election
	ActiveElection     *types.Election
	Regions            []types.Region
	DepartmentResults  *types.DepartmentResults
	ConstituencyTotals *types.ConstituencyTotals
	Roster             []types.Party
	Localities         []types.Locality
	Scope              types.Scope
}

// Snapshot returns a consistent copy of the store for rendering.
func (s *Store) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := View{
		Elections:  append([]types.Election(nil), s.elections...),
		Regions:    append([]types.Region(nil), s.regions...),
		Roster:     append([]types.Party(nil), s.roster...),
		Localities: append([]types.Locality(nil), s.localities...),
		Scope:      s.scope,
	}
	if s.activeElection != nil {
		e := *s.activeElection
		v.ActiveElection = &e
	}
	if s.departmentResults != nil {
		r := *s.departmentResults
		v.DepartmentResults = &r
	}
	if s.constituencyTotals != nil {
		t := *s.constituencyTotals
		v.ConstituencyTotals = &t
	}
	return v
}
