package types

// RefreshTarget names one Data Store slice a refresh intent acts on.
type RefreshTarget int

// Refresh targets. TargetReset is the hard reset issued on election
// deactivation; it clears result state, roster, and scope in one step.
const (
	TargetDepartmentResults RefreshTarget = iota
	TargetConstituencyTotals
	TargetCandidateRoster
	TargetLocationResults
	TargetElections
	TargetRegions
	TargetReset
)

// String returns the target name for logs and metrics labels.
func (t RefreshTarget) String() string {
	switch t {
	case TargetDepartmentResults:
		return "department_results"
	case TargetConstituencyTotals:
		return "constituency_totals"
	case TargetCandidateRoster:
		return "candidate_roster"
	case TargetLocationResults:
		return "location_results"
	case TargetElections:
		return "elections"
	case TargetRegions:
		return "regions"
	case TargetReset:
		return "reset"
	}
	return "unknown"
}

// Params are the keyed scalars a fetch needs. Department is the
// department-name key used by the location results fetch.
type Params struct {
	ElectionID     int64
	ConstituencyID int64
	Round          int
	Year           int
	Department     string
}

// Intent is one refresh instruction: fetch Target with Params. Silent
// intents must never toggle a user-facing loading indicator; visible ones
// must. Intents are constructed by the dispatcher or the poller and
// consumed immediately by the orchestrator, never stored.
type Intent struct {
	Target RefreshTarget
	Silent bool
	Params Params
}
