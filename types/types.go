// Package types defines the domain model shared by all scrutin components.
//
// The wire field names are the backend's (French election vocabulary:
// id_cir = constituency id, nb_tour = round number, id_bv = polling
// station id, voix_obtenues = votes obtained). Go names are English.
package types

// Election identifies one election and its activation state.
// Round is the ballot round (1 or 2), Year the election year.
type Election struct {
	ID     int64  `json:"id_election"`
	Name   string `json:"nom"`
	Round  int    `json:"nb_tour"`
	Year   int    `json:"annee"`
	Active bool   `json:"active"`
}

// Region is a top-level administrative area.
type Region struct {
	ID   int64  `json:"id_region"`
	Name string `json:"nom"`
}

// Scope is the administrative selection the client is watching:
// region → department → constituency.
type Scope struct {
	Region         string `json:"region"`
	Department     string `json:"departement"`
	ConstituencyID int64  `json:"id_cir"`
}

// IsZero reports whether no scope has been selected yet.
func (s Scope) IsZero() bool {
	return s.Region == "" && s.Department == "" && s.ConstituencyID == 0
}

// GlobalTotals are the grouped (non-partisan) counts for one unit:
// a polling station, a constituency, or a whole department.
//
// Expected but not enforced client-side:
// ValidBallots + NullBallots + BlankBallots <= Voters <= Registered.
type GlobalTotals struct {
	Registered   int64 `json:"inscrits"`
	OnCallStaff  int64 `json:"permanenciers"`
	Voters       int64 `json:"votants"`
	NullBallots  int64 `json:"bulletins_nuls"`
	BlankBallots int64 `json:"bulletins_blancs"`
	ValidBallots int64 `json:"bulletins_valides"`
}

// PartyTotal is a per-party vote count.
type PartyTotal struct {
	PartyID int64 `json:"id_parti"`
	Votes   int64 `json:"voix_obtenues"`
}

// Party is one roster entry: a party or candidate list standing in the
// watched constituency. Color is optional; parties without one get a
// deterministic fallback from the display palette.
type Party struct {
	ID    int64  `json:"id_parti"`
	Name  string `json:"nom"`
	Label string `json:"sigle"`
	Color string `json:"couleur,omitempty"`
}

// PollingStation is the smallest vote-counting unit. It carries both the
// detailed per-party breakdown and the grouped totals.
type PollingStation struct {
	ID       int64        `json:"id_bv"`
	Name     string       `json:"nom"`
	Detailed []PartyTotal `json:"resultats_detailles"`
	Grouped  GlobalTotals `json:"resultats_groupes"`
}

// VotingPlace groups the polling stations of one site (school, town hall).
type VotingPlace struct {
	ID       int64            `json:"id_lieu"`
	Name     string           `json:"nom"`
	Stations []PollingStation `json:"bureaux"`
}

// Locality is one entry of the location result tree: a town or district
// with its voting places. The tree is replaced wholesale on every fetch,
// never merged incrementally.
type Locality struct {
	Name   string        `json:"nom"`
	Places []VotingPlace `json:"lieux"`
}

// ConstituencyTotals are the constituency-wide vote and percentage totals.
type ConstituencyTotals struct {
	Totals  GlobalTotals `json:"totaux"`
	Parties []PartyTotal `json:"partis"`
}

// DepartmentResults are the department-level aggregates.
type DepartmentResults struct {
	Department string       `json:"departement"`
	Totals     GlobalTotals `json:"totaux"`
	Parties    []PartyTotal `json:"partis"`
}

// DetailedEntry is one row of a detailed per-party station submission.
type DetailedEntry struct {
	ElectionID     int64  `json:"id_election"`
	ConstituencyID int64  `json:"id_cir"`
	Round          int    `json:"nb_tour"`
	StationID      int64  `json:"id_bv"`
	PartyID        int64  `json:"id_parti"`
	Votes          int64  `json:"voix_obtenues"`
	EnteredBy      string `json:"saisie_par"`
}

// GroupedSubmission is a grouped station totals submission. PV evidence
// attachments travel alongside as multipart files.
type GroupedSubmission struct {
	ElectionID     int64        `json:"id_election"`
	ConstituencyID int64        `json:"id_cir"`
	Round          int          `json:"nb_tour"`
	StationID      int64        `json:"id_bv"`
	Totals         GlobalTotals `json:"totaux"`
	EnteredBy      string       `json:"saisie_par"`
}
