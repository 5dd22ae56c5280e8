package aggregate

import (
	"reflect"
	"testing"

	"github.com/scrutin-io/scrutin/types"
)

func testRoster() []types.Party {
	return []types.Party{
		{ID: 1, Name: "Parti A", Label: "PA", Color: "#FF0000"},
		{ID: 2, Name: "Parti B", Label: "PB"},
		{ID: 3, Name: "Parti C", Label: "PC", Color: "#00FF00"},
	}
}

func rowByID(t *testing.T, rows []Row, id string) Row {
	t.Helper()
	for _, r := range rows {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("no row with ID %q", id)
	return Row{}
}

func TestRows_ExpressedPercentages(t *testing.T) {
	totals := types.GlobalTotals{BlankBallots: 10, NullBallots: 5}
	partyTotals := []types.PartyTotal{
		{PartyID: 1, Votes: 60},
		{PartyID: 2, Votes: 30},
	}
	// base = 60 + 30 + 10 = 100
	rows := Rows(partyTotals, totals, testRoster())

	if len(rows) != 4 {
		t.Fatalf("len(rows) = %d, want 4", len(rows))
	}
	if got := rowByID(t, rows, "1").Percentage; got != "60.00" {
		t.Errorf("party 1 pct = %s, want 60.00", got)
	}
	if got := rowByID(t, rows, "2").Percentage; got != "30.00" {
		t.Errorf("party 2 pct = %s, want 30.00", got)
	}
	if got := rowByID(t, rows, BlankRowID).Percentage; got != "10.00" {
		t.Errorf("blank pct = %s, want 10.00", got)
	}
	if got := rowByID(t, rows, NullRowID).Percentage; got != "0.00" {
		t.Errorf("null pct = %s, want 0.00 (excluded from base)", got)
	}
}

func TestRows_BlankAbsorbsRoundingRemainder(t *testing.T) {
	// Three-way split of 100 votes: 33.33 each, blank takes 0.01.
	totals := types.GlobalTotals{BlankBallots: 0}
	partyTotals := []types.PartyTotal{
		{PartyID: 1, Votes: 1},
		{PartyID: 2, Votes: 1},
		{PartyID: 3, Votes: 1},
	}
	rows := Rows(partyTotals, totals, testRoster())

	if got := rowByID(t, rows, "1").Percentage; got != "33.33" {
		t.Errorf("party pct = %s, want 33.33", got)
	}
	if got := rowByID(t, rows, BlankRowID).Percentage; got != "0.01" {
		t.Errorf("blank pct = %s, want 0.01 remainder", got)
	}
}

func TestRows_BlankRemainderFlooredAtZero(t *testing.T) {
	// Rounding up can push the party sum past 100; blank never goes
	// negative. Base 800: 83.38 + 16.63 = 100.01, remainder -0.01.
	totals := types.GlobalTotals{BlankBallots: 0}
	partyTotals := []types.PartyTotal{
		{PartyID: 1, Votes: 667},
		{PartyID: 2, Votes: 133},
	}
	rows := Rows(partyTotals, totals, nil)

	if got := rowByID(t, rows, "1").Percentage; got != "83.38" {
		t.Errorf("party 1 pct = %s, want 83.38", got)
	}
	if got := rowByID(t, rows, "2").Percentage; got != "16.63" {
		t.Errorf("party 2 pct = %s, want 16.63", got)
	}
	if got := rowByID(t, rows, BlankRowID).Percentage; got != "0.00" {
		t.Errorf("blank pct = %s, want 0.00 floor", got)
	}
}

func TestRows_ZeroBase(t *testing.T) {
	rows := Rows([]types.PartyTotal{{PartyID: 1, Votes: 0}}, types.GlobalTotals{}, nil)

	for _, r := range rows {
		if r.Percentage != "0.00" {
			t.Errorf("row %s pct = %s, want 0.00 with zero base", r.ID, r.Percentage)
		}
	}
}

func TestRows_SortedDescendingStable(t *testing.T) {
	totals := types.GlobalTotals{}
	partyTotals := []types.PartyTotal{
		{PartyID: 1, Votes: 10},
		{PartyID: 2, Votes: 30},
		{PartyID: 3, Votes: 10},
	}
	rows := Rows(partyTotals, totals, nil)

	gotOrder := []string{rows[0].ID, rows[1].ID, rows[2].ID}
	// Ties keep input order: party 1 before party 3.
	wantOrder := []string{"2", "1", "3"}
	if !reflect.DeepEqual(gotOrder, wantOrder) {
		t.Errorf("order = %v, want %v", gotOrder, wantOrder)
	}

	// Synthetic rows always trail.
	if rows[3].ID != BlankRowID || rows[4].ID != NullRowID {
		t.Errorf("trailing rows = %s, %s, want blank then null", rows[3].ID, rows[4].ID)
	}
}

func TestRows_RosterOnly(t *testing.T) {
	totals := types.GlobalTotals{BlankBallots: 30, NullBallots: 10}
	rows := Rows(nil, totals, testRoster())

	if len(rows) != 5 {
		t.Fatalf("len(rows) = %d, want 3 parties + 2 synthetic", len(rows))
	}
	for _, id := range []string{"1", "2", "3"} {
		r := rowByID(t, rows, id)
		if r.Votes != 0 || r.Percentage != "0.00" {
			t.Errorf("roster row %s = %d votes %s%%, want zero row", id, r.Votes, r.Percentage)
		}
	}
	// Null and blank split their own base when both are nonzero.
	if got := rowByID(t, rows, BlankRowID).Percentage; got != "75.00" {
		t.Errorf("blank pct = %s, want 75.00", got)
	}
	if got := rowByID(t, rows, NullRowID).Percentage; got != "25.00" {
		t.Errorf("null pct = %s, want 25.00", got)
	}
}

func TestRows_RosterOnlySplitNeedsBoth(t *testing.T) {
	// Only blanks present: no two-way split, both stay at zero.
	totals := types.GlobalTotals{BlankBallots: 30}
	rows := Rows(nil, totals, testRoster())

	if got := rowByID(t, rows, BlankRowID).Percentage; got != "0.00" {
		t.Errorf("blank pct = %s, want 0.00 without null ballots", got)
	}
	if got := rowByID(t, rows, NullRowID).Percentage; got != "0.00" {
		t.Errorf("null pct = %s, want 0.00", got)
	}
}

func TestRows_Empty(t *testing.T) {
	if rows := Rows(nil, types.GlobalTotals{NullBallots: 4}, nil); rows != nil {
		t.Errorf("rows = %v, want nil with no totals and no roster", rows)
	}
}

func TestRows_Deterministic(t *testing.T) {
	totals := types.GlobalTotals{BlankBallots: 7, NullBallots: 3}
	partyTotals := []types.PartyTotal{
		{PartyID: 2, Votes: 41},
		{PartyID: 1, Votes: 52},
		{PartyID: 3, Votes: 0},
	}
	first := Rows(partyTotals, totals, testRoster())
	second := Rows(partyTotals, totals, testRoster())

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different rows:\n%v\n%v", first, second)
	}
}

func TestRows_UnknownPartyGetsPlaceholderName(t *testing.T) {
	rows := Rows([]types.PartyTotal{{PartyID: 99, Votes: 5}}, types.GlobalTotals{}, nil)

	if got := rowByID(t, rows, "99").DisplayName; got != "Party 99" {
		t.Errorf("display name = %q, want placeholder", got)
	}
}
