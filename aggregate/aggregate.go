// Package aggregate derives the per-party display rows from raw result
// state.
//
// Rows is a pure function: identical inputs yield byte-identical output,
// including colors. There is no hidden state anywhere in this package.
// Fallback colors come from a hash of the party ID, not from assignment
// order.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/scrutin-io/scrutin/types"
)

// Synthetic row identifiers.
const (
	BlankRowID = "blank"
	NullRowID  = "null"
)

// Display names for the synthetic ballot rows.
const (
	blankDisplayName = "Blank ballots"
	nullDisplayName  = "Null ballots"
)

// Row is one aggregated display row: a party, or one of the two synthetic
// ballot rows. Recomputed on every relevant state change, never persisted.
type Row struct {
	ID          string
	DisplayName string
	PartyLabel  string
	Votes       int64
	Percentage  string // two decimals, e.g. "33.40"
	Color       string
}

// Rows aggregates party totals, global totals, and the roster into sorted,
// percentage-annotated display rows.
//
// The expressed-vote base is Σ party votes + blank ballots. Null ballots
// are excluded from the base, so the synthetic null row is pinned at 0.00
// and the synthetic blank row takes whatever remainder brings the party
// percentages to exactly 100.00 (floored at 0, since it absorbs rounding
// slack both ways).
//
// With no party totals but a roster, every roster party gets a zero row;
// null and blank then split their own two-way base when both are nonzero.
// With neither, the result is empty.
//
// Ordering is descending by votes; ties keep input order.
func Rows(partyTotals []types.PartyTotal, totals types.GlobalTotals, roster []types.Party) []Row {
	switch {
	case len(partyTotals) > 0:
		return expressedRows(partyTotals, totals, roster)
	case len(roster) > 0:
		return rosterOnlyRows(totals, roster)
	default:
		return nil
	}
}

func expressedRows(partyTotals []types.PartyTotal, totals types.GlobalTotals, roster []types.Party) []Row {
	byID := rosterIndex(roster)

	var sum int64
	for _, pt := range partyTotals {
		sum += pt.Votes
	}
	base := sum + totals.BlankBallots

	rows := make([]Row, 0, len(partyTotals)+2)
	var pctSum float64
	for _, pt := range partyTotals {
		pct := share(pt.Votes, base)
		pctSum = round2(pctSum + pct)
		rows = append(rows, partyRow(pt, byID[pt.PartyID], pct))
	}

	blankPct := 0.0
	if base > 0 {
		blankPct = round2(100 - pctSum)
		if blankPct < 0 {
			blankPct = 0
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Votes > rows[j].Votes })

	rows = append(rows,
		blankRow(totals.BlankBallots, blankPct),
		nullRow(totals.NullBallots, 0),
	)
	return rows
}

func rosterOnlyRows(totals types.GlobalTotals, roster []types.Party) []Row {
	rows := make([]Row, 0, len(roster)+2)
	for _, party := range roster {
		rows = append(rows, partyRow(types.PartyTotal{PartyID: party.ID}, party, 0))
	}

	// Before any party count exists, null and blank split their own base,
	// but only when both are present.
	var blankPct, nullPct float64
	if totals.NullBallots > 0 && totals.BlankBallots > 0 {
		base := totals.NullBallots + totals.BlankBallots
		blankPct = share(totals.BlankBallots, base)
		nullPct = share(totals.NullBallots, base)
	}

	rows = append(rows,
		blankRow(totals.BlankBallots, blankPct),
		nullRow(totals.NullBallots, nullPct),
	)
	return rows
}

func partyRow(pt types.PartyTotal, party types.Party, pct float64) Row {
	name := party.Name
	if name == "" {
		name = fmt.Sprintf("Party %d", pt.PartyID)
	}
	return Row{
		ID:          strconv.FormatInt(pt.PartyID, 10),
		DisplayName: name,
		PartyLabel:  party.Label,
		Votes:       pt.Votes,
		Percentage:  formatPct(pct),
		Color:       ColorFor(pt.PartyID, party.Color),
	}
}

func blankRow(votes int64, pct float64) Row {
	return Row{
		ID:          BlankRowID,
		DisplayName: blankDisplayName,
		Votes:       votes,
		Percentage:  formatPct(pct),
		Color:       blankColor,
	}
}

func nullRow(votes int64, pct float64) Row {
	return Row{
		ID:          NullRowID,
		DisplayName: nullDisplayName,
		Votes:       votes,
		Percentage:  formatPct(pct),
		Color:       nullColor,
	}
}

func rosterIndex(roster []types.Party) map[int64]types.Party {
	byID := make(map[int64]types.Party, len(roster))
	for _, p := range roster {
		byID[p.ID] = p
	}
	return byID
}

// share returns votes/base as a percentage rounded to two decimals.
// A zero base yields 0, never NaN.
func share(votes, base int64) float64 {
	if base <= 0 {
		return 0
	}
	return round2(float64(votes) / float64(base) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
