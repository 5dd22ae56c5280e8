package aggregate

import "github.com/scrutin-io/scrutin/types"

// FlattenLocalities collapses the location result tree into per-party
// vote totals and summed global totals, walking locality, then voting
// place, then polling station. Parties keep first-seen walk order, so
// the output is deterministic for identical trees.
//
// The flattened pair feeds Rows when no constituency or department
// aggregate has arrived yet.
func FlattenLocalities(localities []types.Locality) ([]types.PartyTotal, types.GlobalTotals) {
	var order []int64
	sums := make(map[int64]int64)
	var totals types.GlobalTotals

	for _, locality := range localities {
		for _, place := range locality.Places {
			for _, station := range place.Stations {
				for _, pt := range station.Detailed {
					if _, seen := sums[pt.PartyID]; !seen {
						order = append(order, pt.PartyID)
					}
					sums[pt.PartyID] += pt.Votes
				}
				g := station.Grouped
				totals.Registered += g.Registered
				totals.OnCallStaff += g.OnCallStaff
				totals.Voters += g.Voters
				totals.NullBallots += g.NullBallots
				totals.BlankBallots += g.BlankBallots
				totals.ValidBallots += g.ValidBallots
			}
		}
	}

	if len(order) == 0 {
		return nil, totals
	}
	partyTotals := make([]types.PartyTotal, 0, len(order))
	for _, id := range order {
		partyTotals = append(partyTotals, types.PartyTotal{PartyID: id, Votes: sums[id]})
	}
	return partyTotals, totals
}
