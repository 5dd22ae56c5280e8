package session

import (
	"context"

	"github.com/scrutin-io/scrutin/api"
	"github.com/scrutin-io/scrutin/types"
)

// SubmitGrouped submits grouped station totals with their PV evidence,
// then mirrors the PVs to the archive when one is configured. The mirror
// is best effort: an archive failure logs but does not fail the
// submission that already succeeded.
func (s *Session) SubmitGrouped(ctx context.Context, req api.GroupedSubmissionRequest) error {
	if err := s.client.SubmitGrouped(ctx, req); err != nil {
		return err
	}
	if s.archiver == nil {
		return nil
	}
	sub := req.Submission
	for _, a := range req.Attachments {
		key := s.archiver.KeyFor(sub.ElectionID, sub.ConstituencyID, sub.StationID, a.Filename)
		if err := s.archiver.Store(ctx, key, a.ContentType, a.Data); err != nil {
			s.log.Warn("PV archive failed", map[string]any{"key": key, "error": err.Error()})
		}
	}
	return nil
}

// SubmitDetailed submits the per-party station rows.
func (s *Session) SubmitDetailed(ctx context.Context, entries []types.DetailedEntry) error {
	return s.client.SubmitDetailed(ctx, entries)
}
