package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/scrutin-io/scrutin/api"
	"github.com/scrutin-io/scrutin/log"
	"github.com/scrutin-io/scrutin/metrics"
	"github.com/scrutin-io/scrutin/session"
	"github.com/scrutin-io/scrutin/types"
)

// SubmitCommand returns the submit command with its grouped and detailed
// subcommands.
func SubmitCommand() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "Submit polling station results",
		Subcommands: []*cli.Command{
			submitGroupedCommand(),
			submitDetailedCommand(),
		},
	}
}

// keyFlags are the result keys every submission carries.
func keyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{Name: "election", Usage: "Election ID", Required: true},
		&cli.Int64Flag{Name: "cir", Usage: "Constituency ID", Required: true},
		&cli.IntFlag{Name: "round", Usage: "Ballot round (1 or 2)", Required: true},
		&cli.Int64Flag{Name: "station", Usage: "Polling station ID", Required: true},
		&cli.StringFlag{Name: "entered-by", Usage: "Operator identifier (overrides config)"},
	}
}

func submitGroupedCommand() *cli.Command {
	return &cli.Command{
		Name:  "grouped",
		Usage: "Submit grouped station totals with PV evidence",
		Flags: append(append([]cli.Flag{
			&cli.Int64Flag{Name: "registered", Usage: "Registered voters (inscrits)", Required: true},
			&cli.Int64Flag{Name: "staff", Usage: "On-call staff (permanenciers)"},
			&cli.Int64Flag{Name: "voters", Usage: "Voters (votants)", Required: true},
			&cli.Int64Flag{Name: "nulls", Usage: "Null ballots", Required: true},
			&cli.Int64Flag{Name: "blanks", Usage: "Blank ballots", Required: true},
			&cli.Int64Flag{Name: "valids", Usage: "Valid ballots", Required: true},
			&cli.StringSliceFlag{Name: "pv", Usage: "PV evidence PDF (repeatable, max 10)"},
		}, keyFlags()...), ConfigFlag),
		Action: submitGroupedAction,
	}
}

func submitGroupedAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	enteredBy := c.String("entered-by")
	if enteredBy == "" {
		enteredBy = cfg.EnteredBy
	}
	if enteredBy == "" {
		return fmt.Errorf("entered_by is required (flag or config)")
	}

	attachments, err := readAttachments(c.StringSlice("pv"))
	if err != nil {
		return err
	}

	req := api.GroupedSubmissionRequest{
		Submission: types.GroupedSubmission{
			ElectionID:     c.Int64("election"),
			ConstituencyID: c.Int64("cir"),
			Round:          c.Int("round"),
			StationID:      c.Int64("station"),
			Totals: types.GlobalTotals{
				Registered:   c.Int64("registered"),
				OnCallStaff:  c.Int64("staff"),
				Voters:       c.Int64("voters"),
				NullBallots:  c.Int64("nulls"),
				BlankBallots: c.Int64("blanks"),
				ValidBallots: c.Int64("valids"),
			},
			EnteredBy: enteredBy,
		},
		Attachments: attachments,
	}
	if err := api.ValidateAttachments(req.Attachments); err != nil {
		return err
	}

	sess, err := session.New(cfg, log.NewLogger("submit"), metrics.NewCollector())
	if err != nil {
		return err
	}
	defer sess.Stop()

	if err := sess.SubmitGrouped(c.Context, req); err != nil {
		return fmt.Errorf("grouped submission failed: %w", err)
	}
	fmt.Printf("Submitted grouped totals for station %d (%d PV files)\n",
		req.Submission.StationID, len(req.Attachments))
	return nil
}

func submitDetailedCommand() *cli.Command {
	return &cli.Command{
		Name:  "detailed",
		Usage: "Submit per-party station counts",
		Flags: append(append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:     "votes",
				Usage:    "Per-party count as partyID=votes (repeatable)",
				Required: true,
			},
		}, keyFlags()...), ConfigFlag),
		Action: submitDetailedAction,
	}
}

func submitDetailedAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	enteredBy := c.String("entered-by")
	if enteredBy == "" {
		enteredBy = cfg.EnteredBy
	}
	if enteredBy == "" {
		return fmt.Errorf("entered_by is required (flag or config)")
	}

	entries, err := parseVoteEntries(c.StringSlice("votes"))
	if err != nil {
		return err
	}
	for i := range entries {
		entries[i].ElectionID = c.Int64("election")
		entries[i].ConstituencyID = c.Int64("cir")
		entries[i].Round = c.Int("round")
		entries[i].StationID = c.Int64("station")
		entries[i].EnteredBy = enteredBy
	}

	sess, err := session.New(cfg, log.NewLogger("submit"), metrics.NewCollector())
	if err != nil {
		return err
	}
	defer sess.Stop()

	if err := sess.SubmitDetailed(c.Context, entries); err != nil {
		return fmt.Errorf("detailed submission failed: %w", err)
	}
	fmt.Printf("Submitted %d detailed rows for station %d\n", len(entries), c.Int64("station"))
	return nil
}

// readAttachments loads PV files from disk. Content type is always PDF;
// non-PDF bytes fail validation before any network I/O.
func readAttachments(paths []string) ([]api.Attachment, error) {
	attachments := make([]api.Attachment, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read PV %s: %w", p, err)
		}
		attachments = append(attachments, api.Attachment{
			Filename:    filepath.Base(p),
			ContentType: "application/pdf",
			Data:        data,
		})
	}
	return attachments, nil
}

// parseVoteEntries parses repeated partyID=votes values.
func parseVoteEntries(values []string) ([]types.DetailedEntry, error) {
	entries := make([]types.DetailedEntry, 0, len(values))
	for _, v := range values {
		partyStr, votesStr, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --votes value %q, want partyID=votes", v)
		}
		partyID, err := strconv.ParseInt(partyStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid party ID in %q: %w", v, err)
		}
		votes, err := strconv.ParseInt(votesStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid vote count in %q: %w", v, err)
		}
		if votes < 0 {
			return nil, fmt.Errorf("negative vote count in %q", v)
		}
		entries = append(entries, types.DetailedEntry{PartyID: partyID, Votes: votes})
	}
	return entries, nil
}
