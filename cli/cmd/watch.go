package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/scrutin-io/scrutin/cli/tui"
	"github.com/scrutin-io/scrutin/log"
	"github.com/scrutin-io/scrutin/metrics"
	"github.com/scrutin-io/scrutin/session"
	"github.com/scrutin-io/scrutin/types"
)

// WatchCommand returns the watch command: the live results dashboard.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Follow live election results",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:  "headless",
				Usage: "Run without the TUI, logging updates until interrupted",
			},
			&cli.StringFlag{
				Name:  "region",
				Usage: "Region to watch",
			},
			&cli.StringFlag{
				Name:  "department",
				Usage: "Department to watch",
			},
			&cli.Int64Flag{
				Name:  "cir",
				Usage: "Constituency ID to watch",
			},
		}, ConfigFlag),
		Action: watchAction,
	}
}

func watchAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger := log.NewLogger("watch")
	collector := metrics.NewCollector()

	sess, err := session.New(cfg, logger, collector)
	if err != nil {
		return err
	}
	defer sess.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	sess.Start(ctx)

	if scope := scopeFromFlags(c); !scope.IsZero() {
		sess.SetScope(ctx, scope)
	}

	if c.Bool("headless") {
		logger.Info("watching headless, interrupt to stop", nil)
		<-ctx.Done()
	} else if err := tui.RunWatch(ctx, sess); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}

	snap := collector.Snapshot()
	logger.Info("watch session finished", map[string]any{
		"events_dispatched": snap.EventsDispatched,
		"malformed_events":  snap.MalformedEvents,
		"reconnects":        snap.Reconnects,
		"refreshes":         snap.RefreshesStarted,
		"refresh_failures":  snap.RefreshFailures,
		"poll_ticks":        snap.PollTicks,
	})
	return nil
}

// scopeFromFlags builds the scope override from the watch flags. A zero
// scope keeps whatever the preferences carried.
func scopeFromFlags(c *cli.Context) types.Scope {
	return types.Scope{
		Region:         c.String("region"),
		Department:     c.String("department"),
		ConstituencyID: c.Int64("cir"),
	}
}
