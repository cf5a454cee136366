package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/uwbd/uwbd/internal/api"
)

func monitorCmd() *cobra.Command {
	var (
		handle   uint64
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "monitor <handle>",
		Short: "Watch a ranging session's async events as they arrive",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			h, err := parseHandleArg(args[0])
			if err != nil {
				return err
			}
			handle = h
			return watchEvents(handle, interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "polling interval")

	return cmd
}

// watchEvents polls the session's event log until interrupted, printing
// only events not already seen on a prior poll. The admin API exposes a
// bounded event log rather than a subscription, so this is a tail, not a
// true stream.
func watchEvents(handle uint64, interval time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seen := 0
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		events, err := client.events(ctx, handle)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return fmt.Errorf("poll events: %w", err)
		}

		if len(events) > seen {
			if err := printNewEvents(events[seen:]); err != nil {
				return err
			}
			seen = len(events)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func printNewEvents(events []api.Event) error {
	out, err := formatEvents(events, outputFormat)
	if err != nil {
		return fmt.Errorf("format events: %w", err)
	}
	fmt.Fprint(os.Stdout, out)
	return nil
}
