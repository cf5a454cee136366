package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uwbd/uwbd/internal/api"
)

// Sentinel errors for CLI validation.
var (
	errUnknownSessionKind = errors.New("unknown session type, expected fira, ccc, or radar")
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage UWB ranging sessions",
	}

	cmd.AddCommand(sessionListCmd())
	cmd.AddCommand(sessionShowCmd())
	cmd.AddCommand(sessionCreateCmd())
	cmd.AddCommand(sessionStartCmd())
	cmd.AddCommand(sessionStopCmd())
	cmd.AddCommand(sessionDeleteCmd())
	cmd.AddCommand(sessionSendCmd())
	cmd.AddCommand(sessionMulticastCmd())

	return cmd
}

func parseHandleArg(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse handle %q: %w", s, err)
	}
	return v, nil
}

// --- session list ---

func sessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all resident ranging sessions",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			sessions, err := client.listSessions(context.Background())
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			out, err := formatSessions(sessions, outputFormat)
			if err != nil {
				return fmt.Errorf("format sessions: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}

// --- session show ---

func sessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <handle>",
		Short: "Show details of a ranging session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			handle, err := parseHandleArg(args[0])
			if err != nil {
				return err
			}

			session, err := client.getSession(context.Background(), handle)
			if err != nil {
				return fmt.Errorf("get session: %w", err)
			}

			out, err := formatSession(session, outputFormat)
			if err != nil {
				return fmt.Errorf("format session: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}

// --- session create ---

func sessionCreateCmd() *cobra.Command {
	var (
		sessionID   uint32
		kind        string
		chipID      string
		systemUID   bool
		foreground  bool
		rangingMs   uint32
		ranMult     uint32
		burstMs     uint32
		sweepMs     uint32
		framesBurst uint32
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new ranging session",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			req := api.OpenSessionRequest{
				SessionID:  sessionID,
				ChipID:     chipID,
				SystemUID:  systemUID,
				Foreground: foreground,
			}

			switch strings.ToLower(kind) {
			case "fira":
				req.SessionType = "FIRA_RANGING"
				req.Fira = &api.FiraParamsDTO{UCIVersion: "2", RangingIntervalMs: rangingMs}
			case "ccc":
				req.SessionType = "CCC"
				req.CCC = &api.CCCParamsDTO{UCIVersion: "2", RanMultiplier: ranMult, RangingIntervalMs: rangingMs}
			case "radar":
				req.SessionType = "RADAR"
				req.Radar = &api.RadarParamsDTO{BurstPeriodMs: burstMs, SweepPeriodMs: sweepMs, FramesPerBurst: framesBurst}
			default:
				return fmt.Errorf("%w: %q", errUnknownSessionKind, kind)
			}

			session, err := client.createSession(context.Background(), req)
			if err != nil {
				return fmt.Errorf("create session: %w", err)
			}

			out, err := formatSession(session, outputFormat)
			if err != nil {
				return fmt.Errorf("format session: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Uint32Var(&sessionID, "session-id", 0, "session identifier (required)")
	flags.StringVar(&kind, "type", "fira", "session type: fira, ccc, or radar")
	flags.StringVar(&chipID, "chip", "", "UWB chip identifier")
	flags.BoolVar(&systemUID, "system", false, "mark the caller as a system UID (System priority)")
	flags.BoolVar(&foreground, "foreground", true, "mark the caller as foreground (FG priority)")
	flags.Uint32Var(&rangingMs, "ranging-interval-ms", 200, "ranging interval in milliseconds")
	flags.Uint32Var(&ranMult, "ran-multiplier", 1, "CCC RAN multiplier")
	flags.Uint32Var(&burstMs, "burst-period-ms", 100, "radar burst period in milliseconds")
	flags.Uint32Var(&sweepMs, "sweep-period-ms", 10, "radar sweep period in milliseconds")
	flags.Uint32Var(&framesBurst, "frames-per-burst", 4, "radar frames per burst")

	return cmd
}

// --- session start / stop / delete ---

func sessionStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <handle>",
		Short: "Start ranging on a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			handle, err := parseHandleArg(args[0])
			if err != nil {
				return err
			}
			if err := client.startRanging(context.Background(), handle, nil); err != nil {
				return fmt.Errorf("start ranging: %w", err)
			}
			fmt.Printf("Session %d started.\n", handle)
			return nil
		},
	}
}

func sessionStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <handle>",
		Short: "Stop ranging on a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			handle, err := parseHandleArg(args[0])
			if err != nil {
				return err
			}
			if err := client.stopRanging(context.Background(), handle); err != nil {
				return fmt.Errorf("stop ranging: %w", err)
			}
			fmt.Printf("Session %d stopped.\n", handle)
			return nil
		},
	}
}

func sessionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <handle>",
		Short: "Close a ranging session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			handle, err := parseHandleArg(args[0])
			if err != nil {
				return err
			}
			if err := client.deleteSession(context.Background(), handle); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			fmt.Printf("Session %d deleted.\n", handle)
			return nil
		},
	}
}

// --- session send ---

func sessionSendCmd() *cobra.Command {
	var peerMAC uint64
	var payloadHex string

	cmd := &cobra.Command{
		Use:   "send <handle>",
		Short: "Send application data on a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			handle, err := parseHandleArg(args[0])
			if err != nil {
				return err
			}
			req := api.SendDataRequest{PeerMAC: peerMAC, PayloadHex: payloadHex}
			if err := client.sendData(context.Background(), handle, req); err != nil {
				return fmt.Errorf("send data: %w", err)
			}
			fmt.Println("Data accepted.")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Uint64Var(&peerMAC, "peer-mac", 0, "peer MAC address (required)")
	flags.StringVar(&payloadHex, "payload-hex", "", "hex-encoded application payload (required)")

	return cmd
}

// --- session multicast ---

func sessionMulticastCmd() *cobra.Command {
	var (
		action     string
		addresses  []uint64
		sessionKey string
	)

	cmd := &cobra.Command{
		Use:   "multicast <handle>",
		Short: "Add or remove controlees from a multicast ranging session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			handle, err := parseHandleArg(args[0])
			if err != nil {
				return err
			}
			req := api.MulticastUpdateRequest{
				Action:        action,
				Addresses:     addresses,
				SessionKeyHex: sessionKey,
			}
			if err := client.multicastUpdate(context.Background(), handle, req); err != nil {
				return fmt.Errorf("multicast update: %w", err)
			}
			fmt.Println("Multicast update accepted.")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&action, "action", "add", "add or remove")
	flags.Uint64SliceVar(&addresses, "address", nil, "controlee short address (repeatable)")
	flags.StringVar(&sessionKey, "session-key-hex", "", "hex-encoded session key")

	return cmd
}
