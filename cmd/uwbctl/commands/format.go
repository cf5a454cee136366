package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/uwbd/uwbd/internal/api"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

// formatSessions renders a slice of sessions in the requested format.
func formatSessions(sessions []api.SessionResponse, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatJSONValue(sessions)
	case formatTable:
		return formatSessionsTable(sessions), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

// formatSession renders a single session in the requested format.
func formatSession(session api.SessionResponse, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatJSONValue(session)
	case formatTable:
		return formatSessionDetail(session), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

// formatEvents renders a session's recorded async events in the requested format.
func formatEvents(events []api.Event, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatJSONValue(events)
	case formatTable:
		return formatEventsTable(events), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatJSONValue(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal to JSON: %w", err)
	}
	return string(data), nil
}

func formatSessionsTable(sessions []api.SessionResponse) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HANDLE\tSESSION-ID\tTYPE\tCHIP\tSTATE\tPRIORITY\tCONTROLEES")

	for _, s := range sessions {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\t%d\n",
			s.Handle, s.SessionID, s.SessionType, s.ChipID, s.State, s.Priority, len(s.Controlees))
	}

	_ = w.Flush()
	return buf.String()
}

func formatSessionDetail(s api.SessionResponse) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Handle:\t%d\n", s.Handle)
	fmt.Fprintf(w, "Session ID:\t%d\n", s.SessionID)
	fmt.Fprintf(w, "Type:\t%s\n", s.SessionType)
	fmt.Fprintf(w, "Chip ID:\t%s\n", s.ChipID)
	fmt.Fprintf(w, "State:\t%s\n", s.State)
	fmt.Fprintf(w, "Priority:\t%s\n", s.Priority)
	fmt.Fprintf(w, "Controlees:\t%s\n", strings.Join(s.Controlees, ", "))

	_ = w.Flush()
	return buf.String()
}

func formatEventsTable(events []api.Event) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tDETAIL")

	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\n", e.Kind, e.Detail)
	}

	_ = w.Flush()
	return buf.String()
}
