package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/lawrns/foco/types"
)

// emit renders v in the selected output format. The table callback
// renders the human layout; json and yaml marshal v directly, so
// scripted callers always get the full records.
func emit(v interface{}, table func(w io.Writer) error) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to render yaml: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	default:
		return table(os.Stdout)
	}
}

// renderTable writes an aligned table. The header row is dropped under
// --quiet so output pipes cleanly into other tools.
func renderTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if !quiet {
		fmt.Fprintln(tw, strings.Join(header, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// confirm prints a one-line confirmation unless --quiet is set, in
// which case only the bare id is printed for scripting.
func confirm(id, format string, args ...interface{}) {
	if quiet {
		fmt.Println(id)
		return
	}
	fmt.Printf(format+"\n", args...)
}

// shortID abbreviates a UUID for table display. Full IDs are available
// through --format json.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatDate renders an optional timestamp as a date, empty when unset.
func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

// parseDateFlag accepts RFC3339 or a bare date. Empty input is nil.
func parseDateFlag(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q (expected RFC3339 or YYYY-MM-DD)", v)
}

// Color palettes for the board and task renders.
var statusColors = map[types.Status]*color.Color{
	types.StatusBacklog:    color.New(color.FgHiBlack),
	types.StatusTodo:       color.New(color.FgCyan),
	types.StatusInProgress: color.New(color.FgYellow),
	types.StatusReview:     color.New(color.FgMagenta),
	types.StatusDone:       color.New(color.FgGreen),
	types.StatusCancelled:  color.New(color.FgHiBlack),
}

var priorityColors = map[types.Priority]*color.Color{
	types.PriorityUrgent: color.New(color.FgRed, color.Bold),
	types.PriorityHigh:   color.New(color.FgRed),
	types.PriorityMedium: color.New(color.FgYellow),
	types.PriorityLow:    color.New(color.FgBlue),
}

// colorFor returns the palette color for a status, defaulting to plain.
func colorFor(s types.Status) *color.Color {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return color.New(color.Reset)
}

// priorityTag renders a colored priority marker, empty for none.
func priorityTag(p types.Priority) string {
	if p == types.PriorityNone || p == "" {
		return ""
	}
	if c, ok := priorityColors[p]; ok {
		return c.Sprintf("[%s]", p)
	}
	return fmt.Sprintf("[%s]", p)
}
