// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing and output
// formatting but delegate business logic to services.
package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/example/stakeout/internal/ports/primary"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	blue   = color.New(color.FgBlue)
	faint  = color.New(color.Faint)
)

// badge colors a lifecycle state for terminal output.
func badge(state string) string {
	switch state {
	case "active", "accepted", "approved", "arrived", "succeeded", "clear":
		return green.Sprint(state)
	case "draft", "pending", "assigned", "enRoute", "skipped":
		return yellow.Sprint(state)
	case "declined", "denied", "cancelled", "failed", "abandoned":
		return red.Sprint(state)
	case "ended", "expired":
		return faint.Sprint(state)
	default:
		return state
	}
}

// ago renders a timestamp relative to now, or "-" for nil.
func ago(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return humanize.Time(*t)
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// RenderReconcileResult prints one row per item and a summary line. It returns
// the result's partial failure error so callers exit non-zero.
func RenderReconcileResult(out io.Writer, result *primary.ReconcileResult) error {
	if len(result.Outcomes) == 0 {
		fmt.Fprintln(out, "No changes to send")
		return nil
	}

	tw := newTable(out)
	fmt.Fprintln(tw, "ENTITY\tID\tACTION\tSTATUS\tREASON")
	for _, o := range result.Outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.Entity, o.EntityID, o.Action, badge(string(o.Status)), orDash(o.Reason))
	}
	tw.Flush()

	fmt.Fprintf(out, "\n%d succeeded, %d failed, %d skipped, %d abandoned\n",
		result.Count(primary.OutcomeSucceeded),
		result.Count(primary.OutcomeFailed),
		result.Count(primary.OutcomeSkipped),
		result.Count(primary.OutcomeAbandoned),
	)
	return result.Err()
}
