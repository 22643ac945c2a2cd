package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/example/stakeout/internal/ports/primary"
)

// LiveAdapter translates CLI operations to LiveService calls.
type LiveAdapter struct {
	service primary.LiveService
	out     io.Writer
}

// NewLiveAdapter creates a new LiveAdapter with the given service.
func NewLiveAdapter(service primary.LiveService, out io.Writer) *LiveAdapter {
	return &LiveAdapter{service: service, out: out}
}

// Publish publishes one location sample.
func (a *LiveAdapter) Publish(ctx context.Context, req primary.PublishLocationRequest) error {
	p, err := a.service.PublishLocation(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Published %.5f, %.5f to %s\n", p.Lat, p.Lng, p.OperationID)
	return nil
}

// Say sends one chat message.
func (a *LiveAdapter) Say(ctx context.Context, operationID, body string) error {
	msg, err := a.service.SendChat(ctx, operationID, body)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Sent %s\n", msg.ID)
	return nil
}

// Follow watches an operation and prints trail and chat changes until ctx is
// done.
func (a *LiveAdapter) Follow(ctx context.Context, operationID string) error {
	changes, cancel := a.service.Changes()
	defer cancel()

	stop, err := a.service.Watch(ctx, operationID)
	if err != nil {
		return err
	}
	defer stop()

	fmt.Fprintf(a.out, "Watching %s (Ctrl-C to stop)\n", operationID)
	printed := map[string]bool{}
	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-changes:
			if change.OperationID != operationID {
				continue
			}
			switch change.Kind {
			case primary.ChangeTrail:
				a.printLatest(operationID, change.SubjectID)
			case primary.ChangeChat:
				a.printChat(operationID, printed)
			}
		}
	}
}

func (a *LiveAdapter) printLatest(operationID, userID string) {
	trail := a.service.Trails(operationID)[userID]
	if len(trail) == 0 {
		return
	}
	p := trail[len(trail)-1]
	fmt.Fprintf(a.out, "%s %s  %.5f, %.5f  ±%.0fm  (%d pts)\n",
		faint.Sprint(p.Timestamp.Local().Format("15:04:05")), blue.Sprint(userID), p.Lat, p.Lng, p.Accuracy, len(trail))
}

func (a *LiveAdapter) printChat(operationID string, printed map[string]bool) {
	for _, msg := range a.service.Chat(operationID) {
		if printed[msg.ID] {
			continue
		}
		printed[msg.ID] = true
		fmt.Fprintf(a.out, "%s %s: %s\n", faint.Sprint(msg.SentAt.Local().Format("15:04:05")), blue.Sprint(msg.SenderID), msg.Body)
	}
}

// Trails prints a one-shot summary of every member's trail.
func (a *LiveAdapter) Trails(operationID string) error {
	trails := a.service.Trails(operationID)
	if len(trails) == 0 {
		fmt.Fprintln(a.out, "No trail points")
		return nil
	}
	users := make([]string, 0, len(trails))
	for u := range trails {
		users = append(users, u)
	}
	sort.Strings(users)

	tw := newTable(a.out)
	fmt.Fprintln(tw, "USER\tPOINTS\tLAST\tPOSITION")
	for _, u := range users {
		t := trails[u]
		if len(t) == 0 {
			continue
		}
		last := t[len(t)-1]
		fmt.Fprintf(tw, "%s\t%d\t%s\t%.5f, %.5f\n", u, len(t), ago(&last.Timestamp), last.Lat, last.Lng)
	}
	return tw.Flush()
}
