package notifier

import (
	"context"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

// ConsoleNotifier prints every committed case event with color formatting.
// Useful for local runs and debugging.
type ConsoleNotifier struct {
	w io.Writer
}

func NewConsole() *ConsoleNotifier {
	return &ConsoleNotifier{w: os.Stdout}
}

// NewConsoleWithWriter is NewConsole writing to w instead of stdout.
func NewConsoleWithWriter(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

var _ interfaces.CaseNotifier = (*ConsoleNotifier)(nil)

func (n *ConsoleNotifier) NotifyCaseEvents(ctx context.Context, c *amlcase.Case, events []*audit.Event) error {
	blue := color.New(color.FgBlue, color.Bold)
	white := color.New(color.FgWhite)

	for _, ev := range events {
		label := eventColor(ev.Type)
		_, _ = blue.Fprintf(n.w, "[%s] ", ev.At.Format("2006-01-02 15:04:05"))
		_, _ = label.Fprintf(n.w, "%s ", ev.Type)
		_, _ = white.Fprintf(n.w, "%s (status=%s, version=%d)\n", c.CaseNumber, c.Status, c.Version)

		for k, v := range ev.Payload {
			_, _ = white.Fprintf(n.w, "  %s: %s\n", k, v)
		}
	}
	return nil
}

func eventColor(t types.EventType) *color.Color {
	switch t {
	case types.EventCaseCreated, types.EventAlertsImported:
		return color.New(color.FgGreen, color.Bold)
	case types.EventStatusChanged, types.EventDecisionSet:
		return color.New(color.FgYellow, color.Bold)
	case types.EventCaseApproved, types.EventCaseClosed:
		return color.New(color.FgMagenta, color.Bold)
	default:
		return color.New(color.FgCyan)
	}
}
