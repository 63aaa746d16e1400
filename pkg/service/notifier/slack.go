package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/slack-go/slack"
)

// SlackNotifier posts case milestones to a Slack channel. Routine events
// such as comments and assignments are not posted.
type SlackNotifier struct {
	client    interfaces.SlackClient
	channelID string
	baseURL   string
}

type SlackOption func(*SlackNotifier)

// WithCaseURL sets the frontend base URL used to link a case from the message.
func WithCaseURL(baseURL string) SlackOption {
	return func(n *SlackNotifier) {
		n.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func NewSlack(client interfaces.SlackClient, channelID string, opts ...SlackOption) *SlackNotifier {
	n := &SlackNotifier{
		client:    client,
		channelID: channelID,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var _ interfaces.CaseNotifier = (*SlackNotifier)(nil)

func (n *SlackNotifier) NotifyCaseEvents(ctx context.Context, c *amlcase.Case, events []*audit.Event) error {
	for _, ev := range events {
		text, ok := n.format(c, ev)
		if !ok {
			continue
		}

		block := slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
		if _, _, err := n.client.PostMessageContext(ctx, n.channelID,
			slack.MsgOptionText(text, false),
			slack.MsgOptionBlocks(block),
		); err != nil {
			return goerr.Wrap(err, "failed to post case event to slack",
				goerr.V("channel_id", n.channelID),
				goerr.V("case_id", c.ID),
				goerr.V("event_type", ev.Type))
		}
	}
	return nil
}

func (n *SlackNotifier) format(c *amlcase.Case, ev *audit.Event) (string, bool) {
	var head string
	switch ev.Type {
	case types.EventCaseCreated:
		head = fmt.Sprintf(":new: *Case opened* %s | risk `%s` | priority %d", n.caseRef(c), c.RiskLevel, c.Priority)
	case types.EventStatusChanged:
		if ev.Payload["to"] != types.CaseStatusEscalated.String() {
			return "", false
		}
		head = fmt.Sprintf(":rotating_light: *Case escalated* %s | risk `%s`", n.caseRef(c), c.RiskLevel)
	case types.EventCaseApproved:
		head = fmt.Sprintf(":white_check_mark: *Case approved* %s | decision: %s", n.caseRef(c), c.Decision)
	case types.EventCaseClosed:
		head = fmt.Sprintf(":lock: *Case closed* %s | decision: %s", n.caseRef(c), c.Decision)
	default:
		return "", false
	}

	if c.SLADueAt != nil && c.IsOpen() {
		head += fmt.Sprintf("\nSLA due: %s", c.SLADueAt.UTC().Format("2006-01-02 15:04 UTC"))
	}
	return head, true
}

func (n *SlackNotifier) caseRef(c *amlcase.Case) string {
	if n.baseURL == "" {
		return "`" + c.CaseNumber + "`"
	}
	return fmt.Sprintf("<%s/cases/%s|%s>", n.baseURL, c.ID, c.CaseNumber)
}
