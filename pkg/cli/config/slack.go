package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/service/notifier"
	"github.com/urfave/cli/v3"

	sdk "github.com/slack-go/slack"
)

type Slack struct {
	oauthToken string
	channelID  string
	caseURL    string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-oauth-token",
			Usage:       "Slack OAuth token",
			Category:    "Slack",
			Destination: &x.oauthToken,
			Sources:     cli.EnvVars("AMLCASE_SLACK_OAUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel ID for case notifications",
			Category:    "Slack",
			Destination: &x.channelID,
			Sources:     cli.EnvVars("AMLCASE_SLACK_CHANNEL_ID"),
		},
		&cli.StringFlag{
			Name:        "slack-case-url",
			Usage:       "Base URL of the case UI used for links in notifications",
			Category:    "Slack",
			Destination: &x.caseURL,
			Sources:     cli.EnvVars("AMLCASE_SLACK_CASE_URL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("oauth-token.len", len(x.oauthToken)),
		slog.String("channel-id", x.channelID),
		slog.String("case-url", x.caseURL),
	)
}

func (x *Slack) CaseURL() string {
	return x.caseURL
}

func (x *Slack) SetCaseURL(url string) {
	x.caseURL = url
}

func (x *Slack) IsConfigured() bool {
	return x.oauthToken != ""
}

func (x *Slack) Configure() (*notifier.SlackNotifier, error) {
	if x.oauthToken == "" {
		return nil, goerr.New("slack oauth token is not set")
	}
	if x.channelID == "" {
		return nil, goerr.New("slack channel ID is required with an oauth token")
	}

	var opts []notifier.SlackOption
	if x.caseURL != "" {
		opts = append(opts, notifier.WithCaseURL(x.caseURL))
	}

	return notifier.NewSlack(sdk.New(x.oauthToken), x.channelID, opts...), nil
}
