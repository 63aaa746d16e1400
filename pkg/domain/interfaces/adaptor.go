package interfaces

import (
	"context"
	"time"

	"github.com/m-mizutani/opaq"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/customer"
	"github.com/slack-go/slack"
)

type PolicyClient interface {
	Query(context.Context, string, any, any, ...opaq.QueryOption) error
	Sources() map[string]string
}

// Presigner issues time-limited URLs for evidence objects.
type Presigner interface {
	UploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type SlackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// EvidenceRenderer produces the evidence pack document of a case.
type EvidenceRenderer interface {
	Render(ctx context.Context, pack *EvidencePack) ([]byte, error)
}

// EvidencePack is the input of an EvidenceRenderer. Events are chronological.
type EvidencePack struct {
	Case        *amlcase.Case
	Customer    *customer.Customer
	Events      []*audit.Event
	Attachments []*amlcase.Attachment
	GeneratedAt time.Time
}
