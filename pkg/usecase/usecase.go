package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/repository"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
	"github.com/secmon-lab/amlcase/pkg/utils/metrics"
)

var (
	ErrPresignerNotConfigured = goerr.New("presigner not configured", goerr.T(errs.TagInternal))
	ErrRendererNotConfigured  = goerr.New("evidence renderer not configured", goerr.T(errs.TagInternal))
	ErrLoginNotConfigured     = goerr.New("login is not configured", goerr.T(errs.TagUnauthorized))
)

const (
	defaultPresignTTL    = 15 * time.Minute
	defaultImportRetries = 3
	importedCasePriority = 3
)

type UseCases struct {
	repository interfaces.Repository
	presigner  interfaces.Presigner
	renderer   interfaces.EvidenceRenderer
	notifiers  []interfaces.CaseNotifier
	auditSinks []interfaces.AuditSink

	// login
	jwtKey        []byte
	loginPassword string

	// configs
	presignTTL    time.Duration
	importRetries int
}

type Option func(*UseCases)

func WithRepository(repo interfaces.Repository) Option {
	return func(u *UseCases) {
		u.repository = repo
	}
}

func WithPresigner(presigner interfaces.Presigner) Option {
	return func(u *UseCases) {
		u.presigner = presigner
	}
}

func WithEvidenceRenderer(renderer interfaces.EvidenceRenderer) Option {
	return func(u *UseCases) {
		u.renderer = renderer
	}
}

// WithNotifier adds a publisher called after every successful case commit.
func WithNotifier(notifier interfaces.CaseNotifier) Option {
	return func(u *UseCases) {
		u.notifiers = append(u.notifiers, notifier)
	}
}

func WithAuditSink(sink interfaces.AuditSink) Option {
	return func(u *UseCases) {
		u.auditSinks = append(u.auditSinks, sink)
	}
}

// WithLogin enables password login issuing HS256 tokens signed by key.
func WithLogin(key []byte, password string) Option {
	return func(u *UseCases) {
		u.jwtKey = key
		u.loginPassword = password
	}
}

func WithPresignTTL(ttl time.Duration) Option {
	return func(u *UseCases) {
		u.presignTTL = ttl
	}
}

// WithImportRetries sets how many times an import batch is attempted when the
// store reports a uniqueness or version conflict.
func WithImportRetries(n int) Option {
	return func(u *UseCases) {
		u.importRetries = n
	}
}

func New(opts ...Option) *UseCases {
	u := &UseCases{
		repository:    repository.NewMemory(),
		presignTTL:    defaultPresignTTL,
		importRetries: defaultImportRetries,
	}

	for _, opt := range opts {
		opt(u)
	}

	if u.importRetries < 1 {
		u.importRetries = 1
	}

	return u
}

// IsLoginEnabled returns whether password login is configured
func (uc *UseCases) IsLoginEnabled() bool {
	return len(uc.jwtKey) > 0 && uc.loginPassword != ""
}

// publish hands committed events to notifiers and audit sinks. Failures are
// reported and never returned.
func (uc *UseCases) publish(ctx context.Context, c *amlcase.Case, events ...*audit.Event) {
	if len(events) == 0 {
		return
	}

	for _, n := range uc.notifiers {
		if err := n.NotifyCaseEvents(ctx, c, events); err != nil {
			metrics.PublishFailures.WithLabelValues("notifier").Inc()
			errs.Handle(ctx, goerr.Wrap(err, "failed to notify case events", goerr.V("case_id", c.ID)))
		}
	}

	for _, s := range uc.auditSinks {
		if err := s.ArchiveEvents(ctx, events); err != nil {
			metrics.PublishFailures.WithLabelValues("audit_sink").Inc()
			errs.Handle(ctx, goerr.Wrap(err, "failed to archive case events", goerr.V("case_id", c.ID)))
		}
	}

	logging.From(ctx).Debug("case events published", "case_id", c.ID, "count", len(events))
}
