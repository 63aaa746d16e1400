package interfaces

import (
	"context"

	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
)

// CaseNotifier is told about events after they have been committed.
// Implementations must not block the caller for long and their failures
// never roll back the case operation.
type CaseNotifier interface {
	NotifyCaseEvents(ctx context.Context, c *amlcase.Case, events []*audit.Event) error
}

// AuditSink archives committed audit events outside the case store.
type AuditSink interface {
	ArchiveEvents(ctx context.Context, events []*audit.Event) error
}
