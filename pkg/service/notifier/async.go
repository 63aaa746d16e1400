package notifier

import (
	"context"

	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/utils/async"
)

// AsyncNotifier delivers events on a background goroutine so a slow
// downstream does not hold the request. Errors are handled by async.Dispatch.
type AsyncNotifier struct {
	next interfaces.CaseNotifier
}

var _ interfaces.CaseNotifier = (*AsyncNotifier)(nil)

func NewAsync(next interfaces.CaseNotifier) *AsyncNotifier {
	return &AsyncNotifier{next: next}
}

func (n *AsyncNotifier) NotifyCaseEvents(ctx context.Context, c *amlcase.Case, events []*audit.Event) error {
	snapshot := *c
	copied := make([]*audit.Event, len(events))
	copy(copied, events)

	async.Dispatch(ctx, func(ctx context.Context) error {
		return n.next.NotifyCaseEvents(ctx, &snapshot, copied)
	})
	return nil
}
