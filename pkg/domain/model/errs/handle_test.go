package errs_test

import (
	"context"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
	"github.com/secmon-lab/amlcase/pkg/utils/request_id"
)

func TestHandle(t *testing.T) {
	logging.Quiet()
	transport := &testTransport{}

	gt.NoError(t, sentry.Init(sentry.ClientOptions{
		Dsn:       "https://test@test.ingest.sentry.io/test",
		Transport: transport,
	}))
	defer sentry.Flush(0)

	t.Run("request id becomes a tag", func(t *testing.T) {
		transport.events = nil
		ctx := request_id.With(context.Background(), "req-42")

		errs.Handle(ctx, goerr.New("commit failed", goerr.V("case_id", "c-1")))
		sentry.Flush(0)

		gt.A(t, transport.events).Length(1)
		gt.V(t, transport.events[0].Tags["request_id"]).Equal("req-42")
		gt.V(t, transport.events[0].Extra["case_id"]).Equal("c-1")
	})

	t.Run("no request id", func(t *testing.T) {
		transport.events = nil
		errs.Handle(context.Background(), goerr.New("boom"))
		sentry.Flush(0)

		gt.A(t, transport.events).Length(1)
		_, exists := transport.events[0].Tags["request_id"]
		gt.False(t, exists)
	})

	t.Run("nil error is ignored", func(t *testing.T) {
		transport.events = nil
		errs.Handle(context.Background(), nil)
		sentry.Flush(0)
		gt.A(t, transport.events).Length(0)
	})
}

func TestIsRetryableTags(t *testing.T) {
	gt.True(t, errs.IsRetryable(goerr.Wrap(errs.ErrStaleVersion, "update case")))
	gt.True(t, errs.IsRetryable(goerr.New("dup", goerr.T(errs.TagDuplicateResource))))
	gt.True(t, errs.IsRetryable(goerr.New("conflict", goerr.T(errs.TagConflict))))
	gt.False(t, errs.IsRetryable(goerr.New("missing", goerr.T(errs.TagNotFound))))
}

type testTransport struct {
	events []*sentry.Event
}

func (t *testTransport) Configure(options sentry.ClientOptions) {}

func (t *testTransport) SendEvent(event *sentry.Event) {
	t.events = append(t.events, event)
}

func (t *testTransport) Flush(timeout time.Duration) bool {
	return true
}

func (t *testTransport) FlushWithContext(ctx context.Context) bool {
	return true
}

func (t *testTransport) Close() {}
