package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/auth"
	"github.com/secmon-lab/amlcase/pkg/domain/model/changeset"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/utils/clock"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
)

var baseTime = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func init() {
	logging.Quiet()
}

func testContext(t *testing.T, now time.Time) context.Context {
	return clock.With(t.Context(), clock.Fixed(now))
}

func newIdentity(username string, roles ...string) auth.Identity {
	if len(roles) == 0 {
		roles = []string{auth.RoleComplianceAdmin}
	}
	return auth.Identity{
		TenantID: types.NewTenantID(),
		UserID:   types.UserIDFromUsername(username),
		Username: username,
		Roles:    roles,
	}
}

type notifierMock struct {
	mu     sync.Mutex
	err    error
	events []*audit.Event
}

func (m *notifierMock) NotifyCaseEvents(ctx context.Context, c *amlcase.Case, events []*audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return m.err
}

func (m *notifierMock) ArchiveEvents(ctx context.Context, events []*audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return m.err
}

type presignerMock struct{}

func (presignerMock) UploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return "https://upload.example.com/" + key, nil
}

func (presignerMock) DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://download.example.com/" + key, nil
}

type rendererMock struct {
	err  error
	pack *interfaces.EvidencePack
}

func (m *rendererMock) Render(ctx context.Context, pack *interfaces.EvidencePack) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.pack = pack
	return []byte("%PDF-1.3 test"), nil
}

// flakyRepository fails the first n commits with err, then delegates.
type flakyRepository struct {
	interfaces.Repository
	mu       sync.Mutex
	failures int
	err      error
	commits  int
}

func (r *flakyRepository) Commit(ctx context.Context, tenantID types.TenantID, cs *changeset.ChangeSet) error {
	r.mu.Lock()
	r.commits++
	fail := r.failures > 0
	if fail {
		r.failures--
	}
	r.mu.Unlock()

	if fail {
		return r.err
	}
	return r.Repository.Commit(ctx, tenantID, cs)
}

func newIdentityWithoutTenant() auth.Identity {
	return auth.Identity{UserID: types.UserIDFromUsername("ghost")}
}
