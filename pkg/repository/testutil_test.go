package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/changeset"
	"github.com/secmon-lab/amlcase/pkg/domain/model/customer"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/repository"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
	"github.com/secmon-lab/amlcase/pkg/utils/test"
)

// caseDeleter is implemented by every backend for fixtures; deletion has no API.
type caseDeleter interface {
	DeleteCase(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) error
}

func newFirestoreClient(t *testing.T) *repository.Firestore {
	vars := test.NewEnvVars(t, "TEST_FIRESTORE_PROJECT_ID", "TEST_FIRESTORE_DATABASE_ID")
	client, err := repository.NewFirestore(t.Context(),
		vars.Get("TEST_FIRESTORE_PROJECT_ID"),
		vars.Get("TEST_FIRESTORE_DATABASE_ID"),
	)
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newSQLiteClient(t *testing.T) *repository.SQLite {
	logging.Quiet()
	client, err := repository.NewSQLite(t.Context(), filepath.Join(t.TempDir(), "amlcase.sqlite"))
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// runAll runs testFn against every backend. Each run uses a fresh tenant so
// shared Firestore databases do not interfere.
func runAll(t *testing.T, testFn func(t *testing.T, repo interfaces.Repository)) {
	t.Run("Memory", func(t *testing.T) {
		testFn(t, repository.NewMemory())
	})

	t.Run("SQLite", func(t *testing.T) {
		testFn(t, newSQLiteClient(t))
	})

	t.Run("Firestore", func(t *testing.T) {
		testFn(t, newFirestoreClient(t))
	})
}

func baseTime() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

type fixture struct {
	tenantID types.TenantID
	customer *customer.Customer
	actor    types.UserID
}

func newFixture() fixture {
	tenantID := types.NewTenantID()
	return fixture{
		tenantID: tenantID,
		customer: customer.New(tenantID, "CUST-"+types.NewCustomerID().String(), "Amina Rahman"),
		actor:    types.UserIDFromUsername("analyst"),
	}
}

func (f fixture) newCase(n int, risk types.RiskLevel, createdAt time.Time) (*amlcase.Case, *audit.Event) {
	return amlcase.Open(amlcase.NewCaseInput{
		TenantID:   f.tenantID,
		CustomerID: f.customer.ID,
		CaseNumber: amlcase.FormatCaseNumber(createdAt, n),
		Priority:   3,
		RiskLevel:  risk,
		SLADueAt:   createdAt.Add(24 * time.Hour),
		Actor:      f.actor,
		Now:        createdAt,
	})
}

// seed commits the fixture customer and one case.
func (f fixture) seed(t *testing.T, repo interfaces.Repository, createdAt time.Time) *amlcase.Case {
	t.Helper()
	c, ev := f.newCase(1, types.RiskLevelHigh, createdAt)
	cs := changeset.New().CreateCustomer(f.customer).CreateCase(c).AppendEvent(ev)
	gt.NoError(t, repo.Commit(t.Context(), f.tenantID, cs)).Required()
	return c
}
