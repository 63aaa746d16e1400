package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/alert"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/auth"
	"github.com/secmon-lab/amlcase/pkg/domain/model/changeset"
	"github.com/secmon-lab/amlcase/pkg/domain/model/customer"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/model/sla"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/utils/clock"
	"github.com/secmon-lab/amlcase/pkg/utils/errutil"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
	"github.com/secmon-lab/amlcase/pkg/utils/metrics"
)

// importBatch stages customers and cases created earlier in the same batch so
// later rows resolve to them without a store round-trip.
type importBatch struct {
	customers  map[string]*customer.Customer
	openCases  map[types.CustomerID]*amlcase.Case
	seenAlerts map[string]bool
	cases      map[types.CaseID]*amlcase.Case
	events     map[types.CaseID][]*audit.Event
	caseOrder  []types.CaseID
	caseCount  int
}

func newImportBatch(caseCount int) *importBatch {
	return &importBatch{
		customers:  make(map[string]*customer.Customer),
		openCases:  make(map[types.CustomerID]*amlcase.Case),
		seenAlerts: make(map[string]bool),
		cases:      make(map[types.CaseID]*amlcase.Case),
		events:     make(map[types.CaseID][]*audit.Event),
		caseCount:  caseCount,
	}
}

func (b *importBatch) touch(c *amlcase.Case, ev ...*audit.Event) {
	if _, ok := b.cases[c.ID]; !ok {
		b.cases[c.ID] = c
		b.caseOrder = append(b.caseOrder, c.ID)
	}
	b.events[c.ID] = append(b.events[c.ID], ev...)
}

// ImportAlerts reconciles alert rows into cases in input order and commits the
// whole batch at once. A store conflict caused by a concurrent import reruns
// the batch against fresh reads.
func (uc *UseCases) ImportAlerts(ctx context.Context, id auth.Identity, rows []alert.Row) (*alert.ImportResult, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid alert row", goerr.TV(errutil.LineKey, i+1))
		}
	}

	logger := logging.From(ctx)

	for attempt := 1; ; attempt++ {
		result, cs, batch, err := uc.reconcileAlerts(ctx, id, rows)
		if err != nil {
			return nil, err
		}

		if !cs.IsEmpty() {
			err = uc.repository.Commit(ctx, id.TenantID, cs)
		}
		if err == nil {
			metrics.AlertsImported.WithLabelValues("imported").Add(float64(result.Imported))
			metrics.AlertsImported.WithLabelValues("skipped").Add(float64(result.Skipped))
			logger.Info("alerts imported",
				"tenant_id", id.TenantID,
				"imported", result.Imported,
				"skipped", result.Skipped,
				"created_cases", result.CreatedCases,
				"attempt", attempt)

			for _, caseID := range batch.caseOrder {
				uc.publish(ctx, batch.cases[caseID], batch.events[caseID]...)
			}
			return result, nil
		}

		if !errs.IsRetryable(err) || attempt >= uc.importRetries {
			return nil, goerr.Wrap(err, "failed to commit alert import",
				goerr.TV(errutil.TenantIDKey, id.TenantID),
				goerr.TV(errutil.AttemptKey, attempt))
		}
		logger.Warn("alert import conflicted with a concurrent write, retrying",
			"attempt", attempt,
			"error", err)
	}
}

func (uc *UseCases) reconcileAlerts(ctx context.Context, id auth.Identity, rows []alert.Row) (*alert.ImportResult, *changeset.ChangeSet, *importBatch, error) {
	now := clock.Now(ctx)
	cs := changeset.New()
	result := &alert.ImportResult{}

	var settings *sla.Settings
	var batch *importBatch

	for _, row := range rows {
		if batch == nil {
			s, err := uc.slaSettings(ctx, id.TenantID, cs, now)
			if err != nil {
				return nil, nil, nil, err
			}
			settings = s

			count, err := uc.repository.CountCases(ctx, id.TenantID)
			if err != nil {
				return nil, nil, nil, goerr.Wrap(err, "failed to count cases", goerr.TV(errutil.TenantIDKey, id.TenantID))
			}
			batch = newImportBatch(count)
		}

		// 1. dedup by external alert id, in the store and within the batch
		if batch.seenAlerts[row.ExternalAlertID] {
			result.Skipped++
			continue
		}
		exists, err := uc.repository.ImportedAlertExists(ctx, id.TenantID, row.ExternalAlertID)
		if err != nil {
			return nil, nil, nil, goerr.Wrap(err, "failed to check imported alert", goerr.TV(errutil.ExternalAlertIDKey, row.ExternalAlertID))
		}
		if exists {
			result.Skipped++
			continue
		}
		batch.seenAlerts[row.ExternalAlertID] = true

		// 2. resolve or create the customer
		cust, err := uc.resolveCustomer(ctx, id.TenantID, batch, cs, row)
		if err != nil {
			return nil, nil, nil, err
		}

		// 3. resolve the open case or open a new one
		c, created, err := uc.resolveOpenCase(ctx, id, batch, cs, cust, row, settings, now)
		if err != nil {
			return nil, nil, nil, err
		}
		if created {
			result.CreatedCases++
		}

		// 4. record the alert against the case
		ev := audit.New(id.TenantID, c.ID, types.EventAlertsImported, id.UserID, now).
			With("externalAlertId", row.ExternalAlertID).
			With("alertType", row.AlertType)
		cs.RecordImportedAlert(alert.NewImported(id.TenantID, row, c.ID, now)).AppendEvent(ev)
		batch.touch(c, ev)
		result.Imported++
	}

	if batch == nil {
		batch = newImportBatch(0)
	}
	return result, cs, batch, nil
}

func (uc *UseCases) resolveCustomer(ctx context.Context, tenantID types.TenantID, batch *importBatch, cs *changeset.ChangeSet, row alert.Row) (*customer.Customer, error) {
	if cust, ok := batch.customers[row.CustomerExternalID]; ok {
		return cust, nil
	}

	cust, err := uc.repository.FindCustomerByExternalID(ctx, tenantID, row.CustomerExternalID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find customer", goerr.TV(errutil.ExternalIDKey, row.CustomerExternalID))
	}
	if cust == nil {
		name := strings.TrimSpace(row.CustomerName)
		if name == "" {
			name = row.CustomerExternalID
		}
		cust = customer.New(tenantID, row.CustomerExternalID, name)
		cs.CreateCustomer(cust)
	}

	batch.customers[row.CustomerExternalID] = cust
	return cust, nil
}

// resolveOpenCase returns the customer's open case, opening a new one when
// neither the batch nor the store has it. created reports the latter.
func (uc *UseCases) resolveOpenCase(ctx context.Context, id auth.Identity, batch *importBatch, cs *changeset.ChangeSet, cust *customer.Customer, row alert.Row, settings *sla.Settings, now time.Time) (*amlcase.Case, bool, error) {
	if c, ok := batch.openCases[cust.ID]; ok {
		return c, false, nil
	}

	c, err := uc.repository.FindOpenCaseByCustomer(ctx, id.TenantID, cust.ID)
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to find open case", goerr.TV(errutil.CustomerIDKey, cust.ID))
	}
	if c != nil {
		batch.openCases[cust.ID] = c
		return c, false, nil
	}

	risk := types.RiskLevelFromHint(row.RiskHint)
	batch.caseCount++
	c, ev := amlcase.Open(amlcase.NewCaseInput{
		TenantID:   id.TenantID,
		CustomerID: cust.ID,
		CaseNumber: amlcase.FormatCaseNumber(now, batch.caseCount),
		Priority:   importedCasePriority,
		RiskLevel:  risk,
		SLADueAt:   settings.DueAt(risk, now),
		Actor:      id.UserID,
		Now:        now,
	})
	cs.CreateCase(c).AppendEvent(ev)
	batch.openCases[cust.ID] = c
	batch.touch(c, ev)
	return c, true, nil
}
