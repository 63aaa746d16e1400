package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/auth"
	"github.com/secmon-lab/amlcase/pkg/domain/model/changeset"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/utils/clock"
	"github.com/secmon-lab/amlcase/pkg/utils/errutil"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
	"github.com/secmon-lab/amlcase/pkg/utils/metrics"
)

// EvidencePack is a rendered evidence document.
type EvidencePack struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportEvidencePack renders the case with its chronological audit trail and
// attachments, then records an EvidencePackExported event. A render failure
// leaves the trail untouched.
func (uc *UseCases) ExportEvidencePack(ctx context.Context, id auth.Identity, caseID types.CaseID) (result *EvidencePack, err error) {
	defer func() { metrics.ObserveOperation("export_evidence_pack", err) }()

	if uc.renderer == nil {
		return nil, ErrRendererNotConfigured
	}

	c, err := uc.loadCase(ctx, id, caseID)
	if err != nil {
		return nil, err
	}

	cust, err := uc.repository.GetCustomer(ctx, id.TenantID, c.CustomerID)
	if err != nil && !goerr.HasTag(err, errs.TagNotFound) {
		return nil, goerr.Wrap(err, "failed to get customer", goerr.TV(errutil.CustomerIDKey, c.CustomerID))
	}

	events, err := uc.repository.ListCaseEvents(ctx, id.TenantID, caseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list case events", goerr.TV(errutil.CaseIDKey, caseID))
	}

	attachments, err := uc.repository.ListAttachments(ctx, id.TenantID, caseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list attachments", goerr.TV(errutil.CaseIDKey, caseID))
	}

	now := clock.Now(ctx)
	data, err := uc.renderer.Render(ctx, &interfaces.EvidencePack{
		Case:        c,
		Customer:    cust,
		Events:      events,
		Attachments: attachments,
		GeneratedAt: now,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to render evidence pack", goerr.TV(errutil.CaseIDKey, caseID))
	}

	ev := audit.New(id.TenantID, c.ID, types.EventEvidencePackExported, id.UserID, now)
	if err := uc.repository.Commit(ctx, id.TenantID, changeset.New().AppendEvent(ev)); err != nil {
		return nil, goerr.Wrap(err, "failed to record evidence pack export", goerr.TV(errutil.CaseIDKey, caseID))
	}

	logging.From(ctx).Info("evidence pack exported", "case_id", c.ID, "bytes", len(data))
	uc.publish(ctx, c, ev)

	return &EvidencePack{
		FileName:    "evidence-pack-" + c.CaseNumber + ".pdf",
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}
