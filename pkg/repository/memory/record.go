package memory

import (
	"context"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/alert"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/model/sla"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

func (r *Memory) ListCaseEvents(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) ([]*audit.Event, error) {
	r.incrementCallCount("ListCaseEvents")
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.tenant(tenantID).events[caseID]
	result := make([]*audit.Event, 0, len(src))
	for _, ev := range src {
		cp := *ev
		cp.Payload = make(map[string]string, len(ev.Payload))
		for k, v := range ev.Payload {
			cp.Payload[k] = v
		}
		result = append(result, &cp)
	}
	audit.SortChronological(result)
	return result, nil
}

func (r *Memory) ListComments(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) ([]*amlcase.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.tenant(tenantID).comments[caseID]
	result := make([]*amlcase.Comment, 0, len(src))
	for _, c := range src {
		cp := *c
		result = append(result, &cp)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].At.After(result[j].At)
	})
	return result, nil
}

func (r *Memory) ListAttachments(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) ([]*amlcase.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*amlcase.Attachment
	for _, a := range r.tenant(tenantID).attachments {
		if a.CaseID == caseID {
			cp := *a
			result = append(result, &cp)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].UploadedAt.Equal(result[j].UploadedAt) {
			return result[i].UploadedAt.After(result[j].UploadedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *Memory) GetAttachment(ctx context.Context, tenantID types.TenantID, attachmentID types.AttachmentID) (*amlcase.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.tenant(tenantID).attachments[attachmentID]
	if !ok {
		return nil, r.eb.New("attachment not found",
			goerr.T(errs.TagNotFound),
			goerr.V("tenant_id", tenantID),
			goerr.V("attachment_id", attachmentID))
	}
	cp := *a
	return &cp, nil
}

func (r *Memory) ImportedAlertExists(ctx context.Context, tenantID types.TenantID, externalAlertID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.tenant(tenantID).importedAlerts[externalAlertID]
	return ok, nil
}

func (r *Memory) ListImportedAlerts(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) ([]*alert.ImportedAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*alert.ImportedAlert
	for _, a := range r.tenant(tenantID).importedAlerts {
		if a.CaseID == caseID {
			cp := *a
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *Memory) GetSLASettings(ctx context.Context, tenantID types.TenantID) (*sla.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.tenant(tenantID).slaSettings
	if s == nil {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}
