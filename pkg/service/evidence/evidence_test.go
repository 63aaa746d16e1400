package evidence_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/customer"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/service/evidence"
)

func newPack() *interfaces.EvidencePack {
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	tenantID := types.NewTenantID()
	actor := types.UserIDFromUsername("alice")
	cust := customer.New(tenantID, "CUST-1001", "Amina Rahman")

	c, created := amlcase.Open(amlcase.NewCaseInput{
		TenantID:   tenantID,
		CustomerID: cust.ID,
		CaseNumber: "CAS-20260302-0001",
		Priority:   3,
		RiskLevel:  types.RiskLevelHigh,
		SLADueAt:   now.Add(24 * time.Hour),
		Actor:      actor,
		Now:        now,
	})
	comment := audit.New(tenantID, c.ID, types.EventCommentAdded, actor, now.Add(time.Hour)).With("text", "called customer")

	return &interfaces.EvidencePack{
		Case:     c,
		Customer: cust,
		Events:   []*audit.Event{created, comment},
		Attachments: []*amlcase.Attachment{
			{
				ID:       types.NewAttachmentID(),
				TenantID: tenantID,
				CaseID:   c.ID,
				FileName: "statement.pdf",
				Size:     2048,
				SHA256:   "9f86d081",
			},
		},
		GeneratedAt: now.Add(2 * time.Hour),
	}
}

func TestRender(t *testing.T) {
	pack := newPack()

	data, err := evidence.New().Render(t.Context(), pack)
	gt.NoError(t, err).Required()
	gt.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	t.Run("uncompressed body carries the case number", func(t *testing.T) {
		data, err := evidence.New(evidence.WithCompression(false)).Render(t.Context(), pack)
		gt.NoError(t, err).Required()
		gt.True(t, bytes.Contains(data, []byte("Evidence Pack | CAS-20260302-0001")))
		gt.True(t, bytes.Contains(data, []byte("Generated at 2026-03-02T11:30:00Z")))
	})

	t.Run("missing case", func(t *testing.T) {
		_, err := evidence.New().Render(t.Context(), &interfaces.EvidencePack{})
		gt.Error(t, err)
	})
}

func TestSections(t *testing.T) {
	pack := newPack()
	actor := types.UserIDFromUsername("alice")

	gt.Equal(t, evidence.Header(pack), "Evidence Pack | CAS-20260302-0001")
	gt.Equal(t, evidence.SectionLines(pack), []string{
		"Customer: Amina Rahman (CUST-1001)",
		"Status: New",
		"Risk: High",
		"Decision: N/A",
		"Created: 2026-03-02 09:30 / Closed: -",
		"Timeline",
		"[2026-03-02 09:30] CaseCreated | Actor " + actor.String(),
		"[2026-03-02 10:30] CommentAdded | Actor " + actor.String(),
		"Attachments",
		"statement.pdf | 2,048 bytes (2.0 kB) | SHA256 9f86d081",
	})

	t.Run("empty case", func(t *testing.T) {
		pack.Events = nil
		pack.Attachments = nil
		pack.Customer = nil
		lines := evidence.SectionLines(pack)
		gt.Equal(t, lines[0], "Customer: Unknown")
		gt.Equal(t, lines[6], "No events recorded.")
		gt.Equal(t, lines[8], "No attachments.")
	})
}
