package usecase_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/auth"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/repository"
	"github.com/secmon-lab/amlcase/pkg/usecase"
)

func TestAddComment(t *testing.T) {
	repo := repository.NewMemory()
	uc := usecase.New(usecase.WithRepository(repo))
	id := newIdentity("alice")
	v := createCase(t, uc, id, types.RiskLevelLow)

	_, err := uc.AddComment(testContext(t, baseTime.Add(time.Minute)), id, v.ID, "called the customer")
	gt.NoError(t, err).Required()
	_, err = uc.AddComment(testContext(t, baseTime.Add(2*time.Minute)), id, v.ID, "requested statements")
	gt.NoError(t, err).Required()

	ctx := testContext(t, baseTime.Add(time.Hour))
	comments, err := uc.Comments(ctx, id, v.ID)
	gt.NoError(t, err).Required()
	gt.A(t, comments).Length(2)
	gt.Equal(t, comments[0].Text, "requested statements")

	got, err := uc.GetCase(ctx, id, v.ID)
	gt.NoError(t, err).Required()
	gt.Equal(t, got.Version, 1)

	timeline, err := uc.Timeline(ctx, id, v.ID)
	gt.NoError(t, err).Required()
	gt.A(t, timeline).Length(3)
	gt.Equal(t, timeline[0].Type, types.EventCommentAdded)
	gt.Equal(t, timeline[0].Payload["text"], "requested statements")

	_, err = uc.AddComment(ctx, id, v.ID, "   ")
	gt.True(t, goerr.HasTag(err, errs.TagValidation))

	_, err = uc.AddComment(ctx, id, types.NewCaseID(), "text")
	gt.True(t, goerr.HasTag(err, errs.TagNotFound))
}

func TestAttachments(t *testing.T) {
	uc := usecase.New(usecase.WithPresigner(presignerMock{}))
	id := newIdentity("alice")
	v := createCase(t, uc, id, types.RiskLevelLow)
	ctx := testContext(t, baseTime.Add(time.Minute))

	upload, err := uc.PresignAttachment(ctx, id, v.ID, "application/pdf")
	gt.NoError(t, err).Required()
	gt.True(t, strings.HasPrefix(upload.FileKey, "cases/"+v.ID.String()+"/"))
	gt.Equal(t, upload.UploadURL, "https://upload.example.com/"+upload.FileKey)
	gt.Equal(t, upload.ExpiresInSeconds, 900)

	a, err := uc.CompleteAttachment(ctx, id, v.ID, usecase.CompleteAttachmentInput{
		FileKey:     upload.FileKey,
		FileName:    "passport.pdf",
		ContentType: "application/pdf",
		Size:        2048,
		Tags:        []string{"kyc"},
		SHA256:      "abc123",
	})
	gt.NoError(t, err).Required()
	gt.Equal(t, a.UploadedBy, id.UserID)

	list, err := uc.Attachments(ctx, id, v.ID)
	gt.NoError(t, err).Required()
	gt.A(t, list).Length(1)

	timeline, err := uc.Timeline(ctx, id, v.ID)
	gt.NoError(t, err).Required()
	gt.Equal(t, timeline[0].Type, types.EventEvidenceAdded)
	gt.Equal(t, timeline[0].Payload["fileName"], "passport.pdf")
	gt.Equal(t, timeline[0].Payload["size"], "2048")
	gt.Equal(t, timeline[0].Payload["sha256"], "abc123")

	dl, err := uc.AttachmentDownloadURL(ctx, id, a.ID)
	gt.NoError(t, err).Required()
	gt.Equal(t, dl.SignedURL, "https://download.example.com/"+upload.FileKey)

	t.Run("other tenant cannot download", func(t *testing.T) {
		_, err := uc.AttachmentDownloadURL(ctx, newIdentity("mallory"), a.ID)
		gt.True(t, goerr.HasTag(err, errs.TagNotFound))
	})

	t.Run("file name is required", func(t *testing.T) {
		_, err := uc.CompleteAttachment(ctx, id, v.ID, usecase.CompleteAttachmentInput{FileKey: "k"})
		gt.True(t, goerr.HasTag(err, errs.TagValidation))
	})

	t.Run("key of another tenant's case is rejected", func(t *testing.T) {
		mallory := newIdentity("mallory")
		own := createCase(t, uc, mallory, types.RiskLevelLow)

		_, err := uc.CompleteAttachment(ctx, mallory, own.ID, usecase.CompleteAttachmentInput{
			FileKey:  upload.FileKey,
			FileName: "stolen.pdf",
		})
		gt.True(t, goerr.HasTag(err, errs.TagValidation))

		list, err := uc.Attachments(ctx, mallory, own.ID)
		gt.NoError(t, err).Required()
		gt.A(t, list).Length(0)
	})

	t.Run("key outside the case prefix is rejected", func(t *testing.T) {
		for _, key := range []string{
			"k",
			"cases/" + v.ID.String() + "/",
			"cases/" + v.ID.String() + "/../other",
			"cases/" + v.ID.String() + "/a/b",
			"tenants/" + v.ID.String() + "/x",
		} {
			_, err := uc.CompleteAttachment(ctx, id, v.ID, usecase.CompleteAttachmentInput{FileKey: key, FileName: "a.pdf"})
			gt.True(t, goerr.HasTag(err, errs.TagValidation))
		}
	})

	t.Run("presigner is required", func(t *testing.T) {
		_, err := usecase.New().PresignAttachment(ctx, id, v.ID, "application/pdf")
		gt.Error(t, err)
	})
}

func TestSLASettings(t *testing.T) {
	repo := repository.NewMemory()
	uc := usecase.New(usecase.WithRepository(repo))
	id := newIdentity("alice")
	ctx := testContext(t, baseTime)

	s, err := uc.GetSLASettings(ctx, id)
	gt.NoError(t, err).Required()
	gt.Equal(t, s.LowHours, 72)
	gt.Equal(t, s.MediumHours, 48)
	gt.Equal(t, s.HighHours, 24)

	stored, err := repo.GetSLASettings(ctx, id.TenantID)
	gt.NoError(t, err).Required()
	gt.NotNil(t, stored)

	existing := createCase(t, uc, id, types.RiskLevelHigh)

	_, err = uc.UpdateSLASettings(ctx, id, usecase.SLAHours{LowHours: 96, MediumHours: 36, HighHours: 12})
	gt.NoError(t, err).Required()

	fresh := createCase(t, uc, id, types.RiskLevelHigh)
	gt.True(t, fresh.SLADueAt.Equal(baseTime.Add(12*time.Hour)))

	got, err := uc.GetCase(ctx, id, existing.ID)
	gt.NoError(t, err).Required()
	gt.True(t, got.SLADueAt.Equal(baseTime.Add(24*time.Hour)))

	t.Run("hours must be positive", func(t *testing.T) {
		_, err := uc.UpdateSLASettings(ctx, id, usecase.SLAHours{LowHours: 0, MediumHours: 36, HighHours: 12})
		gt.True(t, goerr.HasTag(err, errs.TagValidation))
	})

	t.Run("analysts cannot change settings", func(t *testing.T) {
		analyst := id
		analyst.Roles = []string{auth.RoleAnalyst}
		_, err := uc.UpdateSLASettings(ctx, analyst, usecase.SLAHours{LowHours: 1, MediumHours: 1, HighHours: 1})
		gt.True(t, goerr.HasTag(err, errs.TagForbidden))
	})
}

func TestGetDashboard(t *testing.T) {
	uc := usecase.New()
	id := newIdentity("alice")
	bob := types.UserIDFromUsername("bob")

	high := createCase(t, uc, id, types.RiskLevelHigh)
	low := createCase(t, uc, id, types.RiskLevelLow)
	_ = createCase(t, uc, id, types.RiskLevelMedium)

	ctx := testContext(t, baseTime.Add(time.Hour))
	_, err := uc.AssignCase(ctx, id, high.ID, bob, 0)
	gt.NoError(t, err).Required()
	_, err = uc.UpdateCaseStatus(ctx, id, high.ID, types.CaseStatusInReview, 0)
	gt.NoError(t, err).Required()

	closeCtx := testContext(t, baseTime.Add(10*time.Hour))
	_, err = uc.SetDecision(closeCtx, id, low.ID, usecase.DecisionInput{Decision: "No action", Reason: "false positive", RiskLevel: types.RiskLevelLow}, 0)
	gt.NoError(t, err).Required()
	_, err = uc.CloseCase(closeCtx, id, low.ID, 0)
	gt.NoError(t, err).Required()

	// 30 hours in: the open High case (24h) is overdue, the Medium one (48h) is not
	summary, err := uc.GetDashboard(testContext(t, baseTime.Add(30*time.Hour)), id)
	gt.NoError(t, err).Required()
	gt.Equal(t, summary.TotalCases, 3)
	gt.Equal(t, summary.OpenCases, 2)
	gt.Equal(t, summary.ClosedCases, 1)
	gt.Equal(t, summary.OpenCases+summary.ClosedCases, summary.TotalCases)
	gt.Equal(t, summary.OverdueCases, 1)
	gt.Equal(t, summary.InReviewCases, 1)
	gt.Equal(t, summary.HighRiskCases, 1)
	gt.Equal(t, summary.AverageHoursToClose, 10.0)
	gt.A(t, summary.ByAnalyst).Length(1)
	gt.Equal(t, summary.ByAnalyst[0].Key, bob.String())

	other, err := uc.GetDashboard(testContext(t, baseTime), newIdentity("mallory"))
	gt.NoError(t, err).Required()
	gt.Equal(t, other.TotalCases, 0)
}

func TestExportEvidencePack(t *testing.T) {
	renderer := &rendererMock{}
	uc := usecase.New(usecase.WithEvidenceRenderer(renderer))
	id := newIdentity("alice")
	v := createCase(t, uc, id, types.RiskLevelHigh)

	ctx := testContext(t, baseTime.Add(time.Hour))
	_, err := uc.AddComment(ctx, id, v.ID, "note")
	gt.NoError(t, err).Required()

	pack, err := uc.ExportEvidencePack(testContext(t, baseTime.Add(2*time.Hour)), id, v.ID)
	gt.NoError(t, err).Required()
	gt.Equal(t, pack.ContentType, "application/pdf")
	gt.Equal(t, pack.FileName, "evidence-pack-"+v.CaseNumber+".pdf")
	gt.Equal(t, string(pack.Data), "%PDF-1.3 test")

	gt.Value(t, renderer.pack).NotNil().Required()
	gt.Equal(t, renderer.pack.Customer.FullName, "Amina Rahman")
	gt.A(t, renderer.pack.Events).Length(2)
	gt.Equal(t, renderer.pack.Events[0].Type, types.EventCaseCreated)
	gt.Equal(t, renderer.pack.Events[1].Type, types.EventCommentAdded)

	timeline, err := uc.Timeline(ctx, id, v.ID)
	gt.NoError(t, err).Required()
	gt.A(t, timeline).Length(3)
	gt.Equal(t, timeline[0].Type, types.EventEvidencePackExported)

	t.Run("render failure records nothing", func(t *testing.T) {
		renderer.err = errors.New("broken font")
		_, err := uc.ExportEvidencePack(ctx, id, v.ID)
		gt.Error(t, err)

		timeline, err := uc.Timeline(ctx, id, v.ID)
		gt.NoError(t, err).Required()
		gt.A(t, timeline).Length(3)
	})

	t.Run("unknown case", func(t *testing.T) {
		renderer.err = nil
		_, err := uc.ExportEvidencePack(ctx, id, types.NewCaseID())
		gt.True(t, goerr.HasTag(err, errs.TagNotFound))
	})
}

func TestListCasesLimit(t *testing.T) {
	uc := usecase.New()
	id := newIdentity("alice")
	for range 3 {
		createCase(t, uc, id, types.RiskLevelLow)
	}

	list, err := uc.ListCases(testContext(t, baseTime), id, amlcase.Filter{Limit: 2})
	gt.NoError(t, err).Required()
	gt.A(t, list).Length(2)
}
