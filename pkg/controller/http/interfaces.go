package http

import (
	"context"

	"github.com/secmon-lab/amlcase/pkg/domain/model/alert"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/auth"
	"github.com/secmon-lab/amlcase/pkg/domain/model/dashboard"
	"github.com/secmon-lab/amlcase/pkg/domain/model/sla"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/usecase"
)

type AuthUseCases interface {
	Login(ctx context.Context, input usecase.LoginInput) (*auth.LoginResult, error)
	VerifyToken(ctx context.Context, raw string) (auth.Identity, error)
	IsLoginEnabled() bool
}

type CaseUseCases interface {
	CreateCase(ctx context.Context, id auth.Identity, input usecase.CreateCaseInput) (*usecase.CaseView, error)
	GetCase(ctx context.Context, id auth.Identity, caseID types.CaseID) (*usecase.CaseView, error)
	ListCases(ctx context.Context, id auth.Identity, filter amlcase.Filter) ([]*usecase.CaseView, error)
	AssignCase(ctx context.Context, id auth.Identity, caseID types.CaseID, owner types.UserID, expectedVersion int) (*usecase.CaseView, error)
	UpdateCaseStatus(ctx context.Context, id auth.Identity, caseID types.CaseID, status types.CaseStatus, expectedVersion int) (*usecase.CaseView, error)
	SetDecision(ctx context.Context, id auth.Identity, caseID types.CaseID, input usecase.DecisionInput, expectedVersion int) (*usecase.CaseView, error)
	ApproveCase(ctx context.Context, id auth.Identity, caseID types.CaseID, expectedVersion int) (*usecase.CaseView, error)
	CloseCase(ctx context.Context, id auth.Identity, caseID types.CaseID, expectedVersion int) (*usecase.CaseView, error)
}

type RecordUseCases interface {
	Timeline(ctx context.Context, id auth.Identity, caseID types.CaseID) ([]*audit.Event, error)
	AddComment(ctx context.Context, id auth.Identity, caseID types.CaseID, text string) (*amlcase.Comment, error)
	Comments(ctx context.Context, id auth.Identity, caseID types.CaseID) ([]*amlcase.Comment, error)
	PresignAttachment(ctx context.Context, id auth.Identity, caseID types.CaseID, contentType string) (*usecase.PresignedUpload, error)
	CompleteAttachment(ctx context.Context, id auth.Identity, caseID types.CaseID, input usecase.CompleteAttachmentInput) (*amlcase.Attachment, error)
	Attachments(ctx context.Context, id auth.Identity, caseID types.CaseID) ([]*amlcase.Attachment, error)
	AttachmentDownloadURL(ctx context.Context, id auth.Identity, attachmentID types.AttachmentID) (*usecase.AttachmentDownload, error)
	ExportEvidencePack(ctx context.Context, id auth.Identity, caseID types.CaseID) (*usecase.EvidencePack, error)
}

type AdminUseCases interface {
	GetDashboard(ctx context.Context, id auth.Identity) (*dashboard.Summary, error)
	GetSLASettings(ctx context.Context, id auth.Identity) (*sla.Settings, error)
	UpdateSLASettings(ctx context.Context, id auth.Identity, hours usecase.SLAHours) (*sla.Settings, error)
	ImportAlerts(ctx context.Context, id auth.Identity, rows []alert.Row) (*alert.ImportResult, error)
}

type UseCase interface {
	AuthUseCases
	CaseUseCases
	RecordUseCases
	AdminUseCases
}

var _ UseCase = (*usecase.UseCases)(nil)
