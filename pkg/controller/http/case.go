package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/usecase"
)

type createCaseRequest struct {
	CustomerFullName string          `json:"customerFullName" validate:"required,max=200"`
	Priority         int             `json:"priority" validate:"gte=0,lte=10"`
	RiskLevel        types.RiskLevel `json:"riskLevel" validate:"required,oneof=Low Medium High"`
	SLADueAt         *time.Time      `json:"slaDueAt"`
}

type versionRequest struct {
	ExpectedVersion int `json:"expectedVersion" validate:"gte=0"`
}

type assignCaseRequest struct {
	OwnerUserID     string `json:"ownerUserId" validate:"required,uuid"`
	ExpectedVersion int    `json:"expectedVersion" validate:"gte=0"`
}

type updateStatusRequest struct {
	Status          types.CaseStatus `json:"status" validate:"required"`
	ExpectedVersion int              `json:"expectedVersion" validate:"gte=0"`
}

type setDecisionRequest struct {
	Decision        string          `json:"decision" validate:"required"`
	Reason          string          `json:"reason" validate:"required"`
	RiskLevel       types.RiskLevel `json:"riskLevel" validate:"required,oneof=Low Medium High"`
	ExpectedVersion int             `json:"expectedVersion" validate:"gte=0"`
}

func listCasesHandler(uc CaseUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := amlcase.Filter{
			Status: types.CaseStatus(q.Get("status")),
			Owner:  types.UserID(q.Get("owner")),
		}

		if v := q.Get("overdue"); v != "" {
			overdue, err := strconv.ParseBool(v)
			if err != nil {
				handleError(w, r, goerr.Wrap(err, "invalid overdue parameter", goerr.T(errs.TagValidation)))
				return
			}
			filter.OverdueOnly = overdue
		}
		if v := q.Get("limit"); v != "" {
			limit, err := strconv.Atoi(v)
			if err != nil || limit < 0 {
				handleError(w, r, goerr.New("invalid limit parameter", goerr.T(errs.TagValidation), goerr.V("limit", v)))
				return
			}
			filter.Limit = limit
		}

		cases, err := uc.ListCases(r.Context(), identityOf(r), filter)
		if err != nil {
			handleError(w, r, err)
			return
		}
		if cases == nil {
			cases = []*usecase.CaseView{}
		}
		writeJSON(w, r, http.StatusOK, cases)
	}
}

func createCaseHandler(uc CaseUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeJSON[createCaseRequest](r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		created, err := uc.CreateCase(r.Context(), identityOf(r), usecase.CreateCaseInput{
			CustomerFullName: req.CustomerFullName,
			Priority:         req.Priority,
			RiskLevel:        req.RiskLevel,
			SLADueAt:         req.SLADueAt,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}

		w.Header().Set("Location", "/api/cases/"+created.ID.String())
		writeJSON(w, r, http.StatusCreated, created)
	}
}

func getCaseHandler(uc CaseUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID, err := caseIDParam(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		c, err := uc.GetCase(r.Context(), identityOf(r), caseID)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, c)
	}
}

// mutationHandler decodes T, runs one lifecycle operation on the {id} case and
// writes the updated case.
func mutationHandler[T any](run func(r *http.Request, caseID types.CaseID, req *T) (*usecase.CaseView, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID, err := caseIDParam(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		req, err := decodeJSON[T](r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		c, err := run(r, caseID, req)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, c)
	}
}

func assignCaseHandler(uc CaseUseCases) http.HandlerFunc {
	return mutationHandler(func(r *http.Request, caseID types.CaseID, req *assignCaseRequest) (*usecase.CaseView, error) {
		return uc.AssignCase(r.Context(), identityOf(r), caseID, types.UserID(req.OwnerUserID), req.ExpectedVersion)
	})
}

func updateStatusHandler(uc CaseUseCases) http.HandlerFunc {
	return mutationHandler(func(r *http.Request, caseID types.CaseID, req *updateStatusRequest) (*usecase.CaseView, error) {
		return uc.UpdateCaseStatus(r.Context(), identityOf(r), caseID, req.Status, req.ExpectedVersion)
	})
}

func setDecisionHandler(uc CaseUseCases) http.HandlerFunc {
	return mutationHandler(func(r *http.Request, caseID types.CaseID, req *setDecisionRequest) (*usecase.CaseView, error) {
		return uc.SetDecision(r.Context(), identityOf(r), caseID, usecase.DecisionInput{
			Decision:  req.Decision,
			Reason:    req.Reason,
			RiskLevel: req.RiskLevel,
		}, req.ExpectedVersion)
	})
}

func approveCaseHandler(uc CaseUseCases) http.HandlerFunc {
	return mutationHandler(func(r *http.Request, caseID types.CaseID, req *versionRequest) (*usecase.CaseView, error) {
		return uc.ApproveCase(r.Context(), identityOf(r), caseID, req.ExpectedVersion)
	})
}

func closeCaseHandler(uc CaseUseCases) http.HandlerFunc {
	return mutationHandler(func(r *http.Request, caseID types.CaseID, req *versionRequest) (*usecase.CaseView, error) {
		return uc.CloseCase(r.Context(), identityOf(r), caseID, req.ExpectedVersion)
	})
}
