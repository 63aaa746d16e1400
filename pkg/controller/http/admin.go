package http

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/service/csvimport"
	"github.com/secmon-lab/amlcase/pkg/usecase"
	"github.com/secmon-lab/amlcase/pkg/utils/safe"
)

const maxUploadSize = 32 << 20

type slaSettingsRequest struct {
	LowRiskHours    int `json:"lowRiskHours" validate:"gt=0"`
	MediumRiskHours int `json:"mediumRiskHours" validate:"gt=0"`
	HighRiskHours   int `json:"highRiskHours" validate:"gt=0"`
}

func dashboardHandler(uc AdminUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := uc.GetDashboard(r.Context(), identityOf(r))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, summary)
	}
}

func getSLASettingsHandler(uc AdminUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := uc.GetSLASettings(r.Context(), identityOf(r))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, settings)
	}
}

func updateSLASettingsHandler(uc AdminUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeJSON[slaSettingsRequest](r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		settings, err := uc.UpdateSLASettings(r.Context(), identityOf(r), usecase.SLAHours{
			LowHours:    req.LowRiskHours,
			MediumHours: req.MediumRiskHours,
			HighHours:   req.HighRiskHours,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, settings)
	}
}

// importAlertsHandler takes a multipart upload in the "file" field.
func importAlertsHandler(uc AdminUseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		file, header, err := r.FormFile("file")
		if err != nil {
			handleError(w, r, goerr.Wrap(err, "CSV file is required", goerr.T(errs.TagValidation)))
			return
		}
		defer safe.Close(r.Context(), file)

		if header.Size == 0 {
			handleError(w, r, csvimport.ErrEmptyFile)
			return
		}

		rows, err := csvimport.Parse(file)
		if err != nil {
			handleError(w, r, err)
			return
		}

		result, err := uc.ImportAlerts(r.Context(), identityOf(r), rows)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, result)
	}
}
