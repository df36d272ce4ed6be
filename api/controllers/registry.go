package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wyehealth/clinicbridge-backend/api/responses"
	"github.com/wyehealth/clinicbridge-backend/api/validators"
	"github.com/wyehealth/clinicbridge-backend/internal/registry"
	"github.com/wyehealth/clinicbridge-backend/pkg/logger"
)

func ListRegisteredDrugs(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drugs, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, drugs)
	}
}

func GetRegisteredDrug(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drug, err := svc.GetByRegNo(r.Context(), chi.URLParam(r, "regNo"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, drug)
	}
}

type registryImportRequest struct {
	Rows []registry.ImportDrugInput `json:"rows" validate:"required,min=1,dive"`
}

// ImportRegisteredDrugs ingests a batch from the periodic registry feed.
func ImportRegisteredDrugs(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registryImportRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Import(r.Context(), req.Rows)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
