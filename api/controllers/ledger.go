package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wyehealth/clinicbridge-backend/api/responses"
	"github.com/wyehealth/clinicbridge-backend/api/validators"
	"github.com/wyehealth/clinicbridge-backend/internal/ledgerbook"
	"github.com/wyehealth/clinicbridge-backend/pkg/enums"
	pkgerrors "github.com/wyehealth/clinicbridge-backend/pkg/errors"
	"github.com/wyehealth/clinicbridge-backend/pkg/logger"
)

// ListLedgerEntries filters by kind and an optional from/to date window
// (YYYY-MM-DD). An open side of the window defaults to the epoch / far
// future.
func ListLedgerEntries(svc ledgerbook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := enums.LedgerKind(r.URL.Query().Get("kind"))
		if kind == "" {
			kind = enums.LedgerKindExpense
		}

		from, err := parseDateParam(r.URL.Query().Get("from"), time.Time{})
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from date"))
			return
		}
		to, err := parseDateParam(r.URL.Query().Get("to"), time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to date"))
			return
		}

		entries, err := svc.ListByKind(r.Context(), kind, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

func parseDateParam(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	return time.Parse("2006-01-02", value)
}

func GetLedgerEntry(svc ledgerbook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entry id"))
			return
		}
		entry, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

func RecordLedgerEntry(svc ledgerbook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input ledgerbook.RecordEntryInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.Record(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

func DeleteLedgerEntry(svc ledgerbook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entry id"))
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
