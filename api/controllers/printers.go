package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stickerlandia/print-service/api/responses"
	"github.com/stickerlandia/print-service/api/validators"
	"github.com/stickerlandia/print-service/internal/printers"
	pkgerrors "github.com/stickerlandia/print-service/pkg/errors"
	"github.com/stickerlandia/print-service/pkg/logger"
)

// RegisterPrinterRequest is the POST /printers payload.
type RegisterPrinterRequest struct {
	EventName   string `json:"eventName" validate:"required,min=1,max=128"`
	PrinterName string `json:"printerName" validate:"required,min=1,max=128"`
}

// RegisterPrinter issues a printer id and its one-time api key.
func RegisterPrinter(svc printers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "printer service unavailable"))
			return
		}

		var body RegisterPrinterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		registered, err := svc.Register(r.Context(), body.EventName, body.PrinterName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, registered)
	}
}

// DeletePrinter removes one printer and its jobs.
func DeletePrinter(svc printers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventName := chi.URLParam(r, "eventName")
		printerName := chi.URLParam(r, "printerName")

		force, err := validators.ParseQueryBool(r, "force", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), eventName, printerName, force); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteNoContent(w)
	}
}

// DeleteEventPrinters removes every printer registered under the event.
func DeleteEventPrinters(svc printers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventName := chi.URLParam(r, "eventName")

		force, err := validators.ParseQueryBool(r, "force", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deleted, err := svc.DeleteForEvent(r.Context(), eventName, force)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"printersDeleted": deleted})
	}
}

// PrinterStatuses lists per-printer liveness for an event.
func PrinterStatuses(svc printers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventName := chi.URLParam(r, "eventName")

		views, err := svc.Statuses(r.Context(), eventName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"printers": views})
	}
}
