package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stickerlandia/print-service/api/middleware"
	"github.com/stickerlandia/print-service/api/responses"
	"github.com/stickerlandia/print-service/api/validators"
	"github.com/stickerlandia/print-service/internal/printers"
	"github.com/stickerlandia/print-service/internal/printjobs"
	"gorm.io/gorm"

	pkgerrors "github.com/stickerlandia/print-service/pkg/errors"
	"github.com/stickerlandia/print-service/pkg/logger"
)

// SubmitPrintJobRequest is the job submission payload.
type SubmitPrintJobRequest struct {
	UserID     string `json:"userId" validate:"required,min=1,max=128"`
	StickerID  string `json:"stickerId" validate:"required,min=1,max=128"`
	StickerURL string `json:"stickerUrl" validate:"required,url"`
}

// AcknowledgeRequest reports the outcome of a claimed job.
type AcknowledgeRequest struct {
	Success       bool   `json:"success"`
	FailureReason string `json:"failureReason,omitempty" validate:"max=1024"`
}

// SubmitPrintJob queues a sticker print for the named printer.
func SubmitPrintJob(jobs printjobs.Service, registry printers.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventName := chi.URLParam(r, "eventName")
		printerName := chi.URLParam(r, "printerName")

		var body SubmitPrintJobRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		printer, err := registry.FindByEventAndName(r.Context(), eventName, printerName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "printer not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading printer"))
			return
		}

		job, err := jobs.Submit(r.Context(), printer, body.UserID, body.StickerID, body.StickerURL)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, job)
	}
}

// PollPrintJobs hands queued jobs to the authenticated printer. The poll also
// doubles as the printer heartbeat.
func PollPrintJobs(jobs printjobs.Service, registry printers.Service, maxDefault int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		printer := middleware.PrinterFromContext(r.Context())
		if printer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "printer context missing"))
			return
		}

		max, err := validators.ParseQueryInt(r, "max", maxDefault, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := registry.Heartbeat(r.Context(), printer.PrinterID); err != nil {
			logg.Warn(logg.WithPrinterID(r.Context(), printer.PrinterID), "heartbeat update failed")
		}

		claimed, err := jobs.ClaimQueued(r.Context(), printer.PrinterID, max)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"printJobs": claimed})
	}
}

// AcknowledgePrintJob resolves a claimed job as completed or failed.
func AcknowledgePrintJob(jobs printjobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		printer := middleware.PrinterFromContext(r.Context())
		if printer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "printer context missing"))
			return
		}

		printJobID := chi.URLParam(r, "printJobId")

		var body AcknowledgeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		job, err := jobs.Acknowledge(r.Context(), printer.PrinterID, printJobID, body.Success, body.FailureReason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"acknowledged": true, "printJob": job})
	}
}
