package printjobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stickerlandia/print-service/internal/outbox"
	"github.com/stickerlandia/print-service/pkg/db/models"
	"github.com/stickerlandia/print-service/pkg/enums"
	pkgerrors "github.com/stickerlandia/print-service/pkg/errors"
	"github.com/stickerlandia/print-service/pkg/logger"
	"github.com/stickerlandia/print-service/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PrinterTracker bumps printer bookkeeping after a job resolves.
type PrinterTracker interface {
	UpdateLastJobProcessed(ctx context.Context, printerID string, at time.Time) error
}

// Service manages the print job queue.
type Service interface {
	Submit(ctx context.Context, printer *models.Printer, userID, stickerID, stickerURL string) (*models.PrintJob, error)
	ClaimQueued(ctx context.Context, printerID string, maxJobs int) ([]models.PrintJob, error)
	Acknowledge(ctx context.Context, printerID, printJobID string, success bool, failureReason string) (*models.PrintJob, error)
	HasActiveJobs(ctx context.Context, printerID string) (bool, error)
	CountActive(ctx context.Context, printerID string) (int64, error)
	DeleteForPrinterTx(tx *gorm.DB, printerID string) error
}

// ServiceParams collects the queue dependencies. Metrics is optional; a nil
// value disables lifecycle counters.
type ServiceParams struct {
	Repo         Repository
	Tx           txRunner
	Outbox       outbox.Store
	Printers     PrinterTracker
	Logger       *logger.Logger
	Metrics      *metrics.PrintJobMetrics
	MaxClaimJobs int
}

type service struct {
	repo         Repository
	tx           txRunner
	outbox       outbox.Store
	printers     PrinterTracker
	logg         *logger.Logger
	metrics      *metrics.PrintJobMetrics
	maxClaimJobs int
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("print jobs repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox store required")
	}
	if params.Printers == nil {
		return nil, fmt.Errorf("printer tracker required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	maxClaim := params.MaxClaimJobs
	if maxClaim <= 0 {
		maxClaim = 25
	}
	return &service{
		repo:         params.Repo,
		tx:           params.Tx,
		outbox:       params.Outbox,
		printers:     params.Printers,
		logg:         params.Logger,
		metrics:      params.Metrics,
		maxClaimJobs: maxClaim,
	}, nil
}

func (s *service) Submit(ctx context.Context, printer *models.Printer, userID, stickerID, stickerURL string) (*models.PrintJob, error) {
	if printer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "printer not found")
	}
	userID = strings.TrimSpace(userID)
	stickerID = strings.TrimSpace(stickerID)
	stickerURL = strings.TrimSpace(stickerURL)
	if userID == "" || stickerID == "" || stickerURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id, sticker id and sticker url are required")
	}

	job := &models.PrintJob{
		PrintJobID: uuid.NewString(),
		PrinterID:  printer.PrinterID,
		UserID:     userID,
		StickerID:  stickerID,
		StickerURL: stickerURL,
		Status:     enums.PrintJobQueued,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, job); err != nil {
			return err
		}
		event := outbox.PrintJobQueuedEvent{
			PrintJobID: job.PrintJobID,
			PrinterID:  job.PrinterID,
			UserID:     job.UserID,
			StickerID:  job.StickerID,
		}
		return s.outbox.AppendTx(tx, enums.EventPrintJobQueued, event, traceID(ctx))
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "submitting print job")
	}

	s.metrics.IncQueued(job.PrinterID)
	fields := map[string]any{"print_job_id": job.PrintJobID, "printer_id": job.PrinterID}
	s.logg.Info(s.logg.WithFields(ctx, fields), "print job queued")
	return job, nil
}

// ClaimQueued hands the oldest queued jobs to the polling printer. Each
// candidate is claimed with an independent conditional update; rows another
// poll claimed in the meantime are skipped without error.
func (s *service) ClaimQueued(ctx context.Context, printerID string, maxJobs int) ([]models.PrintJob, error) {
	if maxJobs <= 0 || maxJobs > s.maxClaimJobs {
		maxJobs = s.maxClaimJobs
	}

	candidates, err := s.repo.FindQueued(ctx, printerID, maxJobs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading queued jobs")
	}

	now := time.Now().UTC()
	claimed := make([]models.PrintJob, 0, len(candidates))
	for _, candidate := range candidates {
		won, err := s.repo.ClaimOne(ctx, candidate.PrintJobID, candidate.Version, now)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claiming print job")
		}
		if !won {
			continue
		}
		candidate.Status = enums.PrintJobProcessing
		candidate.ProcessedAt = &now
		candidate.Version++
		claimed = append(claimed, candidate)
	}

	if len(claimed) > 0 {
		s.metrics.AddClaimed(printerID, len(claimed))
		fields := map[string]any{"printer_id": printerID, "claimed": len(claimed)}
		s.logg.Info(s.logg.WithFields(ctx, fields), "print jobs claimed")
	}
	return claimed, nil
}

func (s *service) Acknowledge(ctx context.Context, printerID, printJobID string, success bool, failureReason string) (*models.PrintJob, error) {
	job, err := s.repo.FindByID(ctx, printJobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "print job not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading print job")
	}

	if job.PrinterID != printerID {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "print job belongs to another printer")
	}
	if job.Status != enums.PrintJobProcessing {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "print job is not being processed").
			WithDetails(map[string]any{"status": job.Status})
	}

	status := enums.PrintJobCompleted
	var reason *string
	if !success {
		status = enums.PrintJobFailed
		trimmed := strings.TrimSpace(failureReason)
		if trimmed == "" {
			trimmed = "unspecified failure"
		}
		reason = &trimmed
	}

	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		won, err := s.repo.FinishTx(tx, job.PrintJobID, job.Version, status, now, reason)
		if err != nil {
			return err
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "print job changed concurrently")
		}

		if status == enums.PrintJobCompleted {
			event := outbox.PrintJobCompletedEvent{
				PrintJobID: job.PrintJobID,
				PrinterID:  job.PrinterID,
				UserID:     job.UserID,
				StickerID:  job.StickerID,
			}
			return s.outbox.AppendTx(tx, enums.EventPrintJobCompleted, event, traceID(ctx))
		}
		event := outbox.PrintJobFailedEvent{
			PrintJobID:    job.PrintJobID,
			PrinterID:     job.PrinterID,
			UserID:        job.UserID,
			StickerID:     job.StickerID,
			FailureReason: *reason,
		}
		return s.outbox.AppendTx(tx, enums.EventPrintJobFailed, event, traceID(ctx))
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "acknowledging print job")
	}

	// Failed acknowledgements also stamp completed_at; the job is done either way.
	job.Status = status
	job.CompletedAt = &now
	job.FailureReason = reason
	job.Version++

	if status == enums.PrintJobCompleted {
		s.metrics.IncCompleted(printerID)
	} else {
		s.metrics.IncFailed(printerID)
	}

	if err := s.printers.UpdateLastJobProcessed(ctx, printerID, now); err != nil {
		s.logg.Warn(s.logg.WithPrinterID(ctx, printerID), "updating printer last job processed failed")
	}

	fields := map[string]any{"print_job_id": job.PrintJobID, "status": status}
	s.logg.Info(s.logg.WithFields(ctx, fields), "print job acknowledged")
	return job, nil
}

func (s *service) HasActiveJobs(ctx context.Context, printerID string) (bool, error) {
	count, err := s.repo.CountInStatus(ctx, printerID, enums.PrintJobProcessing)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *service) CountActive(ctx context.Context, printerID string) (int64, error) {
	return s.repo.CountInStatus(ctx, printerID, enums.PrintJobProcessing)
}

func (s *service) DeleteForPrinterTx(tx *gorm.DB, printerID string) error {
	return s.repo.DeleteForPrinterTx(tx, printerID)
}

func traceID(ctx context.Context) *string {
	if id := chimiddleware.GetReqID(ctx); id != "" {
		return &id
	}
	return nil
}
