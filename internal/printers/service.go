package printers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/stickerlandia/print-service/internal/outbox"
	dbpkg "github.com/stickerlandia/print-service/pkg/db"
	"github.com/stickerlandia/print-service/pkg/db/models"
	"github.com/stickerlandia/print-service/pkg/enums"
	pkgerrors "github.com/stickerlandia/print-service/pkg/errors"
	"github.com/stickerlandia/print-service/pkg/logger"
	"github.com/stickerlandia/print-service/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// JobGuard exposes the print-job checks the registry needs before deleting a
// printer.
type JobGuard interface {
	HasActiveJobs(ctx context.Context, printerID string) (bool, error)
	CountActive(ctx context.Context, printerID string) (int64, error)
	DeleteForPrinterTx(tx *gorm.DB, printerID string) error
}

// Service manages printer registration and lifecycle.
type Service interface {
	Register(ctx context.Context, eventName, printerName string) (*RegisteredPrinter, error)
	ValidateKey(ctx context.Context, apiKey string) (*models.Printer, error)
	Heartbeat(ctx context.Context, printerID string) error
	Delete(ctx context.Context, eventName, printerName string, force bool) error
	DeleteForEvent(ctx context.Context, eventName string, force bool) (int, error)
	Statuses(ctx context.Context, eventName string) ([]PrinterStatusView, error)
}

// ServiceParams collects the registry dependencies.
type ServiceParams struct {
	Repo            Repository
	Jobs            JobGuard
	Tx              txRunner
	Outbox          outbox.Store
	Logger          *logger.Logger
	HeartbeatWindow time.Duration
}

type service struct {
	repo            Repository
	jobs            JobGuard
	tx              txRunner
	outbox          outbox.Store
	logg            *logger.Logger
	heartbeatWindow time.Duration
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("printers repository required")
	}
	if params.Jobs == nil {
		return nil, fmt.Errorf("job guard required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	window := params.HeartbeatWindow
	if window <= 0 {
		window = 2 * time.Minute
	}
	return &service{
		repo:            params.Repo,
		jobs:            params.Jobs,
		tx:              params.Tx,
		outbox:          params.Outbox,
		logg:            params.Logger,
		heartbeatWindow: window,
	}, nil
}

// PrinterID derives the composite identifier from its two name parts.
func PrinterID(eventName, printerName string) string {
	return strings.ToUpper(eventName) + "-" + strings.ToUpper(printerName)
}

func (s *service) Register(ctx context.Context, eventName, printerName string) (*RegisteredPrinter, error) {
	eventName = strings.TrimSpace(eventName)
	printerName = strings.TrimSpace(printerName)
	if eventName == "" || printerName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event name and printer name are required")
	}

	if _, err := s.repo.FindByEventAndName(ctx, eventName, printerName); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "printer already registered for this event")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking existing printer")
	}

	apiKey, err := security.GenerateAPIKey()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating api key")
	}

	printer := &models.Printer{
		PrinterID:   PrinterID(eventName, printerName),
		EventName:   eventName,
		PrinterName: printerName,
		APIKey:      apiKey,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, printer); err != nil {
			return err
		}
		event := outbox.PrinterRegisteredEvent{PrinterID: printer.PrinterID}
		return s.outbox.AppendTx(tx, enums.EventPrinterRegistered, event, traceID(ctx))
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "printer already registered for this event")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "registering printer")
	}

	s.logg.Info(s.logg.WithPrinterID(ctx, printer.PrinterID), "printer registered")
	return &RegisteredPrinter{PrinterID: printer.PrinterID, APIKey: apiKey}, nil
}

func (s *service) ValidateKey(ctx context.Context, apiKey string) (*models.Printer, error) {
	if apiKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "printer not found")
	}
	printer, err := s.repo.FindByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "printer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "validating printer key")
	}
	return printer, nil
}

// Heartbeat records liveness. Failures are surfaced but callers treat the
// update as best effort.
func (s *service) Heartbeat(ctx context.Context, printerID string) error {
	return s.repo.UpdateHeartbeat(ctx, printerID, time.Now().UTC())
}

func (s *service) Delete(ctx context.Context, eventName, printerName string, force bool) error {
	printer, err := s.repo.FindByEventAndName(ctx, eventName, printerName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "printer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading printer")
	}

	if !force {
		// The check runs outside the deleting transaction. A job claimed in
		// between still gets removed; force semantics cover that window.
		active, err := s.jobs.HasActiveJobs(ctx, printer.PrinterID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking active jobs")
		}
		if active {
			return pkgerrors.New(pkgerrors.CodeConflict, "printer has jobs in progress").
				WithDetails(map[string]any{"printerId": printer.PrinterID})
		}
	}

	if err := s.deletePrinter(ctx, printer); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithPrinterID(ctx, printer.PrinterID), "printer deleted")
	return nil
}

// DeleteForEvent removes every printer registered under the event. All
// printers are guarded before the first delete, then each printer is removed
// in its own transaction. A failed deletion does not stop the rest; the
// per-printer errors come back aggregated alongside the committed count.
func (s *service) DeleteForEvent(ctx context.Context, eventName string, force bool) (int, error) {
	printers, err := s.repo.ListByEvent(ctx, eventName)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing printers")
	}
	if len(printers) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "no printers registered for event")
	}

	if !force {
		for _, printer := range printers {
			active, err := s.jobs.HasActiveJobs(ctx, printer.PrinterID)
			if err != nil {
				return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking active jobs")
			}
			if active {
				return 0, pkgerrors.New(pkgerrors.CodeConflict, "printer has jobs in progress").
					WithDetails(map[string]any{"printerId": printer.PrinterID})
			}
		}
	}

	deleted := 0
	var errs error
	for i := range printers {
		if err := s.deletePrinter(ctx, &printers[i]); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		deleted++
	}
	if errs != nil {
		return deleted, pkgerrors.Wrap(pkgerrors.CodeInternal, errs, "deleting event printers")
	}

	ctx = s.logg.WithEventName(ctx, eventName)
	s.logg.Info(s.logg.WithField(ctx, "printers_deleted", deleted), "event printers deleted")
	return deleted, nil
}

func (s *service) deletePrinter(ctx context.Context, printer *models.Printer) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.jobs.DeleteForPrinterTx(tx, printer.PrinterID); err != nil {
			return err
		}
		if err := s.repo.DeleteTx(tx, printer.PrinterID); err != nil {
			return err
		}
		event := outbox.PrinterDeletedEvent{
			PrinterID:   printer.PrinterID,
			EventName:   printer.EventName,
			PrinterName: printer.PrinterName,
		}
		return s.outbox.AppendTx(tx, enums.EventPrinterDeleted, event, traceID(ctx))
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting printer")
	}
	return nil
}

func (s *service) Statuses(ctx context.Context, eventName string) ([]PrinterStatusView, error) {
	printers, err := s.repo.ListByEvent(ctx, eventName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing printers")
	}

	now := time.Now().UTC()
	views := make([]PrinterStatusView, 0, len(printers))
	for _, printer := range printers {
		active, err := s.jobs.CountActive(ctx, printer.PrinterID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting active jobs")
		}
		views = append(views, PrinterStatusView{
			PrinterID:        printer.PrinterID,
			PrinterName:      printer.PrinterName,
			Status:           s.statusOf(printer.LastHeartbeat, now),
			LastHeartbeat:    printer.LastHeartbeat,
			LastJobProcessed: printer.LastJobProcessed,
			ActiveJobs:       active,
		})
	}
	return views, nil
}

func (s *service) statusOf(lastHeartbeat *time.Time, now time.Time) enums.PrinterStatus {
	if lastHeartbeat == nil || now.Sub(*lastHeartbeat) > s.heartbeatWindow {
		return enums.PrinterOffline
	}
	return enums.PrinterOnline
}

func traceID(ctx context.Context) *string {
	if id := chimiddleware.GetReqID(ctx); id != "" {
		return &id
	}
	return nil
}
