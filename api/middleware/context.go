package middleware

import (
	"context"

	"github.com/stickerlandia/print-service/pkg/db/models"
)

type printerCtxKey struct{}

// PrinterFromContext returns the authenticated printer seeded by PrinterKey,
// or nil outside the authenticated routes.
func PrinterFromContext(ctx context.Context) *models.Printer {
	printer, _ := ctx.Value(printerCtxKey{}).(*models.Printer)
	return printer
}

func withPrinter(ctx context.Context, printer *models.Printer) context.Context {
	return context.WithValue(ctx, printerCtxKey{}, printer)
}
