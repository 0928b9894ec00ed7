package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/stickerlandia/print-service/api/responses"
	"github.com/stickerlandia/print-service/pkg/db/models"
	pkgerrors "github.com/stickerlandia/print-service/pkg/errors"
	"github.com/stickerlandia/print-service/pkg/logger"
)

const printerKeyHeader = "X-Printer-Key"

// KeyValidator resolves a printer api key to its printer.
type KeyValidator interface {
	ValidateKey(ctx context.Context, apiKey string) (*models.Printer, error)
}

// PrinterKey authenticates printer-scoped routes via the opaque key issued at
// registration and seeds the printer into the request context.
func PrinterKey(validator KeyValidator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(printerKeyHeader))
			if key == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing printer key"))
				return
			}

			printer, err := validator.ValidateKey(r.Context(), key)
			if err != nil {
				typed := pkgerrors.As(err)
				if typed != nil && typed.Code() == pkgerrors.CodeNotFound {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid printer key"))
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate printer key"))
				return
			}

			ctx := withPrinter(r.Context(), printer)
			if logg != nil {
				ctx = logg.WithPrinterID(ctx, printer.PrinterID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
