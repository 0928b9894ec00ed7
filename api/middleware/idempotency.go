package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/stickerlandia/print-service/api/responses"
	pkgerrors "github.com/stickerlandia/print-service/pkg/errors"
	"github.com/stickerlandia/print-service/pkg/logger"
	pkgredis "github.com/stickerlandia/print-service/pkg/redis"
)

const idempotencyTTL = 24 * time.Hour

// guardedRoute reports whether the route honors Idempotency-Key. Registration
// and job submission are the writes kiosks retry blindly; everything else is
// either read-only or already idempotent.
func guardedRoute(method, pattern string) bool {
	if method != http.MethodPost {
		return false
	}
	return pattern == "/api/v1/printers" || strings.HasSuffix(pattern, "/print-jobs")
}

// storedResponse is the replay record kept in redis for the TTL window.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType,omitempty"`
	Body        string `json:"body"`
	BodyHash    string `json:"bodyHash"`
}

// Idempotency replays the first response for a reused Idempotency-Key, and
// rejects reuse with a different request body. Requests without a key pass
// through untouched.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil || !guardedRoute(r.Method, routePattern(r)) {
				next.ServeHTTP(w, r)
				return
			}

			clientKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			bodyHash := hashRequestBody(body)
			key := store.IdempotencyKey(requestScope(r), clientKey)

			prior, err := store.Get(r.Context(), key)
			if err != nil && !errors.Is(err, redis.Nil) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if prior != "" {
				replayStored(r, w, logg, prior, bodyHash)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			persistResponse(r, logg, store, key, capture, bodyHash)
		})
	}
}

func replayStored(r *http.Request, w http.ResponseWriter, logg *logger.Logger, prior, bodyHash string) {
	var stored storedResponse
	if err := json.Unmarshal([]byte(prior), &stored); err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if stored.BodyHash != bodyHash {
		responses.WriteError(r.Context(), logg, w,
			pkgerrors.New(pkgerrors.CodeConflict, "idempotency key reused with different request body"))
		return
	}

	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.WriteHeader(stored.Status)
	if decoded, err := base64.StdEncoding.DecodeString(stored.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

func persistResponse(r *http.Request, logg *logger.Logger, store pkgredis.IdempotencyStore, key string, capture *responseCapture, bodyHash string) {
	// Server errors are not replayable outcomes; the retry should reach the
	// handler again.
	if capture.statusOrOK() >= http.StatusInternalServerError {
		return
	}
	record := storedResponse{
		Status:      capture.statusOrOK(),
		ContentType: capture.Header().Get("Content-Type"),
		Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
		BodyHash:    bodyHash,
	}
	payload, err := json.Marshal(record)
	if err != nil {
		logg.Error(r.Context(), "marshal idempotency record", err)
		return
	}
	if _, err := store.SetNX(r.Context(), key, string(payload), idempotencyTTL); err != nil {
		logg.Error(r.Context(), "persist idempotency record", err)
	}
}

// requestScope namespaces keys so the same client key on a different route,
// or from a different printer, never collides.
func requestScope(r *http.Request) string {
	parts := []string{r.Method, r.URL.Path}
	if printer := PrinterFromContext(r.Context()); printer != nil {
		parts = append(parts, printer.PrinterID)
	}
	return strings.Join(parts, "|")
}

func hashRequestBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusOrOK() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
