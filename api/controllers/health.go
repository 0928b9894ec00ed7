package controllers

import (
	"context"
	"net/http"

	"github.com/stickerlandia/print-service/api/responses"
	"github.com/stickerlandia/print-service/pkg/config"
	pkgerrors "github.com/stickerlandia/print-service/pkg/errors"
	"github.com/stickerlandia/print-service/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable")
				responses.WriteError(r.Context(), logg, w, wrapped)
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

// ReadyDeps packages named health-check dependencies for HealthReady.
func ReadyDeps(db, redis pinger) map[string]pinger {
	return map[string]pinger{
		"database": db,
		"redis":    redis,
	}
}
