package handlers

import (
	portssvc "github.com/finpost/gl_engine_app/internal/core/ports/services"
	"github.com/finpost/gl_engine_app/internal/middleware"
	"github.com/finpost/gl_engine_app/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes sets up all application routes, injecting dependencies
// through the service facades.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	publisher portssvc.EventPublisher,
	dbPool *pgxpool.Pool,
) {
	r.GET("/health", getHealth(dbPool))

	setupAPIV1Routes(r, cfg, services, publisher)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to the
// per-entity route registrations.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	publisher portssvc.EventPublisher,
) {
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	registerAccountRoutes(v1, services.Account)
	registerPeriodRoutes(v1, services.Period, publisher)
	registerJournalRoutes(v1, services.Journal, publisher)
	registerBatchRoutes(v1, services.Batch, publisher)
}
