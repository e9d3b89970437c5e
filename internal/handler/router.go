package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/segyhp/library-engine/pkg/response"
)

// NewRouter mounts health checks at the root and the library API under /api/v1
func NewRouter(library *LibraryHandler, health *HealthHandler, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(
		response.RecoveryMiddleware(logger),
		response.LoggingMiddleware(logger.Named("access")),
		response.CORSMiddleware,
	)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	router.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", health.Ready).Methods(http.MethodGet)

	library.Register(router.PathPrefix("/api/v1").Subrouter())

	return router
}
