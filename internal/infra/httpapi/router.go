package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the API routes. Everything under /api requires a bearer token.
func NewRouter(h *Handler, jwtSecret string, logger *logrus.Entry) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestIDMiddleware, LoggingMiddleware(logger))

	// Public routes
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	// Protected routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(AuthMiddleware(jwtSecret))
	api.HandleFunc("/commitments/due", h.ListDue).Methods(http.MethodGet)
	api.HandleFunc("/commitments/due/export", h.ExportDue).Methods(http.MethodGet)
	api.HandleFunc("/commitments", h.CreateCommitment).Methods(http.MethodPost)
	api.HandleFunc("/commitments/{id:[0-9]+}/payments", h.RegisterPayment).Methods(http.MethodPost)
	api.HandleFunc("/notifications/test", h.SendTestMessage).Methods(http.MethodPost)
	api.HandleFunc("/notifications/template", h.SendTemplateMessage).Methods(http.MethodPost)
	api.HandleFunc("/notifications/run", h.RunNotifications).Methods(http.MethodPost)

	return r
}
