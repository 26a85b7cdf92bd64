package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/passkey-playground/internal/config"
	"github.com/smartdevs17/passkey-playground/internal/metrics"
	"github.com/smartdevs17/passkey-playground/internal/playground"
	"github.com/smartdevs17/passkey-playground/internal/storage"
	"github.com/smartdevs17/passkey-playground/pkg/utils"
)

// HTTPServer exposes the playground to the presentation layer
type HTTPServer struct {
	config         *config.ServerConfig
	version        string
	server         *http.Server
	router         *mux.Router
	playground     *playground.Playground
	storage        storage.Storage
	metricsManager *metrics.Manager
	limiter        *actionLimiter
	logger         *logrus.Entry
	stop           chan struct{}
}

// NewHTTPServer creates a new HTTP server. storage and metricsManager may be nil.
func NewHTTPServer(
	cfg *config.ServerConfig,
	version string,
	pg *playground.Playground,
	store storage.Storage,
	metricsManager *metrics.Manager,
) (*HTTPServer, error) {
	if pg == nil {
		return nil, utils.NewAppError(utils.ErrCodeConfiguration, "Playground is required", "")
	}

	server := &HTTPServer{
		config:         cfg,
		version:        version,
		playground:     pg,
		storage:        store,
		metricsManager: metricsManager,
		limiter:        newActionLimiter(cfg.ActionsPerMinute, cfg.ActionBurst, cfg.TrustProxyHeaders),
		logger:         utils.ComponentLogger("http"),
		stop:           make(chan struct{}),
	}

	server.setupRouter()

	server.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, nil
}

// Handler returns the configured router
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// setupRouter sets up the HTTP routes
func (s *HTTPServer) setupRouter() {
	s.router = mux.NewRouter()

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
	if s.metricsManager != nil {
		s.router.Use(s.metricsMiddleware)
	}

	api := s.router.PathPrefix("/api/v1").Subrouter()

	if s.config.EnableHealth {
		api.HandleFunc("/health", s.healthHandler).Methods("GET")
	}
	if s.config.EnableMetrics && s.metricsManager != nil {
		s.router.Handle("/metrics", s.metricsManager.Handler())
	}

	// Ledgers
	api.HandleFunc("/logs", s.listLogsHandler).Methods("GET")
	api.HandleFunc("/logs", s.clearLogsHandler).Methods("DELETE")
	api.HandleFunc("/history", s.listHistoryHandler).Methods("GET")
	api.HandleFunc("/history", s.clearHistoryHandler).Methods("DELETE")

	// Session and guards
	api.HandleFunc("/session", s.sessionHandler).Methods("GET")
	api.HandleFunc("/guards", s.guardsHandler).Methods("GET")

	// Actions
	actions := api.PathPrefix("/actions").Subrouter()
	actions.Use(s.limiter.middleware)
	actions.HandleFunc("/connect", s.connectHandler).Methods("POST")
	actions.HandleFunc("/disconnect", s.disconnectHandler).Methods("POST")
	actions.HandleFunc("/sign", s.signHandler).Methods("POST")
	actions.HandleFunc("/send", s.sendHandler).Methods("POST")
	actions.HandleFunc("/subscribe", s.subscribeHandler).Methods("POST")
	actions.HandleFunc("/airdrop", s.airdropHandler).Methods("POST")

	// Catalog
	api.HandleFunc("/plans", s.plansHandler).Methods("GET")
	api.HandleFunc("/snippets", s.listSnippetsHandler).Methods("GET")
	api.HandleFunc("/snippets/{name}", s.getSnippetHandler).Methods("GET")

	// Preflight requests only need the CORS headers
	s.router.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	s.logger.WithFields(logrus.Fields{
		"address":         s.server.Addr,
		"metrics_enabled": s.config.EnableMetrics,
	}).Info("Starting HTTP server")

	if s.metricsManager != nil {
		s.updateHealthMetrics()
		go s.systemMetricsUpdater()
	}

	errChan := make(chan error, 1)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server error")
			errChan <- err
		}
	}()

	// Surface immediate binding errors
	select {
	case err := <-errChan:
		return fmt.Errorf("failed to start HTTP server: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// systemMetricsUpdater updates system metrics periodically
func (s *HTTPServer) systemMetricsUpdater() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.updateHealthMetrics()
		case <-s.stop:
			return
		}
	}
}

func (s *HTTPServer) updateHealthMetrics() {
	s.metricsManager.UpdateSystemMetrics()
	if s.storage != nil {
		s.metricsManager.GetPrometheusMetrics().UpdateComponentHealth("storage", s.storage.Ping() == nil)
	}
}

// Stop stops the HTTP server
func (s *HTTPServer) Stop() error {
	s.logger.Info("Stopping HTTP server")
	close(s.stop)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Health Handlers

// healthHandler returns basic health status
func (s *HTTPServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	components := map[string]interface{}{}
	status := "healthy"

	if s.storage != nil {
		if err := s.storage.Ping(); err != nil {
			status = "degraded"
			components["storage"] = err.Error()
		} else {
			components["storage"] = "ok"
		}
	} else {
		components["storage"] = "disabled"
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          status,
		"timestamp":       time.Now().UTC().Format(time.RFC3339Nano),
		"version":         s.version,
		"metrics_enabled": s.config.EnableMetrics,
		"components":      components,
	})
}

// Ledger Handlers

func (s *HTTPServer) listLogsHandler(w http.ResponseWriter, r *http.Request) {
	logs := s.playground.Logs()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}

func (s *HTTPServer) clearLogsHandler(w http.ResponseWriter, r *http.Request) {
	s.playground.ClearLogs()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Logs cleared"})
}

func (s *HTTPServer) listHistoryHandler(w http.ResponseWriter, r *http.Request) {
	history := s.playground.History()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": history,
		"count":        len(history),
	})
}

func (s *HTTPServer) clearHistoryHandler(w http.ResponseWriter, r *http.Request) {
	s.playground.ClearHistory()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"message": "History cleared"})
}

// Session Handlers

func (s *HTTPServer) sessionHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.playground.Session(r.Context()))
}

func (s *HTTPServer) guardsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"busy": s.playground.Busy()})
}

// Action Handlers

func (s *HTTPServer) connectHandler(w http.ResponseWriter, r *http.Request) {
	account, err := s.playground.Connect(r.Context())
	if err != nil {
		s.writeActionError(w, "connect", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"account": account})
}

func (s *HTTPServer) disconnectHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.playground.Disconnect(r.Context()); err != nil {
		s.writeActionError(w, "disconnect", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Wallet disconnected"})
}

func (s *HTTPServer) signHandler(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Message string `json:"message"`
	}
	if !s.decodeOptional(w, r, &request) {
		return
	}

	signature, err := s.playground.SignMessage(r.Context(), request.Message)
	if err != nil {
		s.writeActionError(w, "sign", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"signature": signature})
}

func (s *HTTPServer) sendHandler(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Recipient string `json:"recipient"`
		Lamports  uint64 `json:"lamports"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	signature, err := s.playground.SendTransfer(r.Context(), request.Recipient, request.Lamports)
	if err != nil {
		s.writeActionError(w, "send", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"signature": signature})
}

func (s *HTTPServer) subscribeHandler(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Plan string `json:"plan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	signature, err := s.playground.Subscribe(r.Context(), request.Plan)
	if err != nil {
		s.writeActionError(w, "subscribe", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"signature": signature})
}

func (s *HTTPServer) airdropHandler(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Lamports uint64 `json:"lamports"`
	}
	if !s.decodeOptional(w, r, &request) {
		return
	}

	signature, err := s.playground.RequestAirdrop(r.Context(), request.Lamports)
	if err != nil {
		s.writeActionError(w, "airdrop", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"signature": signature})
}

// Catalog Handlers

func (s *HTTPServer) plansHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"plans": s.playground.Plans()})
}

func (s *HTTPServer) listSnippetsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"snippets": playground.Snippets()})
}

func (s *HTTPServer) getSnippetHandler(w http.ResponseWriter, r *http.Request) {
	snippet, err := playground.GetSnippet(mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Snippet not found", err)
		return
	}
	s.writeJSON(w, http.StatusOK, snippet)
}

// Utility Methods

// decodeOptional decodes a JSON body if one was sent
func (s *HTTPServer) decodeOptional(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// writeActionError maps an action failure to a status code. Busy actions
// answer 409; the failure itself is already in the activity log.
func (s *HTTPServer) writeActionError(w http.ResponseWriter, action string, err error) {
	if errors.Is(err, playground.ErrBusy) {
		s.writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":  fmt.Sprintf("%s already in progress", action),
			"status": http.StatusConflict,
		})
		return
	}

	status := http.StatusBadGateway
	switch utils.ErrorCode(err) {
	case utils.ErrCodeValidation:
		status = http.StatusBadRequest
	case utils.ErrCodeNotFound:
		status = http.StatusNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	s.writeError(w, status, fmt.Sprintf("%s failed", action), err)
}

// writeJSON writes a JSON response
func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string, err error) {
	errorResponse := map[string]interface{}{
		"error":     message,
		"status":    status,
		"timestamp": time.Now(),
	}

	if err != nil {
		errorResponse["details"] = err.Error()
		if code := utils.ErrorCode(err); code != "" {
			errorResponse["code"] = code
		}
		s.logger.WithFields(logrus.Fields{
			"status":  status,
			"message": message,
			"error":   err,
		}).Warn("HTTP error")
	}

	s.writeJSON(w, status, errorResponse)
}
