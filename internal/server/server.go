// Package server provides the HTTP API of the responder.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/proposal"
	"github.com/spigell/rfp-responder/internal/rfperr"
)

const (
	DefaultAddress = ":8000"

	healthStatus  = "healthy"
	healthMessage = "RFP responder is running"

	shutdownTimeout = 30 * time.Second
)

// Processor produces the proposal for an RFP id.
type Processor interface {
	Process(ctx context.Context, rfpID string) (*proposal.Proposal, error)
}

type Config struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
}

type Server struct {
	httpServer *http.Server
	processor  Processor
	validate   *validator.Validate
	logger     *zap.Logger
}

type processRequest struct {
	RFPID string `json:"rfp_id" validate:"required"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func New(cfg Config, processor Processor, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// long enough for three generation calls
		cfg.WriteTimeout = 300 * time.Second
	}

	s := &Server{
		processor: processor,
		validate:  validator.New(),
		logger:    logger,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the routes wrapped in the middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /process-rfp", s.handleProcessRFP)

	return s.withLogging(s.withCORS(mux))
}

func (s *Server) Addr() string { return s.httpServer.Addr }

// Run serves until ctx is done and then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, healthResponse{Status: healthStatus, Message: healthMessage})
}

func (s *Server) handleProcessRFP(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "rfp_id is required")
		return
	}

	s.logger.Info("processing request", zap.String("rfp_id", req.RFPID))

	result, err := s.processor.Process(r.Context(), req.RFPID)
	if err != nil {
		status, message := errorStatus(req.RFPID, err)
		s.logger.Error("processing failed",
			zap.String("rfp_id", req.RFPID),
			zap.Int("status", status),
			zap.Error(err),
		)
		s.errorResponse(w, status, message)
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// errorStatus maps an error kind to the response status and message.
func errorStatus(rfpID string, err error) (int, string) {
	switch {
	case errors.Is(err, rfperr.ErrNotFound):
		return http.StatusNotFound, "RFP not found: " + rfpID
	case errors.Is(err, rfperr.ErrInvalidData):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "Error processing RFP: " + err.Error()
	}
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding json response", zap.Error(err))
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
