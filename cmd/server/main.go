package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"github.com/ruleweave/decisions/decision"
	"github.com/ruleweave/decisions/dmn"
	"github.com/ruleweave/decisions/internal/logger"
)

type Server struct {
	db      *sql.DB
	store   decision.DefinitionStore
	service *decision.Service
	router  *chi.Mux
}

func NewServer(databaseURL string) (*Server, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	server := NewServerWithStore(decision.NewPostgresStore(db))
	server.db = db
	return server, nil
}

// NewServerWithStore builds a server over any definition store, which lets
// tests run against the in-memory one.
func NewServerWithStore(store decision.DefinitionStore) *Server {
	s := &Server{
		store:   store,
		service: decision.NewService(store, decision.NewCELEvaluator()),
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/v1/health", s.handleHealth)

	r.Route("/api/v1/decisions", func(r chi.Router) {
		r.Post("/", s.handleDeploy)
		r.Get("/", s.handleListDefinitions)
	})

	r.Post("/api/v1/evaluate", s.handleEvaluate)

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Deploy handler: accepts a DMN XML document and stores it as the next
// version of its decision key, optionally scoped to a tenant.
func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	def, err := dmn.ParseDefinition(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid DMN document", err)
		return
	}

	if tenantID := r.URL.Query().Get("tenantId"); tenantID != "" {
		def.Tenant = decision.NewTenant(tenantID)
	}

	if err := s.service.Deploy(r.Context(), def); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to deploy definition", err)
		return
	}

	respondJSON(w, http.StatusCreated, DefinitionResponse{
		ID:       def.ID,
		Key:      def.Key,
		Name:     def.Name,
		Version:  def.Version,
		TenantID: def.Tenant.String(),
	})
}

// List definitions handler
func (s *Server) handleListDefinitions(w http.ResponseWriter, r *http.Request) {
	q := decision.DefinitionQuery{Key: r.URL.Query().Get("key")}
	if tenantID := r.URL.Query().Get("tenantId"); tenantID != "" {
		q.Tenant = decision.WithTenant(tenantID)
	}

	defs, err := s.store.Find(r.Context(), q)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list definitions", err)
		return
	}

	resp := DefinitionsListResponse{Definitions: []DefinitionResponse{}}
	for _, def := range defs {
		resp.Definitions = append(resp.Definitions, DefinitionResponse{
			ID:       def.ID,
			Key:      def.Key,
			Name:     def.Name,
			Version:  def.Version,
			TenantID: def.Tenant.String(),
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

// Evaluate handler: resolves a decision by id or key and evaluates its
// table against the supplied variables.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.DecisionID == "" && req.DecisionKey == "" {
		respondError(w, http.StatusBadRequest, "decisionId or decisionKey is required", nil)
		return
	}
	if req.Variables == nil {
		respondError(w, http.StatusBadRequest, "variables are required", nil)
		return
	}

	evalReq := decision.EvaluationRequest{
		DecisionID:  req.DecisionID,
		DecisionKey: req.DecisionKey,
		Version:     req.Version,
		Tenant:      tenantFilter(req),
		Variables:   req.Variables,
	}

	start := time.Now()
	result, err := s.service.ResolveAndEvaluate(r.Context(), evalReq)
	if err != nil {
		respondEvaluationError(w, err)
		return
	}

	rows := make([]map[string]any, 0, result.Size())
	for _, row := range result.Rows() {
		rows = append(rows, row.Values())
	}

	respondJSON(w, http.StatusOK, EvaluateResponse{
		Results:        rows,
		EvaluationTime: time.Since(start).String(),
	})
}

func tenantFilter(req EvaluateRequest) decision.TenantFilter {
	if req.TenantID != "" {
		return decision.WithTenant(req.TenantID)
	}
	if req.WithoutTenant {
		return decision.WithoutTenant()
	}
	return decision.AnyTenant()
}

// respondEvaluationError maps the core's error taxonomy onto HTTP status
// codes: usage errors and tenant ambiguity are the caller's to fix, missing
// definitions are 404, a broken stored table is a conflict with the
// deployed data, everything else is a server-side failure.
func respondEvaluationError(w http.ResponseWriter, err error) {
	var (
		invalidReq *decision.InvalidRequestError
		notFound   *decision.NotFoundError
		ambiguous  *decision.AmbiguousTenantError
		badTable   *decision.InvalidTableError
	)

	switch {
	case errors.As(err, &invalidReq), errors.As(err, &ambiguous):
		respondError(w, http.StatusBadRequest, "evaluation rejected", err)
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, "decision definition not found", err)
	case errors.As(err, &badTable):
		respondError(w, http.StatusConflict, "decision table is invalid", err)
	default:
		respondError(w, http.StatusInternalServerError, "evaluation failed", err)
	}
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	server, err := NewServer(databaseURL)
	if err != nil {
		logger.Fatal("Failed to create server", "error", err)
	}
	defer server.db.Close()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info("Server starting", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	if err := logger.Shutdown(ctx); err != nil {
		logger.Error("Logger shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
