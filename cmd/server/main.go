package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/liamcoop/nlquery/dataset"
	"github.com/liamcoop/nlquery/internal/config"
	"github.com/liamcoop/nlquery/internal/logger"
	"github.com/liamcoop/nlquery/internal/metrics"
	"github.com/liamcoop/nlquery/interpreter"
	"github.com/liamcoop/nlquery/rules"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultPreviewLimit = 10
	maxPreviewLimit     = 100
	msgQueryRequired    = "Query is required and must be a string"
)

type Server struct {
	cfg       *config.Config
	db        *sql.DB // nil when rules live in memory
	engine    *rules.Engine
	processor *interpreter.Processor
	data      *dataset.Store
	validate  *validator.Validate
	router    *chi.Mux
}

// NewServer wires the interpreter pipeline to engine and data.
// db is only used for health checks and may be nil.
func NewServer(cfg *config.Config, engine *rules.Engine, data *dataset.Store, db *sql.DB, opts ...interpreter.Option) *Server {
	opts = append([]interpreter.Option{interpreter.WithCacheTTL(cfg.CacheTTL)}, opts...)

	s := &Server{
		cfg:       cfg,
		db:        db,
		engine:    engine,
		processor: interpreter.NewProcessor(engine, data, opts...),
		data:      data,
		validate:  validator.New(),
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		if s.cfg.MetricsEnabled {
			r.Handle("/metrics", promhttp.Handler())
		}

		r.Group(func(r chi.Router) {
			r.Use(requireToken(s.cfg.APIToken))

			// Query operations
			r.Post("/query", s.handleQuery)
			r.Post("/explain", s.handleExplain)
			r.Post("/validate", s.handleValidate)

			// Reference data
			r.Get("/tables", s.handleListTables)
			r.Get("/tables/{name}", s.handleGetTable)

			// Rule catalog management
			r.Route("/rules", func(r chi.Router) {
				r.Get("/", s.handleListRules)
				r.Post("/", s.handleCreateRule)
				r.Get("/{ruleId}", s.handleGetRule)
				r.Put("/{ruleId}", s.handleUpdateRule)
				r.Delete("/{ruleId}", s.handleDeleteRule)
			})
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger logs each request and counts it by route pattern
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.ObserveHTTP(route, status)
		logger.Info("request served",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storeKind := "memory"
	if s.db != nil {
		storeKind = "postgres"
		if err := s.db.PingContext(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	all, err := s.engine.Store().ListAll()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "rule store unavailable", err)
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		RuleStore: storeKind,
		Rules:     len(all),
		Tables:    len(s.data.Tables()),
	})
}

// decodeQuery reads the query body. A missing, non-string or empty query
// is reported with the same message.
func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, msgQueryRequired, err)
		return "", false
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, msgQueryRequired, err)
		return "", false
	}
	return req.Query, true
}

// respondOperationError maps an interpreter failure to a response
func respondOperationError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, interpreter.ErrEmptyQuery) {
		respondError(w, http.StatusBadRequest, msgQueryRequired, err)
		return
	}
	respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to %s query", op), err)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	query, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	result, err := s.processor.Process(query)
	if err != nil {
		respondOperationError(w, interpreter.OpProcess, err)
		return
	}

	respondJSON(w, http.StatusOK, QueryResponse{Result: result})
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	query, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	result, err := s.processor.Explain(query)
	if err != nil {
		respondOperationError(w, interpreter.OpExplain, err)
		return
	}

	respondJSON(w, http.StatusOK, ExplainResponse{Explanation: result})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	query, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	result, err := s.processor.Validate(query)
	if err != nil {
		respondOperationError(w, interpreter.OpValidate, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, TablesResponse{Tables: s.data.Summaries()})
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	limit := defaultPreviewLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = min(n, maxPreviewLimit)
	}

	rows, err := s.data.Rows(name, limit)
	if errors.Is(err, dataset.ErrUnknownTable) {
		respondError(w, http.StatusNotFound, "table not found", err)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read table", err)
		return
	}

	respondJSON(w, http.StatusOK, TablePreviewResponse{
		Name:    name,
		Rows:    s.data.Len(name),
		Preview: rows,
	})
}

// List rules handler, optionally filtered by ?set=
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	store := s.engine.Store()

	var (
		list []*rules.Rule
		err  error
	)
	if set := r.URL.Query().Get("set"); set != "" {
		if !rules.RuleSet(set).Valid() {
			respondError(w, http.StatusBadRequest, "unknown rule set", nil)
			return
		}
		list, err = store.ListActive(rules.RuleSet(set))
	} else {
		list, err = store.ListAll()
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list rules", err)
		return
	}

	if list == nil {
		list = []*rules.Rule{}
	}
	respondJSON(w, http.StatusOK, RulesListResponse{Rules: list})
}

// decodeRule reads and validates a rule body
func (s *Server) decodeRule(w http.ResponseWriter, r *http.Request) (RuleRequest, bool) {
	var req RuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return req, false
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule", err)
		return req, false
	}
	return req, true
}

// respondRuleError maps rule store and compilation failures to a response
func respondRuleError(w http.ResponseWriter, status int, message string, err error) {
	switch {
	case errors.Is(err, rules.ErrRuleNotFound):
		respondError(w, http.StatusNotFound, "rule not found", err)
	case errors.Is(err, rules.ErrRuleExists):
		respondError(w, http.StatusConflict, "rule already exists", err)
	default:
		respondError(w, status, message, err)
	}
}

// Create rule handler
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRule(w, r)
	if !ok {
		return
	}
	if req.ID == "" {
		respondError(w, http.StatusBadRequest, "id is required", nil)
		return
	}

	rule := req.toRule(req.ID)

	// AddRule validates and compiles before storing
	if err := s.engine.AddRule(rule); err != nil {
		respondRuleError(w, http.StatusBadRequest, "failed to add rule", err)
		return
	}
	s.processor.Flush()

	logger.Info("rule added", "rule_id", rule.ID, "set", string(rule.Set))
	respondJSON(w, http.StatusCreated, rule)
}

// Get rule handler
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.engine.Store().Get(chi.URLParam(r, "ruleId"))
	if err != nil {
		respondRuleError(w, http.StatusInternalServerError, "failed to get rule", err)
		return
	}

	respondJSON(w, http.StatusOK, rule)
}

// Update rule handler
func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRule(w, r)
	if !ok {
		return
	}

	rule := req.toRule(chi.URLParam(r, "ruleId"))
	if err := s.engine.UpdateRule(rule); err != nil {
		respondRuleError(w, http.StatusBadRequest, "failed to update rule", err)
		return
	}
	s.processor.Flush()

	logger.Info("rule updated", "rule_id", rule.ID, "active", rule.Active)
	respondJSON(w, http.StatusOK, rule)
}

// Delete rule handler
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")

	if err := s.engine.DeleteRule(ruleID); err != nil {
		respondRuleError(w, http.StatusInternalServerError, "failed to delete rule", err)
		return
	}
	s.processor.Flush()

	logger.Info("rule deleted", "rule_id", ruleID)
	w.WriteHeader(http.StatusNoContent)
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("failed to encode response", "error", err)
	}
}

// respondError writes {"error": message}. err is logged, never returned to the client.
func respondError(w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		logger.ErrorHttp5xx()
		logger.Error(message, "status", status, "error", err)
	} else {
		logger.WarnHttp4xx(status)
		logger.Warn(message, "status", status, "error", err)
	}
	respondJSON(w, status, ErrorResponse{Error: message})
}

// openRuleStore builds the rule store named by cfg and seeds it with the
// catalog from RULES_FILE, or the built-in rules when unset
func openRuleStore(cfg *config.Config) (rules.RuleStore, *sql.DB, error) {
	catalog := rules.DefaultRules()
	if cfg.RulesFile != "" {
		loaded, err := rules.LoadCatalogFile(cfg.RulesFile)
		if err != nil {
			return nil, nil, err
		}
		catalog = loaded
	}

	if cfg.DatabaseURL == "" {
		store := rules.NewInMemoryRuleStore()
		if _, err := rules.Seed(store, catalog); err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := rules.NewPostgresRuleStore(db)
	added, err := rules.Seed(store, catalog)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("rule catalog seeded", "added", added)

	return store, db, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	if err := logger.Configure(cfg.LogLevel, cfg.ErrorSampleRate); err != nil {
		logger.Warn("invalid log level, using INFO", "error", err)
	}

	store, db, err := openRuleStore(cfg)
	if err != nil {
		logger.Fatal("failed to open rule store", "error", err)
	}
	if db != nil {
		defer db.Close()
	}

	engine, err := rules.NewEngine(store)
	if err != nil {
		logger.Fatal("failed to compile rules", "error", err)
	}

	data := dataset.New(dataset.WithSeed(cfg.DatasetSeed))
	logger.Info("dataset generated", "seed", data.Seed(), "tables", data.Summaries())

	server := NewServer(cfg, engine, data, db)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info("server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
