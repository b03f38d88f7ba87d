// Package server exposes the analyzer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/okravets/shepard/internal/analyzer"
	"github.com/okravets/shepard/internal/store"
)

// Server routes analysis requests to an Analyzer
type Server struct {
	analyzer     *analyzer.Analyzer
	logger       *zap.Logger
	defaultDepth int
	maxDepth     int
}

// Options configures a Server
type Options struct {
	Analyzer     *analyzer.Analyzer
	Logger       *zap.Logger
	DefaultDepth int
	MaxDepth     int
}

// New creates a server
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DefaultDepth <= 0 {
		opts.DefaultDepth = 2
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 5
	}
	return &Server{
		analyzer:     opts.Analyzer,
		logger:       opts.Logger,
		defaultDepth: opts.DefaultDepth,
		maxDepth:     opts.MaxDepth,
	}
}

// Router builds the API router
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/analyses", s.handleAnalyze).Methods("POST")
	api.HandleFunc("/analyses/{root}", s.handleGetTree).Methods("GET")
	api.HandleFunc("/analyses/{root}", s.handleClearTree).Methods("DELETE")
	api.HandleFunc("/assessments/{id}", s.handleGetAssessment).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	return r
}

// ListenAndServe serves the router until the context is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // deep traversals are slow
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("server listening", zap.String("addr", addr))
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// analyzeRequest is the POST /api/analyses body
type analyzeRequest struct {
	OpinionID    string `json:"opinion_id"`
	Depth        int    `json:"depth"`
	ForceRefresh bool   `json:"force_refresh"`
}

// handleAnalyze runs the traversal synchronously and returns the tree
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OpinionID == "" {
		writeError(w, http.StatusBadRequest, "opinion_id is required")
		return
	}
	if req.Depth == 0 {
		req.Depth = s.defaultDepth
	}
	if req.Depth < 1 || req.Depth > s.maxDepth {
		writeError(w, http.StatusBadRequest, "depth out of range")
		return
	}

	tree, err := s.analyzer.Analyze(r.Context(), req.OpinionID, req.Depth, req.ForceRefresh)
	if err != nil {
		s.logger.Warn("analysis failed",
			zap.String("opinion_id", req.OpinionID),
			zap.Error(err))
		if tree != nil {
			// The failed tree carries committed levels and the error message
			writeJSON(w, http.StatusBadGateway, tree)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, tree)
}

// handleGetTree returns the cached tree for a root, without analyzing
func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	root := mux.Vars(r)["root"]

	tree, err := s.analyzer.GetTree(root)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no analysis for opinion "+root)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, tree)
}

// handleClearTree removes the cached tree for a root
func (s *Server) handleClearTree(w http.ResponseWriter, r *http.Request) {
	root := mux.Vars(r)["root"]

	if err := s.analyzer.ClearTree(root); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared", "root": root})
}

// handleGetAssessment returns the latest cached assessment for an opinion
func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	assessment, err := s.analyzer.GetAssessment(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no assessment for opinion "+id)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, assessment)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
