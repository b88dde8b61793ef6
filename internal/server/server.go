// Package server exposes the document QA pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"document-qa/internal/config"
	"document-qa/internal/db"
	"document-qa/internal/ingest"
	"document-qa/internal/models"
)

// Ingestor runs document ingestion and removal.
type Ingestor interface {
	IngestFile(ctx context.Context, storagePath, fileName, originalFilename string) (*ingest.Result, error)
	DeleteFile(ctx context.Context, fileID string) error
}

// Answerer produces a grounded answer for a question.
type Answerer interface {
	Answer(ctx context.Context, question string) (*models.Answer, error)
}

// Registry reads file records and manages the question history.
type Registry interface {
	ListFiles(ctx context.Context) ([]db.File, error)
	GetFile(ctx context.Context, id string) (*db.File, error)
	InsertHistory(ctx context.Context, entry *db.History) error
	ListHistory(ctx context.Context) ([]db.History, error)
	GetHistory(ctx context.Context, id int64) (*db.History, error)
	DeleteHistory(ctx context.Context, id int64) error
}

// Server is the HTTP server for the document QA API.
type Server struct {
	ingestor Ingestor
	answerer Answerer
	registry Registry
	cfg      *config.Config
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(ingestor Ingestor, answerer Answerer, registry Registry, cfg *config.Config) *Server {
	return &Server{
		ingestor: ingestor,
		answerer: answerer,
		registry: registry,
		cfg:      cfg,
	}
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Post("/api/v1/files", s.handleUploadFile)
	r.Get("/api/v1/files", s.handleListFiles)
	r.Get("/api/v1/files/{id}", s.handleGetFile)
	r.Delete("/api/v1/files/{id}", s.handleDeleteFile)

	r.Post("/api/v1/ask", s.handleAsk)

	r.Get("/api/v1/history", s.handleListHistory)
	r.Get("/api/v1/history/{id}", s.handleGetHistory)
	r.Delete("/api/v1/history/{id}", s.handleDeleteHistory)

	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	log.Info().Str("addr", addr).Msg("starting server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
