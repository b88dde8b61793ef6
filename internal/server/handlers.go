package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"document-qa/internal/db"
	"document-qa/internal/helper"
	"document-qa/internal/models"
	"document-qa/internal/parser"
)

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "file exceeds upload limit")
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	src, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !parser.Supported(ext) {
		s.respondError(w, http.StatusUnsupportedMediaType, "unsupported file format: "+ext)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = header.Filename
	}

	if err := helper.CreateFolder(s.cfg.UploadDir()); err != nil {
		log.Error().Err(err).Msg("create upload dir")
		s.respondError(w, http.StatusInternalServerError, "could not store upload")
		return
	}
	uid, err := helper.GenerateUUID()
	if err != nil {
		log.Error().Err(err).Msg("generate upload id")
		s.respondError(w, http.StatusInternalServerError, "could not store upload")
		return
	}
	storagePath := filepath.Join(s.cfg.UploadDir(), uid+ext)
	dst, err := os.Create(storagePath)
	if err != nil {
		log.Error().Err(err).Str("path", storagePath).Msg("create upload file")
		s.respondError(w, http.StatusInternalServerError, "could not store upload")
		return
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(storagePath)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "file exceeds upload limit")
			return
		}
		log.Error().Err(err).Msg("save upload")
		s.respondError(w, http.StatusInternalServerError, "could not store upload")
		return
	}
	if err := dst.Close(); err != nil {
		os.Remove(storagePath)
		log.Error().Err(err).Msg("save upload")
		s.respondError(w, http.StatusInternalServerError, "could not store upload")
		return
	}

	result, err := s.ingestor.IngestFile(r.Context(), storagePath, name, header.Filename)
	if err != nil {
		os.Remove(storagePath)
		log.Error().Err(err).Str("file_name", name).Msg("ingestion failed")
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.registry.ListFiles(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list files")
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, files)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	file, err := s.registry.GetFile(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "file not found")
		return
	}
	s.respondJSON(w, http.StatusOK, file)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.registry.GetFile(r.Context(), id); err != nil {
		s.respondError(w, http.StatusNotFound, "file not found")
		return
	}
	if err := s.ingestor.DeleteFile(r.Context(), id); err != nil {
		var delErr *models.DeletionError
		if errors.As(err, &delErr) {
			log.Error().Err(err).Str("file_id", id).Msg("incomplete vector deletion")
		} else {
			log.Error().Err(err).Str("file_id", id).Msg("deletion failed")
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.respondError(w, http.StatusBadRequest, "question is required")
		return
	}
	answer, err := s.answerer.Answer(r.Context(), req.Question)
	if err != nil {
		log.Error().Err(err).Msg("answer failed")
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	entry := &db.History{
		Question: answer.Question,
		Answer:   answer.Text,
		Sources:  answer.Context,
	}
	if err := s.registry.InsertHistory(r.Context(), entry); err != nil {
		log.Warn().Err(err).Msg("could not record history entry")
	}
	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.registry.ListHistory(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list history")
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid history id")
		return
	}
	entry, err := s.registry.GetHistory(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "history entry not found")
		return
	}
	s.respondJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid history id")
		return
	}
	if err := s.registry.DeleteHistory(r.Context(), id); err != nil {
		log.Error().Err(err).Int64("history_id", id).Msg("delete history")
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
