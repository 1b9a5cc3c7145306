package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/BiradarScripts/Djaan/internal/config"
	"github.com/BiradarScripts/Djaan/internal/models"
	"github.com/BiradarScripts/Djaan/internal/storage"
)

// RefreshResponse is returned by POST /api/v1/refresh.
type RefreshResponse struct {
	Status string                `json:"status"`
	Report *models.RefreshReport `json:"report"`
}

// StatusResponse is returned by GET /api/v1/status.
type StatusResponse struct {
	*models.IndexStats
	DiskUsageBytes *int64        `json:"disk_usage_bytes,omitempty"`
	Config         *ConfigReport `json:"config,omitempty"`
}

// ConfigReport is the subset of configuration exposed by the status endpoint.
type ConfigReport struct {
	SourceDirectory   string   `json:"source_directory"`
	Extensions        []string `json:"extensions"`
	EmbeddingProvider string   `json:"embedding_provider"`
	EmbeddingModel    string   `json:"embedding_model,omitempty"`
	DatabasePath      string   `json:"database_path"`
	IndexPath         string   `json:"index_path"`
	PruneMissing      bool     `json:"prune_missing"`
	WatchEnabled      bool     `json:"watch_enabled"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request",
		zap.String("query", req.Query),
		zap.Int("top_k", req.TopK),
		zap.Bool("use_expansion", req.UseExpansion),
	)
	response, err := s.engine.Search(r.Context(), &req)
	if errors.Is(err, models.ErrInvalidRequest) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.Refresh(r.Context())
	if err != nil {
		s.logger.Error("refresh failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, RefreshResponse{Status: "Index refreshed", Report: report})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := StatusResponse{IndexStats: stats}
	if s.config != nil {
		resp.Config = NewConfigReport(s.config)
		diskBytes, err := storage.DiskUsage(s.config.Storage.DatabasePath, s.config.Storage.IndexPath)
		if err == nil {
			resp.DiskUsageBytes = &diskBytes
		} else {
			s.logger.Debug("status: disk usage unavailable", zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// NewConfigReport extracts the reported subset of cfg.
func NewConfigReport(cfg *config.Config) *ConfigReport {
	return &ConfigReport{
		SourceDirectory:   cfg.Source.Directory,
		Extensions:        cfg.Source.Extensions,
		EmbeddingProvider: cfg.Embedding.Provider,
		EmbeddingModel:    cfg.Embedding.Model,
		DatabasePath:      cfg.Storage.DatabasePath,
		IndexPath:         cfg.Storage.IndexPath,
		PruneMissing:      cfg.Refresh.PruneMissing,
		WatchEnabled:      cfg.Watch.Enabled,
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
