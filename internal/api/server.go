// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/common"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/core"
)

// Server exposes the query core over HTTP.
type Server struct {
	orch   *core.Orchestrator
	router chi.Router
}

func NewServer(orch *core.Orchestrator) *Server {
	s := &Server{orch: orch}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Get("/catalog", s.handleCatalog)
		r.Get("/logs", s.handleLogs)
	})
	s.router = r
	return s
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// wireEnvelope is the documented wire shape: {type, content, source}.
type wireEnvelope struct {
	Type    string      `json:"type"`
	Content interface{} `json:"content"`
	Source  string      `json:"source"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req core.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "corpo da requisição inválido: "+err.Error())
		return
	}
	if req.Utterance == "" {
		writeError(w, http.StatusBadRequest, "utterance é obrigatório")
		return
	}
	start := time.Now()
	envelope := s.orch.HandleTurn(r.Context(), req)
	common.Logger().Info("api: query answered",
		"envelope", envelope.Type,
		"elapsed", time.Since(start).String(),
	)
	writeJSON(w, http.StatusOK, wireEnvelope{
		Type:    envelope.Type,
		Content: envelope.Content(),
		Source:  envelope.Source,
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Registry().Entries())
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, common.LogEntries())
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		common.Logger().Error("api: encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
