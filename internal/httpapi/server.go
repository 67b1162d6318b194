// Package httpapi exposes the dispatch gateway over HTTP: chat dispatch,
// agent listing, session lifecycle, usage statistics, and a health probe.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Protocol-Lattice/go-careagent/pkg/agents"
	"github.com/Protocol-Lattice/go-careagent/pkg/dispatch"
	"github.com/Protocol-Lattice/go-careagent/pkg/session"
	"github.com/Protocol-Lattice/go-careagent/pkg/usage"
)

// Dispatcher routes one chat query. Failures arrive inside the Result, never
// as an error.
type Dispatcher interface {
	Dispatch(ctx context.Context, agentID, sessionID, query string) dispatch.Result
}

// UsageReader answers usage statistic queries.
type UsageReader interface {
	SessionStats(sessionID string, month, year int) (usage.SessionStats, error)
	OverallStats() (usage.OverallStats, error)
}

// HistoryAppender records a completed chat exchange. Optional; history
// persistence failures are logged, not surfaced.
type HistoryAppender interface {
	Append(ctx context.Context, sessionID, userMsg, assistantMsg string) error
	Clear(ctx context.Context, sessionID string) error
}

// Server bundles the HTTP dependencies.
type Server struct {
	dispatcher Dispatcher
	agents     *agents.Registry
	sessions   *session.Manager
	usage      UsageReader
	history    HistoryAppender
	log        *slog.Logger
}

// Options configure a new Server. Usage and History are optional.
type Options struct {
	Dispatcher Dispatcher
	Agents     *agents.Registry
	Sessions   *session.Manager
	Usage      UsageReader
	History    HistoryAppender
	Logger     *slog.Logger
}

func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		dispatcher: opts.Dispatcher,
		agents:     opts.Agents,
		sessions:   opts.Sessions,
		usage:      opts.Usage,
		history:    opts.History,
		log:        log,
	}
}

// Router builds the chi router with request-id and logging middleware.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.chat)
		r.Get("/agents", s.listAgents)
		r.Get("/usage_stats", s.sessionUsage)
		r.Get("/all_usage_stats", s.overallUsage)
		r.Post("/session", s.createSession)
		r.Delete("/session/{id}", s.deleteSession)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Info("request",
			"request_id", chimiddleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
		)
		next.ServeHTTP(w, r)
	})
}

type chatRequest struct {
	AgentID   string `json:"agent_id"`
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var body chatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if body.AgentID == "" {
		body.AgentID = "general_assistant"
	}
	if body.SessionID == "" {
		body.SessionID = s.sessions.New("").ID
	}

	result := s.dispatcher.Dispatch(r.Context(), body.AgentID, body.SessionID, body.Query)
	if s.history != nil && result.Error == "" {
		if err := s.history.Append(r.Context(), body.SessionID, body.Query, result.Response); err != nil {
			s.log.Warn("history append failed", "session_id", body.SessionID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, struct {
		dispatch.Result
		SessionID string `json:"session_id"`
	}{Result: result, SessionID: body.SessionID})
}

func (s *Server) listAgents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"agents": s.agents.List()})
}

func (s *Server) sessionUsage(w http.ResponseWriter, r *http.Request) {
	if s.usage == nil {
		writeError(w, http.StatusNotImplemented, "usage tracking is disabled")
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	month, _ := strconv.Atoi(r.URL.Query().Get("month"))
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))

	stats, err := s.usage.SessionStats(sessionID, month, year)
	if err != nil {
		s.log.Error("usage stats query failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load usage statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) overallUsage(w http.ResponseWriter, _ *http.Request) {
	if s.usage == nil {
		writeError(w, http.StatusNotImplemented, "usage tracking is disabled")
		return
	}
	stats, err := s.usage.OverallStats()
	if err != nil {
		s.log.Error("overall usage query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load usage statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) createSession(w http.ResponseWriter, _ *http.Request) {
	created := s.sessions.New("")
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.sessions.Remove(id)
	if s.history != nil {
		if err := s.history.Clear(r.Context(), id); err != nil {
			s.log.Warn("history clear failed", "session_id", id, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"status":        "error",
		"error_message": message,
	})
}
