// Package httpapi serves the REST fast path: lightweight summary
// endpoints the frontend polls instead of driving everything through
// MCP tool calls, plus the token endpoint and a health probe. The
// streamable MCP handler mounts on the same router at /mcp/.
//
// Summary responses are cached; the application layer invalidates the
// affected key prefixes on every mutation, so a poll after a change
// always sees fresh data.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/phamhung075/4genthub-sub014/internal/auth"
	"github.com/phamhung075/4genthub-sub014/internal/domain"
	"github.com/phamhung075/4genthub-sub014/internal/response"
	"github.com/phamhung075/4genthub-sub014/internal/taskapp"
)

// Credentials are the client credentials accepted by the token endpoint.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Server is the HTTP surface of the task server.
type Server struct {
	app   *taskapp.App
	auth  *auth.Service // nil disables bearer auth
	creds Credentials
	mcp   http.Handler // streamable MCP handler, may be nil in tests
	log   *zap.Logger
}

// New creates the HTTP server. A nil auth service disables
// authentication on every route.
func New(app *taskapp.App, authSvc *auth.Service, creds Credentials, mcpHandler http.Handler, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{app: app, auth: authSvc, creds: creds, mcp: mcpHandler, log: log}
}

// Router builds the route table. Health and token issuance stay open;
// the summary endpoints sit behind bearer auth when enabled. The MCP
// handler does its own token handling through the HTTP context func,
// so it mounts outside the auth middleware.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(WithRequestID())
	r.Use(Logging(s.log))

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/token", s.handleToken).Methods(http.MethodPost)

	if s.mcp != nil {
		r.PathPrefix("/mcp").Handler(s.mcp)
	}

	protected := r.NewRoute().Subrouter()
	protected.Use(auth.Middleware(s.auth))
	protected.HandleFunc("/api/branches/summaries", s.handleBranchSummaries).Methods(http.MethodGet)
	protected.HandleFunc("/api/tasks/summaries", s.handleTaskSummaries).Methods(http.MethodGet)
	protected.HandleFunc("/api/v2/tasks/{id}/subtasks/summaries", s.handleSubtaskSummaries).Methods(http.MethodGet)
	protected.HandleFunc("/api/agents/summary", s.handleAgentSummary).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	return r
}

// ─── Handlers ────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if err := s.app.Store().Ping(); err != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusNotFound, "Authentication is disabled")
		return
	}

	var body struct {
		ClientID     string   `json:"client_id"`
		ClientSecret string   `json:"client_secret"`
		UserID       string   `json:"user_id"`
		Scopes       []string `json:"scopes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.ClientID == "" || body.ClientID != s.creds.ClientID ||
		body.ClientSecret != s.creds.ClientSecret {
		writeError(w, http.StatusUnauthorized, "Invalid client credentials")
		return
	}

	userID := body.UserID
	if userID == "" {
		userID = body.ClientID
	}
	tok, err := s.auth.Issue(userID, body.Scopes)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

func (s *Server) handleBranchSummaries(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "project_id is required")
		return
	}

	key := "branches:summaries:" + projectID
	if cached, ok := s.cached(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	if _, err := s.app.GetProject(projectID); err != nil {
		s.fail(w, r, err)
		return
	}
	summaries, err := s.app.Store().BranchSummaries(projectID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	payload := map[string]any{"branches": summaries, "count": len(summaries)}
	s.store(key, payload)
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleTaskSummaries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	branchID := q.Get("git_branch_id")
	if branchID == "" {
		writeError(w, http.StatusBadRequest, "git_branch_id is required")
		return
	}
	status := q.Get("status")
	if status != "" {
		if err := domain.ValidateStatus(domain.Status(status)); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	limit := queryInt(q.Get("limit"), 50)
	offset := queryInt(q.Get("offset"), 0)

	key := fmt.Sprintf("tasks:summaries:%s:%s:%d:%d", branchID, status, limit, offset)
	if cached, ok := s.cached(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	if _, err := s.app.GetBranch(branchID); err != nil {
		s.fail(w, r, err)
		return
	}
	summaries, total, err := s.app.Store().TaskSummaries(branchID, domain.Status(status), limit, offset)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	payload := map[string]any{
		"tasks":  summaries,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	}
	s.store(key, payload)
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleSubtaskSummaries(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	key := "subtasks:summaries:" + taskID
	if cached, ok := s.cached(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	if _, err := s.app.GetTask(taskID); err != nil {
		s.fail(w, r, err)
		return
	}
	summaries, err := s.app.Store().SubtaskSummaries(taskID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	payload := map[string]any{"subtasks": summaries, "count": len(summaries)}
	s.store(key, payload)
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleAgentSummary(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "project_id is required")
		return
	}

	key := "agents:summary:" + projectID
	if cached, ok := s.cached(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	if _, err := s.app.GetProject(projectID); err != nil {
		s.fail(w, r, err)
		return
	}
	summaries, err := s.app.Store().AgentSummaries(projectID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	payload := map[string]any{"agents": summaries, "count": len(summaries)}
	s.store(key, payload)
	writeJSON(w, http.StatusOK, payload)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *Server) cached(key string) (any, bool) {
	if s.app.Cache() == nil {
		return nil, false
	}
	return s.app.Cache().Get(key)
}

func (s *Server) store(key string, payload any) {
	if s.app.Cache() != nil {
		s.app.Cache().Set(key, payload)
	}
}

// fail maps an application error to an HTTP status, logging server
// faults with the request ID for correlation.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := response.HTTPStatus(err)
	if status >= 500 {
		s.log.Error("request failed",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, status, "Internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func queryInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
