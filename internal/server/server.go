// Package server wires all components and creates the server instance.
//
// This is the composition root: it creates the concrete implementations
// (storage, cache, application layer, auth) and injects them into the
// tools, prompts, resources and HTTP handlers that depend on them.
// No business logic lives here, only wiring.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phamhung075/4genthub-sub014/internal/auth"
	"github.com/phamhung075/4genthub-sub014/internal/cache"
	"github.com/phamhung075/4genthub-sub014/internal/config"
	"github.com/phamhung075/4genthub-sub014/internal/httpapi"
	"github.com/phamhung075/4genthub-sub014/internal/mcptools"
	"github.com/phamhung075/4genthub-sub014/internal/prompts"
	"github.com/phamhung075/4genthub-sub014/internal/resources"
	"github.com/phamhung075/4genthub-sub014/internal/storage"
	"github.com/phamhung075/4genthub-sub014/internal/taskapp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Server holds the wired components for either transport.
type Server struct {
	cfg     config.Config
	log     *zap.Logger
	app     *taskapp.App
	auth    *auth.Service // nil when auth is disabled
	mcp     *mcpserver.MCPServer
	started time.Time
}

// New resolves every dependency and registers the full tool surface.
//
// The returned cleanup function closes the store's database connection
// and must be called on shutdown (typically via defer). It is always
// non-nil and safe to call.
func New(cfg config.Config, log *zap.Logger) (*Server, func(), error) {
	if log == nil {
		log = zap.NewNop()
	}

	store, err := storage.Open(storage.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, noop, fmt.Errorf("opening store: %w", err)
	}
	cleanup := func() { _ = store.Close() }

	var authSvc *auth.Service
	if cfg.AuthEnabled {
		authSvc, err = auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
		if err != nil {
			cleanup()
			return nil, noop, fmt.Errorf("creating auth service: %w", err)
		}
	}

	app := taskapp.New(store, cache.New(cfg.CacheTTL, cfg.CacheMaxEntries), log)

	s := &Server{
		cfg:     cfg,
		log:     log,
		app:     app,
		auth:    authSvc,
		started: time.Now(),
	}
	s.mcp = s.buildMCPServer()

	return s, cleanup, nil
}

// Auth exposes the auth service for the token CLI command; nil when
// auth is disabled.
func (s *Server) Auth() *auth.Service { return s.auth }

// buildMCPServer registers every tool, prompt and resource.
func (s *Server) buildMCPServer() *mcpserver.MCPServer {
	m := mcpserver.NewMCPServer(
		"agenthub",
		Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, true),
		mcpserver.WithPromptCapabilities(true),
		mcpserver.WithRecovery(),
		mcpserver.WithInstructions(serverInstructions()),
	)

	projectTool := mcptools.NewProjectTool(s.app)
	m.AddTool(projectTool.Definition(), projectTool.Handle)

	branchTool := mcptools.NewBranchTool(s.app)
	m.AddTool(branchTool.Definition(), branchTool.Handle)

	taskTool := mcptools.NewTaskTool(s.app)
	m.AddTool(taskTool.Definition(), taskTool.Handle)

	subtaskTool := mcptools.NewSubtaskTool(s.app)
	m.AddTool(subtaskTool.Definition(), subtaskTool.Handle)

	contextTool := mcptools.NewContextTool(s.app)
	m.AddTool(contextTool.Definition(), contextTool.Handle)

	agentTool := mcptools.NewAgentTool(s.app)
	m.AddTool(agentTool.Definition(), agentTool.Handle)

	callAgentTool := mcptools.NewCallAgentTool(s.app)
	m.AddTool(callAgentTool.Definition(), callAgentTool.Handle)

	connectionTool := mcptools.NewConnectionTool(s.app, Version, s.started)
	m.AddTool(connectionTool.Definition(), connectionTool.Handle)

	nextPrompt := prompts.NewNextTaskPrompt()
	m.AddPrompt(nextPrompt.Definition(), nextPrompt.Handle)

	statusPrompt := prompts.NewProjectStatusPrompt()
	m.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	resourceHandler := resources.NewHandler(s.app, Version)
	m.AddResource(resourceHandler.AgentLibraryResource(), resourceHandler.HandleAgentLibrary)
	m.AddResource(resourceHandler.HierarchyResource(), resourceHandler.HandleHierarchy)
	m.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	return m
}

// ServeStdio runs the MCP server over stdin/stdout. Logs must go to
// stderr in this mode; the logging package builds loggers that way.
func (s *Server) ServeStdio() error {
	s.log.Info("serving MCP over stdio", zap.String("version", Version))
	return mcpserver.ServeStdio(s.mcp)
}

// ServeHTTP runs the combined HTTP surface: REST summaries, token
// endpoint, health probe, and the streamable MCP handler at /mcp/. It
// blocks until the context is cancelled or a signal arrives, then
// shuts down gracefully.
func (s *Server) ServeHTTP(ctx context.Context) error {
	streamable := mcpserver.NewStreamableHTTPServer(
		s.mcp,
		mcpserver.WithHTTPContextFunc(auth.HTTPContextFunc(s.auth)),
		mcpserver.WithStateLess(true),
	)

	api := httpapi.New(s.app, s.auth, httpapi.Credentials{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
	}, streamable, s.log)

	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("serving HTTP",
			zap.String("addr", s.cfg.HTTPAddr),
			zap.Bool("auth", s.cfg.AuthEnabled),
			zap.String("version", Version),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func noop() {}

// serverInstructions tells MCP clients how to drive the task server.
func serverInstructions() string {
	return `agenthub is a task management server for multi-agent work.

Hierarchy: project → git branch (task tree) → task → subtask. Each level
can carry a context; contexts inherit down the chain (global → project →
branch → task) and resolve with child keys overriding parents.

Typical flow:
1. manage_project action=create: once per project
2. manage_git_branch action=create: one branch per work stream
3. manage_task action=create: break the work down; add_dependency links order
4. manage_task action=next: pick the most actionable task
5. manage_subtask: track fine-grained progress via progress_percentage
6. manage_task action=complete: requires completion_summary and all
   subtasks done
7. manage_context: record insights and decisions where later sessions
   will find them

call_agent loads a specialist persona from the built-in library.
manage_connection action=health_check verifies the backend.`
}
