// Package taskapp is the application layer. It owns the business rules
// that sit above plain persistence: uniqueness checks, completion gates,
// dependency cycle detection, context auto-creation and summary cache
// invalidation. The MCP tools and the HTTP API both go through it.
package taskapp

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phamhung075/4genthub-sub014/internal/cache"
	"github.com/phamhung075/4genthub-sub014/internal/hierarchy"
	"github.com/phamhung075/4genthub-sub014/internal/storage"
)

var timeNow = time.Now

func now() string {
	return timeNow().UTC().Format(time.RFC3339)
}

func newID() string {
	return uuid.NewString()
}

// App wires the store, the summary cache and the context resolver.
type App struct {
	store    *storage.Store
	cache    *cache.Cache
	resolver *hierarchy.Resolver
	log      *zap.Logger
}

// New creates the application layer. A nil logger is replaced with a
// no-op logger so call sites never need to guard.
func New(store *storage.Store, c *cache.Cache, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{
		store:    store,
		cache:    c,
		resolver: hierarchy.NewResolver(store),
		log:      log,
	}
}

// Store exposes the underlying store for read paths that need no rules,
// such as the HTTP summary handlers.
func (a *App) Store() *storage.Store { return a.store }

// Cache exposes the summary cache shared with the HTTP layer.
func (a *App) Cache() *cache.Cache { return a.cache }

// Resolver exposes the context hierarchy resolver.
func (a *App) Resolver() *hierarchy.Resolver { return a.resolver }

// ─── Cache invalidation ──────────────────────────────────────────────────────
//
// Summary endpoints cache under these key families:
//
//	branches:summaries:<project_id>
//	tasks:summaries:<branch_id>:<status>:<limit>:<offset>
//	subtasks:summaries:<task_id>
//	agents:summary:<project_id>
//
// Mutations drop the families they can affect.

func (a *App) invalidateTasks(branchID string) {
	if a.cache == nil {
		return
	}
	a.cache.Invalidate("tasks:summaries:" + branchID + "*")
	a.cache.Invalidate("branches:summaries*")
}

func (a *App) invalidateSubtasks(taskID, branchID string) {
	if a.cache == nil {
		return
	}
	a.cache.Invalidate("subtasks:summaries:" + taskID + "*")
	a.invalidateTasks(branchID)
}

func (a *App) invalidateBranches(projectID string) {
	if a.cache == nil {
		return
	}
	a.cache.Invalidate("branches:summaries:" + projectID + "*")
	a.cache.Invalidate("agents:summary:" + projectID + "*")
}

func (a *App) invalidateAgents(projectID string) {
	if a.cache == nil {
		return
	}
	a.cache.Invalidate("agents:summary:" + projectID + "*")
	a.cache.Invalidate("branches:summaries:" + projectID + "*")
}

func (a *App) invalidateAll() {
	if a.cache == nil {
		return
	}
	a.cache.Clear()
}
