// Package resources implements the MCP resource handlers.
//
// Resources provide read-only data the host can pull in for context.
// They use URI-based addressing (agenthub://...) following MCP
// conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/phamhung075/4genthub-sub014/internal/agentlib"
	"github.com/phamhung075/4genthub-sub014/internal/taskapp"
)

// Handler serves the agenthub resource endpoints.
type Handler struct {
	app     *taskapp.App
	version string
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(app *taskapp.App, version string) *Handler {
	return &Handler{app: app, version: version}
}

// AgentLibraryResource returns the definition for the built-in agent roster.
func (h *Handler) AgentLibraryResource() mcp.Resource {
	return mcp.NewResource(
		"agenthub://agents/library",
		"Agent Library",
		mcp.WithResourceDescription("The built-in agent definitions available to call_agent and manage_agent register"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleAgentLibrary returns every built-in agent definition as JSON.
func (h *Handler) HandleAgentLibrary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(agentlib.All(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling agent library: %w", err)
	}
	return jsonContents(req.Params.URI, data), nil
}

// HierarchyResource returns the definition for the context hierarchy guide.
func (h *Handler) HierarchyResource() mcp.Resource {
	return mcp.NewResource(
		"agenthub://context/hierarchy",
		"Context Hierarchy",
		mcp.WithResourceDescription("How the four context levels inherit and when to delegate data upward"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandleHierarchy returns the context hierarchy guide.
func (h *Handler) HandleHierarchy(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     hierarchyGuide,
		},
	}, nil
}

// StatusResource returns the definition for the server status snapshot.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"agenthub://server/status",
		"Server Status",
		mcp.WithResourceDescription("Server version, storage reachability and entity counts"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current server status as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	storageStatus := "ok"
	if err := h.app.Store().Ping(); err != nil {
		storageStatus = fmt.Sprintf("unreachable: %v", err)
	}
	counts, err := h.app.Store().CountAll()
	if err != nil {
		return nil, fmt.Errorf("counting entities: %w", err)
	}

	data, err := json.MarshalIndent(map[string]any{
		"version": h.version,
		"storage": storageStatus,
		"counts":  counts,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}
	return jsonContents(req.Params.URI, data), nil
}

func jsonContents(uri string, data []byte) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}
}

const hierarchyGuide = `# Context hierarchy

Contexts exist at four levels and resolve top-down:

    global → project → branch → task

- **global**: one singleton row shared by everything. Organization
  conventions, coding standards, security rules.
- **project**: per-project settings: stack choices, team agreements.
- **branch**: per-work-stream state: feature flags, branch decisions.
- **task**: per-task notes: discoveries, completion summaries.

Resolution (manage_context action=resolve) deep-merges the chain from
global down to the requested level. Child keys override parent keys;
nested objects merge recursively; arrays and scalars replace.

Delegation (action=delegate) pushes data from a lower level to a named
ancestor, so sibling branches can inherit it. Delegating downward or to
the same level is rejected.

Missing intermediate rows are treated as empty objects, so resolution
never fails just because a level was never written.`
