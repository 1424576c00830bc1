package mcptools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/phamhung075/4genthub-sub014/internal/taskapp"
)

// ConnectionTool handles the manage_connection MCP tool: server health
// for clients that want to verify the backend before doing real work.
type ConnectionTool struct {
	app     *taskapp.App
	version string
	started time.Time
}

// NewConnectionTool creates a ConnectionTool. started anchors the
// reported uptime; pass the server boot time.
func NewConnectionTool(app *taskapp.App, version string, started time.Time) *ConnectionTool {
	return &ConnectionTool{app: app, version: version, started: started}
}

var connectionActions = []string{"health_check"}

// Definition returns the MCP tool definition for manage_connection.
func (t *ConnectionTool) Definition() mcp.Tool {
	return mcp.NewTool("manage_connection",
		mcp.WithDescription(
			"Check server health: version, storage reachability, uptime and entity counts. "+
				"Actions: health_check.",
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Operation to perform"),
			mcp.Enum(connectionActions...),
		),
	)
}

// Handle processes the manage_connection tool call.
func (t *ConnectionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := req.GetString("action", "")
	if action != "health_check" {
		return unknownAction("manage_connection", action, connectionActions), nil
	}

	status := "healthy"
	storageStatus := "ok"
	if err := t.app.Store().Ping(); err != nil {
		status = "degraded"
		storageStatus = fmt.Sprintf("unreachable: %v", err)
	}

	counts, err := t.app.Store().CountAll()
	if err != nil {
		return nil, fmt.Errorf("counting entities: %w", err)
	}

	return respond(action, map[string]any{
		"status":         status,
		"server_version": t.version,
		"storage":        storageStatus,
		"uptime_seconds": int(time.Since(t.started).Seconds()),
		"counts":         counts,
	}, nil)
}
