package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/phamhung075/4genthub-sub014/internal/taskapp"
)

// ContextTool handles the manage_context MCP tool: the four-tier
// context hierarchy (global, project, branch, task) with inheritance.
type ContextTool struct {
	app *taskapp.App
}

// NewContextTool creates a ContextTool backed by the application layer.
func NewContextTool(app *taskapp.App) *ContextTool {
	return &ContextTool{app: app}
}

var contextActions = []string{
	"create", "get", "update", "delete", "resolve", "delegate",
	"add_insight", "add_progress",
}

// Definition returns the MCP tool definition for manage_context.
func (t *ContextTool) Definition() mcp.Tool {
	return mcp.NewTool("manage_context",
		mcp.WithDescription(
			"Manage hierarchical contexts: global, project, branch, task. "+
				"Actions: create, get, update, delete, resolve, delegate, add_insight, add_progress. "+
				"resolve merges data down the inheritance chain (child keys win); "+
				"delegate pushes data up to an ancestor level so siblings can inherit it.",
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Operation to perform"),
			mcp.Enum(contextActions...),
		),
		mcp.WithString("level",
			mcp.Required(),
			mcp.Description("Context level"),
			mcp.Enum("global", "project", "branch", "task"),
		),
		mcp.WithString("context_id",
			mcp.Description("Entity ID at that level; the global level needs none"),
		),
		mcp.WithString("data",
			mcp.Description("JSON object payload (create, update, delegate)"),
		),
		mcp.WithString("delegate_to",
			mcp.Description("Ancestor level receiving the delegated data (delegate)"),
		),
		mcp.WithString("content",
			mcp.Description("Entry text (add_insight, add_progress)"),
		),
		mcp.WithString("category",
			mcp.Description("Insight category, e.g. decision, discovery, blocker (add_insight)"),
		),
		mcp.WithString("agent",
			mcp.Description("Agent recording the entry (add_insight, add_progress)"),
		),
	)
}

// Handle processes the manage_context tool call.
func (t *ContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := req.GetString("action", "")
	level := req.GetString("level", "")
	contextID := req.GetString("context_id", "")

	switch action {
	case "create":
		data, err := objectArg(req, "data")
		if err != nil {
			return respond(action, nil, err)
		}
		c, err := t.app.CreateContext(level, contextID, data)
		return respond(action, c, err)

	case "get":
		c, err := t.app.GetContext(level, contextID)
		return respond(action, c, err)

	case "update":
		data, err := objectArg(req, "data")
		if err != nil {
			return respond(action, nil, err)
		}
		c, err := t.app.UpdateContext(level, contextID, data)
		return respond(action, c, err)

	case "delete":
		if err := t.app.DeleteContext(level, contextID); err != nil {
			return respond(action, nil, err)
		}
		return respond(action, map[string]any{"deleted": true, "level": level, "context_id": contextID}, nil)

	case "resolve":
		resolved, err := t.app.ResolveContext(level, contextID)
		return respond(action, resolved, err)

	case "delegate":
		target := req.GetString("delegate_to", "")
		if target == "" {
			return missingParam(action, "delegate_to"), nil
		}
		data, err := objectArg(req, "data")
		if err != nil {
			return respond(action, nil, err)
		}
		c, err := t.app.DelegateContext(level, contextID, target, data)
		return respond(action, c, err)

	case "add_insight":
		content := req.GetString("content", "")
		if content == "" {
			return missingParam(action, "content"), nil
		}
		c, err := t.app.AddInsight(level, contextID, content,
			req.GetString("category", ""), req.GetString("agent", ""))
		return respond(action, c, err)

	case "add_progress":
		content := req.GetString("content", "")
		if content == "" {
			return missingParam(action, "content"), nil
		}
		c, err := t.app.AddProgress(level, contextID, content, req.GetString("agent", ""))
		return respond(action, c, err)

	default:
		return unknownAction("manage_context", action, contextActions), nil
	}
}
