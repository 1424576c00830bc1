package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/phamhung075/4genthub-sub014/internal/taskapp"
)

// ProjectTool handles the manage_project MCP tool.
type ProjectTool struct {
	app *taskapp.App
}

// NewProjectTool creates a ProjectTool backed by the application layer.
func NewProjectTool(app *taskapp.App) *ProjectTool {
	return &ProjectTool{app: app}
}

var projectActions = []string{"create", "get", "list", "update", "delete", "health_check"}

// Definition returns the MCP tool definition for manage_project.
func (t *ProjectTool) Definition() mcp.Tool {
	return mcp.NewTool("manage_project",
		mcp.WithDescription(
			"Manage projects, the top-level containers for branches, tasks and agents. "+
				"Actions: create, get, list, update, delete, health_check.",
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Operation to perform"),
			mcp.Enum(projectActions...),
		),
		mcp.WithString("project_id",
			mcp.Description("Project ID (get, update, delete, health_check)"),
		),
		mcp.WithString("name",
			mcp.Description("Project name; unique, required for create. get accepts a name instead of an ID."),
		),
		mcp.WithString("description",
			mcp.Description("Project description"),
		),
		mcp.WithString("user_id",
			mcp.Description("Owning user; list filters by it when set"),
		),
	)
}

// Handle processes the manage_project tool call.
func (t *ProjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := req.GetString("action", "")
	projectID := req.GetString("project_id", "")
	name := req.GetString("name", "")

	switch action {
	case "create":
		p, err := t.app.CreateProject(name, req.GetString("description", ""), req.GetString("user_id", ""))
		return respond(action, p, err)

	case "get":
		if projectID == "" && name == "" {
			return missingParam(action, "project_id"), nil
		}
		if projectID != "" {
			p, err := t.app.GetProject(projectID)
			return respond(action, p, err)
		}
		p, err := t.app.GetProjectByName(name)
		return respond(action, p, err)

	case "list":
		list, err := t.app.ListProjects(req.GetString("user_id", ""))
		return respond(action, map[string]any{"projects": list, "count": len(list)}, err)

	case "update":
		if projectID == "" {
			return missingParam(action, "project_id"), nil
		}
		p, err := t.app.UpdateProject(projectID, taskapp.UpdateProjectParams{
			Name:        optString(req, "name"),
			Description: optString(req, "description"),
		})
		return respond(action, p, err)

	case "delete":
		if projectID == "" {
			return missingParam(action, "project_id"), nil
		}
		if err := t.app.DeleteProject(projectID); err != nil {
			return respond(action, nil, err)
		}
		return respond(action, map[string]any{"deleted": true, "project_id": projectID}, nil)

	case "health_check":
		if projectID == "" {
			return missingParam(action, "project_id"), nil
		}
		health, err := t.app.CheckProjectHealth(projectID)
		return respond(action, health, err)

	default:
		return unknownAction("manage_project", action, projectActions), nil
	}
}
