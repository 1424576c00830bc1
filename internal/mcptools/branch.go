package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/phamhung075/4genthub-sub014/internal/taskapp"
)

// BranchTool handles the manage_git_branch MCP tool. Branches are the
// task trees of a project; agents are assigned at this level.
type BranchTool struct {
	app *taskapp.App
}

// NewBranchTool creates a BranchTool backed by the application layer.
func NewBranchTool(app *taskapp.App) *BranchTool {
	return &BranchTool{app: app}
}

var branchActions = []string{"create", "get", "list", "update", "delete", "assign_agent", "unassign_agent"}

// Definition returns the MCP tool definition for manage_git_branch.
func (t *BranchTool) Definition() mcp.Tool {
	return mcp.NewTool("manage_git_branch",
		mcp.WithDescription(
			"Manage git branches (task trees) within a project. "+
				"Actions: create, get, list, update, delete, assign_agent, unassign_agent.",
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Operation to perform"),
			mcp.Enum(branchActions...),
		),
		mcp.WithString("project_id",
			mcp.Description("Owning project ID (required for create and list)"),
		),
		mcp.WithString("git_branch_id",
			mcp.Description("Branch ID (get, update, delete, assign_agent, unassign_agent)"),
		),
		mcp.WithString("git_branch_name",
			mcp.Description("Branch name; unique per project. get accepts project_id + name instead of an ID."),
		),
		mcp.WithString("description",
			mcp.Description("Branch description"),
		),
		mcp.WithString("status",
			mcp.Description("Branch status: todo, in_progress, blocked, review, testing, done, cancelled"),
		),
		mcp.WithString("priority",
			mcp.Description("Branch priority: low, medium, high, urgent, critical"),
		),
		mcp.WithString("agent_id",
			mcp.Description("Agent ID or call name (assign_agent)"),
		),
	)
}

// Handle processes the manage_git_branch tool call.
func (t *BranchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := req.GetString("action", "")
	projectID := req.GetString("project_id", "")
	branchID := req.GetString("git_branch_id", "")
	name := req.GetString("git_branch_name", "")

	switch action {
	case "create":
		if projectID == "" {
			return missingParam(action, "project_id"), nil
		}
		b, err := t.app.CreateBranch(projectID, name, req.GetString("description", ""))
		return respond(action, b, err)

	case "get":
		if branchID != "" {
			b, err := t.app.GetBranch(branchID)
			return respond(action, b, err)
		}
		if projectID == "" || name == "" {
			return missingParam(action, "git_branch_id"), nil
		}
		b, err := t.app.GetBranchByName(projectID, name)
		return respond(action, b, err)

	case "list":
		if projectID == "" {
			return missingParam(action, "project_id"), nil
		}
		list, err := t.app.ListBranches(projectID)
		return respond(action, map[string]any{"git_branches": list, "count": len(list)}, err)

	case "update":
		if branchID == "" {
			return missingParam(action, "git_branch_id"), nil
		}
		b, err := t.app.UpdateBranch(branchID, taskapp.UpdateBranchParams{
			Name:        optString(req, "git_branch_name"),
			Description: optString(req, "description"),
			Status:      optString(req, "status"),
			Priority:    optString(req, "priority"),
		})
		return respond(action, b, err)

	case "delete":
		if branchID == "" {
			return missingParam(action, "git_branch_id"), nil
		}
		if err := t.app.DeleteBranch(branchID); err != nil {
			return respond(action, nil, err)
		}
		return respond(action, map[string]any{"deleted": true, "git_branch_id": branchID}, nil)

	case "assign_agent":
		if branchID == "" {
			return missingParam(action, "git_branch_id"), nil
		}
		agentID := req.GetString("agent_id", "")
		if agentID == "" {
			return missingParam(action, "agent_id"), nil
		}
		b, err := t.app.AssignAgent(branchID, agentID)
		return respond(action, b, err)

	case "unassign_agent":
		if branchID == "" {
			return missingParam(action, "git_branch_id"), nil
		}
		b, err := t.app.UnassignAgent(branchID)
		return respond(action, b, err)

	default:
		return unknownAction("manage_git_branch", action, branchActions), nil
	}
}
