package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/phamhung075/4genthub-sub014/internal/taskapp"
)

// AgentTool handles the manage_agent MCP tool: the per-project roster
// of registered agents and their branch assignments.
type AgentTool struct {
	app *taskapp.App
}

// NewAgentTool creates an AgentTool backed by the application layer.
func NewAgentTool(app *taskapp.App) *AgentTool {
	return &AgentTool{app: app}
}

var agentActions = []string{"register", "get", "list", "unregister", "assign", "unassign"}

// Definition returns the MCP tool definition for manage_agent.
func (t *AgentTool) Definition() mcp.Tool {
	return mcp.NewTool("manage_agent",
		mcp.WithDescription(
			"Manage the agents registered on a project. "+
				"Actions: register, get, list, unregister, assign, unassign. "+
				"register accepts a built-in library call name (fields fill from the library) or a custom definition; "+
				"assign/unassign bind an agent to a branch.",
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Operation to perform"),
			mcp.Enum(agentActions...),
		),
		mcp.WithString("project_id",
			mcp.Description("Project ID (register, get, list)"),
		),
		mcp.WithString("agent_id",
			mcp.Description("Agent ID or call name (get, unregister, assign)"),
		),
		mcp.WithString("name",
			mcp.Description("Display name (register)"),
		),
		mcp.WithString("call_name",
			mcp.Description("Call name, e.g. coding-agent (register)"),
		),
		mcp.WithString("category",
			mcp.Description("Agent category (register)"),
		),
		mcp.WithString("description",
			mcp.Description("What the agent does (register)"),
		),
		mcp.WithString("git_branch_id",
			mcp.Description("Branch for assign / unassign"),
		),
	)
}

// Handle processes the manage_agent tool call.
func (t *AgentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := req.GetString("action", "")
	projectID := req.GetString("project_id", "")
	agentID := req.GetString("agent_id", "")

	switch action {
	case "register":
		if projectID == "" {
			return missingParam(action, "project_id"), nil
		}
		agent, err := t.app.RegisterAgent(projectID, taskapp.RegisterAgentParams{
			Name:        req.GetString("name", ""),
			CallName:    req.GetString("call_name", ""),
			Category:    req.GetString("category", ""),
			Description: req.GetString("description", ""),
		})
		return respond(action, agent, err)

	case "get":
		if projectID == "" {
			return missingParam(action, "project_id"), nil
		}
		if agentID == "" {
			return missingParam(action, "agent_id"), nil
		}
		agent, err := t.app.GetAgent(projectID, agentID)
		return respond(action, agent, err)

	case "list":
		if projectID == "" {
			return missingParam(action, "project_id"), nil
		}
		list, err := t.app.ListAgents(projectID)
		return respond(action, map[string]any{"agents": list, "count": len(list)}, err)

	case "unregister":
		if agentID == "" {
			return missingParam(action, "agent_id"), nil
		}
		if err := t.app.UnregisterAgent(agentID); err != nil {
			return respond(action, nil, err)
		}
		return respond(action, map[string]any{"unregistered": true, "agent_id": agentID}, nil)

	case "assign":
		branchID := req.GetString("git_branch_id", "")
		if branchID == "" {
			return missingParam(action, "git_branch_id"), nil
		}
		if agentID == "" {
			return missingParam(action, "agent_id"), nil
		}
		b, err := t.app.AssignAgent(branchID, agentID)
		return respond(action, b, err)

	case "unassign":
		branchID := req.GetString("git_branch_id", "")
		if branchID == "" {
			return missingParam(action, "git_branch_id"), nil
		}
		b, err := t.app.UnassignAgent(branchID)
		return respond(action, b, err)

	default:
		return unknownAction("manage_agent", action, agentActions), nil
	}
}

// ─── CallAgentTool ───────────────────────────────────────────────────────────

// CallAgentTool handles the call_agent MCP tool: it loads an agent
// definition from the built-in library so the caller can adopt its
// role and instructions.
type CallAgentTool struct {
	app *taskapp.App
}

// NewCallAgentTool creates a CallAgentTool.
func NewCallAgentTool(app *taskapp.App) *CallAgentTool {
	return &CallAgentTool{app: app}
}

// Definition returns the MCP tool definition for call_agent.
func (t *CallAgentTool) Definition() mcp.Tool {
	return mcp.NewTool("call_agent",
		mcp.WithDescription(
			"Load an agent definition from the built-in library by call name. "+
				"Returns the agent's role, capabilities and usage instructions. "+
				"Accepts historical spellings: a leading @ and _agent/-agent suffixes both resolve.",
		),
		mcp.WithString("name_agent",
			mcp.Required(),
			mcp.Description("Agent call name, e.g. coding-agent or @debugger_agent"),
		),
	)
}

// Handle processes the call_agent tool call.
func (t *CallAgentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "call_agent"
	name := req.GetString("name_agent", "")
	if name == "" {
		return missingParam(action, "name_agent"), nil
	}
	def, err := t.app.CallAgent(name)
	return respond(action, def, err)
}
