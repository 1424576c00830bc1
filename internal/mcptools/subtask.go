package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/phamhung075/4genthub-sub014/internal/taskapp"
)

// SubtaskTool handles the manage_subtask MCP tool. Subtasks carry the
// progress percentage that rolls up into task summaries.
type SubtaskTool struct {
	app *taskapp.App
}

// NewSubtaskTool creates a SubtaskTool backed by the application layer.
func NewSubtaskTool(app *taskapp.App) *SubtaskTool {
	return &SubtaskTool{app: app}
}

var subtaskActions = []string{"create", "get", "list", "update", "complete", "delete"}

// Definition returns the MCP tool definition for manage_subtask.
func (t *SubtaskTool) Definition() mcp.Tool {
	return mcp.NewTool("manage_subtask",
		mcp.WithDescription(
			"Manage subtasks of a task. Actions: create, get, list, update, complete, delete. "+
				"A progress_percentage of 0 keeps status todo, 1-99 moves to in_progress, 100 marks done. "+
				"The parent task cannot complete while any subtask is unfinished.",
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Operation to perform"),
			mcp.Enum(subtaskActions...),
		),
		mcp.WithString("task_id",
			mcp.Description("Parent task ID (required for create and list)"),
		),
		mcp.WithString("subtask_id",
			mcp.Description("Subtask ID (get, update, complete, delete)"),
		),
		mcp.WithString("title",
			mcp.Description("Subtask title (required for create)"),
		),
		mcp.WithString("description",
			mcp.Description("Subtask description"),
		),
		mcp.WithString("status",
			mcp.Description("Subtask status: todo, in_progress, blocked, review, testing, done, cancelled"),
		),
		mcp.WithString("priority",
			mcp.Description("Subtask priority: low, medium, high, urgent, critical"),
		),
		mcp.WithString("assignees",
			mcp.Description("Assignee list: JSON array or comma-separated string"),
		),
		mcp.WithString("progress_notes",
			mcp.Description("What happened since the last update"),
		),
		mcp.WithNumber("progress_percentage",
			mcp.Description("Completion percentage 0-100; implies a status when none is given"),
		),
		mcp.WithString("completion_summary",
			mcp.Description("What was accomplished (complete)"),
		),
	)
}

// Handle processes the manage_subtask tool call.
func (t *SubtaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := req.GetString("action", "")
	taskID := req.GetString("task_id", "")
	subtaskID := req.GetString("subtask_id", "")

	switch action {
	case "create":
		if taskID == "" {
			return missingParam(action, "task_id"), nil
		}
		st, err := t.app.CreateSubtask(taskapp.CreateSubtaskParams{
			TaskID:      taskID,
			Title:       req.GetString("title", ""),
			Description: req.GetString("description", ""),
			Status:      req.GetString("status", ""),
			Priority:    req.GetString("priority", ""),
			Assignees:   stringListArg(req, "assignees"),
		})
		return respond(action, st, err)

	case "get":
		if subtaskID == "" {
			return missingParam(action, "subtask_id"), nil
		}
		st, err := t.app.GetSubtask(subtaskID)
		return respond(action, st, err)

	case "list":
		if taskID == "" {
			return missingParam(action, "task_id"), nil
		}
		list, err := t.app.ListSubtasks(taskID)
		return respond(action, map[string]any{"subtasks": list, "count": len(list)}, err)

	case "update":
		if subtaskID == "" {
			return missingParam(action, "subtask_id"), nil
		}
		st, err := t.app.UpdateSubtask(subtaskID, taskapp.UpdateSubtaskParams{
			Title:              optString(req, "title"),
			Description:        optString(req, "description"),
			Status:             optString(req, "status"),
			Priority:           optString(req, "priority"),
			Assignees:          optStringList(req, "assignees"),
			ProgressNotes:      optString(req, "progress_notes"),
			ProgressPercentage: optInt(req, "progress_percentage"),
		})
		return respond(action, st, err)

	case "complete":
		if subtaskID == "" {
			return missingParam(action, "subtask_id"), nil
		}
		st, err := t.app.CompleteSubtask(subtaskID, req.GetString("completion_summary", ""))
		return respond(action, st, err)

	case "delete":
		if subtaskID == "" {
			return missingParam(action, "subtask_id"), nil
		}
		if err := t.app.DeleteSubtask(subtaskID); err != nil {
			return respond(action, nil, err)
		}
		return respond(action, map[string]any{"deleted": true, "subtask_id": subtaskID}, nil)

	default:
		return unknownAction("manage_subtask", action, subtaskActions), nil
	}
}
