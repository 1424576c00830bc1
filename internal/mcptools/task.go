package mcptools

import (
	"context"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/phamhung075/4genthub-sub014/internal/domain"
	"github.com/phamhung075/4genthub-sub014/internal/taskapp"
)

// TaskTool handles the manage_task MCP tool.
type TaskTool struct {
	app *taskapp.App
}

// NewTaskTool creates a TaskTool backed by the application layer.
func NewTaskTool(app *taskapp.App) *TaskTool {
	return &TaskTool{app: app}
}

var taskActions = []string{
	"create", "get", "list", "search", "update", "complete",
	"delete", "next", "add_dependency", "remove_dependency",
}

// Definition returns the MCP tool definition for manage_task.
func (t *TaskTool) Definition() mcp.Tool {
	return mcp.NewTool("manage_task",
		mcp.WithDescription(
			"Manage tasks on a branch. Actions: create, get, list, search, update, "+
				"complete, delete, next, add_dependency, remove_dependency. "+
				"complete requires a completion_summary and refuses while subtasks are unfinished; "+
				"next recommends the highest-priority unblocked task.",
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Operation to perform"),
			mcp.Enum(taskActions...),
		),
		mcp.WithString("task_id",
			mcp.Description("Task ID (get, update, complete, delete, add_dependency, remove_dependency)"),
		),
		mcp.WithString("git_branch_id",
			mcp.Description("Owning branch ID (required for create, list, search, next)"),
		),
		mcp.WithString("title",
			mcp.Description("Task title (required for create)"),
		),
		mcp.WithString("description",
			mcp.Description("Task description"),
		),
		mcp.WithString("details",
			mcp.Description("Implementation details and notes"),
		),
		mcp.WithString("status",
			mcp.Description("Task status: todo, in_progress, blocked, review, testing, done, cancelled. list filters by it."),
		),
		mcp.WithString("priority",
			mcp.Description("Task priority: low, medium, high, urgent, critical"),
		),
		mcp.WithString("assignees",
			mcp.Description("Assignee list: JSON array or comma-separated string. list filters by a single assignee."),
		),
		mcp.WithString("labels",
			mcp.Description("Label list: JSON array or comma-separated string. list filters by a single label."),
		),
		mcp.WithString("dependencies",
			mcp.Description("IDs of tasks this task depends on: JSON array or comma-separated string"),
		),
		mcp.WithString("estimated_effort",
			mcp.Description("Free-form effort estimate, e.g. '2h' or '3 days'"),
		),
		mcp.WithString("due_date",
			mcp.Description("Due date, RFC3339 or YYYY-MM-DD"),
		),
		mcp.WithString("completion_summary",
			mcp.Description("What was accomplished (required for complete)"),
		),
		mcp.WithString("testing_notes",
			mcp.Description("How the work was verified (complete)"),
		),
		mcp.WithString("query",
			mcp.Description("Substring matched against title and description (search)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results for search (default 20)"),
		),
		mcp.WithString("dependency_id",
			mcp.Description("The other task for add_dependency / remove_dependency"),
		),
	)
}

// Handle processes the manage_task tool call.
func (t *TaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := req.GetString("action", "")
	taskID := req.GetString("task_id", "")
	branchID := req.GetString("git_branch_id", "")

	switch action {
	case "create":
		if branchID == "" {
			return missingParam(action, "git_branch_id"), nil
		}
		task, err := t.app.CreateTask(taskapp.CreateTaskParams{
			GitBranchID:     branchID,
			Title:           req.GetString("title", ""),
			Description:     req.GetString("description", ""),
			Details:         req.GetString("details", ""),
			EstimatedEffort: req.GetString("estimated_effort", ""),
			Status:          req.GetString("status", ""),
			Priority:        req.GetString("priority", ""),
			Assignees:       stringListArg(req, "assignees"),
			Labels:          stringListArg(req, "labels"),
			Dependencies:    stringListArg(req, "dependencies"),
			DueDate:         req.GetString("due_date", ""),
		})
		return respond(action, task, err)

	case "get":
		if taskID == "" {
			return missingParam(action, "task_id"), nil
		}
		task, err := t.app.GetTask(taskID)
		return respond(action, task, err)

	case "list":
		if branchID == "" {
			return missingParam(action, "git_branch_id"), nil
		}
		tasks, err := t.app.ListTasks(branchID, req.GetString("status", ""))
		if err != nil {
			return respond(action, nil, err)
		}
		tasks = filterTasks(tasks, stringListArg(req, "assignees"), stringListArg(req, "labels"))
		return respond(action, map[string]any{"tasks": tasks, "count": len(tasks)}, nil)

	case "search":
		if branchID == "" {
			return missingParam(action, "git_branch_id"), nil
		}
		query := req.GetString("query", "")
		if query == "" {
			return missingParam(action, "query"), nil
		}
		tasks, err := t.app.SearchTasks(branchID, query, intArg(req, "limit", 20))
		return respond(action, map[string]any{"tasks": tasks, "count": len(tasks)}, err)

	case "update":
		if taskID == "" {
			return missingParam(action, "task_id"), nil
		}
		task, err := t.app.UpdateTask(taskID, taskapp.UpdateTaskParams{
			Title:           optString(req, "title"),
			Description:     optString(req, "description"),
			Details:         optString(req, "details"),
			EstimatedEffort: optString(req, "estimated_effort"),
			Status:          optString(req, "status"),
			Priority:        optString(req, "priority"),
			Assignees:       optStringList(req, "assignees"),
			Labels:          optStringList(req, "labels"),
			DueDate:         optString(req, "due_date"),
		})
		return respond(action, task, err)

	case "complete":
		if taskID == "" {
			return missingParam(action, "task_id"), nil
		}
		task, err := t.app.CompleteTask(taskID,
			req.GetString("completion_summary", ""),
			req.GetString("testing_notes", ""))
		return respond(action, task, err)

	case "delete":
		if taskID == "" {
			return missingParam(action, "task_id"), nil
		}
		if err := t.app.DeleteTask(taskID); err != nil {
			return respond(action, nil, err)
		}
		return respond(action, map[string]any{"deleted": true, "task_id": taskID}, nil)

	case "next":
		if branchID == "" {
			return missingParam(action, "git_branch_id"), nil
		}
		task, err := t.app.NextTask(branchID)
		if err != nil {
			return respond(action, nil, err)
		}
		if task == nil {
			return respond(action, map[string]any{
				"task":    nil,
				"message": "No actionable tasks: everything is done, blocked, or waiting on dependencies",
			}, nil)
		}
		return respond(action, map[string]any{"task": task}, nil)

	case "add_dependency":
		if taskID == "" {
			return missingParam(action, "task_id"), nil
		}
		depID := req.GetString("dependency_id", "")
		if depID == "" {
			return missingParam(action, "dependency_id"), nil
		}
		task, err := t.app.AddDependency(taskID, depID)
		return respond(action, task, err)

	case "remove_dependency":
		if taskID == "" {
			return missingParam(action, "task_id"), nil
		}
		depID := req.GetString("dependency_id", "")
		if depID == "" {
			return missingParam(action, "dependency_id"), nil
		}
		task, err := t.app.RemoveDependency(taskID, depID)
		return respond(action, task, err)

	default:
		return unknownAction("manage_task", action, taskActions), nil
	}
}

// filterTasks narrows a task list to those carrying every requested
// assignee and label. Empty filters pass everything through.
func filterTasks(tasks []domain.Task, assignees, labels []string) []domain.Task {
	if len(assignees) == 0 && len(labels) == 0 {
		return tasks
	}
	out := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if containsAll(task.Assignees, assignees) && containsAll(task.Labels, labels) {
			out = append(out, task)
		}
	}
	return out
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		if !slices.Contains(have, w) {
			return false
		}
	}
	return true
}
