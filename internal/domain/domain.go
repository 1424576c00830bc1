// Package domain defines the core entities of the task management system:
// projects, git branches (task trees), tasks, subtasks, registered agents,
// and the hierarchical context attached to each of them.
//
// Entities are plain structs with JSON tags matching the wire format used
// by both the MCP tools and the REST summary endpoints. Validation and
// business rules live in the taskapp package; persistence in storage.
package domain

// Project is the top-level container. Branches, tasks, agents, and the
// project context all hang off a project.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Branch is a git branch acting as a task tree within a project.
// Tasks always belong to exactly one branch.
type Branch struct {
	ID              string   `json:"id"`
	ProjectID       string   `json:"project_id"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	AssignedAgentID string   `json:"assigned_agent_id,omitempty"`
	Status          Status   `json:"status"`
	Priority        Priority `json:"priority"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

// Task is a unit of work on a branch. List-valued fields (assignees,
// labels, dependencies) are stored as JSON and normalized on read, so
// historical rows written in older formats still come back as clean
// string slices.
type Task struct {
	ID                string   `json:"id"`
	GitBranchID       string   `json:"git_branch_id"`
	Title             string   `json:"title"`
	Description       string   `json:"description,omitempty"`
	Status            Status   `json:"status"`
	Priority          Priority `json:"priority"`
	Details           string   `json:"details,omitempty"`
	EstimatedEffort   string   `json:"estimated_effort,omitempty"`
	Assignees         []string `json:"assignees"`
	Labels            []string `json:"labels"`
	Dependencies      []string `json:"dependencies"`
	CompletionSummary string   `json:"completion_summary,omitempty"`
	TestingNotes      string   `json:"testing_notes,omitempty"`
	DueDate           string   `json:"due_date,omitempty"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
	CompletedAt       string   `json:"completed_at,omitempty"`
}

// Subtask is a child work item of a task. Progress is tracked as a
// percentage; 100 marks the subtask done.
type Subtask struct {
	ID                 string   `json:"id"`
	TaskID             string   `json:"task_id"`
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	Status             Status   `json:"status"`
	Priority           Priority `json:"priority"`
	Assignees          []string `json:"assignees"`
	ProgressNotes      string   `json:"progress_notes,omitempty"`
	ProgressPercentage int      `json:"progress_percentage"`
	CompletionSummary  string   `json:"completion_summary,omitempty"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

// Agent is an agent registered with a project. CallName is the stable
// identifier used by call_agent and branch assignment (e.g. "coding-agent").
type Agent struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	Name        string `json:"name"`
	CallName    string `json:"call_name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Context is one node of the four-tier context hierarchy. Exactly one row
// exists per (Level, ContextID); the global level uses GlobalContextID.
// Data is a free-form JSON object merged across levels during resolution.
type Context struct {
	Level     ContextLevel   `json:"level"`
	ContextID string         `json:"context_id"`
	Data      map[string]any `json:"data"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

// GlobalContextID is the fixed singleton ID of the global context row.
const GlobalContextID = "global_singleton"
