package storage

import (
	"database/sql"
	"fmt"

	"github.com/phamhung075/4genthub-sub014/internal/domain"
)

// Summary queries back the lightweight REST endpoints the frontend
// polls. Each is a single statement with aggregate counts, not an
// entity list the caller would have to re-walk.

// BranchSummary is one branch card: identity plus task counts.
type BranchSummary struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
	Status             string `json:"status"`
	Priority           string `json:"priority"`
	AssignedAgentID    string `json:"assigned_agent_id,omitempty"`
	TotalTasks         int    `json:"total_tasks"`
	CompletedTasks     int    `json:"completed_tasks"`
	InProgressTasks    int    `json:"in_progress_tasks"`
	TodoTasks          int    `json:"todo_tasks"`
	BlockedTasks       int    `json:"blocked_tasks"`
	ProgressPercentage int    `json:"progress_percentage"`
}

// TaskSummary is one task list row with subtask and dependency rollups.
type TaskSummary struct {
	ID                string   `json:"id"`
	GitBranchID       string   `json:"git_branch_id"`
	Title             string   `json:"title"`
	Status            string   `json:"status"`
	Priority          string   `json:"priority"`
	Assignees         []string `json:"assignees"`
	SubtaskCount      int      `json:"subtask_count"`
	CompletedSubtasks int      `json:"completed_subtasks"`
	HasDependencies   bool     `json:"has_dependencies"`
	BlockedByCount    int      `json:"blocked_by_count"`
	DueDate           string   `json:"due_date,omitempty"`
	UpdatedAt         string   `json:"updated_at"`
}

// SubtaskSummary is one subtask progress row.
type SubtaskSummary struct {
	ID                 string   `json:"id"`
	TaskID             string   `json:"task_id"`
	Title              string   `json:"title"`
	Status             string   `json:"status"`
	ProgressPercentage int      `json:"progress_percentage"`
	Assignees          []string `json:"assignees"`
}

// AgentSummary is one registered agent with its assignment count.
type AgentSummary struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	CallName            string `json:"call_name"`
	Category            string `json:"category,omitempty"`
	AssignedBranchCount int    `json:"assigned_branch_count"`
}

// BranchSummaries returns the branch cards of a project with task
// counts by status and a completion percentage.
func (s *Store) BranchSummaries(projectID string) ([]BranchSummary, error) {
	rows, err := s.query(
		`SELECT b.id, b.name, b.description, b.status, b.priority, b.assigned_agent_id,
			COUNT(t.id),
			COALESCE(SUM(CASE WHEN t.status = 'done' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN t.status = 'in_progress' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN t.status = 'todo' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN t.status = 'blocked' THEN 1 ELSE 0 END), 0)
		 FROM branches b
		 LEFT JOIN tasks t ON t.git_branch_id = b.id
		 WHERE b.project_id = ?
		 GROUP BY b.id
		 ORDER BY b.created_at`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("branch summaries: %w", err)
	}
	defer rows.Close()

	var summaries []BranchSummary
	for rows.Next() {
		var bs BranchSummary
		var agent sql.NullString
		if err := rows.Scan(&bs.ID, &bs.Name, &bs.Description, &bs.Status, &bs.Priority, &agent,
			&bs.TotalTasks, &bs.CompletedTasks, &bs.InProgressTasks, &bs.TodoTasks, &bs.BlockedTasks); err != nil {
			return nil, fmt.Errorf("scan branch summary: %w", err)
		}
		bs.AssignedAgentID = agent.String
		if bs.TotalTasks > 0 {
			bs.ProgressPercentage = bs.CompletedTasks * 100 / bs.TotalTasks
		}
		summaries = append(summaries, bs)
	}
	return summaries, rows.Err()
}

// TaskSummaries returns a page of task rows for a branch plus the total
// row count for that filter. BlockedByCount counts the task's
// dependencies that are not yet done.
func (s *Store) TaskSummaries(branchID string, status domain.Status, limit, offset int) ([]TaskSummary, int, error) {
	if limit <= 0 {
		limit = s.cfg.MaxSearchResults
	}
	if offset < 0 {
		offset = 0
	}

	countQuery := `SELECT COUNT(*) FROM tasks WHERE git_branch_id = ?`
	countArgs := []any{branchID}
	if status != "" {
		countQuery += ` AND status = ?`
		countArgs = append(countArgs, string(status))
	}
	var total int
	if err := s.queryRow(countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count task summaries: %w", err)
	}

	query := `SELECT t.id, t.git_branch_id, t.title, t.status, t.priority, t.assignees, t.dependencies,
			t.due_date, t.updated_at,
			COUNT(st.id),
			COALESCE(SUM(CASE WHEN st.status = 'done' THEN 1 ELSE 0 END), 0)
		 FROM tasks t
		 LEFT JOIN subtasks st ON st.task_id = t.id
		 WHERE t.git_branch_id = ?`
	args := []any{branchID}
	if status != "" {
		query += ` AND t.status = ?`
		args = append(args, string(status))
	}
	query += ` GROUP BY t.id ORDER BY t.created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("task summaries: %w", err)
	}
	defer rows.Close()

	var summaries []TaskSummary
	depsByTask := make(map[string][]string)
	for rows.Next() {
		var ts TaskSummary
		var assignees, deps string
		var dueDate sql.NullString
		if err := rows.Scan(&ts.ID, &ts.GitBranchID, &ts.Title, &ts.Status, &ts.Priority,
			&assignees, &deps, &dueDate, &ts.UpdatedAt, &ts.SubtaskCount, &ts.CompletedSubtasks); err != nil {
			return nil, 0, fmt.Errorf("scan task summary: %w", err)
		}
		ts.Assignees = domain.DecodeStringList(assignees)
		ts.DueDate = dueDate.String
		dependencies := domain.DecodeStringList(deps)
		ts.HasDependencies = len(dependencies) > 0
		depsByTask[ts.ID] = dependencies
		summaries = append(summaries, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := s.fillBlockedCounts(summaries, depsByTask); err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

// fillBlockedCounts resolves dependency statuses for a page of task
// summaries with one IN query across all referenced IDs.
func (s *Store) fillBlockedCounts(summaries []TaskSummary, depsByTask map[string][]string) error {
	idSet := make(map[string]bool)
	for _, deps := range depsByTask {
		for _, id := range deps {
			idSet[id] = true
		}
	}
	if len(idSet) == 0 {
		return nil
	}

	ids := make([]any, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	rows, err := s.query(
		`SELECT id, status FROM tasks WHERE id IN (`+placeholders(len(ids))+`)`,
		ids...,
	)
	if err != nil {
		return fmt.Errorf("dependency statuses: %w", err)
	}
	defer rows.Close()

	statusByID := make(map[string]string, len(ids))
	for rows.Next() {
		var id, st string
		if err := rows.Scan(&id, &st); err != nil {
			return fmt.Errorf("scan dependency status: %w", err)
		}
		statusByID[id] = st
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range summaries {
		for _, dep := range depsByTask[summaries[i].ID] {
			// Dangling references count as blocking: an unknown
			// dependency is certainly not done.
			if statusByID[dep] != string(domain.StatusDone) {
				summaries[i].BlockedByCount++
			}
		}
	}
	return nil
}

// SubtaskSummaries returns the subtask progress rows of a task.
func (s *Store) SubtaskSummaries(taskID string) ([]SubtaskSummary, error) {
	rows, err := s.query(
		`SELECT id, task_id, title, status, progress_percentage, assignees
		 FROM subtasks WHERE task_id = ? ORDER BY created_at`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("subtask summaries: %w", err)
	}
	defer rows.Close()

	var summaries []SubtaskSummary
	for rows.Next() {
		var ss SubtaskSummary
		var assignees string
		if err := rows.Scan(&ss.ID, &ss.TaskID, &ss.Title, &ss.Status, &ss.ProgressPercentage, &assignees); err != nil {
			return nil, fmt.Errorf("scan subtask summary: %w", err)
		}
		ss.Assignees = domain.DecodeStringList(assignees)
		summaries = append(summaries, ss)
	}
	return summaries, rows.Err()
}

// AgentSummaries returns a project's agents with how many branches each
// one is assigned to.
func (s *Store) AgentSummaries(projectID string) ([]AgentSummary, error) {
	rows, err := s.query(
		`SELECT a.id, a.name, a.call_name, a.category, COUNT(b.id)
		 FROM agents a
		 LEFT JOIN branches b ON b.assigned_agent_id = a.id
		 WHERE a.project_id = ?
		 GROUP BY a.id
		 ORDER BY a.name`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("agent summaries: %w", err)
	}
	defer rows.Close()

	var summaries []AgentSummary
	for rows.Next() {
		var as AgentSummary
		if err := rows.Scan(&as.ID, &as.Name, &as.CallName, &as.Category, &as.AssignedBranchCount); err != nil {
			return nil, fmt.Errorf("scan agent summary: %w", err)
		}
		summaries = append(summaries, as)
	}
	return summaries, rows.Err()
}
