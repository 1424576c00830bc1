package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/phamhung075/4genthub-sub014/internal/domain"
)

const taskColumns = `id, git_branch_id, title, description, status, priority, details, estimated_effort,
	assignees, labels, dependencies, completion_summary, testing_notes, due_date, created_at, updated_at, completed_at`

// CreateTask inserts a task row. List fields are encoded as JSON.
func (s *Store) CreateTask(t *domain.Task) error {
	_, err := s.exec(
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.GitBranchID, t.Title, t.Description, string(t.Status), string(t.Priority),
		t.Details, t.EstimatedEffort,
		domain.EncodeStringList(t.Assignees), domain.EncodeStringList(t.Labels), domain.EncodeStringList(t.Dependencies),
		t.CompletionSummary, t.TestingNotes, nullableString(t.DueDate),
		t.CreatedAt, t.UpdatedAt, nullableString(t.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID.
func (s *Store) GetTask(id string) (*domain.Task, error) {
	row := s.queryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)

	var t domain.Task
	var assignees, labels, deps string
	var dueDate, completedAt sql.NullString
	err := row.Scan(&t.ID, &t.GitBranchID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.Details, &t.EstimatedEffort, &assignees, &labels, &deps,
		&t.CompletionSummary, &t.TestingNotes, &dueDate, &t.CreatedAt, &t.UpdatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	decodeTaskLists(&t, assignees, labels, deps)
	t.DueDate = dueDate.String
	t.CompletedAt = completedAt.String
	return &t, nil
}

// ListTasks returns tasks on a branch, optionally filtered by status,
// newest first.
func (s *Store) ListTasks(branchID string, status domain.Status) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE git_branch_id = ?`
	args := []any{branchID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`
	return s.queryTasks(query, args...)
}

// SearchTasks matches the query string against task titles and
// descriptions on a branch, case-insensitively. An empty branchID
// searches all branches.
func (s *Store) SearchTasks(branchID, q string, limit int) ([]domain.Task, error) {
	if limit <= 0 {
		limit = s.cfg.MaxSearchResults
	}
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE (lower(title) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\')`
	args := []any{pattern, pattern}
	if branchID != "" {
		query += ` AND git_branch_id = ?`
		args = append(args, branchID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	return s.queryTasks(query, args...)
}

// escapeLike backslash-escapes LIKE metacharacters so the query string
// matches as a literal substring.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// TasksByIDs returns the tasks with the given IDs, in no particular
// order. Missing IDs are silently skipped.
func (s *Store) TasksByIDs(ids []string) ([]domain.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id IN (` + placeholders(len(ids)) + `)`
	return s.queryTasks(query, args...)
}

// NextCandidates returns unfinished tasks on a branch ranked for the
// next-task recommendation: highest priority first, oldest first within
// a priority. Blocked tasks are excluded outright; dependency checks
// happen in the application layer.
func (s *Store) NextCandidates(branchID string) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE git_branch_id = ? AND status IN ('todo', 'in_progress')
		ORDER BY CASE priority
			WHEN 'critical' THEN 5
			WHEN 'urgent'   THEN 4
			WHEN 'high'     THEN 3
			WHEN 'medium'   THEN 2
			ELSE 1
		END DESC, created_at ASC`
	return s.queryTasks(query, branchID)
}

// UpdateTask writes all mutable fields of a task row.
func (s *Store) UpdateTask(t *domain.Task) error {
	res, err := s.exec(
		`UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, details = ?,
			estimated_effort = ?, assignees = ?, labels = ?, dependencies = ?,
			completion_summary = ?, testing_notes = ?, due_date = ?, updated_at = ?, completed_at = ?
		 WHERE id = ?`,
		t.Title, t.Description, string(t.Status), string(t.Priority), t.Details,
		t.EstimatedEffort, domain.EncodeStringList(t.Assignees), domain.EncodeStringList(t.Labels),
		domain.EncodeStringList(t.Dependencies), t.CompletionSummary, t.TestingNotes,
		nullableString(t.DueDate), t.UpdatedAt, nullableString(t.CompletedAt), t.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %s: %w", t.ID, domain.ErrNotFound)
	}
	return nil
}

// DeleteTask removes a task, its subtasks, its context row, and every
// reference to it in other tasks' dependency lists, in one transaction.
func (s *Store) DeleteTask(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete task: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.rebind(`DELETE FROM subtasks WHERE task_id = ?`), id); err != nil {
		return fmt.Errorf("delete task: subtasks: %w", err)
	}
	if _, err := tx.Exec(s.rebind(`DELETE FROM contexts WHERE level = 'task' AND context_id = ?`), id); err != nil {
		return fmt.Errorf("delete task: context: %w", err)
	}

	// Dependency lists are JSON text, so referencing rows are found with
	// LIKE and rewritten in Go. UUIDs make substring false positives a
	// non-issue; a decode round-trip filters any that slip through.
	rows, err := tx.Query(s.rebind(`SELECT id, dependencies FROM tasks WHERE dependencies LIKE ?`), "%"+id+"%")
	if err != nil {
		return fmt.Errorf("delete task: find dependents: %w", err)
	}
	type depFix struct {
		id   string
		deps []string
	}
	var fixes []depFix
	for rows.Next() {
		var taskID, raw string
		if err := rows.Scan(&taskID, &raw); err != nil {
			rows.Close()
			return fmt.Errorf("delete task: scan dependent: %w", err)
		}
		deps := domain.DecodeStringList(raw)
		kept := deps[:0]
		for _, d := range deps {
			if d != id {
				kept = append(kept, d)
			}
		}
		if len(kept) != len(deps) {
			fixes = append(fixes, depFix{id: taskID, deps: kept})
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("delete task: dependents: %w", err)
	}
	rows.Close()

	ts := now()
	for _, fix := range fixes {
		if _, err := tx.Exec(
			s.rebind(`UPDATE tasks SET dependencies = ?, updated_at = ? WHERE id = ?`),
			domain.EncodeStringList(fix.deps), ts, fix.id,
		); err != nil {
			return fmt.Errorf("delete task: rewrite dependencies: %w", err)
		}
	}

	res, err := tx.Exec(s.rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}

	return tx.Commit()
}

// queryTasks runs a task query and scans all rows.
func (s *Store) queryTasks(query string, args ...any) ([]domain.Task, error) {
	rows, err := s.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		var assignees, labels, deps string
		var dueDate, completedAt sql.NullString
		if err := rows.Scan(&t.ID, &t.GitBranchID, &t.Title, &t.Description, &t.Status, &t.Priority,
			&t.Details, &t.EstimatedEffort, &assignees, &labels, &deps,
			&t.CompletionSummary, &t.TestingNotes, &dueDate, &t.CreatedAt, &t.UpdatedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		decodeTaskLists(&t, assignees, labels, deps)
		t.DueDate = dueDate.String
		t.CompletedAt = completedAt.String
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// decodeTaskLists normalizes the JSON list columns, tolerating the
// historical shapes older rows were written in.
func decodeTaskLists(t *domain.Task, assignees, labels, deps string) {
	t.Assignees = domain.DecodeStringList(assignees)
	t.Labels = domain.DecodeStringList(labels)
	t.Dependencies = domain.DecodeStringList(deps)
}
