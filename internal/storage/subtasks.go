package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/phamhung075/4genthub-sub014/internal/domain"
)

const subtaskColumns = `id, task_id, title, description, status, priority, assignees,
	progress_notes, progress_percentage, completion_summary, created_at, updated_at`

// CreateSubtask inserts a subtask row.
func (s *Store) CreateSubtask(st *domain.Subtask) error {
	_, err := s.exec(
		`INSERT INTO subtasks (`+subtaskColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.TaskID, st.Title, st.Description, string(st.Status), string(st.Priority),
		domain.EncodeStringList(st.Assignees), st.ProgressNotes, st.ProgressPercentage,
		st.CompletionSummary, st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create subtask: %w", err)
	}
	return nil
}

// GetSubtask retrieves a subtask by ID.
func (s *Store) GetSubtask(id string) (*domain.Subtask, error) {
	row := s.queryRow(`SELECT `+subtaskColumns+` FROM subtasks WHERE id = ?`, id)

	var st domain.Subtask
	var assignees string
	err := row.Scan(&st.ID, &st.TaskID, &st.Title, &st.Description, &st.Status, &st.Priority,
		&assignees, &st.ProgressNotes, &st.ProgressPercentage, &st.CompletionSummary,
		&st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subtask: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subtask: %w", err)
	}
	st.Assignees = domain.DecodeStringList(assignees)
	return &st, nil
}

// ListSubtasks returns all subtasks of a task in creation order.
func (s *Store) ListSubtasks(taskID string) ([]domain.Subtask, error) {
	rows, err := s.query(
		`SELECT `+subtaskColumns+` FROM subtasks WHERE task_id = ? ORDER BY created_at`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	defer rows.Close()

	var subtasks []domain.Subtask
	for rows.Next() {
		var st domain.Subtask
		var assignees string
		if err := rows.Scan(&st.ID, &st.TaskID, &st.Title, &st.Description, &st.Status, &st.Priority,
			&assignees, &st.ProgressNotes, &st.ProgressPercentage, &st.CompletionSummary,
			&st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan subtask: %w", err)
		}
		st.Assignees = domain.DecodeStringList(assignees)
		subtasks = append(subtasks, st)
	}
	return subtasks, rows.Err()
}

// UpdateSubtask writes all mutable fields of a subtask row.
func (s *Store) UpdateSubtask(st *domain.Subtask) error {
	res, err := s.exec(
		`UPDATE subtasks SET title = ?, description = ?, status = ?, priority = ?, assignees = ?,
			progress_notes = ?, progress_percentage = ?, completion_summary = ?, updated_at = ?
		 WHERE id = ?`,
		st.Title, st.Description, string(st.Status), string(st.Priority),
		domain.EncodeStringList(st.Assignees), st.ProgressNotes, st.ProgressPercentage,
		st.CompletionSummary, st.UpdatedAt, st.ID,
	)
	if err != nil {
		return fmt.Errorf("update subtask: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("subtask %s: %w", st.ID, domain.ErrNotFound)
	}
	return nil
}

// DeleteSubtask removes a subtask row.
func (s *Store) DeleteSubtask(id string) error {
	res, err := s.exec(`DELETE FROM subtasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subtask: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("subtask %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
