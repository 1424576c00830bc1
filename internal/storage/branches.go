package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/phamhung075/4genthub-sub014/internal/domain"
)

const branchColumns = `id, project_id, name, description, assigned_agent_id, status, priority, created_at, updated_at`

// CreateBranch inserts a branch row.
func (s *Store) CreateBranch(b *domain.Branch) error {
	_, err := s.exec(
		`INSERT INTO branches (`+branchColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.ProjectID, b.Name, b.Description, nullableString(b.AssignedAgentID),
		string(b.Status), string(b.Priority), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	return nil
}

// GetBranch retrieves a branch by ID.
func (s *Store) GetBranch(id string) (*domain.Branch, error) {
	row := s.queryRow(`SELECT `+branchColumns+` FROM branches WHERE id = ?`, id)
	return scanBranch(row)
}

// GetBranchByName retrieves a branch by its name within a project.
func (s *Store) GetBranchByName(projectID, name string) (*domain.Branch, error) {
	row := s.queryRow(
		`SELECT `+branchColumns+` FROM branches WHERE project_id = ? AND name = ?`,
		projectID, name,
	)
	return scanBranch(row)
}

func scanBranch(row *sql.Row) (*domain.Branch, error) {
	var b domain.Branch
	var agent sql.NullString
	err := row.Scan(&b.ID, &b.ProjectID, &b.Name, &b.Description, &agent,
		&b.Status, &b.Priority, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("branch: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get branch: %w", err)
	}
	b.AssignedAgentID = agent.String
	return &b, nil
}

// ListBranches returns all branches of a project ordered by creation time.
func (s *Store) ListBranches(projectID string) ([]domain.Branch, error) {
	rows, err := s.query(
		`SELECT `+branchColumns+` FROM branches WHERE project_id = ? ORDER BY created_at`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()

	var branches []domain.Branch
	for rows.Next() {
		var b domain.Branch
		var agent sql.NullString
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.Name, &b.Description, &agent,
			&b.Status, &b.Priority, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		b.AssignedAgentID = agent.String
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

// UpdateBranch writes all mutable fields of a branch row.
func (s *Store) UpdateBranch(b *domain.Branch) error {
	res, err := s.exec(
		`UPDATE branches SET name = ?, description = ?, assigned_agent_id = ?, status = ?, priority = ?, updated_at = ?
		 WHERE id = ?`,
		b.Name, b.Description, nullableString(b.AssignedAgentID),
		string(b.Status), string(b.Priority), b.UpdatedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update branch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("branch %s: %w", b.ID, domain.ErrNotFound)
	}
	return nil
}

// DeleteBranch removes a branch with its tasks, subtasks, and context
// rows in one transaction.
func (s *Store) DeleteBranch(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete branch: begin: %w", err)
	}
	defer tx.Rollback()

	steps := []struct {
		desc  string
		query string
	}{
		{"subtask rows", `DELETE FROM subtasks WHERE task_id IN (SELECT id FROM tasks WHERE git_branch_id = ?)`},
		{"task contexts", `DELETE FROM contexts WHERE level = 'task' AND context_id IN (SELECT id FROM tasks WHERE git_branch_id = ?)`},
		{"task rows", `DELETE FROM tasks WHERE git_branch_id = ?`},
		{"branch context", `DELETE FROM contexts WHERE level = 'branch' AND context_id = ?`},
	}
	for _, step := range steps {
		if _, err := tx.Exec(s.rebind(step.query), id); err != nil {
			return fmt.Errorf("delete branch: %s: %w", step.desc, err)
		}
	}

	res, err := tx.Exec(s.rebind(`DELETE FROM branches WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("branch %s: %w", id, domain.ErrNotFound)
	}

	return tx.Commit()
}

// nullableString converts empty strings to NULL for optional columns.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
