package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/phamhung075/4genthub-sub014/internal/domain"
)

// CreateProject inserts a project row. Timestamps must be set by the caller.
func (s *Store) CreateProject(p *domain.Project) error {
	_, err := s.exec(
		`INSERT INTO projects (id, name, description, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.UserID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by ID.
func (s *Store) GetProject(id string) (*domain.Project, error) {
	row := s.queryRow(
		`SELECT id, name, description, user_id, created_at, updated_at
		 FROM projects WHERE id = ?`, id,
	)
	return scanProject(row)
}

// GetProjectByName retrieves a project by its unique name.
func (s *Store) GetProjectByName(name string) (*domain.Project, error) {
	row := s.queryRow(
		`SELECT id, name, description, user_id, created_at, updated_at
		 FROM projects WHERE name = ?`, name,
	)
	return scanProject(row)
}

func scanProject(row *sql.Row) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// ListProjects returns projects ordered by creation time. When userID is
// non-empty only that user's projects are returned.
func (s *Store) ListProjects(userID string) ([]domain.Project, error) {
	query := `SELECT id, name, description, user_id, created_at, updated_at FROM projects`
	args := []any{}
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at`

	rows, err := s.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.UserID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject writes all mutable fields of a project row.
func (s *Store) UpdateProject(p *domain.Project) error {
	res, err := s.exec(
		`UPDATE projects SET name = ?, description = ?, user_id = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Description, p.UserID, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

// DeleteProject removes a project and everything under it: branches,
// tasks, subtasks, agents, and every context row in the subtree. The
// whole cascade runs in one transaction.
func (s *Store) DeleteProject(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete project: begin: %w", err)
	}
	defer tx.Rollback()

	steps := []struct {
		desc  string
		query string
	}{
		{"subtask rows", `DELETE FROM subtasks WHERE task_id IN (
			SELECT t.id FROM tasks t JOIN branches b ON t.git_branch_id = b.id WHERE b.project_id = ?)`},
		{"task contexts", `DELETE FROM contexts WHERE level = 'task' AND context_id IN (
			SELECT t.id FROM tasks t JOIN branches b ON t.git_branch_id = b.id WHERE b.project_id = ?)`},
		{"task rows", `DELETE FROM tasks WHERE git_branch_id IN (
			SELECT id FROM branches WHERE project_id = ?)`},
		{"branch contexts", `DELETE FROM contexts WHERE level = 'branch' AND context_id IN (
			SELECT id FROM branches WHERE project_id = ?)`},
		{"branch rows", `DELETE FROM branches WHERE project_id = ?`},
		{"agent rows", `DELETE FROM agents WHERE project_id = ?`},
		{"project context", `DELETE FROM contexts WHERE level = 'project' AND context_id = ?`},
	}
	for _, step := range steps {
		if _, err := tx.Exec(s.rebind(step.query), id); err != nil {
			return fmt.Errorf("delete project: %s: %w", step.desc, err)
		}
	}

	res, err := tx.Exec(s.rebind(`DELETE FROM projects WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}

	return tx.Commit()
}
