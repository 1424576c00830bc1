package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/phamhung075/4genthub-sub014/internal/domain"
)

const agentColumns = `id, project_id, name, call_name, category, description, created_at, updated_at`

// CreateAgent inserts an agent registration row.
func (s *Store) CreateAgent(a *domain.Agent) error {
	_, err := s.exec(
		`INSERT INTO agents (`+agentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ProjectID, a.Name, a.CallName, a.Category, a.Description, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}
	return nil
}

// GetAgent retrieves an agent by ID.
func (s *Store) GetAgent(id string) (*domain.Agent, error) {
	row := s.queryRow(`SELECT `+agentColumns+` FROM agents WHERE id = ?`, id)
	return scanAgent(row)
}

// GetAgentByCallName retrieves an agent by call name within a project.
func (s *Store) GetAgentByCallName(projectID, callName string) (*domain.Agent, error) {
	row := s.queryRow(
		`SELECT `+agentColumns+` FROM agents WHERE project_id = ? AND call_name = ?`,
		projectID, callName,
	)
	return scanAgent(row)
}

func scanAgent(row *sql.Row) (*domain.Agent, error) {
	var a domain.Agent
	err := row.Scan(&a.ID, &a.ProjectID, &a.Name, &a.CallName, &a.Category, &a.Description,
		&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("agent: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get agent: %w", err)
	}
	return &a, nil
}

// ListAgents returns a project's registered agents ordered by name.
func (s *Store) ListAgents(projectID string) ([]domain.Agent, error) {
	rows, err := s.query(
		`SELECT `+agentColumns+` FROM agents WHERE project_id = ? ORDER BY name`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var agents []domain.Agent
	for rows.Next() {
		var a domain.Agent
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Name, &a.CallName, &a.Category, &a.Description,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// DeleteAgent removes an agent registration and clears its branch
// assignments in one transaction.
func (s *Store) DeleteAgent(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete agent: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		s.rebind(`UPDATE branches SET assigned_agent_id = NULL, updated_at = ? WHERE assigned_agent_id = ?`),
		now(), id,
	); err != nil {
		return fmt.Errorf("delete agent: unassign branches: %w", err)
	}

	res, err := tx.Exec(s.rebind(`DELETE FROM agents WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("agent %s: %w", id, domain.ErrNotFound)
	}

	return tx.Commit()
}
