package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/phamhung075/4genthub-sub014/internal/domain"
)

// UpsertContext inserts or replaces the data of a context row. The
// created_at of an existing row is preserved; updated_at always moves.
func (s *Store) UpsertContext(c *domain.Context) error {
	data, err := encodeContextData(c.Data)
	if err != nil {
		return fmt.Errorf("upsert context: %w", err)
	}
	_, err = s.exec(
		`INSERT INTO contexts (level, context_id, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (level, context_id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at`,
		string(c.Level), c.ContextID, data, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert context: %w", err)
	}
	return nil
}

// GetContext retrieves one context row.
func (s *Store) GetContext(level domain.ContextLevel, contextID string) (*domain.Context, error) {
	row := s.queryRow(
		`SELECT level, context_id, data, created_at, updated_at
		 FROM contexts WHERE level = ? AND context_id = ?`,
		string(level), contextID,
	)

	var c domain.Context
	var raw string
	err := row.Scan(&c.Level, &c.ContextID, &raw, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("context %s/%s: %w", level, contextID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get context: %w", err)
	}
	c.Data = decodeContextData(raw)
	return &c, nil
}

// DeleteContext removes one context row.
func (s *Store) DeleteContext(level domain.ContextLevel, contextID string) error {
	res, err := s.exec(
		`DELETE FROM contexts WHERE level = ? AND context_id = ?`,
		string(level), contextID,
	)
	if err != nil {
		return fmt.Errorf("delete context: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("context %s/%s: %w", level, contextID, domain.ErrNotFound)
	}
	return nil
}

func encodeContextData(data map[string]any) (string, error) {
	if data == nil {
		return "{}", nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode data: %w", err)
	}
	return string(b), nil
}

// decodeContextData tolerates malformed stored data by treating it as
// an empty object, so one bad row never breaks hierarchy resolution.
func decodeContextData(raw string) map[string]any {
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil || data == nil {
		return map[string]any{}
	}
	return data
}
