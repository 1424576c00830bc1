package taskapp

import (
	"fmt"

	"github.com/phamhung075/4genthub-sub014/internal/domain"
	"github.com/phamhung075/4genthub-sub014/internal/hierarchy"
)

// normalizeContextRef validates the level and pins the global level to
// its singleton ID.
func normalizeContextRef(level, contextID string) (domain.ContextLevel, string, error) {
	lvl, err := domain.ParseLevel(level)
	if err != nil {
		return "", "", err
	}
	if lvl == domain.LevelGlobal {
		contextID = domain.GlobalContextID
	}
	if contextID == "" {
		return "", "", fmt.Errorf("context_id is required: %w", domain.ErrValidation)
	}
	return lvl, contextID, nil
}

// CreateContext creates a context row for an entity. The entity must
// exist; creating an already existing context is a conflict.
func (a *App) CreateContext(level, contextID string, data map[string]any) (*domain.Context, error) {
	lvl, id, err := normalizeContextRef(level, contextID)
	if err != nil {
		return nil, err
	}
	// Chain validates that the underlying entity exists.
	if _, err := a.resolver.Chain(lvl, id); err != nil {
		return nil, err
	}
	if _, err := a.store.GetContext(lvl, id); err == nil {
		return nil, fmt.Errorf("context %s/%s already exists: %w", lvl, id, domain.ErrConflict)
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	if data == nil {
		data = map[string]any{}
	}
	ts := now()
	c := &domain.Context{Level: lvl, ContextID: id, Data: data, CreatedAt: ts, UpdatedAt: ts}
	if err := a.store.UpsertContext(c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetContext returns a context row. The global context is created empty
// on first access; any other missing context is a not-found error.
func (a *App) GetContext(level, contextID string) (*domain.Context, error) {
	lvl, id, err := normalizeContextRef(level, contextID)
	if err != nil {
		return nil, err
	}

	c, err := a.store.GetContext(lvl, id)
	if err == nil {
		return c, nil
	}
	if lvl == domain.LevelGlobal && domain.IsNotFound(err) {
		ts := now()
		c = &domain.Context{Level: lvl, ContextID: id, Data: map[string]any{}, CreatedAt: ts, UpdatedAt: ts}
		if err := a.store.UpsertContext(c); err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, err
}

// UpdateContext deep-merges data into a context, creating the row if it
// does not exist yet.
func (a *App) UpdateContext(level, contextID string, data map[string]any) (*domain.Context, error) {
	lvl, id, err := normalizeContextRef(level, contextID)
	if err != nil {
		return nil, err
	}
	if _, err := a.resolver.Chain(lvl, id); err != nil {
		return nil, err
	}

	existing := map[string]any{}
	createdAt := now()
	if c, err := a.store.GetContext(lvl, id); err == nil {
		existing = c.Data
		createdAt = c.CreatedAt
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	c := &domain.Context{
		Level:     lvl,
		ContextID: id,
		Data:      hierarchy.Merge(existing, data),
		CreatedAt: createdAt,
		UpdatedAt: now(),
	}
	if err := a.store.UpsertContext(c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteContext removes a context row.
func (a *App) DeleteContext(level, contextID string) error {
	lvl, id, err := normalizeContextRef(level, contextID)
	if err != nil {
		return err
	}
	return a.store.DeleteContext(lvl, id)
}

// ResolveContext merges a context with all of its ancestors.
func (a *App) ResolveContext(level, contextID string) (*hierarchy.Resolved, error) {
	lvl, id, err := normalizeContextRef(level, contextID)
	if err != nil {
		return nil, err
	}
	return a.resolver.Resolve(lvl, id)
}

// DelegateContext pushes data from one context up to a higher level.
func (a *App) DelegateContext(level, contextID, targetLevel string, data map[string]any) (*domain.Context, error) {
	lvl, id, err := normalizeContextRef(level, contextID)
	if err != nil {
		return nil, err
	}
	target, err := domain.ParseLevel(targetLevel)
	if err != nil {
		return nil, err
	}
	return a.resolver.Delegate(lvl, id, target, data)
}

// AddInsight appends an agent insight to a context's insights list.
func (a *App) AddInsight(level, contextID, content, category, agent string) (*domain.Context, error) {
	if content == "" {
		return nil, fmt.Errorf("content is required: %w", domain.ErrValidation)
	}
	entry := map[string]any{
		"content":   content,
		"category":  category,
		"agent":     agent,
		"timestamp": now(),
	}
	return a.appendToContextList(level, contextID, "insights", entry)
}

// AddProgress appends a progress note to a context's progress list.
func (a *App) AddProgress(level, contextID, content, agent string) (*domain.Context, error) {
	if content == "" {
		return nil, fmt.Errorf("content is required: %w", domain.ErrValidation)
	}
	entry := map[string]any{
		"content":   content,
		"agent":     agent,
		"timestamp": now(),
	}
	return a.appendToContextList(level, contextID, "progress", entry)
}

// appendToContextList appends an entry to a named list inside a
// context's data, creating the context or the list as needed.
func (a *App) appendToContextList(level, contextID, key string, entry map[string]any) (*domain.Context, error) {
	lvl, id, err := normalizeContextRef(level, contextID)
	if err != nil {
		return nil, err
	}
	if _, err := a.resolver.Chain(lvl, id); err != nil {
		return nil, err
	}

	data := map[string]any{}
	createdAt := now()
	if c, err := a.store.GetContext(lvl, id); err == nil {
		data = c.Data
		createdAt = c.CreatedAt
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	list, _ := data[key].([]any)
	data[key] = append(list, entry)

	c := &domain.Context{Level: lvl, ContextID: id, Data: data, CreatedAt: createdAt, UpdatedAt: now()}
	if err := a.store.UpsertContext(c); err != nil {
		return nil, err
	}
	return c, nil
}
