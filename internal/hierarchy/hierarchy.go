// Package hierarchy resolves the four-level context chain. Every branch
// context inherits from its project, every task context from its branch,
// and everything inherits from the global singleton. Resolution walks the
// chain top-down and merges each level's data over its parent's.
package hierarchy

import (
	"fmt"
	"time"

	"github.com/phamhung075/4genthub-sub014/internal/domain"
	"github.com/phamhung075/4genthub-sub014/internal/storage"
)

var timeNow = time.Now

func now() string {
	return timeNow().UTC().Format(time.RFC3339)
}

// Link identifies one context row in an inheritance chain.
type Link struct {
	Level     domain.ContextLevel `json:"level"`
	ContextID string              `json:"context_id"`
}

// Resolved is the outcome of merging a context with all of its ancestors.
type Resolved struct {
	Level     domain.ContextLevel `json:"level"`
	ContextID string              `json:"context_id"`
	Data      map[string]any      `json:"resolved_context"`
	Chain     []Link              `json:"inheritance_chain"`
}

// Resolver derives inheritance chains from entity rows and merges
// context data along them.
type Resolver struct {
	store *storage.Store
}

func NewResolver(s *storage.Store) *Resolver {
	return &Resolver{store: s}
}

// Chain returns the inheritance chain for a context, ordered from the
// global root down to the requested level. Parent identifiers come from
// the entity rows, so the entity itself must exist.
func (r *Resolver) Chain(level domain.ContextLevel, contextID string) ([]Link, error) {
	global := Link{Level: domain.LevelGlobal, ContextID: domain.GlobalContextID}

	switch level {
	case domain.LevelGlobal:
		return []Link{global}, nil

	case domain.LevelProject:
		if _, err := r.store.GetProject(contextID); err != nil {
			return nil, err
		}
		return []Link{global, {domain.LevelProject, contextID}}, nil

	case domain.LevelBranch:
		b, err := r.store.GetBranch(contextID)
		if err != nil {
			return nil, err
		}
		return []Link{
			global,
			{domain.LevelProject, b.ProjectID},
			{domain.LevelBranch, contextID},
		}, nil

	case domain.LevelTask:
		task, err := r.store.GetTask(contextID)
		if err != nil {
			return nil, err
		}
		b, err := r.store.GetBranch(task.GitBranchID)
		if err != nil {
			return nil, err
		}
		return []Link{
			global,
			{domain.LevelProject, b.ProjectID},
			{domain.LevelBranch, task.GitBranchID},
			{domain.LevelTask, contextID},
		}, nil
	}

	return nil, fmt.Errorf("level %q: %w", level, domain.ErrValidation)
}

// Resolve merges context data from the global root down to the requested
// level. Missing context rows along the chain contribute empty data, so
// resolution succeeds as long as the underlying entity exists.
func (r *Resolver) Resolve(level domain.ContextLevel, contextID string) (*Resolved, error) {
	if level == domain.LevelGlobal {
		contextID = domain.GlobalContextID
	}
	chain, err := r.Chain(level, contextID)
	if err != nil {
		return nil, err
	}

	merged := map[string]any{}
	for _, link := range chain {
		c, err := r.store.GetContext(link.Level, link.ContextID)
		if err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		merged = Merge(merged, c.Data)
	}

	return &Resolved{
		Level:     level,
		ContextID: contextID,
		Data:      merged,
		Chain:     chain,
	}, nil
}

// Delegate pushes data from a context up to a higher level, so that
// siblings under the target inherit it. The target must be strictly
// above the source level.
func (r *Resolver) Delegate(level domain.ContextLevel, contextID string, target domain.ContextLevel, data map[string]any) (*domain.Context, error) {
	if !target.Above(level) {
		return nil, fmt.Errorf("cannot delegate from %s to %s, target must be a higher level: %w", level, target, domain.ErrRuleViolation)
	}
	if level == domain.LevelGlobal {
		contextID = domain.GlobalContextID
	}

	chain, err := r.Chain(level, contextID)
	if err != nil {
		return nil, err
	}

	var targetID string
	for _, link := range chain {
		if link.Level == target {
			targetID = link.ContextID
			break
		}
	}
	if targetID == "" {
		return nil, fmt.Errorf("level %s not present in chain for %s/%s: %w", target, level, contextID, domain.ErrValidation)
	}

	existing := map[string]any{}
	createdAt := now()
	if c, err := r.store.GetContext(target, targetID); err == nil {
		existing = c.Data
		createdAt = c.CreatedAt
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	out := &domain.Context{
		Level:     target,
		ContextID: targetID,
		Data:      Merge(existing, data),
		CreatedAt: createdAt,
		UpdatedAt: now(),
	}
	if err := r.store.UpsertContext(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Merge layers src over dst into a fresh map. Nested maps merge
// recursively; arrays and scalars replace the parent value outright.
func Merge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		sv, srcIsMap := v.(map[string]any)
		dv, dstIsMap := out[k].(map[string]any)
		if srcIsMap && dstIsMap {
			out[k] = Merge(dv, sv)
			continue
		}
		out[k] = v
	}
	return out
}
