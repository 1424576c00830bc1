package taskapp

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/phamhung075/4genthub-sub014/internal/agentlib"
	"github.com/phamhung075/4genthub-sub014/internal/domain"
)

// CreateBranch creates a task tree under a project. Branch names are
// unique within their project.
func (a *App) CreateBranch(projectID, name, description string) (*domain.Branch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("git_branch_name is required: %w", domain.ErrValidation)
	}
	if _, err := a.store.GetProject(projectID); err != nil {
		return nil, err
	}
	if _, err := a.store.GetBranchByName(projectID, name); err == nil {
		return nil, fmt.Errorf("branch %q already exists in project: %w", name, domain.ErrConflict)
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	ts := now()
	b := &domain.Branch{
		ID:          newID(),
		ProjectID:   projectID,
		Name:        name,
		Description: description,
		Status:      domain.StatusTodo,
		Priority:    domain.PriorityMedium,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := a.store.CreateBranch(b); err != nil {
		return nil, err
	}
	a.invalidateBranches(projectID)
	a.log.Info("branch created", zap.String("branch_id", b.ID), zap.String("name", b.Name))
	return b, nil
}

// GetBranch looks a branch up by ID.
func (a *App) GetBranch(id string) (*domain.Branch, error) {
	return a.store.GetBranch(id)
}

// GetBranchByName looks a branch up by name within a project.
func (a *App) GetBranchByName(projectID, name string) (*domain.Branch, error) {
	return a.store.GetBranchByName(projectID, name)
}

// ListBranches lists the branches of a project.
func (a *App) ListBranches(projectID string) ([]domain.Branch, error) {
	if _, err := a.store.GetProject(projectID); err != nil {
		return nil, err
	}
	return a.store.ListBranches(projectID)
}

// UpdateBranchParams holds the optional fields of a branch update.
// Nil fields stay unchanged.
type UpdateBranchParams struct {
	Name        *string
	Description *string
	Status      *string
	Priority    *string
}

// UpdateBranch applies a partial update to a branch.
func (a *App) UpdateBranch(id string, p UpdateBranchParams) (*domain.Branch, error) {
	b, err := a.store.GetBranch(id)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, fmt.Errorf("git_branch_name cannot be empty: %w", domain.ErrValidation)
		}
		if name != b.Name {
			if _, err := a.store.GetBranchByName(b.ProjectID, name); err == nil {
				return nil, fmt.Errorf("branch %q already exists in project: %w", name, domain.ErrConflict)
			} else if !domain.IsNotFound(err) {
				return nil, err
			}
			b.Name = name
		}
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Status != nil {
		st, err := domain.ParseStatus(*p.Status)
		if err != nil {
			return nil, err
		}
		b.Status = st
	}
	if p.Priority != nil {
		pr, err := domain.ParsePriority(*p.Priority)
		if err != nil {
			return nil, err
		}
		b.Priority = pr
	}

	b.UpdatedAt = now()
	if err := a.store.UpdateBranch(b); err != nil {
		return nil, err
	}
	a.invalidateBranches(b.ProjectID)
	return b, nil
}

// DeleteBranch removes a branch and everything under it.
func (a *App) DeleteBranch(id string) error {
	b, err := a.store.GetBranch(id)
	if err != nil {
		return err
	}
	if err := a.store.DeleteBranch(id); err != nil {
		return err
	}
	a.invalidateBranches(b.ProjectID)
	a.invalidateTasks(id)
	a.log.Info("branch deleted", zap.String("branch_id", id))
	return nil
}

// AssignAgent puts an agent in charge of a branch. The agent reference
// may be a registered agent ID, a registered call name, or the call name
// of a built-in library agent, which is registered on first use.
func (a *App) AssignAgent(branchID, agentRef string) (*domain.Branch, error) {
	b, err := a.store.GetBranch(branchID)
	if err != nil {
		return nil, err
	}
	agent, err := a.resolveAgent(b.ProjectID, agentRef)
	if err != nil {
		return nil, err
	}

	b.AssignedAgentID = agent.ID
	b.UpdatedAt = now()
	if err := a.store.UpdateBranch(b); err != nil {
		return nil, err
	}
	a.invalidateBranches(b.ProjectID)
	a.log.Info("agent assigned",
		zap.String("branch_id", branchID),
		zap.String("agent", agent.CallName))
	return b, nil
}

// UnassignAgent clears a branch's agent assignment.
func (a *App) UnassignAgent(branchID string) (*domain.Branch, error) {
	b, err := a.store.GetBranch(branchID)
	if err != nil {
		return nil, err
	}
	b.AssignedAgentID = ""
	b.UpdatedAt = now()
	if err := a.store.UpdateBranch(b); err != nil {
		return nil, err
	}
	a.invalidateBranches(b.ProjectID)
	return b, nil
}

// resolveAgent finds a project agent by ID or call name. Built-in
// library agents not yet in the roster are registered on the fly.
func (a *App) resolveAgent(projectID, ref string) (*domain.Agent, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("agent reference is required: %w", domain.ErrValidation)
	}

	if agent, err := a.store.GetAgent(ref); err == nil {
		if agent.ProjectID != projectID {
			return nil, fmt.Errorf("agent %s belongs to another project: %w", ref, domain.ErrValidation)
		}
		return agent, nil
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	call := agentlib.Normalize(ref)
	if agent, err := a.store.GetAgentByCallName(projectID, call); err == nil {
		return agent, nil
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	def, ok := agentlib.Find(ref)
	if !ok {
		return nil, fmt.Errorf("agent %q: %w", ref, domain.ErrNotFound)
	}
	return a.RegisterAgent(projectID, RegisterAgentParams{
		Name:        def.Name,
		CallName:    def.CallName,
		Category:    def.Category,
		Description: def.Role,
	})
}
