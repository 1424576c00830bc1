package taskapp

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/phamhung075/4genthub-sub014/internal/domain"
)

// CreateProject creates a project with a unique name.
func (a *App) CreateProject(name, description, userID string) (*domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if _, err := a.store.GetProjectByName(name); err == nil {
		return nil, fmt.Errorf("project %q already exists: %w", name, domain.ErrConflict)
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	ts := now()
	p := &domain.Project{
		ID:          newID(),
		Name:        name,
		Description: description,
		UserID:      userID,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := a.store.CreateProject(p); err != nil {
		return nil, err
	}
	a.log.Info("project created", zap.String("project_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// GetProject looks a project up by ID.
func (a *App) GetProject(id string) (*domain.Project, error) {
	return a.store.GetProject(id)
}

// GetProjectByName looks a project up by its unique name.
func (a *App) GetProjectByName(name string) (*domain.Project, error) {
	return a.store.GetProjectByName(name)
}

// ListProjects lists projects, optionally scoped to one user.
func (a *App) ListProjects(userID string) ([]domain.Project, error) {
	return a.store.ListProjects(userID)
}

// UpdateProjectParams holds the optional fields of a project update.
// Nil fields stay unchanged.
type UpdateProjectParams struct {
	Name        *string
	Description *string
}

// UpdateProject applies a partial update to a project.
func (a *App) UpdateProject(id string, p UpdateProjectParams) (*domain.Project, error) {
	proj, err := a.store.GetProject(id)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty: %w", domain.ErrValidation)
		}
		if name != proj.Name {
			if _, err := a.store.GetProjectByName(name); err == nil {
				return nil, fmt.Errorf("project %q already exists: %w", name, domain.ErrConflict)
			} else if !domain.IsNotFound(err) {
				return nil, err
			}
			proj.Name = name
		}
	}
	if p.Description != nil {
		proj.Description = *p.Description
	}

	proj.UpdatedAt = now()
	if err := a.store.UpdateProject(proj); err != nil {
		return nil, err
	}
	return proj, nil
}

// DeleteProject removes a project and everything under it.
func (a *App) DeleteProject(id string) error {
	if err := a.store.DeleteProject(id); err != nil {
		return err
	}
	a.invalidateAll()
	a.log.Info("project deleted", zap.String("project_id", id))
	return nil
}

// ProjectHealth is the health_check report for one project.
type ProjectHealth struct {
	Project            *domain.Project `json:"project"`
	Status             string          `json:"status"`
	Branches           int             `json:"branches"`
	UnassignedBranches int             `json:"unassigned_branches"`
	Tasks              int             `json:"tasks"`
	CompletedTasks     int             `json:"completed_tasks"`
	BlockedTasks       int             `json:"blocked_tasks"`
	Agents             int             `json:"agents"`
}

// CheckProjectHealth summarizes a project's state: branch and task
// counts, unassigned branches and registered agents.
func (a *App) CheckProjectHealth(id string) (*ProjectHealth, error) {
	proj, err := a.store.GetProject(id)
	if err != nil {
		return nil, err
	}
	branches, err := a.store.BranchSummaries(id)
	if err != nil {
		return nil, err
	}
	agents, err := a.store.ListAgents(id)
	if err != nil {
		return nil, err
	}

	h := &ProjectHealth{Project: proj, Status: "healthy", Agents: len(agents)}
	for _, b := range branches {
		h.Branches++
		if b.AssignedAgentID == "" {
			h.UnassignedBranches++
		}
		h.Tasks += b.TotalTasks
		h.CompletedTasks += b.CompletedTasks
		h.BlockedTasks += b.BlockedTasks
	}
	if h.Branches == 0 {
		h.Status = "idle"
	} else if h.BlockedTasks > 0 {
		h.Status = "degraded"
	}
	return h, nil
}
