package taskapp

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/phamhung075/4genthub-sub014/internal/agentlib"
	"github.com/phamhung075/4genthub-sub014/internal/domain"
)

// RegisterAgentParams carries the fields accepted when registering an
// agent with a project.
type RegisterAgentParams struct {
	Name        string
	CallName    string
	Category    string
	Description string
}

// RegisterAgent adds an agent to a project roster. When the call name
// matches a built-in library agent, missing fields are filled from the
// library definition. Call names are unique within a project.
func (a *App) RegisterAgent(projectID string, p RegisterAgentParams) (*domain.Agent, error) {
	if _, err := a.store.GetProject(projectID); err != nil {
		return nil, err
	}

	call := agentlib.Normalize(p.CallName)
	if call == "" {
		call = agentlib.Normalize(p.Name)
	}
	if call == "" {
		return nil, fmt.Errorf("name or call_name is required: %w", domain.ErrValidation)
	}

	name := strings.TrimSpace(p.Name)
	category := p.Category
	description := p.Description
	if def, ok := agentlib.Find(call); ok {
		call = def.CallName
		if name == "" {
			name = def.Name
		}
		if category == "" {
			category = def.Category
		}
		if description == "" {
			description = def.Role
		}
	}
	if name == "" {
		name = call
	}

	if _, err := a.store.GetAgentByCallName(projectID, call); err == nil {
		return nil, fmt.Errorf("agent %q already registered: %w", call, domain.ErrConflict)
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	ts := now()
	agent := &domain.Agent{
		ID:          newID(),
		ProjectID:   projectID,
		Name:        name,
		CallName:    call,
		Category:    category,
		Description: description,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := a.store.CreateAgent(agent); err != nil {
		return nil, err
	}
	a.invalidateAgents(projectID)
	a.log.Info("agent registered",
		zap.String("project_id", projectID),
		zap.String("call_name", call))
	return agent, nil
}

// GetAgent resolves a registered agent by ID, or by call name when a
// project scope is given.
func (a *App) GetAgent(projectID, ref string) (*domain.Agent, error) {
	if agent, err := a.store.GetAgent(ref); err == nil {
		return agent, nil
	} else if !domain.IsNotFound(err) {
		return nil, err
	}
	if projectID == "" {
		return nil, fmt.Errorf("agent %q: %w", ref, domain.ErrNotFound)
	}
	return a.store.GetAgentByCallName(projectID, agentlib.Normalize(ref))
}

// ListAgents lists the agents registered with a project.
func (a *App) ListAgents(projectID string) ([]domain.Agent, error) {
	if _, err := a.store.GetProject(projectID); err != nil {
		return nil, err
	}
	return a.store.ListAgents(projectID)
}

// UnregisterAgent removes an agent from its project roster and clears
// any branch assignments pointing at it.
func (a *App) UnregisterAgent(id string) error {
	agent, err := a.store.GetAgent(id)
	if err != nil {
		return err
	}
	if err := a.store.DeleteAgent(id); err != nil {
		return err
	}
	a.invalidateAgents(agent.ProjectID)
	a.log.Info("agent unregistered", zap.String("agent_id", id))
	return nil
}

// CallAgent loads a built-in agent definition by call name, tolerating
// historical spellings. Unknown names list the available roster.
func (a *App) CallAgent(name string) (*agentlib.Definition, error) {
	def, ok := agentlib.Find(name)
	if !ok {
		return nil, fmt.Errorf("agent %q (available: %s): %w",
			name, strings.Join(agentlib.Names(), ", "), domain.ErrNotFound)
	}
	return &def, nil
}
