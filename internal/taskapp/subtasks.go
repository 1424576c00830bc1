package taskapp

import (
	"fmt"
	"strings"

	"github.com/phamhung075/4genthub-sub014/internal/domain"
)

// CreateSubtaskParams carries the fields accepted when creating a subtask.
type CreateSubtaskParams struct {
	TaskID      string
	Title       string
	Description string
	Status      string
	Priority    string
	Assignees   []string
}

// CreateSubtask creates a subtask under a task.
func (a *App) CreateSubtask(p CreateSubtaskParams) (*domain.Subtask, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	task, err := a.store.GetTask(p.TaskID)
	if err != nil {
		return nil, err
	}

	status := domain.StatusTodo
	if p.Status != "" {
		st, err := domain.ParseStatus(p.Status)
		if err != nil {
			return nil, err
		}
		status = st
	}
	priority := domain.PriorityMedium
	if p.Priority != "" {
		pr, err := domain.ParsePriority(p.Priority)
		if err != nil {
			return nil, err
		}
		priority = pr
	}

	ts := now()
	st := &domain.Subtask{
		ID:          newID(),
		TaskID:      p.TaskID,
		Title:       title,
		Description: p.Description,
		Status:      status,
		Priority:    priority,
		Assignees:   domain.NormalizeStringList(p.Assignees),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := a.store.CreateSubtask(st); err != nil {
		return nil, err
	}
	a.invalidateSubtasks(p.TaskID, task.GitBranchID)
	return st, nil
}

// GetSubtask looks a subtask up by ID.
func (a *App) GetSubtask(id string) (*domain.Subtask, error) {
	return a.store.GetSubtask(id)
}

// ListSubtasks lists the subtasks of a task.
func (a *App) ListSubtasks(taskID string) ([]domain.Subtask, error) {
	if _, err := a.store.GetTask(taskID); err != nil {
		return nil, err
	}
	return a.store.ListSubtasks(taskID)
}

// UpdateSubtaskParams holds the optional fields of a subtask update.
// Nil fields stay unchanged.
type UpdateSubtaskParams struct {
	Title              *string
	Description        *string
	Status             *string
	Priority           *string
	Assignees          *[]string
	ProgressNotes      *string
	ProgressPercentage *int
}

// UpdateSubtask applies a partial update. A progress percentage implies
// a status when none is given explicitly: 0 stays todo, 1 to 99 moves
// to in_progress, 100 moves to done. Values outside 0..100 clamp.
func (a *App) UpdateSubtask(id string, p UpdateSubtaskParams) (*domain.Subtask, error) {
	st, err := a.store.GetSubtask(id)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, fmt.Errorf("title cannot be empty: %w", domain.ErrValidation)
		}
		st.Title = title
	}
	if p.Description != nil {
		st.Description = *p.Description
	}
	if p.Priority != nil {
		pr, err := domain.ParsePriority(*p.Priority)
		if err != nil {
			return nil, err
		}
		st.Priority = pr
	}
	if p.Assignees != nil {
		st.Assignees = domain.NormalizeStringList(*p.Assignees)
	}
	if p.ProgressNotes != nil {
		st.ProgressNotes = *p.ProgressNotes
	}
	if p.ProgressPercentage != nil {
		pct := *p.ProgressPercentage
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		st.ProgressPercentage = pct
		if p.Status == nil {
			switch {
			case pct == 100:
				st.Status = domain.StatusDone
			case pct > 0:
				st.Status = domain.StatusInProgress
			default:
				st.Status = domain.StatusTodo
			}
		}
	}
	if p.Status != nil {
		parsed, err := domain.ParseStatus(*p.Status)
		if err != nil {
			return nil, err
		}
		st.Status = parsed
		if parsed == domain.StatusDone {
			st.ProgressPercentage = 100
		}
	}

	st.UpdatedAt = now()
	if err := a.store.UpdateSubtask(st); err != nil {
		return nil, err
	}
	a.invalidateParentOfSubtask(st.TaskID)
	return st, nil
}

// CompleteSubtask marks a subtask done with full progress. The summary
// is optional.
func (a *App) CompleteSubtask(id, completionSummary string) (*domain.Subtask, error) {
	st, err := a.store.GetSubtask(id)
	if err != nil {
		return nil, err
	}

	st.Status = domain.StatusDone
	st.ProgressPercentage = 100
	st.CompletionSummary = completionSummary
	st.UpdatedAt = now()
	if err := a.store.UpdateSubtask(st); err != nil {
		return nil, err
	}
	a.invalidateParentOfSubtask(st.TaskID)
	return st, nil
}

// DeleteSubtask removes a subtask.
func (a *App) DeleteSubtask(id string) error {
	st, err := a.store.GetSubtask(id)
	if err != nil {
		return err
	}
	if err := a.store.DeleteSubtask(id); err != nil {
		return err
	}
	a.invalidateParentOfSubtask(st.TaskID)
	return nil
}

func (a *App) invalidateParentOfSubtask(taskID string) {
	branchID := ""
	if task, err := a.store.GetTask(taskID); err == nil {
		branchID = task.GitBranchID
	}
	a.invalidateSubtasks(taskID, branchID)
}
