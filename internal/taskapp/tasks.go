package taskapp

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/phamhung075/4genthub-sub014/internal/domain"
)

// CreateTaskParams carries the fields accepted when creating a task.
type CreateTaskParams struct {
	GitBranchID     string
	Title           string
	Description     string
	Details         string
	EstimatedEffort string
	Status          string
	Priority        string
	Assignees       []string
	Labels          []string
	Dependencies    []string
	DueDate         string
}

// CreateTask creates a task on a branch. Status defaults to todo and
// priority to medium; dependencies must reference existing tasks.
func (a *App) CreateTask(p CreateTaskParams) (*domain.Task, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	if _, err := a.store.GetBranch(p.GitBranchID); err != nil {
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

	deps := domain.NormalizeStringList(p.Dependencies)
	for _, dep := range deps {
		if _, err := a.store.GetTask(dep); err != nil {
			return nil, fmt.Errorf("dependency %s: %w", dep, err)
		}
	}

	ts := now()
	task := &domain.Task{
		ID:              newID(),
		GitBranchID:     p.GitBranchID,
		Title:           title,
		Description:     p.Description,
		Status:          status,
		Priority:        priority,
		Details:         p.Details,
		EstimatedEffort: p.EstimatedEffort,
		Assignees:       domain.NormalizeStringList(p.Assignees),
		Labels:          domain.NormalizeStringList(p.Labels),
		Dependencies:    deps,
		DueDate:         p.DueDate,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
	if err := a.store.CreateTask(task); err != nil {
		return nil, err
	}
	a.invalidateTasks(task.GitBranchID)
	a.log.Info("task created", zap.String("task_id", task.ID), zap.String("title", task.Title))
	return task, nil
}

// GetTask looks a task up by ID.
func (a *App) GetTask(id string) (*domain.Task, error) {
	return a.store.GetTask(id)
}

// ListTasks lists the tasks of a branch, optionally filtered by status.
func (a *App) ListTasks(branchID, status string) ([]domain.Task, error) {
	var st domain.Status
	if status != "" {
		parsed, err := domain.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		st = parsed
	}
	if _, err := a.store.GetBranch(branchID); err != nil {
		return nil, err
	}
	return a.store.ListTasks(branchID, st)
}

// SearchTasks matches tasks by title or description substring.
func (a *App) SearchTasks(branchID, query string, limit int) ([]domain.Task, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required: %w", domain.ErrValidation)
	}
	return a.store.SearchTasks(branchID, query, limit)
}

// UpdateTaskParams holds the optional fields of a task update.
// Nil fields stay unchanged.
type UpdateTaskParams struct {
	Title           *string
	Description     *string
	Details         *string
	EstimatedEffort *string
	Status          *string
	Priority        *string
	Assignees       *[]string
	Labels          *[]string
	DueDate         *string
}

// UpdateTask applies a partial update. Moving a task to done through
// update enforces the same subtask gate as Complete and stamps
// CompletedAt, but does not require a completion summary. Reopening a
// done task clears the stamp again.
func (a *App) UpdateTask(id string, p UpdateTaskParams) (*domain.Task, error) {
	task, err := a.store.GetTask(id)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, fmt.Errorf("title cannot be empty: %w", domain.ErrValidation)
		}
		task.Title = title
	}
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.Details != nil {
		task.Details = *p.Details
	}
	if p.EstimatedEffort != nil {
		task.EstimatedEffort = *p.EstimatedEffort
	}
	if p.Status != nil {
		st, err := domain.ParseStatus(*p.Status)
		if err != nil {
			return nil, err
		}
		if st == domain.StatusDone && task.Status != domain.StatusDone {
			if err := a.requireSubtasksDone(id); err != nil {
				return nil, err
			}
			task.CompletedAt = now()
		}
		if st != domain.StatusDone && task.Status == domain.StatusDone {
			task.CompletedAt = ""
		}
		task.Status = st
	}
	if p.Priority != nil {
		pr, err := domain.ParsePriority(*p.Priority)
		if err != nil {
			return nil, err
		}
		task.Priority = pr
	}
	if p.Assignees != nil {
		task.Assignees = domain.NormalizeStringList(*p.Assignees)
	}
	if p.Labels != nil {
		task.Labels = domain.NormalizeStringList(*p.Labels)
	}
	if p.DueDate != nil {
		task.DueDate = *p.DueDate
	}

	task.UpdatedAt = now()
	if err := a.store.UpdateTask(task); err != nil {
		return nil, err
	}
	a.invalidateTasks(task.GitBranchID)
	return task, nil
}

// CompleteTask marks a task done. It requires a completion summary and
// refuses while subtasks are still open, then records the outcome in
// the task's context.
func (a *App) CompleteTask(id, completionSummary, testingNotes string) (*domain.Task, error) {
	if strings.TrimSpace(completionSummary) == "" {
		return nil, fmt.Errorf("completion_summary is required: %w", domain.ErrValidation)
	}
	task, err := a.store.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task.Status == domain.StatusDone {
		return nil, fmt.Errorf("task %s is already completed: %w", id, domain.ErrRuleViolation)
	}
	if err := a.requireSubtasksDone(id); err != nil {
		return nil, err
	}

	ts := now()
	task.Status = domain.StatusDone
	task.CompletionSummary = completionSummary
	task.TestingNotes = testingNotes
	task.CompletedAt = ts
	task.UpdatedAt = ts
	if err := a.store.UpdateTask(task); err != nil {
		return nil, err
	}

	// Record the outcome so it survives in the context hierarchy.
	if _, err := a.UpdateContext(string(domain.LevelTask), id, map[string]any{
		"completion_summary": completionSummary,
		"completed_at":       ts,
	}); err != nil {
		return nil, fmt.Errorf("record completion context: %w", err)
	}

	a.invalidateTasks(task.GitBranchID)
	a.log.Info("task completed", zap.String("task_id", id))
	return task, nil
}

// requireSubtasksDone rejects completion while any subtask is still
// open, naming the offenders.
func (a *App) requireSubtasksDone(taskID string) error {
	subtasks, err := a.store.ListSubtasks(taskID)
	if err != nil {
		return err
	}
	var open []string
	for _, st := range subtasks {
		if !st.Status.Terminal() {
			open = append(open, st.Title)
		}
	}
	if len(open) > 0 {
		return fmt.Errorf("cannot complete task with %d open subtask(s): %s: %w",
			len(open), strings.Join(open, ", "), domain.ErrRuleViolation)
	}
	return nil
}

// DeleteTask removes a task, its subtasks and its context, and clears
// it from other tasks' dependency lists.
func (a *App) DeleteTask(id string) error {
	task, err := a.store.GetTask(id)
	if err != nil {
		return err
	}
	if err := a.store.DeleteTask(id); err != nil {
		return err
	}
	a.invalidateSubtasks(id, task.GitBranchID)
	a.log.Info("task deleted", zap.String("task_id", id))
	return nil
}

// NextTask picks the most actionable task on a branch: highest priority
// first, oldest first on ties, skipping blocked tasks and tasks with
// unfinished dependencies. A nil task with nil error means nothing is
// actionable.
func (a *App) NextTask(branchID string) (*domain.Task, error) {
	if _, err := a.store.GetBranch(branchID); err != nil {
		return nil, err
	}
	candidates, err := a.store.NextCandidates(branchID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var depIDs []string
	for _, c := range candidates {
		depIDs = append(depIDs, c.Dependencies...)
	}
	statusByID := map[string]domain.Status{}
	if len(depIDs) > 0 {
		deps, err := a.store.TasksByIDs(depIDs)
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			statusByID[d.ID] = d.Status
		}
	}

	for i := range candidates {
		blocked := false
		for _, dep := range candidates[i].Dependencies {
			// Unresolvable dependencies block, same as open ones.
			if st, ok := statusByID[dep]; !ok || st != domain.StatusDone {
				blocked = true
				break
			}
		}
		if !blocked {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// AddDependency records that a task depends on another. Rejects
// self-references, unknown tasks, duplicates and cycles.
func (a *App) AddDependency(taskID, dependsOn string) (*domain.Task, error) {
	if taskID == dependsOn {
		return nil, fmt.Errorf("a task cannot depend on itself: %w", domain.ErrValidation)
	}
	task, err := a.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if _, err := a.store.GetTask(dependsOn); err != nil {
		return nil, fmt.Errorf("dependency %s: %w", dependsOn, err)
	}
	for _, dep := range task.Dependencies {
		if dep == dependsOn {
			return nil, fmt.Errorf("dependency %s already exists: %w", dependsOn, domain.ErrConflict)
		}
	}
	if err := a.checkDependencyCycle(taskID, dependsOn); err != nil {
		return nil, err
	}

	task.Dependencies = append(task.Dependencies, dependsOn)
	task.UpdatedAt = now()
	if err := a.store.UpdateTask(task); err != nil {
		return nil, err
	}
	a.invalidateTasks(task.GitBranchID)
	return task, nil
}

// RemoveDependency drops a dependency link from a task.
func (a *App) RemoveDependency(taskID, dependsOn string) (*domain.Task, error) {
	task, err := a.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	kept := task.Dependencies[:0]
	found := false
	for _, dep := range task.Dependencies {
		if dep == dependsOn {
			found = true
			continue
		}
		kept = append(kept, dep)
	}
	if !found {
		return nil, fmt.Errorf("dependency %s: %w", dependsOn, domain.ErrNotFound)
	}

	task.Dependencies = kept
	task.UpdatedAt = now()
	if err := a.store.UpdateTask(task); err != nil {
		return nil, err
	}
	a.invalidateTasks(task.GitBranchID)
	return task, nil
}

// checkDependencyCycle walks the dependency graph from the proposed
// dependency. Reaching the dependent task again means the new edge
// would close a cycle.
func (a *App) checkDependencyCycle(taskID, dependsOn string) error {
	visited := map[string]bool{}
	stack := []string{dependsOn}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == taskID {
			return fmt.Errorf("dependency on %s would create a cycle: %w", dependsOn, domain.ErrRuleViolation)
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		task, err := a.store.GetTask(current)
		if err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			return err
		}
		stack = append(stack, task.Dependencies...)
	}
	return nil
}
