package domain

import "fmt"

// --- Task status enum ---

// Status tracks the lifecycle of tasks, subtasks, and branches.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusReview     Status = "review"
	StatusTesting    Status = "testing"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

// validStatuses is the set of allowed statuses.
var validStatuses = map[Status]bool{
	StatusTodo:       true,
	StatusInProgress: true,
	StatusBlocked:    true,
	StatusReview:     true,
	StatusTesting:    true,
	StatusDone:       true,
	StatusCancelled:  true,
}

// ValidateStatus returns an error if the status is not recognized.
func ValidateStatus(s Status) error {
	if !validStatuses[s] {
		return fmt.Errorf("invalid status %q: must be one of: todo, in_progress, blocked, review, testing, done, cancelled", s)
	}
	return nil
}

// ParseStatus converts a raw status string, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if err := ValidateStatus(st); err != nil {
		return "", err
	}
	return st, nil
}

// Terminal reports whether the status ends a work item's lifecycle.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusCancelled
}

// --- Priority enum ---

// Priority ranks work items. Higher priorities are picked first by the
// "next task" recommendation.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityUrgent   Priority = "urgent"
	PriorityCritical Priority = "critical"
)

// validPriorities is the set of allowed priorities.
var validPriorities = map[Priority]bool{
	PriorityLow:      true,
	PriorityMedium:   true,
	PriorityHigh:     true,
	PriorityUrgent:   true,
	PriorityCritical: true,
}

// priorityRank orders priorities for next-task selection and sorting.
var priorityRank = map[Priority]int{
	PriorityLow:      1,
	PriorityMedium:   2,
	PriorityHigh:     3,
	PriorityUrgent:   4,
	PriorityCritical: 5,
}

// ValidatePriority returns an error if the priority is not recognized.
func ValidatePriority(p Priority) error {
	if !validPriorities[p] {
		return fmt.Errorf("invalid priority %q: must be one of: low, medium, high, urgent, critical", p)
	}
	return nil
}

// ParsePriority converts a raw priority string, rejecting unknown values.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if err := ValidatePriority(p); err != nil {
		return "", err
	}
	return p, nil
}

// Rank returns the numeric rank of a priority. Unknown priorities rank
// lowest so malformed historical data never outranks valid work.
func (p Priority) Rank() int {
	return priorityRank[p]
}

// --- Context level enum ---

// ContextLevel identifies a tier in the context hierarchy. Resolution
// walks levels in order: global, project, branch, task.
type ContextLevel string

const (
	LevelGlobal  ContextLevel = "global"
	LevelProject ContextLevel = "project"
	LevelBranch  ContextLevel = "branch"
	LevelTask    ContextLevel = "task"
)

// levelDepth orders the hierarchy from root (0) to leaf (3).
var levelDepth = map[ContextLevel]int{
	LevelGlobal:  0,
	LevelProject: 1,
	LevelBranch:  2,
	LevelTask:    3,
}

// ValidateLevel returns an error if the level is not recognized.
func ValidateLevel(l ContextLevel) error {
	if _, ok := levelDepth[l]; !ok {
		return fmt.Errorf("invalid context level %q: must be one of: global, project, branch, task", l)
	}
	return nil
}

// ParseLevel converts a raw level string, rejecting unknown values.
func ParseLevel(s string) (ContextLevel, error) {
	l := ContextLevel(s)
	if err := ValidateLevel(l); err != nil {
		return "", err
	}
	return l, nil
}

// Depth returns the position of a level in the hierarchy, root first.
func (l ContextLevel) Depth() int {
	return levelDepth[l]
}

// Above reports whether l is an ancestor level of other.
func (l ContextLevel) Above(other ContextLevel) bool {
	return levelDepth[l] < levelDepth[other]
}
