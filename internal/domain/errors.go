package domain

import "errors"

// Sentinel errors classifying failures across the application layer.
// Callers wrap these with fmt.Errorf("...: %w", Err...) so errors.Is
// still matches after context is added. The MCP envelope and the HTTP
// layer map them to error codes and status codes.
var (
	// ErrNotFound marks a lookup for an entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks invalid input: missing required fields,
	// unknown enum values, malformed IDs.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a uniqueness violation, such as a duplicate
	// project name or an already-registered agent.
	ErrConflict = errors.New("conflict")

	// ErrRuleViolation marks an operation rejected by a business rule:
	// completing a task with unfinished subtasks, dependency cycles,
	// delegating context downward.
	ErrRuleViolation = errors.New("rule violation")
)

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
