// Package mcptools implements the MCP tool surface of the task server.
//
// Every tool follows the same pattern:
//   - A struct holding the application layer, injected via constructor
//   - Definition() returns the mcp.Tool schema
//   - Handle() dispatches on the required "action" parameter
//
// Results are carried as a JSON envelope in the text content (see the
// response package). Domain failures (bad input, missing entities,
// rule violations) come back as success:false envelopes; only
// storage and transport faults surface as Go errors.
package mcptools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/phamhung075/4genthub-sub014/internal/domain"
	"github.com/phamhung075/4genthub-sub014/internal/response"
)

// respond turns an application result into a tool result. Domain errors
// become failure envelopes so the client sees a structured error; any
// other error is a server fault and propagates as a Go error.
func respond(action string, data any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		if isDomainError(err) {
			return response.Failure(action, err).ToolResult(), nil
		}
		return nil, err
	}
	return response.Success(action, data).ToolResult(), nil
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrRuleViolation)
}

// unknownAction builds the failure envelope for an unrecognized action,
// listing what the tool does accept.
func unknownAction(tool, action string, valid []string) *mcp.CallToolResult {
	err := fmt.Errorf("%w: unknown action %q for %s: valid actions are %s",
		domain.ErrValidation, action, tool, strings.Join(valid, ", "))
	return response.Failure(action, err).ToolResult()
}

// missingParam builds the failure envelope for a required parameter
// that was not supplied.
func missingParam(action, name string) *mcp.CallToolResult {
	err := fmt.Errorf("%w: %q is required for action %q", domain.ErrValidation, name, action)
	return response.Failure(action, err).ToolResult()
}

// intArg extracts an integer argument, returning defaultVal if the key
// is missing or not a number (JSON numbers decode as float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// optString returns a pointer to the string argument when the key was
// supplied, nil when it was absent. Partial updates use the distinction
// to leave unmentioned fields untouched.
func optString(req mcp.CallToolRequest, key string) *string {
	v, ok := req.GetArguments()[key]
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

// optInt returns a pointer to the integer argument when present.
func optInt(req mcp.CallToolRequest, key string) *int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return nil
	}
	n := int(v)
	return &n
}

// stringListArg reads a list-valued argument in any of the historical
// shapes: a JSON array, a JSON-encoded array string, or a
// comma-separated string. Absent keys return an empty list.
func stringListArg(req mcp.CallToolRequest, key string) []string {
	v, ok := req.GetArguments()[key]
	if !ok {
		return []string{}
	}
	if s, isString := v.(string); isString {
		if decoded, err := decodeJSONList(s); err == nil {
			return decoded
		}
	}
	return domain.NormalizeStringList(v)
}

// optStringList is stringListArg with presence detection for updates.
func optStringList(req mcp.CallToolRequest, key string) *[]string {
	if _, ok := req.GetArguments()[key]; !ok {
		return nil
	}
	list := stringListArg(req, key)
	return &list
}

func decodeJSONList(s string) ([]string, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, fmt.Errorf("not a JSON array")
	}
	var raw any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, err
	}
	return domain.NormalizeStringList(raw), nil
}

// objectArg reads a JSON-object argument supplied either as a real
// object or as a JSON-encoded string. Absent or malformed values
// return nil with an error describing the problem.
func objectArg(req mcp.CallToolRequest, key string) (map[string]any, error) {
	v, ok := req.GetArguments()[key]
	if !ok {
		return nil, nil
	}
	switch val := v.(type) {
	case map[string]any:
		return val, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(val), &obj); err != nil {
			return nil, fmt.Errorf("%w: %q must be a JSON object: %v", domain.ErrValidation, key, err)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("%w: %q must be a JSON object", domain.ErrValidation, key)
	}
}
