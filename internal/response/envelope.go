// Package response builds and parses the JSON envelope carried in MCP
// tool result text content.
//
// Every tool call returns exactly one text content whose payload is:
//
//	{"success": true,  "operation": "create", "data": {...}}
//	{"success": false, "operation": "create", "error": {"message": "...", "code": "..."}}
//
// Parsing tolerates the historical error field shapes: a bare string or
// an object carrying "message". Both normalize to a single message.
package response

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/phamhung075/4genthub-sub014/internal/domain"
)

// Error messages for results that cannot be interpreted at all. These
// exact strings are part of the client contract.
var (
	ErrNoResponse = errors.New("No response from server")
	ErrParse      = errors.New("Failed to parse response")
)

// ErrorDetail is the normalized error payload of a failed operation.
type ErrorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Envelope is the operation result wrapper serialized into tool text content.
type Envelope struct {
	Success   bool         `json:"success"`
	Operation string       `json:"operation,omitempty"`
	Data      any          `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
}

// Success builds a successful envelope for an operation.
func Success(operation string, data any) Envelope {
	return Envelope{Success: true, Operation: operation, Data: data}
}

// Failure builds a failed envelope, classifying err into an error code.
func Failure(operation string, err error) Envelope {
	return Envelope{
		Success:   false,
		Operation: operation,
		Error:     &ErrorDetail{Message: err.Error(), Code: CodeFor(err)},
	}
}

// JSON serializes the envelope. Marshal failures degrade to a minimal
// failure payload instead of propagating, so a tool always answers.
func (e Envelope) JSON() string {
	b, err := json.Marshal(e)
	if err != nil {
		return `{"success":false,"error":{"message":"Failed to encode response","code":"INTERNAL_ERROR"}}`
	}
	return string(b)
}

// ToolResult wraps the serialized envelope in an MCP text result.
func (e Envelope) ToolResult() *mcp.CallToolResult {
	return mcp.NewToolResultText(e.JSON())
}

// CodeFor maps an error to its envelope code via the domain sentinels.
func CodeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, domain.ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, domain.ErrConflict):
		return "CONFLICT"
	case errors.Is(err, domain.ErrRuleViolation):
		return "RULE_VIOLATION"
	default:
		return "INTERNAL_ERROR"
	}
}

// HTTPStatus maps an error to the status code used by the REST layer.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return 404
	case errors.Is(err, domain.ErrValidation):
		return 400
	case errors.Is(err, domain.ErrConflict):
		return 409
	case errors.Is(err, domain.ErrRuleViolation):
		return 422
	default:
		return 500
	}
}

// ParseResult interprets a tool call result as an envelope.
//
// A result with no text content fails with ErrNoResponse; text that is
// not valid JSON fails with ErrParse. A success:false envelope is
// returned as-is with its error normalized, leaving the decision to
// surface it to the caller.
func ParseResult(res *mcp.CallToolResult) (*Envelope, error) {
	if res == nil || len(res.Content) == 0 {
		return nil, ErrNoResponse
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		return nil, ErrNoResponse
	}
	return ParseText(tc.Text)
}

// ParseText interprets raw envelope JSON, normalizing historical error shapes.
func ParseText(text string) (*Envelope, error) {
	if text == "" {
		return nil, ErrNoResponse
	}

	var raw struct {
		Success   bool            `json:"success"`
		Operation string          `json:"operation"`
		Data      any             `json:"data"`
		Error     json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, ErrParse
	}

	env := &Envelope{Success: raw.Success, Operation: raw.Operation, Data: raw.Data}
	if !raw.Success {
		env.Error = normalizeError(raw.Error)
	}
	return env, nil
}

// normalizeError accepts the error field as a plain string, an object
// with message/code, or anything else, and produces one ErrorDetail.
func normalizeError(raw json.RawMessage) *ErrorDetail {
	if len(raw) == 0 || string(raw) == "null" {
		return &ErrorDetail{Message: "Unknown error"}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &ErrorDetail{Message: s}
	}

	var obj ErrorDetail
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return &obj
	}

	return &ErrorDetail{Message: fmt.Sprintf("Unknown error: %s", string(raw))}
}
