package response

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/phamhung075/4genthub-sub014/internal/domain"
)

func TestSuccessEnvelopeRoundTrip(t *testing.T) {
	env := Success("create", map[string]any{"id": "t-1"})
	parsed, err := ParseText(env.JSON())
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if !parsed.Success {
		t.Error("expected success envelope")
	}
	if parsed.Operation != "create" {
		t.Errorf("operation = %q, want create", parsed.Operation)
	}
	data, ok := parsed.Data.(map[string]any)
	if !ok || data["id"] != "t-1" {
		t.Errorf("data = %v, want map with id t-1", parsed.Data)
	}
}

func TestFailureCodes(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("task abc: %w", domain.ErrNotFound), "NOT_FOUND"},
		{fmt.Errorf("title: %w", domain.ErrValidation), "VALIDATION_ERROR"},
		{fmt.Errorf("name taken: %w", domain.ErrConflict), "CONFLICT"},
		{fmt.Errorf("subtasks open: %w", domain.ErrRuleViolation), "RULE_VIOLATION"},
		{errors.New("disk gone"), "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		env := Failure("update", tt.err)
		if env.Success {
			t.Error("failure envelope marked success")
		}
		if env.Error == nil || env.Error.Code != tt.code {
			t.Errorf("CodeFor(%v) = %v, want %s", tt.err, env.Error, tt.code)
		}
	}
}

func TestHTTPStatus(t *testing.T) {
	if got := HTTPStatus(fmt.Errorf("x: %w", domain.ErrNotFound)); got != 404 {
		t.Errorf("not found status = %d, want 404", got)
	}
	if got := HTTPStatus(fmt.Errorf("x: %w", domain.ErrValidation)); got != 400 {
		t.Errorf("validation status = %d, want 400", got)
	}
	if got := HTTPStatus(errors.New("boom")); got != 500 {
		t.Errorf("unknown status = %d, want 500", got)
	}
}

func TestParseResultEmptyContent(t *testing.T) {
	_, err := ParseResult(&mcp.CallToolResult{})
	if err == nil || err.Error() != "No response from server" {
		t.Errorf("empty content error = %v, want No response from server", err)
	}
	_, err = ParseResult(nil)
	if !errors.Is(err, ErrNoResponse) {
		t.Errorf("nil result error = %v, want ErrNoResponse", err)
	}
}

func TestParseResultMalformedJSON(t *testing.T) {
	res := mcp.NewToolResultText("<html>502 Bad Gateway</html>")
	_, err := ParseResult(res)
	if err == nil || err.Error() != "Failed to parse response" {
		t.Errorf("malformed error = %v, want Failed to parse response", err)
	}
}

func TestParseTextNormalizesErrorShapes(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"string error", `{"success":false,"error":"branch not found"}`, "branch not found"},
		{"object error", `{"success":false,"error":{"message":"branch not found","code":"NOT_FOUND"}}`, "branch not found"},
		{"missing error", `{"success":false}`, "Unknown error"},
		{"error shape surprise", `{"success":false,"error":[1,2]}`, "Unknown error: [1,2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseText(tt.text)
			if err != nil {
				t.Fatalf("ParseText: %v", err)
			}
			if env.Success {
				t.Error("expected failure envelope")
			}
			if env.Error.Message != tt.want {
				t.Errorf("message = %q, want %q", env.Error.Message, tt.want)
			}
		})
	}
}

func TestToolResultCarriesEnvelope(t *testing.T) {
	res := Success("list", []string{"a"}).ToolResult()
	if len(res.Content) != 1 {
		t.Fatalf("content length = %d, want 1", len(res.Content))
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("content is not text")
	}
	if !strings.Contains(tc.Text, `"success":true`) {
		t.Errorf("text = %q, want success true envelope", tc.Text)
	}
}
