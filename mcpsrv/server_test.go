package mcpsrv

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mkoval/basbridge/bas"
	"github.com/mkoval/basbridge/ipc"
)

func TestNormalizeVariableParams(t *testing.T) {
	in := map[string]any{
		"Save":             "VAR_RESULT",
		"SaveUrl":          "[[VAR_CURRENT]]",
		"SetVariableName":  "VAR_COUNTER",
		"SetVariableValue": "VAR_SOURCE",
		"TypeData":         "user [[VAR_NAME]] here",
		"LoadUrl":          "https://example.com",
		"Check":            true,
		"Custom":           "VAR_THING",
	}
	out := normalizeVariableParams(in)

	cases := map[string]any{
		"Save":             "RESULT",
		"SaveUrl":          "CURRENT",
		"SetVariableName":  "COUNTER",
		"SetVariableValue": "[[SOURCE]]",
		"TypeData":         "user [[NAME]] here",
		"LoadUrl":          "https://example.com",
		"Check":            true,
		"Custom":           "THING",
	}
	for key, want := range cases {
		if out[key] != want {
			t.Errorf("%s: got %v, want %v", key, out[key], want)
		}
	}
}

func TestNormalizeVariableParamsEmpty(t *testing.T) {
	if got := normalizeVariableParams(nil); got != nil {
		t.Errorf("nil params should pass through, got %v", got)
	}
}

func TestDecodeImageData(t *testing.T) {
	img, mimeType, err := decodeImageData("data:image/jpeg;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("decode data URL: %v", err)
	}
	if string(img) != "hello" || mimeType != "image/jpeg" {
		t.Errorf("got %q %q", img, mimeType)
	}

	img, mimeType, err = decodeImageData("aGVsbG8=")
	if err != nil {
		t.Fatalf("decode bare base64: %v", err)
	}
	if string(img) != "hello" || mimeType != "image/png" {
		t.Errorf("got %q %q", img, mimeType)
	}

	if _, _, err := decodeImageData("not valid base64!!"); err == nil {
		t.Error("expected an error for invalid data")
	}
}

func TestWrapList(t *testing.T) {
	payload := wrapList("modules", json.RawMessage(`["a","b"]`))
	if payload["count"] != 2 {
		t.Errorf("count: %v", payload["count"])
	}

	payload = wrapList("modules", json.RawMessage(`{"odd":"shape"}`))
	if _, hasCount := payload["count"]; hasCount {
		t.Error("non-array payload should not carry a count")
	}
}

func newBareServer(t *testing.T) *Server {
	t.Helper()
	ch := ipc.NewChannel(t.TempDir(), 99, nil)
	return New(bas.NewClient(ch, nil), "", nil)
}

func textOf(t *testing.T, res *toolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty content")
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("first content is %T, not text", res.Content[0])
	}
	return tc.Text
}

func TestGetActionHelpSpecific(t *testing.T) {
	s := newBareServer(t)

	res, err := s.getActionHelp(context.Background(), nil,
		&mcp.CallToolParamsFor[actionArgs]{Arguments: actionArgs{Action: "load"}})
	if err != nil {
		t.Fatalf("getActionHelp: %v", err)
	}
	text := textOf(t, res)
	if !strings.Contains(text, "Load URL") || !strings.Contains(text, "LoadUrl") {
		t.Errorf("help content missing: %s", text)
	}
}

func TestGetActionHelpCatalogListing(t *testing.T) {
	s := newBareServer(t)

	res, err := s.getActionHelp(context.Background(), nil,
		&mcp.CallToolParamsFor[actionArgs]{Arguments: actionArgs{Action: "*"}})
	if err != nil {
		t.Fatalf("getActionHelp: %v", err)
	}
	var payload struct {
		Success      bool                         `json:"success"`
		Categories   map[string][]json.RawMessage `json:"categories"`
		TotalActions int                          `json:"total_actions"`
	}
	if err := json.Unmarshal([]byte(textOf(t, res)), &payload); err != nil {
		t.Fatalf("parse listing: %v", err)
	}
	if !payload.Success || payload.TotalActions == 0 || len(payload.Categories) == 0 {
		t.Errorf("unexpected listing: %+v", payload)
	}
}

func TestGetActionHelpUnknown(t *testing.T) {
	s := newBareServer(t)

	res, err := s.getActionHelp(context.Background(), nil,
		&mcp.CallToolParamsFor[actionArgs]{Arguments: actionArgs{Action: "bogus"}})
	if err != nil {
		t.Fatalf("getActionHelp: %v", err)
	}
	if !strings.Contains(textOf(t, res), "bas_get_action_schema") {
		t.Error("unknown action response should point at the schema tool")
	}
}

func TestLogToolsWithoutLogsDir(t *testing.T) {
	s := newBareServer(t)

	res, err := s.listLogs(context.Background(), nil,
		&mcp.CallToolParamsFor[listLogsArgs]{Arguments: listLogsArgs{}})
	if err != nil {
		t.Fatalf("listLogs: %v", err)
	}
	if !strings.Contains(textOf(t, res), "Logs directory not found") {
		t.Errorf("unexpected response: %s", textOf(t, res))
	}
}
