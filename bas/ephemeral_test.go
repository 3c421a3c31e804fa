package bas

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoadPageDeletesTransientAction(t *testing.T) {
	client, host := newTestPair(t)
	host.handleOK("create-action", map[string]any{
		"success": true, "action_id": 333, "execution_result": "completed",
	})
	host.handleOK("delete-actions", map[string]any{"success": true})

	if err := client.LoadPage(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("LoadPage: %v", err)
	}

	deletes := host.commandsOfType("delete-actions")
	if len(deletes) != 1 {
		t.Fatalf("expected one delete-actions command, got %d", len(deletes))
	}
	var del struct {
		ActionIDs []int64 `json:"action_ids"`
	}
	if err := json.Unmarshal(deletes[0], &del); err != nil {
		t.Fatalf("decode delete request: %v", err)
	}
	if len(del.ActionIDs) != 1 || del.ActionIDs[0] != 333 {
		t.Errorf("deleted wrong actions: %v", del.ActionIDs)
	}
}

func TestEphemeralFailureStillCleansUp(t *testing.T) {
	client, host := newTestPair(t)
	host.handleOK("create-action", map[string]any{
		"success": true, "action_id": 444,
		"execution_result": "failed", "execution_error": "element not found",
	})
	host.handleOK("delete-actions", map[string]any{"success": true})

	err := client.LoadPage(context.Background(), "https://example.com")
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecError, got %v", err)
	}
	if !strings.Contains(execErr.Detail, "element not found") {
		t.Errorf("host error detail lost: %q", execErr.Detail)
	}
	if len(host.commandsOfType("delete-actions")) != 1 {
		t.Error("failed execution did not trigger cleanup")
	}
}

func TestCleanupFailureDoesNotMaskSuccess(t *testing.T) {
	client, host := newTestPair(t)
	host.handleOK("create-action", map[string]any{
		"success": true, "action_id": 555, "execution_result": "completed",
	})
	host.handleOK("delete-actions", map[string]any{"success": false, "error": "busy"})

	if err := client.LoadPage(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("cleanup failure leaked into the call result: %v", err)
	}
}

func TestPageHTMLReadsResultVariable(t *testing.T) {
	client, host := newTestPair(t)

	var varName string
	host.handle("create-action", func(data json.RawMessage) any {
		var req CreateActionRequest
		if err := json.Unmarshal(data, &req); err != nil {
			t.Errorf("decode create request: %v", err)
		}
		if req.Action != "browserjavascript" || !req.Execute {
			t.Errorf("unexpected request: %+v", req)
		}
		code, _ := req.Params["Code"].(string)
		if !strings.Contains(code, "document.documentElement.outerHTML") {
			t.Errorf("capture script missing: %q", code)
		}
		start := strings.Index(code, "[[")
		end := strings.Index(code, "]]")
		if start < 0 || end < start {
			t.Fatalf("no variable assignment in script: %q", code)
		}
		varName = code[start+2 : end]
		return map[string]any{"success": true, "action_id": 70, "execution_result": "completed"}
	})
	host.handle("get-variable", func(data json.RawMessage) any {
		var req struct {
			Name string `json:"name"`
		}
		json.Unmarshal(data, &req)
		if req.Name != "VAR_"+varName {
			t.Errorf("read wrong variable: %q, want VAR_%s", req.Name, varName)
		}
		return map[string]any{"success": true, "value": "<html></html>"}
	})
	host.handleOK("delete-actions", map[string]any{"success": true})

	html, err := client.PageHTML(context.Background())
	if err != nil {
		t.Fatalf("PageHTML: %v", err)
	}
	if html != "<html></html>" {
		t.Errorf("unexpected html: %q", html)
	}
	if !strings.HasPrefix(varName, "HTML_") {
		t.Errorf("variable name not namespaced: %q", varName)
	}
}

func TestExecuteBrowserJSWithoutSaveSkipsVariableRead(t *testing.T) {
	client, host := newTestPair(t)
	host.handleOK("create-action", map[string]any{
		"success": true, "action_id": 80, "execution_result": "completed",
	})
	host.handleOK("delete-actions", map[string]any{"success": true})

	v, err := client.ExecuteBrowserJS(context.Background(), "console.log(1);", "")
	if err != nil {
		t.Fatalf("ExecuteBrowserJS: %v", err)
	}
	if v != nil {
		t.Errorf("expected no variable without save_to, got %+v", v)
	}
	if got := host.commandsOfType("get-variable"); len(got) != 0 {
		t.Errorf("variable read issued without save_to: %d", len(got))
	}
}

func TestCheckElementBatchesCleanup(t *testing.T) {
	client, host := newTestPair(t)

	var nextID int64 = 100
	values := map[string]any{}
	host.handle("create-action", func(data json.RawMessage) any {
		var req CreateActionRequest
		json.Unmarshal(data, &req)
		save, _ := req.Params["Save"].(string)
		name := strings.Trim(save, "[]")
		switch {
		case req.Action == "exist" && req.Params["Check"] == nil:
			values["VAR_"+name] = true
		case req.Action == "exist":
			values["VAR_"+name] = false
		case req.Action == "length":
			values["VAR_"+name] = 3
		default:
			t.Errorf("unexpected probe action %q", req.Action)
		}
		nextID++
		return map[string]any{"success": true, "action_id": nextID, "execution_result": "completed"}
	})
	host.handle("get-variable", func(data json.RawMessage) any {
		var req struct {
			Name string `json:"name"`
		}
		json.Unmarshal(data, &req)
		return map[string]any{"success": true, "value": values[req.Name]}
	})
	host.handleOK("delete-actions", map[string]any{"success": true})

	probe, err := client.CheckElement(context.Background(), ">CSS> .login")
	if err != nil {
		t.Fatalf("CheckElement: %v", err)
	}
	if !probe.Exists || probe.Visible || probe.Count != 3 {
		t.Errorf("unexpected probe: %+v", probe)
	}

	deletes := host.commandsOfType("delete-actions")
	if len(deletes) != 1 {
		t.Fatalf("expected one batched delete, got %d", len(deletes))
	}
	var del struct {
		ActionIDs []int64 `json:"action_ids"`
	}
	json.Unmarshal(deletes[0], &del)
	if len(del.ActionIDs) != 3 {
		t.Errorf("expected all three probe actions deleted, got %v", del.ActionIDs)
	}
}

func TestScreenshotDefaultsToWholePage(t *testing.T) {
	client, host := newTestPair(t)
	host.handle("create-action", func(data json.RawMessage) any {
		var req CreateActionRequest
		json.Unmarshal(data, &req)
		if req.Params["PATH"] != ">CSS> html" {
			t.Errorf("default selector not applied: %v", req.Params["PATH"])
		}
		return map[string]any{"success": true, "action_id": 60, "execution_result": "completed"}
	})
	host.handleOK("get-variable", map[string]any{"success": true, "value": "data:image/png;base64,AAAA"})
	host.handleOK("delete-actions", map[string]any{"success": true})

	data, err := client.Screenshot(context.Background(), "")
	if err != nil {
		t.Fatalf("Screenshot: %v", err)
	}
	if data != "data:image/png;base64,AAAA" {
		t.Errorf("unexpected screenshot payload: %q", data)
	}
}
