package bas

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func sampleProject() []map[string]any {
	return []map[string]any{
		{"id": 1, "type": "section_insert", "parent_id": 0, "comment": "OnApplicationStart"},
		{"id": 2, "type": "load", "parent_id": 1, "comment": "open start page"},
		{"id": 3, "type": "section_insert", "parent_id": 0, "comment": "Login"},
		{"id": 4, "type": "type", "parent_id": 3, "comment": "enter username"},
		{"id": 5, "type": "type", "parent_id": 3, "comment": "enter password"},
		{"id": 6, "type": "call_function", "parent_id": 0, "comment": "", "params": map[string]any{"FunctionName": "Login"}},
	}
}

func TestListFunctions(t *testing.T) {
	client, host := newTestPair(t)
	host.handleOK("get-project", sampleProject())

	funcs, err := client.ListFunctions(context.Background())
	if err != nil {
		t.Fatalf("ListFunctions: %v", err)
	}
	if len(funcs) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(funcs))
	}
	if funcs[1].Name != "Login" || funcs[1].ActionsCount != 2 {
		t.Errorf("unexpected function info: %+v", funcs[1])
	}
}

func TestGetFunctionActionsByName(t *testing.T) {
	client, host := newTestPair(t)
	host.handleOK("get-project", sampleProject())

	fn, body, err := client.GetFunctionActions(context.Background(), "Login", 0)
	if err != nil {
		t.Fatalf("GetFunctionActions: %v", err)
	}
	if fn.ID != 3 || len(body) != 2 {
		t.Errorf("unexpected body: fn=%+v actions=%d", fn, len(body))
	}
}

func TestGetFunctionActionsUnknownName(t *testing.T) {
	client, host := newTestPair(t)
	host.handleOK("get-project", sampleProject())

	_, _, err := client.GetFunctionActions(context.Background(), "Checkout", 0)
	var notFound *ErrFunctionNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrFunctionNotFound, got %v", err)
	}
}

func TestCreateFunctionResolvesAfterPosition(t *testing.T) {
	client, host := newTestPair(t)
	host.handleOK("get-project", sampleProject())
	host.handleOK("create-function", map[string]any{"success": true, "action_id": 99})

	res, err := client.CreateFunction(context.Background(), "Checkout", "Login")
	if err != nil {
		t.Fatalf("CreateFunction: %v", err)
	}
	if !res.Success {
		t.Fatalf("unexpected result: %+v", res)
	}

	var sent struct {
		Name    string `json:"name"`
		AfterID int64  `json:"after_id"`
	}
	if err := json.Unmarshal(host.commandsOfType("create-function")[0], &sent); err != nil {
		t.Fatalf("decode sent request: %v", err)
	}
	if sent.Name != "Checkout" || sent.AfterID != 3 {
		t.Errorf("unexpected request: %+v", sent)
	}
}

func TestDeleteFunctionWithContents(t *testing.T) {
	client, host := newTestPair(t)
	host.handleOK("get-project", sampleProject())
	host.handleOK("delete-actions", map[string]any{"success": true})

	count, err := client.DeleteFunction(context.Background(), "Login", 0, true)
	if err != nil {
		t.Fatalf("DeleteFunction: %v", err)
	}
	if count != 3 {
		t.Errorf("expected section plus 2 children deleted, got %d", count)
	}

	var del struct {
		ActionIDs []int64 `json:"action_ids"`
	}
	json.Unmarshal(host.commandsOfType("delete-actions")[0], &del)
	if len(del.ActionIDs) != 3 || del.ActionIDs[0] != 3 {
		t.Errorf("unexpected delete payload: %v", del.ActionIDs)
	}
}

func TestOpenFunctionMovesExecutionPoint(t *testing.T) {
	client, host := newTestPair(t)
	host.handleOK("get-project", sampleProject())
	host.handleOK("move-execution-point", map[string]any{"success": true})

	fn, err := client.OpenFunction(context.Background(), "", 3)
	if err != nil {
		t.Fatalf("OpenFunction: %v", err)
	}
	if fn.Name != "Login" {
		t.Errorf("unexpected function: %+v", fn)
	}

	var sent struct {
		ActionID int64 `json:"action_id"`
	}
	json.Unmarshal(host.commandsOfType("move-execution-point")[0], &sent)
	if sent.ActionID != 3 {
		t.Errorf("moved to wrong action: %d", sent.ActionID)
	}
}
