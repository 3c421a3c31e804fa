package bas

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mkoval/basbridge/ipc"
)

func TestCreateActionDefaultsColor(t *testing.T) {
	client, host := newTestPair(t)
	host.handleOK("create-action", map[string]any{"success": true, "action_id": 901})

	res, err := client.CreateAction(context.Background(), CreateActionRequest{
		Action: "sleep",
		Params: map[string]any{"SleepTimeMin": 100, "SleepTimeMax": 200},
	})
	if err != nil {
		t.Fatalf("CreateAction: %v", err)
	}
	if !res.Success || res.ActionID != 901 {
		t.Errorf("unexpected result: %+v", res)
	}

	sent := host.commandsOfType("create-action")
	if len(sent) != 1 {
		t.Fatalf("expected one create-action command, got %d", len(sent))
	}
	var req CreateActionRequest
	if err := json.Unmarshal(sent[0], &req); err != nil {
		t.Fatalf("decode sent request: %v", err)
	}
	if req.Color != "green" {
		t.Errorf("default color not applied: %q", req.Color)
	}
	if req.Execute {
		t.Error("execute flag set without being requested")
	}
}

func TestGetVariableSendsFullNameUntruncated(t *testing.T) {
	client, host := newTestPair(t)
	host.handleOK("get-variable", map[string]any{"success": true, "value": "hello"})

	v, err := client.GetVariable(context.Background(), "VAR_RESULT")
	if err != nil {
		t.Fatalf("GetVariable: %v", err)
	}
	if !v.Success || v.String() != "hello" {
		t.Errorf("unexpected variable: %+v", v)
	}

	var sent struct {
		Name       string `json:"name"`
		NoTruncate bool   `json:"no_truncate"`
	}
	if err := json.Unmarshal(host.commandsOfType("get-variable")[0], &sent); err != nil {
		t.Fatalf("decode sent request: %v", err)
	}
	if sent.Name != "VAR_RESULT" || !sent.NoTruncate {
		t.Errorf("unexpected request payload: %+v", sent)
	}
}

func TestDeleteActionsRefusalIsError(t *testing.T) {
	client, host := newTestPair(t)
	host.handleOK("delete-actions", map[string]any{"success": false, "error": "actions are locked"})

	err := client.DeleteActions(context.Background(), []int64{1, 2})
	if err == nil {
		t.Fatal("expected an error for a refused delete")
	}
}

func TestGetStatus(t *testing.T) {
	client, host := newTestPair(t)
	host.handleOK("get-status", map[string]any{
		"success": true, "is_executing": true, "is_task_executing": false,
	})

	st, err := client.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !st.IsExecuting || st.IsTaskExecuting {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestRestartWaitsAfterSuccess(t *testing.T) {
	client, host := newTestPair(t)
	host.handleOK("restart", map[string]any{"success": true})

	old := restartSettle
	restartSettle = 50 * time.Millisecond
	defer func() { restartSettle = old }()

	start := time.Now()
	res, err := client.Restart(context.Background())
	if err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if !res.Success {
		t.Fatalf("unexpected result: %+v", res)
	}
	if elapsed := time.Since(start); elapsed < restartSettle {
		t.Errorf("Restart returned before the settle delay: %v", elapsed)
	}
}

func TestPingAgainstSilentHost(t *testing.T) {
	ch := ipc.NewChannel(t.TempDir(), 5252, nil)
	ch.SetPollInterval(2 * time.Millisecond)
	client := NewClient(ch, nil)
	client.SetTimeouts(0, 0, 80*time.Millisecond)

	if client.Ping(context.Background()) {
		t.Error("ping succeeded against a silent host")
	}
}

func TestVariableHelpers(t *testing.T) {
	cases := []struct {
		raw  string
		str  string
		b    bool
		n    int64
		nerr bool
	}{
		{`"42"`, "42", false, 42, false},
		{`17`, "17", false, 17, false},
		{`true`, "true", true, 0, true},
		{`"true"`, "true", true, 0, true},
	}
	for _, tc := range cases {
		v := &Variable{Success: true, Value: json.RawMessage(tc.raw)}
		if got := v.String(); got != tc.str {
			t.Errorf("String(%s) = %q, want %q", tc.raw, got, tc.str)
		}
		if got := v.Bool(); got != tc.b {
			t.Errorf("Bool(%s) = %v, want %v", tc.raw, got, tc.b)
		}
		n, err := v.Int()
		if (err != nil) != tc.nerr {
			t.Errorf("Int(%s) error = %v, want error %v", tc.raw, err, tc.nerr)
		}
		if err == nil && n != tc.n {
			t.Errorf("Int(%s) = %d, want %d", tc.raw, n, tc.n)
		}
	}
}
