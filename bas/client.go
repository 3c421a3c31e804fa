package bas

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/mkoval/basbridge/errors"
	"github.com/mkoval/basbridge/ipc"
)

const (
	// DefaultCallTimeout covers simple commands the host answers from its
	// own state without touching the browser.
	DefaultCallTimeout = 30 * time.Second
	// DefaultExecuteTimeout covers executed actions, which may block on
	// page loads, network calls, or injected script execution.
	DefaultExecuteTimeout = 120 * time.Second
	// DefaultPingTimeout keeps the liveness probe short.
	DefaultPingTimeout = 10 * time.Second
)

// ExecutionCompleted is the completion discriminator value the host reports
// for a successfully executed action. Any other value, including absence,
// means failure.
const ExecutionCompleted = "completed"

// Client exposes the BAS operations over an injected channel. It holds no
// hidden state beyond the channel; construct one per host process.
type Client struct {
	ch     *ipc.Channel
	logger *zap.Logger

	callTimeout    time.Duration
	executeTimeout time.Duration
	pingTimeout    time.Duration
}

// NewClient wraps a channel. A nil logger disables diagnostics.
func NewClient(ch *ipc.Channel, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		ch:             ch,
		logger:         logger,
		callTimeout:    DefaultCallTimeout,
		executeTimeout: DefaultExecuteTimeout,
		pingTimeout:    DefaultPingTimeout,
	}
}

// SetTimeouts overrides the per-call timeout classes. Zero values keep the
// current setting.
func (c *Client) SetTimeouts(call, execute, ping time.Duration) {
	if call > 0 {
		c.callTimeout = call
	}
	if execute > 0 {
		c.executeTimeout = execute
	}
	if ping > 0 {
		c.pingTimeout = ping
	}
}

// Channel returns the underlying IPC channel.
func (c *Client) Channel() *ipc.Channel { return c.ch }

func (c *Client) call(ctx context.Context, cmdType string, data any) (json.RawMessage, error) {
	return c.ch.Call(ctx, cmdType, data, c.callTimeout)
}

func (c *Client) callInto(ctx context.Context, cmdType string, data, out any) error {
	raw, err := c.call(ctx, cmdType, data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "unexpected %q response shape", cmdType)
	}
	return nil
}

// Ping reports whether the host answers at all within the ping timeout.
func (c *Client) Ping(ctx context.Context) bool {
	return c.ch.Ping(ctx, c.pingTimeout)
}

// ListModules returns the host's action module list as raw JSON.
func (c *Client) ListModules(ctx context.Context) (json.RawMessage, error) {
	return c.call(ctx, "list-modules", nil)
}

// ListActions returns the actions of one module; pass "*" for all.
func (c *Client) ListActions(ctx context.Context, module string) (json.RawMessage, error) {
	return c.call(ctx, "list-actions", map[string]any{"module": module})
}

// GetActionSchema returns the host's parameter schema for an action type.
func (c *Client) GetActionSchema(ctx context.Context, action string) (json.RawMessage, error) {
	return c.call(ctx, "get-action-schema", map[string]any{"action": action})
}

// GetProject returns every action in the current project.
func (c *Client) GetProject(ctx context.Context) ([]ProjectAction, error) {
	var actions []ProjectAction
	if err := c.callInto(ctx, "get-project", nil, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// GetTaskRaw returns the raw task data of one action, including its code.
func (c *Client) GetTaskRaw(ctx context.Context, actionID int64) (json.RawMessage, error) {
	return c.call(ctx, "get-task-raw", map[string]any{"action_id": actionID})
}

// CreateAction creates a new action in the project. With Execute set the
// host runs it synchronously, so the extended execute timeout applies.
func (c *Client) CreateAction(ctx context.Context, req CreateActionRequest) (*CreateActionResult, error) {
	if req.Color == "" {
		req.Color = "green"
	}
	timeout := c.callTimeout
	if req.Execute {
		timeout = c.executeTimeout
	}
	raw, err := c.ch.Call(ctx, "create-action", req, timeout)
	if err != nil {
		return nil, err
	}
	var res CreateActionResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, errors.Wrapf(err, "unexpected create-action response shape")
	}
	return &res, nil
}

// UpdateAction changes an existing action's params and/or comment. A nil
// comment leaves the comment untouched.
func (c *Client) UpdateAction(ctx context.Context, actionID int64, params map[string]any, comment *string) (*OpResult, error) {
	data := map[string]any{"action_id": actionID}
	if len(params) > 0 {
		data["params"] = params
	}
	if comment != nil {
		data["comment"] = *comment
	}
	var res OpResult
	if err := c.callInto(ctx, "update-action", data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DeleteActions removes actions by ID. A host-side refusal is an error.
func (c *Client) DeleteActions(ctx context.Context, actionIDs []int64) error {
	var res OpResult
	if err := c.callInto(ctx, "delete-actions", map[string]any{"action_ids": actionIDs}, &res); err != nil {
		return err
	}
	if !res.Success {
		return errors.New("delete-actions refused: %s", res.Error)
	}
	return nil
}

// RunFrom starts scenario execution at a specific action.
func (c *Client) RunFrom(ctx context.Context, actionID int64) (*OpResult, error) {
	var res OpResult
	if err := c.callInto(ctx, "run-from", map[string]any{"action_id": actionID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetURL returns the current browser page URL payload.
func (c *Client) GetURL(ctx context.Context) (json.RawMessage, error) {
	return c.call(ctx, "get-url", nil)
}

// GetHTML asks the host for the current page HTML directly. PageHTML is
// the more reliable path on heavy pages; this remains for completeness.
func (c *Client) GetHTML(ctx context.Context) (json.RawMessage, error) {
	return c.ch.Call(ctx, "get-html", nil, c.executeTimeout)
}

// Play starts or continues script execution.
func (c *Client) Play(ctx context.Context) (*OpResult, error) { return c.simpleOp(ctx, "play") }

// Pause pauses script execution at the current position.
func (c *Client) Pause(ctx context.Context) (*OpResult, error) { return c.simpleOp(ctx, "pause") }

// StepNext executes the next action and pauses again.
func (c *Client) StepNext(ctx context.Context) (*OpResult, error) {
	return c.simpleOp(ctx, "step-next")
}

// Stop stops script execution completely.
func (c *Client) Stop(ctx context.Context) (*OpResult, error) { return c.simpleOp(ctx, "stop") }

// Restart restarts the script in record mode. The host needs a moment to
// come back up, so on success Restart waits before returning, honoring ctx.
func (c *Client) Restart(ctx context.Context) (*OpResult, error) {
	res, err := c.simpleOp(ctx, "restart")
	if err != nil {
		return nil, err
	}
	if res.Success {
		select {
		case <-time.After(restartSettle):
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}
	return res, nil
}

// restartSettle is how long BAS takes to rebuild its browser after a
// restart; variable for tests.
var restartSettle = 15 * time.Second

// GetStatus returns the current execution state.
func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	var st Status
	if err := c.callInto(ctx, "get-status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// MoveTo moves the execution point to a specific action; the BAS UI
// scrolls to it as a side effect.
func (c *Client) MoveTo(ctx context.Context, actionID int64) (*OpResult, error) {
	var res OpResult
	if err := c.callInto(ctx, "move-execution-point", map[string]any{"action_id": actionID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetVariables lists every variable in the project.
func (c *Client) GetVariables(ctx context.Context) (json.RawMessage, error) {
	return c.call(ctx, "get-variables", nil)
}

// GetVariable reads one variable, untruncated. The host expects the full
// name including the VAR_ prefix.
func (c *Client) GetVariable(ctx context.Context, name string) (*Variable, error) {
	var v Variable
	data := map[string]any{"name": name, "no_truncate": true}
	if err := c.callInto(ctx, "get-variable", data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetResources lists the project's resources.
func (c *Client) GetResources(ctx context.Context) (json.RawMessage, error) {
	return c.call(ctx, "get-resources", nil)
}

// GetResource reads one resource by name.
func (c *Client) GetResource(ctx context.Context, name string) (json.RawMessage, error) {
	return c.call(ctx, "get-resource", map[string]any{"name": name})
}

// Eval evaluates a JavaScript expression in the BAS scripting context (not
// the browser page; use ExecuteBrowserJS for that).
func (c *Client) Eval(ctx context.Context, expression string) (json.RawMessage, error) {
	return c.call(ctx, "eval", map[string]any{"expression": expression})
}

func (c *Client) simpleOp(ctx context.Context, cmdType string) (*OpResult, error) {
	var res OpResult
	if err := c.callInto(ctx, cmdType, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
