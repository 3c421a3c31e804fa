package bas

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkoval/basbridge/errors"
)

// ExecError reports that the host created and ran an action but execution
// did not complete. It is distinct from transport errors (the host never
// answered) and from refusals (the host rejected the action outright).
type ExecError struct {
	Action string
	Detail string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s execution failed: %s", e.Action, e.Detail)
}

// tempComment values mark transient actions so a human scanning the project
// tree can tell them from script content if cleanup ever failed.
const (
	tempLoadComment       = "_temp_load_"
	tempHTMLComment       = "_temp_html_"
	tempJSComment         = "_temp_js_"
	tempScreenshotComment = "_temp_screenshot_"
	tempCheckComment      = "_temp_check_"
)

// varSuffix returns a short unique tag for ephemeral variable names, so
// concurrent bridges against the same project never collide.
func varSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// runEphemeral creates a transient executed action, optionally reads one
// result variable, and deletes the action again on every path once it
// exists. Cleanup runs detached from ctx so a cancelled caller still leaves
// the project tree unchanged.
func (c *Client) runEphemeral(ctx context.Context, action string, params map[string]any, comment, resultVar string) (*Variable, error) {
	res, err := c.CreateAction(ctx, CreateActionRequest{
		Action:  action,
		Params:  params,
		Comment: comment,
		Execute: true,
	})
	if err != nil {
		return nil, err
	}
	if res.ActionID > 0 {
		defer c.cleanup(context.WithoutCancel(ctx), res.ActionID)
	}
	if !res.Success {
		return nil, errors.New("host refused %s action: %s", action, res.Error)
	}
	if res.ExecutionResult != ExecutionCompleted {
		return nil, &ExecError{Action: action, Detail: executionDetail(res)}
	}
	if resultVar == "" {
		return nil, nil
	}
	return c.GetVariable(ctx, "VAR_"+resultVar)
}

// cleanup deletes transient actions, logging failures instead of
// propagating them. A leftover action is cosmetic debris in the project
// tree, not a reason to mask the call's real outcome.
func (c *Client) cleanup(ctx context.Context, actionIDs ...int64) {
	if len(actionIDs) == 0 {
		return
	}
	if err := c.DeleteActions(ctx, actionIDs); err != nil {
		c.logger.Warn("ephemeral action cleanup failed",
			zap.Int64s("action_ids", actionIDs), zap.Error(err))
	}
}

func executionDetail(res *CreateActionResult) string {
	if res.ExecutionError != "" {
		return res.ExecutionError
	}
	if res.ExecutionResult != "" {
		return res.ExecutionResult
	}
	return "no execution result reported"
}

// LoadPage navigates the browser to a URL through a transient load action.
func (c *Client) LoadPage(ctx context.Context, url string) error {
	_, err := c.runEphemeral(ctx, "load", map[string]any{"LoadUrl": url}, tempLoadComment, "")
	return err
}

// PageHTML captures the full current page HTML by running script inside the
// page and reading it back through a uniquely named variable. This path
// works on pages where the host's own get-html times out.
func (c *Client) PageHTML(ctx context.Context) (string, error) {
	name := "HTML_" + varSuffix()
	code := fmt.Sprintf("[[%s]] = await (async () => { return document.documentElement.outerHTML; })();", name)
	v, err := c.runEphemeral(ctx, "browserjavascript", map[string]any{"Code": code}, tempHTMLComment, name)
	if err != nil {
		return "", err
	}
	if !v.Success {
		return "", errors.New("page HTML variable read failed: %s", v.Error)
	}
	return v.String(), nil
}

// ExecuteBrowserJS runs JavaScript in the page context. With saveTo set the
// code is wrapped so its return value lands in that variable, which is read
// back and returned; without it the script runs for its side effects and
// the returned variable is nil.
func (c *Client) ExecuteBrowserJS(ctx context.Context, code, saveTo string) (*Variable, error) {
	if saveTo != "" {
		code = fmt.Sprintf("[[%s]] = await (async () => { %s })();", saveTo, code)
	}
	return c.runEphemeral(ctx, "browserjavascript", map[string]any{"Code": code}, tempJSComment, saveTo)
}

// Screenshot captures an element (default the whole page) and returns the
// image data string the host produced, typically a base64 data URL.
func (c *Client) Screenshot(ctx context.Context, selector string) (string, error) {
	if selector == "" {
		selector = ">CSS> html"
	}
	name := "SCREENSHOT_" + varSuffix()
	params := map[string]any{"PATH": selector, "Save": fmt.Sprintf("[[%s]]", name)}
	v, err := c.runEphemeral(ctx, "screenshot", params, tempScreenshotComment, name)
	if err != nil {
		return "", err
	}
	if !v.Success {
		return "", errors.New("screenshot variable read failed: %s", v.Error)
	}
	return v.String(), nil
}

// ElementProbe is the combined answer of CheckElement.
type ElementProbe struct {
	Selector string `json:"selector"`
	Exists   bool   `json:"exists"`
	Visible  bool   `json:"visible"`
	Count    int64  `json:"count"`
}

// CheckElement probes a selector for existence, visibility, and match count
// in one pass. It creates three executed actions and deletes them together
// at the end; a partial failure still cleans up whatever was created.
func (c *Client) CheckElement(ctx context.Context, selector string) (*ElementProbe, error) {
	suffix := varSuffix()
	probes := []struct {
		action string
		params map[string]any
		name   string
	}{
		{"exist", map[string]any{"PATH": selector}, "EXISTS_" + suffix},
		{"exist", map[string]any{"PATH": selector, "Check": true}, "VISIBLE_" + suffix},
		{"length", map[string]any{"PATH": selector}, "COUNT_" + suffix},
	}

	var created []int64
	defer func() {
		c.cleanup(context.WithoutCancel(ctx), created...)
	}()

	vars := make([]*Variable, 0, len(probes))
	for _, p := range probes {
		params := make(map[string]any, len(p.params)+1)
		for k, val := range p.params {
			params[k] = val
		}
		params["Save"] = fmt.Sprintf("[[%s]]", p.name)

		res, err := c.CreateAction(ctx, CreateActionRequest{
			Action:  p.action,
			Params:  params,
			Comment: tempCheckComment,
			Execute: true,
		})
		if err != nil {
			return nil, err
		}
		if res.ActionID > 0 {
			created = append(created, res.ActionID)
		}
		if !res.Success {
			return nil, errors.New("host refused %s probe: %s", p.action, res.Error)
		}
		if res.ExecutionResult != ExecutionCompleted {
			return nil, &ExecError{Action: p.action, Detail: executionDetail(res)}
		}
		v, err := c.GetVariable(ctx, "VAR_"+p.name)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}

	count, err := vars[2].Int()
	if err != nil {
		return nil, errors.Wrapf(err, "element count is not a number")
	}
	return &ElementProbe{
		Selector: selector,
		Exists:   vars[0].Bool(),
		Visible:  vars[1].Bool(),
		Count:    count,
	}, nil
}

// idlePollInterval spaces the status polls of WaitForIdle.
var idlePollInterval = 200 * time.Millisecond

// WaitForIdle polls the host until no script or task is executing, or the
// timeout elapses. It reports whether idle state was reached.
func (c *Client) WaitForIdle(ctx context.Context, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		st, err := c.GetStatus(ctx)
		if err == nil && !st.IsExecuting && !st.IsTaskExecuting {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		select {
		case <-time.After(idlePollInterval):
		case <-ctx.Done():
			return false
		}
	}
}

// LoadAndGetHTML navigates to a URL and returns the resulting page HTML in
// one step.
func (c *Client) LoadAndGetHTML(ctx context.Context, url string) (string, error) {
	if err := c.LoadPage(ctx, url); err != nil {
		return "", err
	}
	return c.PageHTML(ctx)
}
