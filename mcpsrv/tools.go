package mcpsrv

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mkoval/basbridge/bas"
	"github.com/mkoval/basbridge/catalog"
	"github.com/mkoval/basbridge/logs"
)

type emptyArgs struct{}

type moduleArgs struct {
	Module string `json:"module,omitempty"`
}

type actionArgs struct {
	Action string `json:"action"`
}

type actionIDArgs struct {
	ActionID int64 `json:"action_id"`
}

type nameArgs struct {
	Name string `json:"name"`
}

type expressionArgs struct {
	Expression string `json:"expression"`
}

type selectorArgs struct {
	Selector string `json:"selector,omitempty"`
}

type createActionArgs struct {
	Action      string         `json:"action"`
	Params      map[string]any `json:"params,omitempty"`
	AfterID     int64          `json:"after_id,omitempty"`
	ParentID    int64          `json:"parent_id,omitempty"`
	Comment     string         `json:"comment,omitempty"`
	Color       string         `json:"color,omitempty"`
	Execute     bool           `json:"execute,omitempty"`
	IncludeHTML bool           `json:"include_html,omitempty"`
}

type updateActionArgs struct {
	ActionID int64          `json:"action_id"`
	Params   map[string]any `json:"params,omitempty"`
	Comment  *string        `json:"comment,omitempty"`
}

type deleteActionsArgs struct {
	ActionIDs []int64 `json:"action_ids"`
}

type functionArgs struct {
	Name       string `json:"name,omitempty"`
	FunctionID int64  `json:"function_id,omitempty"`
}

type createFunctionArgs struct {
	Name          string `json:"name"`
	AfterFunction string `json:"after_function,omitempty"`
}

type moduleHintArgs struct {
	ModuleHint string `json:"module_hint,omitempty"`
}

type templateArgs struct {
	TemplateID int64             `json:"template_id"`
	Values     map[string]string `json:"values"`
	AfterID    int64             `json:"after_id,omitempty"`
	ParentID   int64             `json:"parent_id,omitempty"`
	Comment    string            `json:"comment,omitempty"`
}

type moduleSchemaArgs struct {
	ModuleName string `json:"module_name"`
	ActionID   int64  `json:"action_id,omitempty"`
}

type cloneArgs struct {
	TemplateID int64             `json:"template_id"`
	NewParams  map[string]string `json:"new_params"`
	Comment    string            `json:"comment,omitempty"`
}

type browserJSArgs struct {
	Code   string `json:"code"`
	SaveTo string `json:"save_to,omitempty"`
}

type loadPageArgs struct {
	URL string `json:"url"`
}

type listLogsArgs struct {
	Limit int `json:"limit,omitempty"`
}

type getLogArgs struct {
	LogName string `json:"log_name,omitempty"`
	Tail    int    `json:"tail,omitempty"`
}

func (s *Server) register() {
	add := func(name, description string) *mcp.Tool {
		return &mcp.Tool{Name: name, Description: description}
	}

	mcp.AddTool(s.mcp, add("bas_ping",
		"Check that the BAS process answers over the file IPC channel."), s.ping)
	mcp.AddTool(s.mcp, add("bas_play",
		"Start or continue script execution."), s.play)
	mcp.AddTool(s.mcp, add("bas_step_next",
		"Execute the next action and pause again."), s.stepNext)
	mcp.AddTool(s.mcp, add("bas_pause",
		"Pause script execution at the current position."), s.pause)
	mcp.AddTool(s.mcp, add("bas_restart",
		"Restart the script in record mode. Waits for BAS to rebuild its browser."), s.restart)
	mcp.AddTool(s.mcp, add("bas_get_status",
		"Get current execution state (is_executing, is_task_executing)."), s.getStatus)

	mcp.AddTool(s.mcp, add("bas_list_modules",
		"List the action modules available in this BAS installation."), s.listModules)
	mcp.AddTool(s.mcp, add("bas_list_actions",
		"List actions of one module; use '*' for all modules."), s.listActions)
	mcp.AddTool(s.mcp, add("bas_get_action_schema",
		"Get the official BAS parameter schema for an action type."), s.getActionSchema)
	mcp.AddTool(s.mcp, add("bas_get_action_help",
		"Get curated usage help for an action type, with parameter notes and a working example. Use '*' to list all documented actions by category."), s.getActionHelp)

	mcp.AddTool(s.mcp, add("bas_get_project",
		"Get every action in the current project with ids, types, parents, and comments."), s.getProject)
	mcp.AddTool(s.mcp, add("bas_create_action",
		"Create an action in the project. Set execute=true to run it immediately. Variable params are auto-normalized (Save targets take plain names, values take [[NAME]])."), s.createAction)
	mcp.AddTool(s.mcp, add("bas_update_action",
		"Update an existing action's params and/or comment."), s.updateAction)
	mcp.AddTool(s.mcp, add("bas_delete_actions",
		"Delete actions by id."), s.deleteActions)
	mcp.AddTool(s.mcp, add("bas_run_from",
		"Start scenario execution at a specific action."), s.runFrom)
	mcp.AddTool(s.mcp, add("bas_move_execution_point",
		"Move the execution point to an action; BAS scrolls to it."), s.moveExecutionPoint)

	mcp.AddTool(s.mcp, add("bas_get_html",
		"Get the full HTML of the current page via an in-page script (reliable on heavy pages)."), s.getHTML)
	mcp.AddTool(s.mcp, add("bas_get_url",
		"Get the current browser page URL."), s.getURL)
	mcp.AddTool(s.mcp, add("bas_load_page",
		"Navigate the browser to a URL through a transient executed action."), s.loadPage)
	mcp.AddTool(s.mcp, add("bas_execute_js",
		"Run JavaScript in the page context. With save_to set, the return value is stored in that variable and returned."), s.executeJS)
	mcp.AddTool(s.mcp, add("bas_screenshot",
		"Take a screenshot of the page or an element and return it as an image."), s.screenshot)
	mcp.AddTool(s.mcp, add("bas_check_element",
		"Check a selector for existence, visibility, and match count in one call."), s.checkElement)

	mcp.AddTool(s.mcp, add("bas_get_variables",
		"List all variables in the project."), s.getVariables)
	mcp.AddTool(s.mcp, add("bas_get_variable",
		"Read one variable's full value. The VAR_ prefix is added automatically."), s.getVariable)
	mcp.AddTool(s.mcp, add("bas_get_resources",
		"List the project's resources."), s.getResources)
	mcp.AddTool(s.mcp, add("bas_get_resource",
		"Read one resource by name."), s.getResource)
	mcp.AddTool(s.mcp, add("bas_eval",
		"Evaluate a JavaScript expression in the BAS scripting context (not the browser page)."), s.eval)

	mcp.AddTool(s.mcp, add("bas_list_functions",
		"List the functions (sections) in the project."), s.listFunctions)
	mcp.AddTool(s.mcp, add("bas_create_function",
		"Create a new empty function, optionally after an existing one."), s.createFunction)
	mcp.AddTool(s.mcp, add("bas_delete_function",
		"Delete a function and its contents. OnApplicationStart cannot be deleted."), s.deleteFunction)
	mcp.AddTool(s.mcp, add("bas_open_function",
		"Scroll the BAS UI to a function."), s.openFunction)
	mcp.AddTool(s.mcp, add("bas_get_function_actions",
		"Get the actions inside a function."), s.getFunctionActions)

	mcp.AddTool(s.mcp, add("bas_find_modules",
		"Find module actions (SQL, SMS, captcha, ...) in the project, optionally filtered by hint."), s.findModules)
	mcp.AddTool(s.mcp, add("bas_analyze_module",
		"Analyze a module action and guess what each opaque parameter does."), s.analyzeModule)
	mcp.AddTool(s.mcp, add("bas_create_from_template",
		"Create a module action from an existing one, replacing values addressed by guessed purpose."), s.createFromTemplate)
	mcp.AddTool(s.mcp, add("bas_get_module_schema",
		"Get a module's parameter schema from its interface definition file."), s.getModuleSchema)
	mcp.AddTool(s.mcp, add("bas_clone_module_action",
		"Clone a module action with parameter overrides keyed by parameter id."), s.cloneModuleAction)

	mcp.AddTool(s.mcp, add("bas_list_logs",
		"List BAS execution log files, newest first."), s.listLogs)
	mcp.AddTool(s.mcp, add("bas_get_log",
		"Read a BAS log file; empty log_name means the newest one. tail limits to the last N lines."), s.getLog)
}

func (s *Server) ping(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[emptyArgs]) (*toolResult, error) {
	if !s.client.Ping(ctx) {
		return failure("No response from BAS")
	}
	return textResult(map[string]any{"success": true, "message": "Connected to BAS"})
}

func (s *Server) play(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[emptyArgs]) (*toolResult, error) {
	return opResult(s.client.Play(ctx))
}

func (s *Server) stepNext(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[emptyArgs]) (*toolResult, error) {
	return opResult(s.client.StepNext(ctx))
}

func (s *Server) pause(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[emptyArgs]) (*toolResult, error) {
	return opResult(s.client.Pause(ctx))
}

func (s *Server) restart(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[emptyArgs]) (*toolResult, error) {
	return opResult(s.client.Restart(ctx))
}

func (s *Server) getStatus(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[emptyArgs]) (*toolResult, error) {
	st, err := s.client.GetStatus(ctx)
	if err != nil {
		return failureErr(err)
	}
	return textResult(st)
}

func (s *Server) listModules(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[emptyArgs]) (*toolResult, error) {
	raw, err := s.client.ListModules(ctx)
	if err != nil {
		return failureErr(err)
	}
	return textResult(wrapList("modules", raw))
}

func (s *Server) listActions(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[moduleArgs]) (*toolResult, error) {
	module := params.Arguments.Module
	if module == "" {
		module = "*"
	}
	raw, err := s.client.ListActions(ctx, module)
	if err != nil {
		return failureErr(err)
	}
	payload := wrapList("actions", raw)
	payload["module"] = module
	return textResult(payload)
}

func (s *Server) getActionSchema(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[actionArgs]) (*toolResult, error) {
	raw, err := s.client.GetActionSchema(ctx, params.Arguments.Action)
	if err != nil {
		return failureErr(err)
	}
	return textResult(rawPayload(raw))
}

func (s *Server) getActionHelp(_ context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[actionArgs]) (*toolResult, error) {
	action := params.Arguments.Action
	if action == "" {
		return failure("action is required")
	}
	if action == "*" {
		type summary struct {
			Action       string `json:"action"`
			Name         string `json:"name"`
			RequiresPath bool   `json:"requires_path"`
		}
		categories := make(map[string][]summary)
		for cat, group := range catalog.Categories() {
			for _, h := range group {
				categories[cat] = append(categories[cat], summary{h.Action, h.Name, h.RequiresPath})
			}
		}
		return textResult(map[string]any{
			"success":       true,
			"categories":    categories,
			"total_actions": len(catalog.Actions()),
		})
	}
	h, ok := catalog.Lookup(action)
	if !ok {
		return textResult(map[string]any{
			"success":    false,
			"error":      "Action '" + action + "' not in help database",
			"suggestion": "Try bas_get_action_schema for the official schema, or bas_get_action_help with action='*' to see all documented actions",
		})
	}
	return textResult(h)
}

func (s *Server) getProject(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[emptyArgs]) (*toolResult, error) {
	actions, err := s.client.GetProject(ctx)
	if err != nil {
		return failureErr(err)
	}
	return textResult(map[string]any{"actions": actions, "count": len(actions)})
}

func (s *Server) createAction(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[createActionArgs]) (*toolResult, error) {
	a := params.Arguments
	res, err := s.client.CreateAction(ctx, bas.CreateActionRequest{
		Action:      a.Action,
		Params:      normalizeVariableParams(a.Params),
		AfterID:     a.AfterID,
		ParentID:    a.ParentID,
		Comment:     a.Comment,
		Color:       a.Color,
		Execute:     a.Execute,
		IncludeHTML: a.IncludeHTML,
	})
	if err != nil {
		return failureErr(err)
	}
	return textResult(res)
}

func (s *Server) updateAction(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[updateActionArgs]) (*toolResult, error) {
	a := params.Arguments
	res, err := s.client.UpdateAction(ctx, a.ActionID, normalizeVariableParams(a.Params), a.Comment)
	if err != nil {
		return failureErr(err)
	}
	return textResult(res)
}

func (s *Server) deleteActions(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[deleteActionsArgs]) (*toolResult, error) {
	if err := s.client.DeleteActions(ctx, params.Arguments.ActionIDs); err != nil {
		return failureErr(err)
	}
	return textResult(map[string]any{"success": true, "deleted": len(params.Arguments.ActionIDs)})
}

func (s *Server) runFrom(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[actionIDArgs]) (*toolResult, error) {
	return opResult(s.client.RunFrom(ctx, params.Arguments.ActionID))
}

func (s *Server) moveExecutionPoint(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[actionIDArgs]) (*toolResult, error) {
	return opResult(s.client.MoveTo(ctx, params.Arguments.ActionID))
}

func (s *Server) getHTML(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[emptyArgs]) (*toolResult, error) {
	html, err := s.client.PageHTML(ctx)
	if err != nil {
		return failureErr(err)
	}
	return textResult(map[string]any{"success": true, "html": html, "length": len(html)})
}

func (s *Server) getURL(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[emptyArgs]) (*toolResult, error) {
	raw, err := s.client.GetURL(ctx)
	if err != nil {
		return failureErr(err)
	}
	return textResult(rawPayload(raw))
}

func (s *Server) loadPage(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[loadPageArgs]) (*toolResult, error) {
	if params.Arguments.URL == "" {
		return failure("url is required")
	}
	if err := s.client.LoadPage(ctx, params.Arguments.URL); err != nil {
		return failureErr(err)
	}
	return textResult(map[string]any{"success": true, "url": params.Arguments.URL})
}

func (s *Server) executeJS(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[browserJSArgs]) (*toolResult, error) {
	a := params.Arguments
	if a.Code == "" {
		return failure("code is required")
	}
	saveTo := strings.TrimPrefix(a.SaveTo, "VAR_")
	saveTo = strings.Trim(saveTo, "[]")
	v, err := s.client.ExecuteBrowserJS(ctx, a.Code, saveTo)
	if err != nil {
		return failureErr(err)
	}
	payload := map[string]any{"success": true}
	if v != nil {
		payload["value"] = rawPayload(v.Value)
		payload["variable"] = saveTo
	}
	return textResult(payload)
}

func (s *Server) screenshot(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[selectorArgs]) (*toolResult, error) {
	data, err := s.client.Screenshot(ctx, params.Arguments.Selector)
	if err != nil {
		return failureErr(err)
	}
	img, mimeType, err := decodeImageData(data)
	if err != nil {
		return failureErr(err)
	}
	return &toolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Screenshot captured successfully:"},
			&mcp.ImageContent{Data: img, MIMEType: mimeType},
		},
	}, nil
}

func (s *Server) checkElement(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[selectorArgs]) (*toolResult, error) {
	if params.Arguments.Selector == "" {
		return failure("selector is required")
	}
	probe, err := s.client.CheckElement(ctx, params.Arguments.Selector)
	if err != nil {
		return failureErr(err)
	}
	return textResult(probe)
}

func (s *Server) getVariables(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[emptyArgs]) (*toolResult, error) {
	raw, err := s.client.GetVariables(ctx)
	if err != nil {
		return failureErr(err)
	}
	return textResult(rawPayload(raw))
}

func (s *Server) getVariable(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[nameArgs]) (*toolResult, error) {
	name := params.Arguments.Name
	if name != "" && !strings.HasPrefix(name, "VAR_") {
		name = "VAR_" + name
	}
	v, err := s.client.GetVariable(ctx, name)
	if err != nil {
		return failureErr(err)
	}
	return textResult(v)
}

func (s *Server) getResources(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[emptyArgs]) (*toolResult, error) {
	raw, err := s.client.GetResources(ctx)
	if err != nil {
		return failureErr(err)
	}
	return textResult(rawPayload(raw))
}

func (s *Server) getResource(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[nameArgs]) (*toolResult, error) {
	raw, err := s.client.GetResource(ctx, params.Arguments.Name)
	if err != nil {
		return failureErr(err)
	}
	return textResult(rawPayload(raw))
}

func (s *Server) eval(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[expressionArgs]) (*toolResult, error) {
	raw, err := s.client.Eval(ctx, params.Arguments.Expression)
	if err != nil {
		return failureErr(err)
	}
	return textResult(rawPayload(raw))
}

func (s *Server) listFunctions(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[emptyArgs]) (*toolResult, error) {
	funcs, err := s.client.ListFunctions(ctx)
	if err != nil {
		return failureErr(err)
	}
	return textResult(map[string]any{"success": true, "functions": funcs, "count": len(funcs)})
}

func (s *Server) createFunction(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[createFunctionArgs]) (*toolResult, error) {
	a := params.Arguments
	if a.Name == "" {
		return failure("name is required")
	}
	res, err := s.client.CreateFunction(ctx, a.Name, a.AfterFunction)
	if err != nil {
		return failureErr(err)
	}
	return textResult(res)
}

func (s *Server) deleteFunction(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[functionArgs]) (*toolResult, error) {
	a := params.Arguments
	if a.Name == "OnApplicationStart" {
		return failure("Cannot delete OnApplicationStart function")
	}
	count, err := s.client.DeleteFunction(ctx, a.Name, a.FunctionID, true)
	if err != nil {
		return failureErr(err)
	}
	return textResult(map[string]any{"success": true, "deleted_count": count})
}

func (s *Server) openFunction(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[functionArgs]) (*toolResult, error) {
	fn, err := s.client.OpenFunction(ctx, params.Arguments.Name, params.Arguments.FunctionID)
	if err != nil {
		return failureErr(err)
	}
	return textResult(map[string]any{"success": true, "function": fn})
}

func (s *Server) getFunctionActions(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[functionArgs]) (*toolResult, error) {
	fn, body, err := s.client.GetFunctionActions(ctx, params.Arguments.Name, params.Arguments.FunctionID)
	if err != nil {
		return failureErr(err)
	}
	return textResult(map[string]any{
		"success":  true,
		"function": fn,
		"actions":  body,
		"count":    len(body),
	})
}

func (s *Server) findModules(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[moduleHintArgs]) (*toolResult, error) {
	matches, err := s.client.FindModuleActions(ctx, params.Arguments.ModuleHint)
	if err != nil {
		return failureErr(err)
	}
	return textResult(map[string]any{"success": true, "modules": matches, "count": len(matches)})
}

func (s *Server) analyzeModule(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[actionIDArgs]) (*toolResult, error) {
	if params.Arguments.ActionID == 0 {
		return failure("action_id is required")
	}
	analysis, err := s.client.AnalyzeModuleAction(ctx, params.Arguments.ActionID)
	if err != nil {
		return failureErr(err)
	}
	return textResult(analysis)
}

func (s *Server) createFromTemplate(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[templateArgs]) (*toolResult, error) {
	a := params.Arguments
	if a.TemplateID == 0 {
		return failure("template_id is required")
	}
	if len(a.Values) == 0 {
		return failure("values dict is required")
	}
	res, mapped, err := s.client.CreateModuleActionFromTemplate(ctx, a.TemplateID, a.Values, a.AfterID, a.ParentID, a.Comment)
	if err != nil {
		return failureErr(err)
	}
	return textResult(map[string]any{
		"success":       res.Success,
		"action_id":     res.ActionID,
		"error":         res.Error,
		"mapped_params": mapped,
		"template_id":   a.TemplateID,
	})
}

func (s *Server) getModuleSchema(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[moduleSchemaArgs]) (*toolResult, error) {
	a := params.Arguments
	if a.ModuleName == "" {
		return failure("module_name is required")
	}
	schema, err := s.client.GetModuleSchema(ctx, a.ModuleName, a.ActionID)
	if err != nil {
		return failureErr(err)
	}
	return textResult(schema)
}

func (s *Server) cloneModuleAction(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[cloneArgs]) (*toolResult, error) {
	a := params.Arguments
	if a.TemplateID == 0 {
		return failure("template_id is required")
	}
	if len(a.NewParams) == 0 {
		return failure("new_params dict is required")
	}
	raw, err := s.client.CloneModuleAction(ctx, a.TemplateID, a.NewParams, a.Comment)
	if err != nil {
		return failureErr(err)
	}
	return textResult(rawPayload(raw))
}

func (s *Server) listLogs(_ context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[listLogsArgs]) (*toolResult, error) {
	if s.logsDir == "" {
		return failure("Logs directory not found")
	}
	limit := params.Arguments.Limit
	if limit == 0 {
		limit = 20
	}
	files, err := logs.List(s.logsDir, "", limit)
	if err != nil {
		return failureErr(err)
	}
	return textResult(map[string]any{
		"success":  true,
		"logs_dir": s.logsDir,
		"logs":     files,
		"count":    len(files),
	})
}

func (s *Server) getLog(_ context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[getLogArgs]) (*toolResult, error) {
	if s.logsDir == "" {
		return failure("Logs directory not found")
	}
	content, err := logs.Read(s.logsDir, params.Arguments.LogName, params.Arguments.Tail)
	if err != nil {
		return failureErr(err)
	}
	return textResult(content)
}

func opResult(res *bas.OpResult, err error) (*toolResult, error) {
	if err != nil {
		return failureErr(err)
	}
	return textResult(res)
}

// rawPayload re-decodes a host payload so it renders as structured JSON
// instead of an escaped string.
func rawPayload(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

// wrapList wraps a raw array payload under a key with its length; non-array
// payloads are passed through under the same key.
func wrapList(key string, raw json.RawMessage) map[string]any {
	var items []any
	if err := json.Unmarshal(raw, &items); err == nil {
		return map[string]any{key: items, "count": len(items)}
	}
	return map[string]any{key: rawPayload(raw)}
}

// decodeImageData turns the host's screenshot value, either a bare base64
// string or a data URL, into image bytes and a MIME type.
func decodeImageData(data string) ([]byte, string, error) {
	mimeType := "image/png"
	if strings.HasPrefix(data, "data:") {
		header, rest, ok := strings.Cut(data, ",")
		if ok {
			data = rest
			if mt, _, found := strings.Cut(strings.TrimPrefix(header, "data:"), ";"); found && mt != "" {
				mimeType = mt
			}
		}
	}
	img, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", err
	}
	return img, mimeType, nil
}
