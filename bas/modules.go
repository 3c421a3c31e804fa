package bas

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/mkoval/basbridge/errors"
)

// Module actions (premium BAS modules) obfuscate their parameter names, so
// working with them needs heuristics: guess what each opaque parameter does
// from its value, or read the module's interface.js straight from the BAS
// installation next to the IPC directory.

// ParamGuess is one analyzed parameter of a module action.
type ParamGuess struct {
	Value       string `json:"value"`
	Purpose     string `json:"guessed_purpose"`
	Description string `json:"description"`
}

// ModuleAnalysis maps a module action's opaque parameter names to guessed
// purposes.
type ModuleAnalysis struct {
	ActionID   int64                 `json:"action_id"`
	ActionType string                `json:"action_type"`
	Comment    string                `json:"comment"`
	Params     map[string]ParamGuess `json:"params_mapping"`
}

// AnalyzeModuleAction inspects an existing action and guesses the purpose
// of each parameter from its value patterns.
func (c *Client) AnalyzeModuleAction(ctx context.Context, actionID int64) (*ModuleAnalysis, error) {
	project, err := c.GetProject(ctx)
	if err != nil {
		return nil, err
	}
	action := findAction(project, actionID)
	if action == nil {
		return nil, errors.New("action %d not found in project", actionID)
	}

	analysis := &ModuleAnalysis{
		ActionID:   actionID,
		ActionType: action.Type,
		Comment:    action.Comment,
		Params:     make(map[string]ParamGuess, len(action.Params)),
	}
	for name, value := range action.Params {
		analysis.Params[name] = guessParam(name, fmt.Sprintf("%v", value))
	}
	return analysis, nil
}

func findAction(project []ProjectAction, id int64) *ProjectAction {
	for i := range project {
		if project[i].ID == id {
			return &project[i]
		}
	}
	return nil
}

var regexHint = regexp.MustCompile(`\\d|\\w|\[0-9\]`)

func guessParam(name, value string) ParamGuess {
	lower := strings.ToLower(name)
	upperVal := strings.ToUpper(value)

	guess := func(purpose, description string) ParamGuess {
		display := value
		if len(display) > 100 {
			display = display[:100] + "..."
		}
		return ParamGuess{Value: display, Purpose: purpose, Description: description}
	}

	switch {
	case name == "FunctionName" || name == "Save" || strings.HasPrefix(name, "Check"):
		return guess(lower, "Standard BAS parameter: "+name)
	case strings.HasPrefix(lower, "save") || strings.HasSuffix(lower, "save"):
		return guess("save_variable", "Variable to save result: "+name)
	case strings.HasPrefix(lower, "get") || strings.HasPrefix(lower, "enable"):
		return guess("boolean_option", "Enable/get option: "+name)
	case strings.HasPrefix(lower, "del") || strings.HasSuffix(lower, "after"):
		return guess("action_flag", "Action flag: "+name)
	case strings.Contains(value, "[[") && (strings.Contains(upperVal, "NUMBER") || strings.Contains(upperVal, "PHONE")):
		return guess("phone_number", "Phone number variable")
	case strings.HasPrefix(value, "+") && strings.ContainsAny(value, "0123456789"):
		return guess("phone_number", "Phone number value")
	case strings.Contains(value, "(") && strings.Contains(value, ")") && regexHint.MatchString(value):
		return guess("regex_pattern", "Regular expression for parsing")
	case strings.HasPrefix(strings.TrimSpace(value), ">CSS>") || strings.HasPrefix(strings.TrimSpace(value), ">XPATH>"):
		return guess("element_selector", "Element selector (PATH format)")
	case strings.HasPrefix(value, ".") || strings.HasPrefix(value, "#"):
		return guess("css_selector", "CSS selector for element")
	case strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://"):
		return guess("url", "URL endpoint")
	case isDigits(value):
		if n, _ := strconv.Atoi(value); n >= 1000 {
			return guess("timeout_ms", "Timeout in milliseconds")
		}
		return guess("numeric", "Numeric value (count, index, etc.)")
	case strings.EqualFold(value, "true") || strings.EqualFold(value, "false"):
		return guess("boolean", "Boolean flag")
	case strings.Count(value, "|") > 3:
		return guess("filter_pattern", "Filter pattern (characters or words to match)")
	case strings.HasPrefix(value, "[[") && strings.HasSuffix(value, "]]"):
		return guess("variable_reference", "Variable: "+value)
	case len(value) >= 8 && len(value) <= 32 && isHex(value):
		return guess("service_id", "Service/API identifier")
	case len(value) > 20 && isAlnum(value):
		g := guess("api_key_or_id", "API key or service ID (hidden)")
		g.Value = "***HIDDEN***"
		return g
	case containsAnyFold(value, "SELECT", "INSERT", "UPDATE", "DELETE", "CREATE"):
		return guess("sql_query", "SQL query")
	}
	return guess("unknown", "")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isHex(s string) bool {
	for _, r := range strings.ToLower(s) {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return s != ""
}

func isAlnum(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return s != ""
}

func containsAnyFold(s string, subs ...string) bool {
	upper := strings.ToUpper(s)
	for _, sub := range subs {
		if strings.Contains(upper, sub) {
			return true
		}
	}
	return false
}

// ModuleMatch is one detected module action in the project.
type ModuleMatch struct {
	ActionID       int64             `json:"action_id"`
	ActionType     string            `json:"action_type"`
	DetectedModule string            `json:"detected_module"`
	Comment        string            `json:"comment"`
	ParamsPreview  map[string]string `json:"params_preview"`
}

// FindModuleActions scans the project for call and call_function actions
// and classifies them by the module family their parameters suggest. A
// non-empty hint filters to one family.
func (c *Client) FindModuleActions(ctx context.Context, hint string) ([]ModuleMatch, error) {
	project, err := c.GetProject(ctx)
	if err != nil {
		return nil, err
	}
	hint = strings.ToLower(hint)

	var matches []ModuleMatch
	for _, a := range project {
		if a.Type != "call" && a.Type != "call_function" {
			continue
		}
		detected := detectModule(a.Params)
		if hint != "" && hint != detected {
			continue
		}
		if a.Type == "call_function" && !hasCustomParams(a.Params) {
			continue
		}
		matches = append(matches, ModuleMatch{
			ActionID:       a.ID,
			ActionType:     a.Type,
			DetectedModule: detected,
			Comment:        a.Comment,
			ParamsPreview:  previewParams(a.Params),
		})
	}
	return matches, nil
}

func detectModule(params map[string]any) string {
	blob, _ := json.Marshal(params)
	s := strings.ToLower(string(blob))

	_, hasQuery := params["query"]
	switch {
	case hasQuery && (strings.Contains(s, "select") || strings.Contains(s, "insert")):
		return "sql"
	case strings.Contains(s, "geetest") || strings.Contains(s, "captcha"):
		return "captcha"
	case strings.Contains(s, "fingerprint") || strings.Contains(s, "canvas") || strings.Contains(s, "webgl"):
		return "fingerprint"
	case containsAny(s, "vpn", "proxy_data", "udp"):
		return "vpn"
	case containsAny(s, "imap", "inbox", "mail", "getsubject", "getbody"):
		return "imap"
	case containsAny(s, "phone", "number", "sms", `\d{4`, `\d{5`, `\d{6`):
		return "sms"
	case containsAny(s, "timezone", "geolocation", "ipinfo", "webrtc"):
		return "geolocation"
	}
	return "unknown"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// hasCustomParams reports whether a call_function carries anything beyond
// the standard parameters, which is what marks it as a module invocation.
func hasCustomParams(params map[string]any) bool {
	for k := range params {
		switch k {
		case "FunctionName", "Save", "Check":
		default:
			return true
		}
	}
	return false
}

var secretParam = regexp.MustCompile(`(?i)key|token|pass|secret`)

func previewParams(params map[string]any) map[string]string {
	preview := make(map[string]string, len(params))
	for k, v := range params {
		if len(preview) >= 5 {
			break
		}
		s := fmt.Sprintf("%v", v)
		if len(s) > 30 {
			s = s[:30] + "..."
		}
		if secretParam.MatchString(k) {
			s = "***"
		}
		preview[k] = s
	}
	return preview
}

// SchemaParam is one declared parameter of a module, parsed from its
// interface.js definition.
type SchemaParam struct {
	Kind         string   `json:"type"`
	ID           string   `json:"id"`
	Description  string   `json:"description,omitempty"`
	DataType     string   `json:"data_type,omitempty"`
	Variants     []string `json:"variants,omitempty"`
	DefaultValue any      `json:"default_value,omitempty"`
	CodeName     string   `json:"code_name,omitempty"`
}

// ModuleSchema combines the host's code-to-param mapping with the parameter
// definitions read from the module's interface file.
type ModuleSchema struct {
	ModuleName      string            `json:"module_name"`
	Params          []SchemaParam     `json:"params"`
	CodeParams      map[string]string `json:"code_params"`
	InterfaceLoaded bool              `json:"interface_loaded"`
}

// GetModuleSchema asks the host for a module's code parameter names and
// enriches them with descriptions, types, defaults, and variants parsed
// from <module>_interface.js in the BAS apps directory. A missing interface
// file is not an error; the schema just carries less detail.
func (c *Client) GetModuleSchema(ctx context.Context, moduleName string, actionID int64) (*ModuleSchema, error) {
	schema := &ModuleSchema{
		ModuleName: moduleName,
		CodeParams: map[string]string{},
	}

	data := map[string]any{"module_name": moduleName, "action_id": actionID}
	if raw, err := c.call(ctx, "get-module-schema", data); err == nil {
		var hostSide struct {
			CodeParams map[string]string `json:"code_params"`
		}
		if json.Unmarshal(raw, &hostSide) == nil && hostSide.CodeParams != nil {
			schema.CodeParams = hostSide.CodeParams
		}
	}

	content, err := c.loadModuleInterface(moduleName)
	if err != nil {
		return schema, nil
	}
	schema.Params = parseModuleInterface(content, schema.CodeParams)
	schema.InterfaceLoaded = true
	return schema, nil
}

// loadModuleInterface reads <module>_interface.js from the BAS install.
// The IPC directory sits at apps/<version>/helperipc, so the apps version
// directory is its parent; built-in modules live under custom/ and bought
// ones under external/<numeric id>/.
func (c *Client) loadModuleInterface(moduleName string) (string, error) {
	folder, _, _ := strings.Cut(moduleName, "_")
	appsDir := filepath.Dir(c.ch.Dir())
	filename := moduleName + "_interface.js"

	candidates := []string{filepath.Join(appsDir, "custom", folder, filename)}
	if entries, err := os.ReadDir(filepath.Join(appsDir, "external")); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				candidates = append(candidates, filepath.Join(appsDir, "external", e.Name(), folder, filename))
			}
		}
	}

	for _, path := range candidates {
		if content, err := os.ReadFile(path); err == nil {
			return string(content), nil
		}
	}
	return "", errors.New("interface file %s not found under %s", filename, appsDir)
}

// Interface files are EJS templates; each parameter is a constructor call
// whose object literal carries the definition.
var (
	inputConstructorRe = regexp.MustCompile(`(?s)#input_constructor'\)\.html\(\)\)\(\{(.+?)\}\s*\)\s*%>`)
	varConstructorRe   = regexp.MustCompile(`(?s)#variable_constructor'\)\.html\(\)\)\(\{(.+?)\}\s*\)\s*%>`)

	fieldIDRe          = regexp.MustCompile(`id:\s*"([^"]+)"`)
	fieldDescRe        = regexp.MustCompile(`description:\s*"([^"]+)"`)
	fieldSelectorRe    = regexp.MustCompile(`default_selector:\s*"([^"]+)"`)
	fieldVariantsRe    = regexp.MustCompile(`variants:\s*\[([^\]]+)\]`)
	fieldVariantItemRe = regexp.MustCompile(`"([^"]+)"|(\d+)`)
	fieldValueStrRe    = regexp.MustCompile(`value_string:\s*"([^"]*)"`)
	fieldValueNumRe    = regexp.MustCompile(`value_number:\s*(\d+)`)
	fieldDefaultVarRe  = regexp.MustCompile(`default_variable:\s*"([^"]+)"`)
)

func parseModuleInterface(content string, codeParams map[string]string) []SchemaParam {
	var params []SchemaParam
	for _, m := range inputConstructorRe.FindAllStringSubmatch(content, -1) {
		if p, ok := parseInputConstructor(m[1], codeParams); ok {
			params = append(params, p)
		}
	}
	for _, m := range varConstructorRe.FindAllStringSubmatch(content, -1) {
		if p, ok := parseVariableConstructor(m[1]); ok {
			params = append(params, p)
		}
	}
	return params
}

func parseInputConstructor(content string, codeParams map[string]string) (SchemaParam, bool) {
	p := SchemaParam{Kind: "input"}
	if m := fieldIDRe.FindStringSubmatch(content); m != nil {
		p.ID = m[1]
	}
	if m := fieldDescRe.FindStringSubmatch(content); m != nil {
		p.Description = m[1]
	}
	if m := fieldSelectorRe.FindStringSubmatch(content); m != nil {
		p.DataType = m[1]
	}
	if m := fieldVariantsRe.FindStringSubmatch(content); m != nil {
		for _, item := range fieldVariantItemRe.FindAllStringSubmatch(m[1], -1) {
			if item[1] != "" {
				p.Variants = append(p.Variants, item[1])
			} else {
				p.Variants = append(p.Variants, item[2])
			}
		}
	}
	if m := fieldValueStrRe.FindStringSubmatch(content); m != nil {
		p.DefaultValue = m[1]
	}
	if m := fieldValueNumRe.FindStringSubmatch(content); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			p.DefaultValue = n
		}
	}
	if p.Description != "" {
		if code, ok := codeParams[strings.ToLower(p.Description)]; ok {
			p.CodeName = code
		}
	}
	return p, p.ID != ""
}

func parseVariableConstructor(content string) (SchemaParam, bool) {
	p := SchemaParam{Kind: "variable", DataType: "variable"}
	if m := fieldIDRe.FindStringSubmatch(content); m != nil {
		p.ID = m[1]
	}
	if m := fieldDescRe.FindStringSubmatch(content); m != nil {
		p.Description = m[1]
	}
	if m := fieldDefaultVarRe.FindStringSubmatch(content); m != nil {
		p.DefaultValue = m[1]
	}
	return p, p.ID != ""
}

// CloneModuleAction lets the host clone a module action with parameter
// overrides keyed by the module's opaque parameter IDs. The host owns this
// because module actions embed encoded state a plain create cannot rebuild.
func (c *Client) CloneModuleAction(ctx context.Context, templateID int64, newParams map[string]string, comment string) (json.RawMessage, error) {
	return c.call(ctx, "clone-module-action", map[string]any{
		"template_id": templateID,
		"new_params":  newParams,
		"comment":     comment,
	})
}

// MappedParam records one template parameter replaced while instantiating
// from a template.
type MappedParam struct {
	Purpose  string `json:"purpose"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// CreateModuleActionFromTemplate copies an existing module action,
// substituting values addressed by guessed purpose (or literal parameter
// name as a fallback) so callers can say "phone_number" instead of the
// module's random parameter ID.
func (c *Client) CreateModuleActionFromTemplate(ctx context.Context, templateID int64, newValues map[string]string, afterID, parentID int64, comment string) (*CreateActionResult, map[string]MappedParam, error) {
	analysis, err := c.AnalyzeModuleAction(ctx, templateID)
	if err != nil {
		return nil, nil, err
	}
	project, err := c.GetProject(ctx)
	if err != nil {
		return nil, nil, err
	}
	template := findAction(project, templateID)
	if template == nil {
		return nil, nil, errors.New("template action %d not found", templateID)
	}

	params := make(map[string]any, len(template.Params))
	for k, v := range template.Params {
		params[k] = v
	}
	mapped := make(map[string]MappedParam)
	for name, info := range analysis.Params {
		newValue, ok := newValues[info.Purpose]
		if !ok {
			newValue, ok = newValues[name]
		}
		if !ok {
			continue
		}
		params[name] = newValue
		mapped[name] = MappedParam{Purpose: info.Purpose, OldValue: info.Value, NewValue: newValue}
	}

	if comment == "" {
		comment = template.Comment
	}
	res, err := c.CreateAction(ctx, CreateActionRequest{
		Action:   template.Type,
		Params:   params,
		AfterID:  afterID,
		ParentID: parentID,
		Comment:  comment,
		Color:    template.Color,
	})
	if err != nil {
		return nil, nil, err
	}
	return res, mapped, nil
}
