// Package catalog holds curated help for the most used BAS action types.
// The host's own get-action-schema returns raw parameter schemas; this
// catalog adds the usage knowledge that is not encoded anywhere in BAS:
// what an action is for, which parameters matter, and a working example.
package catalog

import "sort"

// Help documents one action type.
type Help struct {
	Action       string            `json:"action"`
	Name         string            `json:"name"`
	Category     string            `json:"category"`
	Description  string            `json:"description"`
	Params       map[string]string `json:"params,omitempty"`
	Example      map[string]any    `json:"example,omitempty"`
	RequiresPath bool              `json:"requires_path,omitempty"`
}

var actions = map[string]Help{
	"load": {
		Name:        "Load URL",
		Category:    "Browser Navigation",
		Description: "Navigate browser to specified URL",
		Params: map[string]string{
			"LoadUrl":  "(required) URL to load, can include [[VARIABLES]]",
			"Referrer": "(optional) Referrer URL to send",
		},
		Example: map[string]any{"LoadUrl": "https://example.com"},
	},
	"url": {
		Name:        "Get Current URL",
		Category:    "Browser Navigation",
		Description: "Save current page URL to a variable",
		Params: map[string]string{
			"SaveUrl": "(required) Variable name to save URL (without VAR_ prefix)",
		},
		Example: map[string]any{"SaveUrl": "CURRENT_URL"},
	},
	"page": {
		Name:        "Execute Page JavaScript",
		Category:    "Browser Navigation",
		Description: "Execute JavaScript code on the current page context",
		Params: map[string]string{
			"Code": "(required) JavaScript code to execute",
		},
		Example: map[string]any{"Code": "document.querySelector('iframe').remove();"},
	},
	"browserjavascript": {
		Name:        "Execute Browser JavaScript",
		Category:    "Browser Navigation",
		Description: "Run async JavaScript in the page and save the result with [[VARIABLE]] assignment",
		Params: map[string]string{
			"Code": "(required) JavaScript code; assign to [[VAR]] to save a result",
		},
		Example: map[string]any{"Code": "[[TITLE]] = await (async () => { return document.title; })();"},
	},
	"wait_element_visible": {
		Name:         "Wait For Element & Click",
		Category:     "Element Interaction",
		Description:  "Wait for element to become visible, then optionally click it. Most common click action",
		RequiresPath: true,
		Params: map[string]string{
			"PATH":         "(required) Element selector: >CSS> #id, >XPATH> //button",
			"Select":       "(optional) Click button: 'left', 'right', 'middle'",
			"Check":        "(optional) If true, also clicks the element",
			"TypeData":     "(optional) Text to type after clicking",
			"TypeInterval": "(optional) Typing speed in ms",
		},
		Example: map[string]any{"PATH": ">CSS> #login-btn", "Select": "left"},
	},
	"wait_element": {
		Name:         "Wait For Element",
		Category:     "Element Interaction",
		Description:  "Wait for element to appear in DOM (not necessarily visible)",
		RequiresPath: true,
		Params: map[string]string{
			"PATH":     "(required) Element selector",
			"SaveXml":  "(optional) Save element's outer HTML to variable",
			"SaveText": "(optional) Save element's text content to variable",
		},
		Example: map[string]any{"PATH": ">CSS> .result", "SaveText": "RESULT_TEXT"},
	},
	"get_element_selector": {
		Name:         "Check Element Exists",
		Category:     "Element Interaction",
		Description:  "Check if element exists, with option to check visibility",
		RequiresPath: true,
		Params: map[string]string{
			"PATH":  "(required) Element selector",
			"Save":  "(required) Variable name to save result (true/false)",
			"Check": "(optional) If true, checks visibility too; if false, only DOM existence",
		},
		Example: map[string]any{"PATH": ">CSS> #submit-btn", "Save": "IS_EXISTS", "Check": true},
	},
	"type": {
		Name:        "Type Text",
		Category:    "Element Interaction",
		Description: "Type text into the currently focused element (use after click)",
		Params: map[string]string{
			"TypeData":     "(required) Text to type. Special keys: <RETURN>, <TAB>, <ESCAPE>, <BACKSPACE>",
			"TypeInterval": "(optional) Delay between keystrokes in ms, default '100'",
		},
		Example: map[string]any{"TypeData": "username<TAB>password<RETURN>", "TypeInterval": "50"},
	},
	"sleep": {
		Name:        "Sleep/Delay",
		Category:    "Delays",
		Description: "Pause execution for specified time",
		Params: map[string]string{
			"sleepfrom":   "(required) Minimum delay in milliseconds",
			"sleepto":     "(required) Maximum delay in milliseconds (for random delay)",
			"sleeprandom": "(optional) If true, uses random delay between from-to",
		},
		Example: map[string]any{"sleepfrom": "1000", "sleepto": "3000"},
	},
	"waiter_timeout_next": {
		Name:        "Set Timeout For Next Waiter",
		Category:    "Delays",
		Description: "Set custom timeout for the next wait_element action",
		Params: map[string]string{
			"Value": "(required) Timeout in milliseconds",
		},
		Example: map[string]any{"Value": "10000"},
	},
	"waiter_nofail_next": {
		Name:        "No Fail For Next Waiter",
		Category:    "Delays",
		Description: "Make next wait_element not fail if element not found",
	},
	"PSet": {
		Name:        "Set/Increment Variable",
		Category:    "Variables",
		Description: "Set variable value or increment existing variable",
		Params: map[string]string{
			"SetVariableName":  "(required) Variable name (without VAR_ prefix)",
			"SetVariableValue": "(optional) Value to set",
			"IncVariableValue": "(optional) Value to add to current value",
		},
		Example: map[string]any{"SetVariableName": "COUNTER", "SetVariableValue": "0"},
	},
	"RS": {
		Name:        "Resource/String Operations",
		Category:    "Variables",
		Description: "Various string operations, regex matching, resource iteration",
		Params: map[string]string{
			"Value":  "(optional) Input value or string",
			"Regexp": "(optional) Regular expression pattern",
			"Save":   "(optional) Variable to save result",
		},
		Example: map[string]any{"Value": "[[INPUT]]", "Regexp": `\d+`, "Save": "NUMBERS"},
	},
	"if": {
		Name:        "If Condition",
		Category:    "Conditions",
		Description: "Conditional branch based on expression",
		Params: map[string]string{
			"IfExpression": "(required) JavaScript expression, use [[VAR]] for variables",
			"IfElse":       "(optional) If true, has else branch",
		},
		Example: map[string]any{"IfExpression": "[[COUNTER]] > 10", "IfElse": true},
	},
	"cycle_params": {
		Name:        "Cycle Parameters (Loop Condition)",
		Category:    "Conditions",
		Description: "Set parameters for loop continuation condition",
		Params: map[string]string{
			"IfExpression": "(required) Loop continuation expression",
		},
		Example: map[string]any{"IfExpression": "[[INDEX]] < [[TOTAL]]"},
	},
	"do": {
		Name:        "Do/While Loop",
		Category:    "Loops",
		Description: "Loop with while condition or for-style iteration",
		Params: map[string]string{
			"WhileExpression": "(for while) JavaScript condition",
			"ForFrom":         "(for for-loop) Start index",
			"ForTo":           "(for for-loop) End index",
		},
		Example: map[string]any{"ForFrom": "1", "ForTo": "10"},
	},
	"do_with_params": {
		Name:        "For Each Loop",
		Category:    "Loops",
		Description: "Iterate over array variable",
		Params: map[string]string{
			"ForArray": "(required) Array variable to iterate, use [[ARRAY_VAR]]",
		},
		Example: map[string]any{"ForArray": "[[LIST_ITEMS]]"},
	},
	"break": {
		Name:        "Break Loop",
		Category:    "Loops",
		Description: "Exit from current loop",
	},
	"next": {
		Name:        "Continue Loop",
		Category:    "Loops",
		Description: "Skip to next iteration of current loop",
	},
	"call_function": {
		Name:        "Call Function / Module",
		Category:    "Functions",
		Description: "Execute a named project function, or invoke a module action (SQL, SMS, captcha, IMAP). Module parameters have random names unique to each installation; inspect an existing action to find them",
		Params: map[string]string{
			"FunctionName": "(optional) Function name to call, empty for module actions",
			"query":        "(for SQL/IMAP) Query string",
			"data_format":  "(for SQL) Result format: 'CSV list', 'JSON', 'Single value'",
			"Save":         "(optional) Variable to save result",
		},
		Example: map[string]any{"FunctionName": "ProcessItem"},
	},
	"call": {
		Name:        "Call Module Function",
		Category:    "Functions",
		Description: "Call a BAS module/extension function such as FingerprintSwitcher or IP info. Module parameters have random names; inspect an existing action to find them",
		Params: map[string]string{
			"FunctionName": "(optional) Empty or specific function name",
			"Key":          "(optional) Module API/license key",
			"Value":        "(optional) Input value (IP address, etc.)",
			"Save":         "(optional) Variable to save result",
		},
		Example: map[string]any{"Fingerprint": "[[FINGERPRINT]]", "PerfectCanvas": "true"},
	},
	"section_insert": {
		Name:        "Section/Function Definition",
		Category:    "Functions",
		Description: "Defines a new function/section; usually created via create-function rather than directly",
	},
	"logger_log": {
		Name:        "Log Message",
		Category:    "Logging",
		Description: "Write message to BAS log panel",
		Params: map[string]string{
			"ru":    "(required) Message text (Russian locale)",
			"en":    "(required) Message text (English locale)",
			"level": "(optional) 'info', 'warning', or 'error'",
		},
		Example: map[string]any{"ru": "Status: [[STATUS]]", "en": "Status: [[STATUS]]", "level": "info"},
	},
	"success": {
		Name:        "Mark Success",
		Category:    "Status",
		Description: "Mark current thread/task as successful",
		Params: map[string]string{
			"SuccessMessage": "(optional) Success message to display",
		},
		Example: map[string]any{"SuccessMessage": "Task completed"},
	},
	"fail_user": {
		Name:        "Fail With Message",
		Category:    "Status",
		Description: "Fail with custom error message for user",
		Params: map[string]string{
			"FailMessage": "(required) Error message to show",
		},
		Example: map[string]any{"FailMessage": "Login failed: invalid credentials"},
	},
	"switch_http_client_main": {
		Name:        "HTTP Request",
		Category:    "HTTP",
		Description: "Make HTTP request outside of browser",
		Params: map[string]string{
			"Value":       "(required) URL for the request",
			"Method":      "(required) HTTP method: 'GET', 'POST', 'PUT', 'DELETE'",
			"PostDataRaw": "(optional) POST body data",
			"Check":       "(optional) If true, saves response",
		},
		Example: map[string]any{"Value": "https://api.example.com/data", "Method": "GET", "Check": true},
	},
	"screenshot": {
		Name:         "Take Screenshot",
		Category:     "Browser Navigation",
		Description:  "Capture element or page screenshot into a variable",
		RequiresPath: true,
		Params: map[string]string{
			"PATH": "(required) Element selector, >CSS> html for the whole page",
			"Save": "(required) Variable to save the image data",
		},
		Example: map[string]any{"PATH": ">CSS> html", "Save": "[[SCREENSHOT]]"},
	},
}

// Lookup returns help for one action type.
func Lookup(action string) (Help, bool) {
	h, ok := actions[action]
	if ok {
		h.Action = action
	}
	return h, ok
}

// Actions returns every documented action type in sorted order.
func Actions() []Help {
	out := make([]Help, 0, len(actions))
	for action, h := range actions {
		h.Action = action
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Action < out[j].Action })
	return out
}

// Categories groups the documented actions by category.
func Categories() map[string][]Help {
	byCat := make(map[string][]Help)
	for _, h := range Actions() {
		byCat[h.Category] = append(byCat[h.Category], h)
	}
	return byCat
}
