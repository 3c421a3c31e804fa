package bas

import (
	"encoding/json"
	"strconv"
	"strings"
)

// OpResult is the generic host acknowledgement shape.
type OpResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// CreateActionRequest describes an action to insert into the project. The
// zero AfterID means "append at the end of the scope"; the zero ParentID
// means the top level.
type CreateActionRequest struct {
	Action      string         `json:"action"`
	Params      map[string]any `json:"params,omitempty"`
	AfterID     int64          `json:"after_id,omitempty"`
	ParentID    int64          `json:"parent_id,omitempty"`
	Comment     string         `json:"comment,omitempty"`
	Color       string         `json:"color,omitempty"`
	Execute     bool           `json:"execute"`
	IncludeHTML bool           `json:"include_html,omitempty"`
}

// CreateActionResult is the host's answer to create-action. ExecutionResult
// carries the completion discriminator when Execute was set; compare it to
// ExecutionCompleted, anything else is a failure.
type CreateActionResult struct {
	Success         bool   `json:"success"`
	ActionID        int64  `json:"action_id"`
	ExecutionResult string `json:"execution_result,omitempty"`
	ExecutionError  string `json:"execution_error,omitempty"`
	Error           string `json:"error,omitempty"`
	HTML            string `json:"html,omitempty"`
}

// Status reports the host's execution state.
type Status struct {
	Success         bool   `json:"success"`
	Status          string `json:"status,omitempty"`
	IsExecuting     bool   `json:"is_executing"`
	IsTaskExecuting bool   `json:"is_task_executing"`
}

// ProjectAction is one action in the project tree as get-project reports it.
type ProjectAction struct {
	ID       int64          `json:"id"`
	Type     string         `json:"type"`
	ParentID int64          `json:"parent_id"`
	Comment  string         `json:"comment"`
	Color    string         `json:"color,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
}

// Variable is the host's answer to get-variable. Value stays raw because
// BAS variables hold arbitrary JSON.
type Variable struct {
	Success bool            `json:"success"`
	Value   json.RawMessage `json:"value"`
	Error   string          `json:"error,omitempty"`
}

// String renders the value for display. JSON strings are unquoted, other
// shapes come back as their compact JSON text.
func (v *Variable) String() string {
	if len(v.Value) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.Value, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(v.Value))
}

// Bool interprets the value as a boolean. BAS scenario code is loose about
// types, so "true"/"false" strings count too.
func (v *Variable) Bool() bool {
	var b bool
	if err := json.Unmarshal(v.Value, &b); err == nil {
		return b
	}
	return strings.EqualFold(v.String(), "true")
}

// Int interprets the value as an integer, tolerating string-typed numbers.
func (v *Variable) Int() (int64, error) {
	var n int64
	if err := json.Unmarshal(v.Value, &n); err == nil {
		return n, nil
	}
	return strconv.ParseInt(v.String(), 10, 64)
}
