package bas

import (
	"context"
	"fmt"

	"github.com/mkoval/basbridge/errors"
)

// Functions in a BAS project are section_insert actions whose comment holds
// the function name and whose children are the function body. The host has
// no function lookup command, so everything here works off get-project.

// FunctionInfo describes one function in the project tree.
type FunctionInfo struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ActionsCount int    `json:"actions_count"`
}

// ErrFunctionNotFound reports a name or ID that matched no function.
type ErrFunctionNotFound struct {
	Name string
	ID   int64
}

func (e *ErrFunctionNotFound) Error() string {
	if e.Name != "" {
		return "function not found: " + e.Name
	}
	return fmt.Sprintf("function not found: id %d", e.ID)
}

// ListFunctions returns every function in the project with its body size.
func (c *Client) ListFunctions(ctx context.Context) ([]FunctionInfo, error) {
	project, err := c.GetProject(ctx)
	if err != nil {
		return nil, err
	}
	var funcs []FunctionInfo
	for _, a := range project {
		if a.Type != "section_insert" {
			continue
		}
		count := 0
		for _, child := range project {
			if child.ParentID == a.ID {
				count++
			}
		}
		funcs = append(funcs, FunctionInfo{ID: a.ID, Name: a.Comment, ActionsCount: count})
	}
	return funcs, nil
}

// findFunction locates a function by name, or by ID when name is empty.
func findFunction(project []ProjectAction, name string, id int64) (*ProjectAction, error) {
	for i := range project {
		a := &project[i]
		if a.Type != "section_insert" {
			continue
		}
		if id != 0 && a.ID == id {
			return a, nil
		}
		if name != "" && a.Comment == name {
			return a, nil
		}
	}
	return nil, &ErrFunctionNotFound{Name: name, ID: id}
}

// GetFunctionActions returns a function and the actions of its body.
func (c *Client) GetFunctionActions(ctx context.Context, name string, id int64) (*FunctionInfo, []ProjectAction, error) {
	project, err := c.GetProject(ctx)
	if err != nil {
		return nil, nil, err
	}
	fn, err := findFunction(project, name, id)
	if err != nil {
		return nil, nil, err
	}
	var body []ProjectAction
	for _, a := range project {
		if a.ParentID == fn.ID {
			body = append(body, a)
		}
	}
	info := &FunctionInfo{ID: fn.ID, Name: fn.Comment, ActionsCount: len(body)}
	return info, body, nil
}

// CreateFunction creates a new empty function, placed after the named
// existing function when afterFunction is set.
func (c *Client) CreateFunction(ctx context.Context, name, afterFunction string) (*CreateActionResult, error) {
	var afterID int64
	if afterFunction != "" {
		project, err := c.GetProject(ctx)
		if err != nil {
			return nil, err
		}
		if fn, err := findFunction(project, afterFunction, 0); err == nil {
			afterID = fn.ID
		}
	}
	var res CreateActionResult
	data := map[string]any{"name": name, "after_id": afterID}
	if err := c.callInto(ctx, "create-function", data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DeleteFunction removes a function, and with deleteContents its body too.
// It returns how many actions were deleted.
func (c *Client) DeleteFunction(ctx context.Context, name string, id int64, deleteContents bool) (int, error) {
	project, err := c.GetProject(ctx)
	if err != nil {
		return 0, err
	}
	fn, err := findFunction(project, name, id)
	if err != nil {
		return 0, err
	}
	ids := []int64{fn.ID}
	if deleteContents {
		for _, a := range project {
			if a.ParentID == fn.ID {
				ids = append(ids, a.ID)
			}
		}
	}
	if err := c.DeleteActions(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// OpenFunction scrolls the BAS UI to a function by moving the execution
// point onto it.
func (c *Client) OpenFunction(ctx context.Context, name string, id int64) (*FunctionInfo, error) {
	project, err := c.GetProject(ctx)
	if err != nil {
		return nil, err
	}
	fn, err := findFunction(project, name, id)
	if err != nil {
		return nil, err
	}
	res, err := c.MoveTo(ctx, fn.ID)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, errors.New("move to function %q refused: %s", fn.Comment, res.Error)
	}
	return &FunctionInfo{ID: fn.ID, Name: fn.Comment}, nil
}
