// Package mcpsrv exposes the BAS bridge as an MCP server over stdio, so an
// LLM-driven controller can drive a BAS process through tool calls.
package mcpsrv

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/mkoval/basbridge/bas"
)

// Server wires the BAS client into MCP tools.
type Server struct {
	client  *bas.Client
	logsDir string
	logger  *zap.Logger
	mcp     *mcp.Server
}

// New builds the MCP server around a connected client. logsDir may be empty
// when no BAS logs directory was found; the log tools then report that.
func New(client *bas.Client, logsDir string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		client:  client,
		logsDir: logsDir,
		logger:  logger,
		mcp:     mcp.NewServer(&mcp.Implementation{Name: "bas", Version: "1.0.0"}, nil),
	}
	s.register()
	return s
}

// Run serves MCP over the given transport until the context ends or the
// client disconnects.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	return s.mcp.Run(ctx, t)
}

type toolResult = mcp.CallToolResultFor[any]

// textResult renders a payload as indented JSON text content, the shape the
// controlling model reads best.
func textResult(v any) (*toolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return failure("encode result: " + err.Error())
	}
	return &toolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

// failure reports a tool-level failure as an ordinary payload. The model is
// expected to read and react to these, so they are content rather than
// protocol errors.
func failure(msg string) (*toolResult, error) {
	return textResult(map[string]any{"success": false, "error": msg})
}

func failureErr(err error) (*toolResult, error) {
	return failure(err.Error())
}

// Save-target parameters take a plain variable name.
var saveParams = map[string]bool{
	"save": true, "saveurl": true, "variable": true, "setvariablename": true,
	"savelist": true, "saveresult": true, "savevalue": true, "saveto": true,
}

// Value parameters reference variables with the [[NAME]] syntax.
var valueParams = map[string]bool{
	"setvariablevalue": true, "value": true, "value1": true, "value2": true,
	"value3": true, "typedata": true, "code": true, "expression": true,
	"text": true, "data": true, "loadurl": true, "url": true,
}

// normalizeVariableParams corrects the variable-reference mistakes models
// make most: VAR_X in a save target becomes X, VAR_X in a value becomes
// [[X]], and [[VAR_X]] becomes [[X]].
func normalizeVariableParams(params map[string]any) map[string]any {
	if len(params) == 0 {
		return params
	}
	result := make(map[string]any, len(params))
	for key, raw := range params {
		value, ok := raw.(string)
		if !ok {
			result[key] = raw
			continue
		}
		lower := strings.ToLower(key)

		isSave := saveParams[lower] || strings.HasPrefix(lower, "save") ||
			(strings.HasSuffix(lower, "name") && strings.Contains(lower, "variable"))
		isValue := valueParams[lower] || strings.HasPrefix(lower, "value") ||
			strings.HasSuffix(lower, "value") || strings.HasSuffix(lower, "data")

		switch {
		case isSave:
			clean := strings.TrimPrefix(value, "VAR_")
			if strings.HasPrefix(clean, "[[") && strings.HasSuffix(clean, "]]") {
				clean = clean[2 : len(clean)-2]
			}
			result[key] = strings.TrimPrefix(clean, "VAR_")
		case isValue:
			if strings.HasPrefix(value, "VAR_") {
				result[key] = "[[" + value[4:] + "]]"
			} else {
				result[key] = strings.ReplaceAll(value, "[[VAR_", "[[")
			}
		default:
			result[key] = strings.TrimPrefix(value, "VAR_")
		}
	}
	return result
}
