package mcptool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/KaramelBytes/dsdash/internal/analysis"
	"github.com/KaramelBytes/dsdash/internal/dashboard"
	"github.com/KaramelBytes/dsdash/internal/dataset"
)

// NewServer registers the dashboard tools over ds.
func NewServer(ds *dataset.Dataset, def dashboard.Params, version string) *server.MCPServer {
	s := server.NewMCPServer("dsdash", version)
	registerOverview(s, ds, def)
	registerRankCompanies(s, ds, def)
	return s
}

// ServeStdio blocks serving MCP over stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

var filterProperties = map[string]interface{}{
	"outliers":   map[string]interface{}{"type": "boolean", "description": "Trim statistical outliers (default: true)"},
	"method":     map[string]interface{}{"type": "string", "description": "Outlier method: iqr or zscore (default: iqr)"},
	"multiplier": map[string]interface{}{"type": "number", "description": "IQR whisker or |z| threshold (default: 1.5)"},
	"keywords":   map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "description": "Position title keywords (default: data-analyst set)"},
	"industry":   map[string]interface{}{"type": "string", "description": "Restrict to one industry (optional)"},
	"city":       map[string]interface{}{"type": "string", "description": "Restrict to one city (optional)"},
}

func registerOverview(s *server.MCPServer, ds *dataset.Dataset, def dashboard.Params) {
	tool := mcp.NewTool("dataset_overview",
		mcp.WithDescription("Summarize the loaded job-posting dataset: DS share, salary, headcount, DS ratio, company scores and dimensions"),
	)
	tool.InputSchema = mcp.ToolInputSchema{
		Type:       "object",
		Properties: filterProperties,
	}
	s.AddTool(tool, overviewHandler(ds, def))
}

func overviewHandler(ds *dataset.Dataset, def dashboard.Params) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := request.Params.Arguments.(map[string]interface{})
		if !ok && request.Params.Arguments != nil {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		p, err := applyArgs(args, def)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		rep, err := dashboard.Build(ctx, ds, p)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to build report: %v", err)), nil
		}
		return mcp.NewToolResultText(rep.Markdown()), nil
	}
}

func registerRankCompanies(s *server.MCPServer, ds *dataset.Dataset, def dashboard.Params) {
	tool := mcp.NewTool("rank_companies",
		mcp.WithDescription("Score companies hiring data analysts and return the ranking table"),
	)
	props := map[string]interface{}{
		"top_n": map[string]interface{}{"type": "integer", "description": "Rows per ranking (default: 20)"},
		"view":  map[string]interface{}{"type": "string", "description": "global, industry, or industry:<name> (default: global)"},
	}
	for k, v := range filterProperties {
		props[k] = v
	}
	tool.InputSchema = mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
	}
	s.AddTool(tool, rankHandler(ds, def))
}

func rankHandler(ds *dataset.Dataset, def dashboard.Params) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := request.Params.Arguments.(map[string]interface{})
		if !ok && request.Params.Arguments != nil {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		p, err := applyArgs(args, def)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		rk, err := dashboard.NewView(ds, p).Rankings(p.View)
		if errors.Is(err, analysis.ErrEmptyAfterFilter) {
			return mcp.NewToolResultText("No companies pass the scoring filters."), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to rank companies: %v", err)), nil
		}
		return mcp.NewToolResultText(rk.Table()), nil
	}
}

func applyArgs(args map[string]interface{}, def dashboard.Params) (dashboard.Params, error) {
	p := def
	if v, ok := args["outliers"].(bool); ok {
		p.Outliers.Enabled = v
	}
	if v, ok := args["method"].(string); ok && strings.TrimSpace(v) != "" {
		m, err := analysis.ParseMethod(v)
		if err != nil {
			return p, err
		}
		p.Outliers.Method = m
	}
	if v, ok := args["multiplier"].(float64); ok {
		if v <= 0 {
			return p, fmt.Errorf("multiplier must be > 0")
		}
		p.Outliers.Multiplier = v
	}
	if v, ok := args["keywords"].([]interface{}); ok && len(v) > 0 {
		kw := make([]string, 0, len(v))
		for _, k := range v {
			if s, ok := k.(string); ok {
				kw = append(kw, s)
			}
		}
		p.Keywords = kw
	}
	if v, ok := args["industry"].(string); ok && strings.TrimSpace(v) != "" {
		p.Selection.Industries = []string{strings.TrimSpace(v)}
	}
	if v, ok := args["city"].(string); ok && strings.TrimSpace(v) != "" {
		p.Selection.Cities = []string{strings.TrimSpace(v)}
	}
	if v, ok := args["top_n"].(float64); ok && v > 0 {
		p.TopN = int(v)
	}
	if v, ok := args["view"].(string); ok {
		p.View = analysis.ParseRankingView(v)
	}
	return p, nil
}
