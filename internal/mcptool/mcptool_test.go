package mcptool

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/dsdash/internal/dashboard"
	"github.com/KaramelBytes/dsdash/internal/dataset"
)

func testDataset() *dataset.Dataset {
	mk := func(industry, company, title string, income, team, emp, days float64) dataset.Row {
		return dataset.Row{
			Industry: industry, CompanyName: company, PositionTitle: title, Tier: dataset.TierHead,
			AvgAnnualIncome: dataset.Float(income), IncumbentCount: dataset.Float(team),
			EmployeeCount: dataset.Float(emp), AvgTenureDays: dataset.Float(days),
		}
	}
	rows := []dataset.Row{
		mk("互联网", "甲", "数据分析师", 300000, 40, 5000, 700),
		mk("互联网", "乙", "BI工程师", 200000, 10, 1200, 400),
		mk("金融", "丙", "数据科学家", 400000, 8, 2500, 650),
		mk("金融", "丁", "柜员", 60000, 200, 3000, 1000),
	}
	return dataset.New("mcp.csv", rows,
		dataset.FieldIndustry, dataset.FieldCompanyName, dataset.FieldPositionTitle, dataset.FieldTier,
		dataset.FieldAvgAnnualIncome, dataset.FieldIncumbentCount, dataset.FieldEmployeeCount, dataset.FieldAvgTenureDays)
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestRankCompanies(t *testing.T) {
	h := rankHandler(testDataset(), dashboard.DefaultParams())

	out, isErr := call(t, h, map[string]interface{}{"top_n": float64(2), "outliers": false})
	assert.False(t, isErr)
	assert.Contains(t, out, "top_2_companies\n")
	assert.Equal(t, 5, strings.Count(out, "\n"), "title, header, separator and two rows")

	out, isErr = call(t, h, map[string]interface{}{"view": "industry:金融"})
	assert.False(t, isErr)
	assert.Contains(t, out, "丙")
	assert.NotContains(t, out, "甲")

	out, isErr = call(t, h, map[string]interface{}{"keywords": []interface{}{"chef"}})
	assert.False(t, isErr)
	assert.Contains(t, out, "No companies")

	out, isErr = call(t, h, map[string]interface{}{"method": "mad"})
	assert.True(t, isErr)
	assert.Contains(t, out, "unknown outlier method")
}

func TestDatasetOverview(t *testing.T) {
	h := overviewHandler(testDataset(), dashboard.DefaultParams())
	out, isErr := call(t, h, nil)
	assert.False(t, isErr)
	assert.Contains(t, out, "[DATASET OVERVIEW]")
	assert.Contains(t, out, "Rows: 4 (DS postings 3")

	out, isErr = call(t, h, map[string]interface{}{"multiplier": float64(-2)})
	assert.True(t, isErr)
	assert.Contains(t, out, "multiplier")
}

func TestNewServerRegistersTools(t *testing.T) {
	s := NewServer(testDataset(), dashboard.DefaultParams(), "test")
	require.NotNil(t, s)
	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	b, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"dataset_overview"`)
	assert.Contains(t, string(b), `"rank_companies"`)
}
