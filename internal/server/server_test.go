package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/dsdash/internal/dashboard"
	"github.com/KaramelBytes/dsdash/internal/dataset"
	"github.com/KaramelBytes/dsdash/internal/export"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var allFields = []dataset.Field{
	dataset.FieldIndustry, dataset.FieldPositionTitle, dataset.FieldCompanyName, dataset.FieldCity, dataset.FieldTier,
	dataset.FieldEmployeeCount, dataset.FieldAvgAnnualIncome, dataset.FieldIncumbentCount, dataset.FieldAvgTenureDays,
}

func testRows() []dataset.Row {
	mk := func(i int, industry, title, city string, tier dataset.Tier, income, team, emp, days float64) dataset.Row {
		return dataset.Row{
			Industry: industry, PositionTitle: title, CompanyName: fmt.Sprintf("公司%02d", i), City: city, Tier: tier,
			AvgAnnualIncome: dataset.Float(income), IncumbentCount: dataset.Float(team),
			EmployeeCount: dataset.Float(emp), AvgTenureDays: dataset.Float(days),
		}
	}
	return []dataset.Row{
		mk(1, "互联网", "数据分析师", "北京", dataset.TierHead, 300000, 40, 5000, 700),
		mk(2, "互联网", "BI工程师", "上海", dataset.TierWaist, 200000, 10, 1200, 400),
		mk(3, "互联网", "后端工程师", "上海", dataset.TierWaist, 250000, 100, 5000, 500),
		mk(4, "金融", "数据挖掘工程师", "上海", dataset.TierHead, 350000, 20, 20000, 900),
		mk(5, "金融", "商业分析师", "深圳", dataset.TierTail, 150000, 3, 300, 200),
		mk(6, "金融", "数据科学家", "深圳", dataset.TierWaist, 400000, 8, 2500, 650),
		mk(7, "教育", "数据运营", "杭州", dataset.TierTail, 90000, 2, 150, 120),
		mk(8, "教育", "数据分析专员", "杭州", dataset.TierMissing, 100000, 4, 400, 250),
	}
}

func newTestServer(ds *dataset.Dataset) *Server {
	def := dashboard.DefaultParams()
	def.MinGroupSize = 1
	return New(ds, Options{Defaults: def, MaxIndustries: 10, MaxCities: 10}, nil)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	rec := get(t, newTestServer(dataset.New("x", testRows(), allFields...)), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestOverviewAndOptions(t *testing.T) {
	s := newTestServer(dataset.New("x", testRows(), allFields...))

	rec := get(t, s, "/api/overview?city="+url.QueryEscape("上海,深圳"))
	require.Equal(t, http.StatusOK, rec.Code)
	var o dashboard.Overview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
	assert.Equal(t, 8, o.TotalRows)
	assert.Equal(t, 7, o.DSRows)
	assert.Equal(t, 5, o.SelectedRows)
	assert.Equal(t, 4, o.SelectedDSRows)

	rec = get(t, s, "/api/options")
	require.Equal(t, http.StatusOK, rec.Code)
	var opts dashboard.Options
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, []string{"互联网", "教育", "金融"}, opts.Industries)
}

func TestSections(t *testing.T) {
	s := newTestServer(dataset.New("x", testRows(), allFields...))
	for _, path := range []string{"/api/salary", "/api/jobs", "/api/ratio", "/api/dimensions", "/api/scores", "/api/report"} {
		rec := get(t, s, path+"?outliers=false")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := get(t, s, "/api/report?format=markdown")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "[COMPANY SCORES]")
}

func TestRankings(t *testing.T) {
	s := newTestServer(dataset.New("x", testRows(), allFields...))

	rec := get(t, s, "/api/rankings?top=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var rk dashboard.Ranking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rk))
	require.Len(t, rk.Rows, 2)
	assert.Equal(t, 1, rk.Rows[0].GlobalRank)
	assert.GreaterOrEqual(t, rk.Rows[0].Composite, rk.Rows[1].Composite)

	rec = get(t, s, "/api/rankings?view="+url.QueryEscape("industry:金融"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rk))
	assert.Equal(t, "industry:金融", rk.View)
	for _, r := range rk.Rows {
		assert.Equal(t, "金融", r.Industry)
	}
}

func TestErrorEnvelope(t *testing.T) {
	s := newTestServer(dataset.New("x", testRows(), allFields...))
	testCases := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{name: "unknown method", path: "/api/salary?method=mad", status: http.StatusBadRequest, code: CodeBadRequest},
		{name: "bad multiplier", path: "/api/salary?multiplier=-1", status: http.StatusBadRequest, code: CodeBadRequest},
		{name: "bad bool", path: "/api/salary?outliers=maybe", status: http.StatusBadRequest, code: CodeBadRequest},
		{name: "bad tier", path: "/api/jobs?tier=mid", status: http.StatusBadRequest, code: CodeBadRequest},
		{name: "bad top", path: "/api/rankings?top=0", status: http.StatusBadRequest, code: CodeBadRequest},
		{name: "bad view", path: "/api/rankings?view=city", status: http.StatusBadRequest, code: CodeBadRequest},
		{name: "nothing matches", path: "/api/rankings?keyword=chef", status: http.StatusNotFound, code: CodeEmptyAfterFilter},
		{name: "empty selection", path: "/api/salary?industry=" + url.QueryEscape("农业"), status: http.StatusNotFound, code: CodeEmptyAfterFilter},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(t, s, tc.path)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Error.Code)
		})
	}
}

func TestMissingField(t *testing.T) {
	s := newTestServer(dataset.New("x", testRows(), dataset.FieldIndustry, dataset.FieldPositionTitle))
	rec := get(t, s, "/api/scores")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, CodeMissingField, body.Error.Code)
	assert.Contains(t, body.Error.Message, "avg_annual_income")
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(dataset.New("x", testRows(), allFields...))

	rec := get(t, s, "/api/export/rankings.csv?top=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "top_3_companies_")
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, export.BOM))
	assert.Equal(t, 4, strings.Count(body, "\n"))

	rec = get(t, s, "/api/export/postings.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 8, strings.Count(rec.Body.String(), "\n"), "header plus seven DS postings")
}

func TestMetrics(t *testing.T) {
	s := newTestServer(dataset.New("x", testRows(), allFields...))
	get(t, s, "/api/overview")
	get(t, s, "/api/salary?keyword=chef")

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",path="/api/overview",status_code="200"} 1`)
	assert.Contains(t, body, `dsdash_section_failures_total{code="empty_after_filter",section="salary"} 1`)
	assert.Contains(t, body, "dsdash_selected_rows")
}
