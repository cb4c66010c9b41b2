package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/dsdash/internal/analysis"
	"github.com/KaramelBytes/dsdash/internal/dashboard"
	"github.com/KaramelBytes/dsdash/internal/dataset"
)

// parseParams overlays query parameters on the server defaults.
// Repeated or comma-separated values are accepted for list parameters.
func parseParams(ctx *gin.Context, def dashboard.Params) (dashboard.Params, error) {
	p := def
	if v, ok := ctx.GetQuery("outliers"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, badRequest{fmt.Sprintf("outliers: %q is not a boolean", v)}
		}
		p.Outliers.Enabled = b
	}
	if v, ok := ctx.GetQuery("method"); ok {
		m, err := analysis.ParseMethod(v)
		if err != nil {
			return p, err
		}
		p.Outliers.Method = m
	}
	if v, ok := ctx.GetQuery("multiplier"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return p, badRequest{fmt.Sprintf("multiplier: %q must be a positive number", v)}
		}
		p.Outliers.Multiplier = f
	}
	if kw := list(ctx, "keyword"); len(kw) > 0 {
		p.Keywords = kw
	}
	if v := list(ctx, "industry"); len(v) > 0 {
		p.Selection.Industries = v
	}
	if v := list(ctx, "city"); len(v) > 0 {
		p.Selection.Cities = v
	}
	if v := list(ctx, "tier"); len(v) > 0 {
		tiers := make([]dataset.Tier, 0, len(v))
		for _, s := range v {
			t := dataset.ParseTier(s)
			if t == dataset.TierMissing {
				return p, badRequest{fmt.Sprintf("tier: unknown value %q (use head|waist|tail)", s)}
			}
			tiers = append(tiers, t)
		}
		p.Selection.Tiers = tiers
	}
	if v, ok := ctx.GetQuery("top"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return p, badRequest{fmt.Sprintf("top: %q must be a positive integer", v)}
		}
		p.TopN = n
	}
	if v, ok := ctx.GetQuery("view"); ok {
		if v != "global" && v != "industry" && !strings.HasPrefix(v, "industry:") {
			return p, badRequest{fmt.Sprintf("view: %q (use global|industry|industry:<name>)", v)}
		}
		p.View = analysis.ParseRankingView(v)
	}
	return p, nil
}

func list(ctx *gin.Context, key string) []string {
	var out []string
	for _, raw := range ctx.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
