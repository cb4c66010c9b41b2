package dataset

import (
	"math"
	"strconv"
	"strings"
)

// SchemaVersion identifies the header alias table below. Bump it when aliases change
// so that imported stores can be told apart.
const SchemaVersion = 1

// headerAliases maps normalized source headers to canonical fields.
var headerAliases = map[string]Field{
	"行业":                FieldIndustry,
	"industry":          FieldIndustry,
	"岗位":                FieldPositionTitle,
	"岗位名称":              FieldPositionTitle,
	"position":          FieldPositionTitle,
	"position_title":    FieldPositionTitle,
	"job":               FieldPositionTitle,
	"job_title":         FieldPositionTitle,
	"公司名称":              FieldCompanyName,
	"company":           FieldCompanyName,
	"company_name":      FieldCompanyName,
	"员工人数":              FieldEmployeeCount,
	"employee_count":    FieldEmployeeCount,
	"employees":         FieldEmployeeCount,
	"平均年收入":             FieldAvgAnnualIncome,
	"avg_annual_income": FieldAvgAnnualIncome,
	"annual_income":     FieldAvgAnnualIncome,
	"在职人数":              FieldIncumbentCount,
	"incumbent_count":   FieldIncumbentCount,
	"incumbents":        FieldIncumbentCount,
	"平均在职天数":            FieldAvgTenureDays,
	"avg_tenure_days":   FieldAvgTenureDays,
	"tenure_days":       FieldAvgTenureDays,
	"头腰尾":               FieldTier,
	"tier":              FieldTier,
	"城市":                FieldCity,
	"city":              FieldCity,
}

// requiredFields must be present in every ingested source.
var requiredFields = []Field{FieldPositionTitle, FieldIndustry}

// CanonicalField resolves a raw header to a canonical field.
func CanonicalField(header string) (Field, bool) {
	h := strings.TrimPrefix(header, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	f, ok := headerAliases[h]
	return f, ok
}

// columnMap records the source column index of each canonical field.
type columnMap map[Field]int

func mapHeader(header []string) columnMap {
	cm := columnMap{}
	for i, h := range header {
		f, ok := CanonicalField(h)
		if !ok {
			continue
		}
		// first occurrence wins
		if _, dup := cm[f]; !dup {
			cm[f] = i
		}
	}
	return cm
}

func (cm columnMap) fields() []Field {
	out := make([]Field, 0, len(cm))
	for f := range cm {
		out = append(out, f)
	}
	return out
}

func (cm columnMap) missing() (Field, bool) {
	for _, f := range requiredFields {
		if _, ok := cm[f]; !ok {
			return f, true
		}
	}
	return "", false
}

func (cm columnMap) row(rec []string, opt ReadOptions) Row {
	cell := func(f Field) string {
		idx, ok := cm[f]
		if !ok || idx >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[idx])
	}
	num := func(f Field) *float64 {
		v := cell(f)
		if v == "" {
			return nil
		}
		x, ok := parseNumeric(v, opt)
		if !ok {
			return nil
		}
		return &x
	}
	return Row{
		Industry:        cell(FieldIndustry),
		PositionTitle:   cell(FieldPositionTitle),
		CompanyName:     cell(FieldCompanyName),
		City:            cell(FieldCity),
		Tier:            ParseTier(cell(FieldTier)),
		EmployeeCount:   num(FieldEmployeeCount),
		AvgAnnualIncome: num(FieldAvgAnnualIncome),
		IncumbentCount:  num(FieldIncumbentCount),
		AvgTenureDays:   num(FieldAvgTenureDays),
	}
}

// parseNumeric accepts locale-formatted numbers ("1.234,5", "1,234.5", "12%").
func parseNumeric(s string, opt ReadOptions) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00a0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0 && strings.Count(raw, ",") == 1 && len(raw)-cpos-1 != 3:
			// "12,5" is a decimal; "12,500" is a thousands group
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
