package dataset

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Field names a canonical column of the posting schema.
type Field string

const (
	FieldIndustry        Field = "industry"
	FieldPositionTitle   Field = "position_title"
	FieldCompanyName     Field = "company_name"
	FieldCity            Field = "city"
	FieldTier            Field = "tier"
	FieldEmployeeCount   Field = "employee_count"
	FieldAvgAnnualIncome Field = "avg_annual_income"
	FieldIncumbentCount  Field = "incumbent_count"
	FieldAvgTenureDays   Field = "avg_tenure_days"
	// FieldDSRatio is derived from incumbent_count and employee_count.
	FieldDSRatio Field = "ds_ratio"
)

// NumericFields lists the fields that hold (or derive) numbers.
var NumericFields = []Field{FieldEmployeeCount, FieldAvgAnnualIncome, FieldIncumbentCount, FieldAvgTenureDays, FieldDSRatio}

// IsNumeric reports whether values of f can be read with Row.Value.
func (f Field) IsNumeric() bool {
	for _, n := range NumericFields {
		if n == f {
			return true
		}
	}
	return false
}

// Tier is the company prestige tier.
type Tier string

const (
	TierHead    Tier = "head"
	TierWaist   Tier = "waist"
	TierTail    Tier = "tail"
	TierMissing Tier = ""
)

// Tiers lists the known tiers in prestige order.
var Tiers = []Tier{TierHead, TierWaist, TierTail}

// ParseTier maps English and Chinese tier labels to a Tier. Unknown labels are missing.
func ParseTier(s string) Tier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "head", "头部", "头":
		return TierHead
	case "waist", "腰部", "腰":
		return TierWaist
	case "tail", "尾部", "尾":
		return TierTail
	default:
		return TierMissing
	}
}

// Row is one job-posting record enriched with company attributes.
// Numeric attributes are nil when the source cell was empty or not a number.
type Row struct {
	Industry        string   `json:"industry"`
	PositionTitle   string   `json:"position_title"`
	CompanyName     string   `json:"company_name"`
	City            string   `json:"city"`
	Tier            Tier     `json:"tier,omitempty"`
	EmployeeCount   *float64 `json:"employee_count,omitempty"`
	AvgAnnualIncome *float64 `json:"avg_annual_income,omitempty"`
	IncumbentCount  *float64 `json:"incumbent_count,omitempty"`
	AvgTenureDays   *float64 `json:"avg_tenure_days,omitempty"`
}

// Value returns the numeric value of f and whether it is present.
// ds_ratio is present only when both counts are present and employee_count > 0.
func (r Row) Value(f Field) (float64, bool) {
	switch f {
	case FieldEmployeeCount:
		return deref(r.EmployeeCount)
	case FieldAvgAnnualIncome:
		return deref(r.AvgAnnualIncome)
	case FieldIncumbentCount:
		return deref(r.IncumbentCount)
	case FieldAvgTenureDays:
		return deref(r.AvgTenureDays)
	case FieldDSRatio:
		inc, ok1 := deref(r.IncumbentCount)
		emp, ok2 := deref(r.EmployeeCount)
		if !ok1 || !ok2 || emp <= 0 {
			return 0, false
		}
		return inc / emp * 100, true
	}
	return 0, false
}

// Text returns the string value of a textual field.
func (r Row) Text(f Field) string {
	switch f {
	case FieldIndustry:
		return r.Industry
	case FieldPositionTitle:
		return r.PositionTitle
	case FieldCompanyName:
		return r.CompanyName
	case FieldCity:
		return r.City
	case FieldTier:
		return string(r.Tier)
	}
	return ""
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Float returns a pointer to v; handy for literals in fixtures.
func Float(v float64) *float64 { return &v }

// ErrMissingField is matched by every *MissingFieldError.
var ErrMissingField = errors.New("missing field")

// ErrEmptyDataset is returned when a source has a header but no rows.
var ErrEmptyDataset = errors.New("dataset has no rows")

// MissingFieldError reports a column that an analysis needs but the dataset lacks.
type MissingFieldError struct {
	Field     Field
	Available []Field
}

func (e *MissingFieldError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("missing field %q", e.Field)
	}
	names := make([]string, len(e.Available))
	for i, f := range e.Available {
		names[i] = string(f)
	}
	return fmt.Sprintf("missing field %q (available: %s)", e.Field, strings.Join(names, ", "))
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// Dataset is an ordered set of rows sharing the canonical schema.
// Rows must not be mutated once the dataset is shared between callers.
type Dataset struct {
	Name   string
	Rows   []Row
	fields map[Field]bool
}

// New builds a dataset whose schema consists of the given fields.
func New(name string, rows []Row, fields ...Field) *Dataset {
	d := &Dataset{Name: name, Rows: rows, fields: make(map[Field]bool, len(fields))}
	for _, f := range fields {
		d.fields[f] = true
	}
	return d
}

// WithRows returns a dataset with the same schema and a different row set.
func (d *Dataset) WithRows(rows []Row) *Dataset {
	return &Dataset{Name: d.Name, Rows: rows, fields: d.fields}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Has reports whether the schema carries f.
func (d *Dataset) Has(f Field) bool {
	if d == nil {
		return false
	}
	if f == FieldDSRatio {
		return d.fields[FieldIncumbentCount] && d.fields[FieldEmployeeCount]
	}
	return d.fields[f]
}

// Fields returns the schema fields in sorted order.
func (d *Dataset) Fields() []Field {
	if d == nil {
		return nil
	}
	out := make([]Field, 0, len(d.fields))
	for f, ok := range d.fields {
		if ok {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Require returns a *MissingFieldError for the first absent field.
func (d *Dataset) Require(fields ...Field) error {
	for _, f := range fields {
		if !d.Has(f) {
			return &MissingFieldError{Field: f, Available: d.Fields()}
		}
	}
	return nil
}
