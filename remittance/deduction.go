package remittance

import (
	"strings"

	"github.com/warp/remittance-engine/generic"
)

// =============================================================================
// DEDUCTIONS - the three pension tiers
// =============================================================================

// Tier rates in percent.
const (
	Rate10 = 10
	Rate15 = 15
	Rate25 = 25
)

// Deductions are the three tiers derived from total salaries.
type Deductions struct {
	D10 generic.Money
	D15 generic.Money
	D25 generic.Money
}

// ComputeDeductions returns round(salaries × rate) for each tier.
func ComputeDeductions(totalSalaries generic.Money) Deductions {
	return Deductions{
		D10: generic.Percent(totalSalaries, Rate10),
		D15: generic.Percent(totalSalaries, Rate15),
		D25: generic.Percent(totalSalaries, Rate25),
	}
}

// =============================================================================
// SUBMISSION - what the entry form sends
// =============================================================================

// Submission is the input of a create or update. Deduction fields left nil
// are derived from TotalSalaries; a non-nil value is a manual override.
type Submission struct {
	Ministry       string
	DepartmentName string
	Year           int
	Month          int
	TotalSalaries  *generic.Money
	EmployeeCount  *int
	Deduction10    *generic.Money
	Deduction15    *generic.Money
	Deduction25    *generic.Money
	Attachments    []Attachment
}

// Validate checks required fields the way the entry form does: ministry,
// department, year, month, salaries and employee count are mandatory.
func (s Submission) Validate() error {
	switch {
	case strings.TrimSpace(s.Ministry) == "":
		return &generic.ValidationError{Field: "ministry", Message: "required"}
	case strings.TrimSpace(s.DepartmentName) == "":
		return &generic.ValidationError{Field: "departmentName", Message: "required"}
	case s.Year <= 0:
		return &generic.ValidationError{Field: "year", Message: "required"}
	case s.Month < 1 || s.Month > 12:
		return &generic.ValidationError{Field: "month", Message: "must be 1-12"}
	case s.TotalSalaries == nil:
		return &generic.ValidationError{Field: "totalSalaries", Message: "required"}
	case s.TotalSalaries.IsNegative():
		return &generic.ValidationError{Field: "totalSalaries", Message: "must not be negative"}
	case s.EmployeeCount == nil:
		return &generic.ValidationError{Field: "employeeCount", Message: "required"}
	case *s.EmployeeCount < 0:
		return &generic.ValidationError{Field: "employeeCount", Message: "must not be negative"}
	}
	overrides := []struct {
		field string
		v     *generic.Money
	}{
		{"deduction10", s.Deduction10},
		{"deduction15", s.Deduction15},
		{"deduction25", s.Deduction25},
	}
	for _, o := range overrides {
		if o.v != nil && o.v.IsNegative() {
			return &generic.ValidationError{Field: o.field, Message: "must not be negative"}
		}
	}
	for _, a := range s.Attachments {
		if a.Name == "" {
			return &generic.ValidationError{Field: "attachments", Message: "attachment without name"}
		}
	}
	return nil
}

// deductions resolves overrides against the derived values.
func (s Submission) deductions() Deductions {
	d := ComputeDeductions(*s.TotalSalaries)
	if s.Deduction10 != nil {
		d.D10 = *s.Deduction10
	}
	if s.Deduction15 != nil {
		d.D15 = *s.Deduction15
	}
	if s.Deduction25 != nil {
		d.D25 = *s.Deduction25
	}
	return d
}
