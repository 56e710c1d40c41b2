// Package remittance implements the pension-deduction remittance domain:
// the reference directory, funding classification, the record model and
// the reconciliation, ranking, aggregation and roster reports built on top
// of the generic package.
package remittance

import (
	"fmt"
	"time"

	"github.com/warp/remittance-engine/generic"
)

// =============================================================================
// FUNDING TYPE
// =============================================================================

// FundingType is the budget source of a department. It is derived from the
// directory and never authored free-standing.
type FundingType string

const (
	FundingCentral FundingType = "مركزي"
	FundingSelf    FundingType = "ذاتي"
	FundingUnknown FundingType = ""
)

// ParseFundingType accepts the Arabic labels and the English aliases
// "central" and "self".
func ParseFundingType(s string) (FundingType, bool) {
	switch s {
	case string(FundingCentral), "central":
		return FundingCentral, true
	case string(FundingSelf), "self":
		return FundingSelf, true
	case "", "unknown":
		return FundingUnknown, true
	}
	return FundingUnknown, false
}

// =============================================================================
// DEPARTMENT IDENTITY
// =============================================================================

// DepartmentRef identifies a department by its owning ministry and name.
// Department names are only unique within a ministry, so every lookup in
// this package keys on the pair.
type DepartmentRef struct {
	Ministry   string `json:"ministry"`
	Department string `json:"department"`
}

func (d DepartmentRef) String() string { return d.Ministry + "/" + d.Department }

// RecordID builds the composite natural key of a record.
func RecordID(ministry, department string, year, month int) string {
	return fmt.Sprintf("%s-%s-%d-%d", ministry, department, year, month)
}

// =============================================================================
// RECORD - One department's remittance for one period
// =============================================================================

// Attachment is an opaque proof-of-payment blob.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"` // base64
}

// Record is the persisted remittance entry.
type Record struct {
	ID             string        `json:"id"`
	Ministry       string        `json:"ministry"`
	DepartmentName string        `json:"departmentName"`
	FundingType    FundingType   `json:"fundingType"`
	Year           int           `json:"year"`
	Month          int           `json:"month"`
	TotalSalaries  generic.Money `json:"totalSalaries"`
	EmployeeCount  int           `json:"employeeCount"`
	Deduction10    generic.Money `json:"deduction10"`
	Deduction15    generic.Money `json:"deduction15"`
	Deduction25    generic.Money `json:"deduction25"`
	Attachments    []Attachment  `json:"attachments,omitempty"`
	SubmittedAt    time.Time     `json:"submittedAt"`
}

// Period returns the record's reporting cycle.
func (r Record) Period() generic.Period {
	return generic.Period{Year: r.Year, Month: r.Month}
}

// Department returns the record's department identity.
func (r Record) Department() DepartmentRef {
	return DepartmentRef{Ministry: r.Ministry, Department: r.DepartmentName}
}

// Key returns the composite id derived from the record's fields.
func (r Record) Key() string {
	return RecordID(r.Ministry, r.DepartmentName, r.Year, r.Month)
}

// =============================================================================
// SEARCH RESULT - paid record or unpaid gap
// =============================================================================

// PaymentStatus tags a reconciliation row.
type PaymentStatus string

const (
	StatusAll    PaymentStatus = "all"
	StatusPaid   PaymentStatus = "paid"
	StatusUnpaid PaymentStatus = "unpaid"
)

// SearchResult is one (department, period) cell of a reconciliation.
// Record is non-nil exactly when Status is StatusPaid.
type SearchResult struct {
	Status      PaymentStatus
	Period      generic.Period
	Department  DepartmentRef
	FundingType FundingType
	Record      *Record
}

// Paid builds a row for an existing record.
func Paid(r Record) SearchResult {
	rec := r
	return SearchResult{
		Status:      StatusPaid,
		Period:      r.Period(),
		Department:  r.Department(),
		FundingType: r.FundingType,
		Record:      &rec,
	}
}

// Unpaid builds a gap row.
func Unpaid(dept DepartmentRef, funding FundingType, p generic.Period) SearchResult {
	return SearchResult{
		Status:      StatusUnpaid,
		Period:      p,
		Department:  dept,
		FundingType: funding,
	}
}

// ID returns the record id, or a synthetic id that never collides with one.
func (s SearchResult) ID() string {
	if s.Record != nil {
		return s.Record.ID
	}
	return RecordID(s.Department.Ministry, s.Department.Department, s.Period.Year, s.Period.Month) + "-unpaid"
}

// IsPaid reports whether a record backs this row.
func (s SearchResult) IsPaid() bool {
	return s.Status == StatusPaid && s.Record != nil
}
