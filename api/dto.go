/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the remittance domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Auth:       LoginRequest, LoginResponse
  Directory:  DirectoryDTO, FundingDTO
  Records:    SubmitRecordRequest, UpdateRecordRequest (records themselves
              are returned as remittance.Record)
  Reports:    SearchResponse, SearchRowDTO, ClassificationDTO,
              UnpaidReportDTO, ReminderDTO, RosterDTO
  Users:      UserDTO, CreateUserRequest, UpdateUserRequest
  Scenarios:  ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Request shape is checked with go-playground/validator struct tags
  (decodeAndValidate). Domain rules (deduction signs, directory
  membership) are enforced by the remittance package.

SEE ALSO:
  - handlers.go: Uses these types
  - remittance/types.go: Record JSON shape
*/
package api

import (
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/warp/remittance-engine/generic"
	"github.com/warp/remittance-engine/remittance"
	"github.com/warp/remittance-engine/users"
)

// =============================================================================
// AUTH
// =============================================================================

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserDTO   `json:"user"`
}

// =============================================================================
// DIRECTORY
// =============================================================================

type DepartmentDTO struct {
	Name        string                 `json:"name"`
	Email       string                 `json:"email,omitempty"`
	FundingType remittance.FundingType `json:"fundingType"`
}

type MinistryDTO struct {
	Name        string          `json:"name"`
	Departments []DepartmentDTO `json:"departments"`
}

type DirectoryDTO struct {
	Ministries []MinistryDTO `json:"ministries"`
	Count      int           `json:"count"`
	// Warnings are lint findings from loading the directory, such as a
	// department name shared by two ministries.
	Warnings []string `json:"warnings"`
}

type FundingDTO struct {
	Ministry    string                 `json:"ministry"`
	Department  string                 `json:"department"`
	FundingType remittance.FundingType `json:"fundingType"`
	Known       bool                   `json:"known"`
}

// =============================================================================
// RECORDS
// =============================================================================

// Amount is a money field of a request body. Besides JSON numbers and
// decimal strings it accepts amounts as typed in the entry form, such as
// "1,000,000" or "١٬٠٠٠٬٠٠٠".
type Amount struct {
	generic.Money
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	if err := a.Money.UnmarshalJSON(data); err == nil {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	if strings.ContainsRune(s, '-') {
		return fmt.Errorf("amount: negative value %q", s)
	}
	m, ok := generic.ParseAmount(s)
	if !ok {
		return fmt.Errorf("amount: no digits in %q", s)
	}
	a.Money = m
	return nil
}

// money returns nil for an omitted field.
func (a *Amount) money() *generic.Money {
	if a == nil {
		return nil
	}
	m := a.Money
	return &m
}

// SubmitRecordRequest creates a record. Deductions are derived from
// totalSalaries unless given. Amounts may be JSON numbers or strings.
type SubmitRecordRequest struct {
	Ministry       string                  `json:"ministry" validate:"required"`
	DepartmentName string                  `json:"departmentName" validate:"required"`
	Year           int                     `json:"year" validate:"required,min=1900,max=2200"`
	Month          int                     `json:"month" validate:"required,min=1,max=12"`
	TotalSalaries  *Amount                 `json:"totalSalaries" validate:"required"`
	EmployeeCount  *int                    `json:"employeeCount" validate:"required,min=0"`
	Deduction10    *Amount                 `json:"deduction10,omitempty"`
	Deduction15    *Amount                 `json:"deduction15,omitempty"`
	Deduction25    *Amount                 `json:"deduction25,omitempty"`
	Attachments    []remittance.Attachment `json:"attachments,omitempty" validate:"dive"`
	// Overwrite replaces an existing record for the same department and
	// period instead of failing with 409.
	Overwrite bool `json:"overwrite"`
}

func (r SubmitRecordRequest) toSubmission() remittance.Submission {
	return remittance.Submission{
		Ministry:       r.Ministry,
		DepartmentName: r.DepartmentName,
		Year:           r.Year,
		Month:          r.Month,
		TotalSalaries:  r.TotalSalaries.money(),
		EmployeeCount:  r.EmployeeCount,
		Deduction10:    r.Deduction10.money(),
		Deduction15:    r.Deduction15.money(),
		Deduction25:    r.Deduction25.money(),
		Attachments:    r.Attachments,
	}
}

// UpdateRecordRequest edits the amounts of an existing record. Omitted
// fields keep their value.
type UpdateRecordRequest struct {
	TotalSalaries *Amount                 `json:"totalSalaries,omitempty"`
	EmployeeCount *int                    `json:"employeeCount,omitempty" validate:"omitempty,min=0"`
	Deduction10   *Amount                 `json:"deduction10,omitempty"`
	Deduction15   *Amount                 `json:"deduction15,omitempty"`
	Deduction25   *Amount                 `json:"deduction25,omitempty"`
	Attachments   []remittance.Attachment `json:"attachments,omitempty"`
}

func (r UpdateRecordRequest) toRevision() remittance.Revision {
	return remittance.Revision{
		TotalSalaries: r.TotalSalaries.money(),
		EmployeeCount: r.EmployeeCount,
		Deduction10:   r.Deduction10.money(),
		Deduction15:   r.Deduction15.money(),
		Deduction25:   r.Deduction25.money(),
		Attachments:   r.Attachments,
	}
}

// ExistingRecordResponse is the 409 body: the record that would be replaced.
type ExistingRecordResponse struct {
	Error    string            `json:"error"`
	Existing remittance.Record `json:"existing"`
}

// =============================================================================
// REPORTS
// =============================================================================

// SearchRowDTO is one reconciliation row. Amount fields are null for
// unpaid rows.
type SearchRowDTO struct {
	ID             string                   `json:"id"`
	Status         remittance.PaymentStatus `json:"status"`
	Year           int                      `json:"year"`
	Month          int                      `json:"month"`
	MonthName      string                   `json:"monthName"`
	Ministry       string                   `json:"ministry"`
	DepartmentName string                   `json:"departmentName"`
	FundingType    remittance.FundingType   `json:"fundingType"`
	TotalSalaries  *generic.Money           `json:"totalSalaries"`
	EmployeeCount  *int                     `json:"employeeCount"`
	Deduction10    *generic.Money           `json:"deduction10"`
	Deduction15    *generic.Money           `json:"deduction15"`
	Deduction25    *generic.Money           `json:"deduction25"`
	SubmittedAt    *time.Time               `json:"submittedAt"`
	// DisplayTotal is TotalSalaries formatted for reading, "-" when unpaid.
	DisplayTotal string `json:"displayTotal"`
}

func toSearchRowDTO(row remittance.SearchResult) SearchRowDTO {
	dto := SearchRowDTO{
		ID:             row.ID(),
		Status:         row.Status,
		Year:           row.Period.Year,
		Month:          row.Period.Month,
		MonthName:      generic.MonthName(row.Period.Month),
		Ministry:       row.Department.Ministry,
		DepartmentName: row.Department.Department,
		FundingType:    row.FundingType,
	}
	if rec := row.Record; rec != nil {
		dto.TotalSalaries = &rec.TotalSalaries
		dto.EmployeeCount = &rec.EmployeeCount
		dto.Deduction10 = &rec.Deduction10
		dto.Deduction15 = &rec.Deduction15
		dto.Deduction25 = &rec.Deduction25
		dto.SubmittedAt = &rec.SubmittedAt
	}
	total := generic.Zero
	if row.Record != nil {
		total = row.Record.TotalSalaries
	}
	dto.DisplayTotal = generic.FormatForDisplay(total, generic.DisplayLocale)
	return dto
}

type SearchResponse struct {
	Rows    []SearchRowDTO    `json:"rows"`
	Totals  remittance.Totals `json:"totals"`
	Display TotalsDisplayDTO  `json:"display"`
	Years   []int             `json:"years"`
}

// TotalsDisplayDTO is Totals rendered with the display locale's digits
// and grouping.
type TotalsDisplayDTO struct {
	TotalSalaries string `json:"totalSalaries"`
	EmployeeCount string `json:"employeeCount"`
	Deduction10   string `json:"deduction10"`
	Deduction15   string `json:"deduction15"`
	Deduction25   string `json:"deduction25"`
}

func toTotalsDisplayDTO(t remittance.Totals) TotalsDisplayDTO {
	tag := generic.DisplayLocale
	return TotalsDisplayDTO{
		TotalSalaries: generic.FormatAmount(t.TotalSalaries, tag),
		EmployeeCount: generic.FormatCount(t.EmployeeCount, tag),
		Deduction10:   generic.FormatAmount(t.Deduction10, tag),
		Deduction15:   generic.FormatAmount(t.Deduction15, tag),
		Deduction25:   generic.FormatAmount(t.Deduction25, tag),
	}
}

type RankedRecordDTO struct {
	Rank   int               `json:"rank"`
	Record remittance.Record `json:"record"`
}

// ClassificationDTO is the latest-period ranking. Available is false when
// no record exists at all.
type ClassificationDTO struct {
	Available   bool                       `json:"available"`
	Period      *generic.Period            `json:"period,omitempty"`
	MonthName   string                     `json:"monthName,omitempty"`
	Ranked      []RankedRecordDTO          `json:"ranked"`
	Unpaid      []remittance.MinistryGroup `json:"unpaid"`
	UnpaidCount int                        `json:"unpaidCount"`
}

func toClassificationDTO(c *remittance.Classification) ClassificationDTO {
	if c == nil {
		return ClassificationDTO{Ranked: []RankedRecordDTO{}, Unpaid: []remittance.MinistryGroup{}}
	}
	p := c.Period
	dto := ClassificationDTO{
		Available:   true,
		Period:      &p,
		MonthName:   generic.MonthName(p.Month),
		Ranked:      make([]RankedRecordDTO, len(c.Ranked)),
		Unpaid:      c.Unpaid,
		UnpaidCount: c.UnpaidCount,
	}
	if dto.Unpaid == nil {
		dto.Unpaid = []remittance.MinistryGroup{}
	}
	for i, r := range c.Ranked {
		dto.Ranked[i] = RankedRecordDTO{Rank: i + 1, Record: r}
	}
	return dto
}

type UnpaidReportDTO struct {
	Period         generic.Period             `json:"period"`
	MonthName      string                     `json:"monthName"`
	GraceActive    bool                       `json:"graceActive"`
	GraceDay       int                        `json:"graceDay"`
	Unpaid         []remittance.MinistryGroup `json:"unpaid"`
	Count          int                        `json:"count"`
	RecipientCount int                        `json:"recipientCount"`
}

func toUnpaidReportDTO(r remittance.UnpaidReport) UnpaidReportDTO {
	return UnpaidReportDTO{
		Period:         r.Period,
		MonthName:      generic.MonthName(r.Period.Month),
		GraceActive:    r.GraceActive,
		GraceDay:       r.GraceDay,
		Unpaid:         r.Unpaid,
		Count:          r.Count,
		RecipientCount: len(r.Recipients),
	}
}

type ReminderDTO struct {
	Period  generic.Period `json:"period"`
	Bcc     []string       `json:"bcc"`
	Subject string         `json:"subject"`
	Body    string         `json:"body"`
	Mailto  string         `json:"mailto"`
}

type RosterDepartmentDTO struct {
	Department string   `json:"department"`
	Months     []int    `json:"months"`
	MonthNames []string `json:"monthNames"`
}

type RosterMinistryDTO struct {
	Ministry    string                `json:"ministry"`
	Departments []RosterDepartmentDTO `json:"departments"`
}

type RosterDTO struct {
	Year       int                 `json:"year"`
	Ministries []RosterMinistryDTO `json:"ministries"`
	Count      int                 `json:"count"`
}

// toRosterDTO flattens the roster map in collation order.
func toRosterDTO(year int, roster remittance.Roster) RosterDTO {
	col := generic.NewCollator()
	dto := RosterDTO{Year: year, Ministries: []RosterMinistryDTO{}, Count: roster.Count()}
	ministries := generic.SortedKeys(roster)
	col.SortStrings(ministries)
	for _, m := range ministries {
		deps := generic.SortedKeys(roster[m])
		col.SortStrings(deps)
		md := RosterMinistryDTO{Ministry: m}
		for _, d := range deps {
			months := roster[m][d]
			names := make([]string, len(months))
			for i, mo := range months {
				names[i] = generic.MonthName(mo)
			}
			md.Departments = append(md.Departments, RosterDepartmentDTO{Department: d, Months: months, MonthNames: names})
		}
		dto.Ministries = append(dto.Ministries, md)
	}
	return dto
}

// =============================================================================
// USERS
// =============================================================================

// UserDTO never carries the password hash.
type UserDTO struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Username    string            `json:"username"`
	Role        users.Role        `json:"role"`
	Permissions users.Permissions `json:"permissions"`
}

func toUserDTO(u users.User) UserDTO {
	return UserDTO{ID: u.ID, Name: u.Name, Username: u.Username, Role: u.Role, Permissions: u.Permissions}
}

type CreateUserRequest struct {
	Name        string             `json:"name" validate:"required"`
	Username    string             `json:"username" validate:"required"`
	Password    string             `json:"password" validate:"required"`
	Permissions *users.Permissions `json:"permissions,omitempty"`
}

type UpdateUserRequest struct {
	Name        string            `json:"name" validate:"required"`
	Username    string            `json:"username" validate:"required"`
	Password    string            `json:"password,omitempty"`
	Permissions users.Permissions `json:"permissions"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
