package remittance_test

import (
	"time"

	"github.com/warp/remittance-engine/generic"
	"github.com/warp/remittance-engine/remittance"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================
// The fixture directory has seven departments in four ministries. In Arabic
// collation the department names sort as:
//   بترول الجنوب < تربية البصرة < تعبئة الغاز < ثانوية المربد (x2) <
//   خزينة البصرة < ضرائب البصرة
// and the ministries as:
//   دائرة مستقلة < وزارة التربية < وزارة المالية < وزارة النفط
// "ثانوية المربد" exists under two ministries.
// =============================================================================

const (
	minEducation   = "وزارة التربية"
	minOil         = "وزارة النفط"
	minFinance     = "وزارة المالية"
	minIndependent = "دائرة مستقلة"

	depEducation = "تربية البصرة"
	depSchool    = "ثانوية المربد"
	depOil       = "بترول الجنوب"
	depGas       = "تعبئة الغاز"
	depTreasury  = "خزينة البصرة"
	depTax       = "ضرائب البصرة"
)

func testDirectory() *remittance.Directory {
	return remittance.MustDirectory([]remittance.Ministry{
		{Name: minEducation, Departments: []remittance.Department{
			{Name: depEducation, Email: "edu@basra.example"},
			{Name: depSchool},
		}},
		{Name: minOil, Departments: []remittance.Department{
			{Name: depOil, Email: "oil@basra.example"},
			{Name: depGas},
		}},
		{Name: minFinance, Departments: []remittance.Department{
			{Name: depTreasury},
			{Name: depTax},
		}},
		{Name: minIndependent, Departments: []remittance.Department{
			{Name: depSchool},
		}},
	})
}

func testRules() remittance.FundingRules {
	return remittance.FundingRules{
		DepartmentOverrides: map[string]remittance.FundingType{depGas: remittance.FundingCentral},
		BranchOverrides:     map[string]remittance.FundingType{depTax: remittance.FundingCentral},
		CentralMinistries:   []string{minEducation},
		SelfMinistries:      []string{minOil, minFinance},
	}
}

func testEngine(from, to int) *remittance.Engine {
	return remittance.NewEngine(testDirectory(), remittance.NewClassifier(testRules()),
		generic.BaselineYears{From: from, To: to})
}

func ref(ministry, department string) remittance.DepartmentRef {
	return remittance.DepartmentRef{Ministry: ministry, Department: department}
}

// rec builds a stored record with derived deductions.
func rec(ministry, department string, year, month int, salaries int64, employees int) remittance.Record {
	total := generic.NewMoney(salaries)
	d := remittance.ComputeDeductions(total)
	return remittance.Record{
		ID:             remittance.RecordID(ministry, department, year, month),
		Ministry:       ministry,
		DepartmentName: department,
		FundingType:    remittance.NewClassifier(testRules()).Classify(ministry, department),
		Year:           year,
		Month:          month,
		TotalSalaries:  total,
		EmployeeCount:  employees,
		Deduction10:    d.D10,
		Deduction15:    d.D15,
		Deduction25:    d.D25,
		SubmittedAt:    time.Date(year, time.Month(month), 25, 9, 0, 0, 0, time.UTC),
	}
}

func submittedAt(r remittance.Record, at time.Time) remittance.Record {
	r.SubmittedAt = at
	return r
}

func money(n int64) *generic.Money {
	m := generic.NewMoney(n)
	return &m
}

func intPtr(n int) *int { return &n }

func funding(ft remittance.FundingType) *remittance.FundingType { return &ft }
