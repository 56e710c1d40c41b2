package remittance

import "github.com/warp/remittance-engine/generic"

// Totals sums the monetary and headcount fields of paid rows.
type Totals struct {
	TotalSalaries generic.Money `json:"totalSalaries"`
	EmployeeCount int           `json:"employeeCount"`
	Deduction10   generic.Money `json:"deduction10"`
	Deduction15   generic.Money `json:"deduction15"`
	Deduction25   generic.Money `json:"deduction25"`
	PaidRows      int           `json:"paidRows"`
	UnpaidRows    int           `json:"unpaidRows"`
}

// Aggregate folds rows into Totals. Unpaid rows only bump UnpaidRows; no
// rounding happens here.
func Aggregate(rows []SearchResult) Totals {
	t := Totals{
		TotalSalaries: generic.Zero,
		Deduction10:   generic.Zero,
		Deduction15:   generic.Zero,
		Deduction25:   generic.Zero,
	}
	for _, row := range rows {
		if !row.IsPaid() {
			t.UnpaidRows++
			continue
		}
		r := row.Record
		t.TotalSalaries = t.TotalSalaries.Add(r.TotalSalaries)
		t.EmployeeCount += r.EmployeeCount
		t.Deduction10 = t.Deduction10.Add(r.Deduction10)
		t.Deduction15 = t.Deduction15.Add(r.Deduction15)
		t.Deduction25 = t.Deduction25.Add(r.Deduction25)
		t.PaidRows++
	}
	return t
}
