package api

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/warp/remittance-engine/generic"
	"github.com/warp/remittance-engine/remittance"
)

// utf8BOM makes spreadsheet applications detect UTF-8 for Arabic text.
const utf8BOM = "\ufeff"

var csvHeaders = []string{
	"السنة", "الشهر", "الوزارة", "اسم الدائرة", "نوع التمويل", "حالة التسديد",
	"عدد الموظفين", "مجموع الرواتب الاسمية", "نسبة ال10%", "نسبة ال15%", "نسبة ال25%", "المرفقات",
}

const (
	labelPaid   = "مسدد"
	labelUnpaid = "غير مسدد"
	labelTotal  = "المجموع"
)

// WriteSearchCSV writes rows in the given order followed by a totals row.
// Unpaid rows carry zero amounts.
func WriteSearchCSV(w io.Writer, rows []remittance.SearchResult, totals remittance.Totals) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeaders); err != nil {
		return err
	}

	zero := generic.Zero.String()
	for _, row := range rows {
		funding := string(row.FundingType)
		if funding == "" {
			funding = "-"
		}
		rec := []string{
			strconv.Itoa(row.Period.Year),
			generic.MonthName(row.Period.Month),
			row.Department.Ministry,
			row.Department.Department,
			funding,
		}
		if r := row.Record; row.IsPaid() {
			names := make([]string, len(r.Attachments))
			for i, a := range r.Attachments {
				names[i] = a.Name
			}
			rec = append(rec,
				labelPaid,
				strconv.Itoa(r.EmployeeCount),
				r.TotalSalaries.String(),
				r.Deduction10.String(),
				r.Deduction15.String(),
				r.Deduction25.String(),
				strings.Join(names, "; "),
			)
		} else {
			rec = append(rec, labelUnpaid, "0", zero, zero, zero, zero, "")
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	if err := cw.Write([]string{
		labelTotal, "", "", "", "", "",
		strconv.Itoa(totals.EmployeeCount),
		totals.TotalSalaries.String(),
		totals.Deduction10.String(),
		totals.Deduction15.String(),
		totals.Deduction25.String(),
		"",
	}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
