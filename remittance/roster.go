package remittance

import "github.com/warp/remittance-engine/generic"

// Roster maps ministry -> department -> months (ascending) still owed.
type Roster map[string]map[string][]int

// UnpaidRosterForYear lists, per department, the months of year with no
// submitted record. Departments owing nothing are omitted, as are
// ministries left empty.
func UnpaidRosterForYear(records []Record, directory *Directory, year int) Roster {
	paid := make(map[recordKey]bool)
	for _, r := range records {
		if r.Year == year {
			paid[recordKey{ref: r.Department(), period: r.Period().Key()}] = true
		}
	}

	roster := make(Roster)
	for _, ref := range directory.All() {
		var owed []int
		for _, m := range generic.AllMonths() {
			p := generic.Period{Year: year, Month: m}
			if !paid[recordKey{ref: ref, period: p.Key()}] {
				owed = append(owed, m)
			}
		}
		if len(owed) == 0 {
			continue
		}
		if roster[ref.Ministry] == nil {
			roster[ref.Ministry] = make(map[string][]int)
		}
		roster[ref.Ministry][ref.Department] = owed
	}
	return roster
}

// Count returns the number of departments on the roster.
func (r Roster) Count() int {
	n := 0
	for _, deps := range r {
		n += len(deps)
	}
	return n
}
