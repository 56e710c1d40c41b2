package remittance

import (
	"sort"

	"github.com/warp/remittance-engine/generic"
)

// =============================================================================
// RANKING - who paid first in the latest period
// =============================================================================

// MinistryGroup lists department names of one ministry.
type MinistryGroup struct {
	Ministry    string   `json:"ministry"`
	Departments []string `json:"departments"`
}

// Classification is the latest-period report: paid departments ranked by
// submission time, unpaid departments grouped by ministry.
type Classification struct {
	Period      generic.Period
	Ranked      []Record
	Unpaid      []MinistryGroup
	UnpaidCount int
}

// LatestPeriod returns the greatest (year, month) among records, or false
// when there are none.
func LatestPeriod(records []Record) (generic.Period, bool) {
	best := 0
	for _, r := range records {
		if k := r.Period().Key(); k > best {
			best = k
		}
	}
	if best == 0 {
		return generic.Period{}, false
	}
	return generic.PeriodFromKey(best), true
}

// ClassifyLatestPeriod ranks the records of the most recent period by
// SubmittedAt ascending (rank 1 = earliest) and lists every directory
// department without a record in that period. Returns nil when there are
// no records.
func ClassifyLatestPeriod(records []Record, directory *Directory) *Classification {
	period, ok := LatestPeriod(records)
	if !ok {
		return nil
	}

	col := generic.NewCollator()
	var ranked []Record
	paid := make(map[DepartmentRef]bool)
	for _, r := range records {
		if r.Year == period.Year && r.Month == period.Month {
			ranked = append(ranked, r)
			paid[r.Department()] = true
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return col.Less(a.DepartmentName, b.DepartmentName)
	})

	var unpaid []DepartmentRef
	for _, ref := range directory.All() {
		if !paid[ref] {
			unpaid = append(unpaid, ref)
		}
	}

	return &Classification{
		Period:      period,
		Ranked:      ranked,
		Unpaid:      GroupByMinistry(unpaid),
		UnpaidCount: len(unpaid),
	}
}

// GroupByMinistry groups refs by ministry, sorting ministries and
// department names with Arabic collation.
func GroupByMinistry(refs []DepartmentRef) []MinistryGroup {
	byMinistry := make(map[string][]string)
	for _, ref := range refs {
		byMinistry[ref.Ministry] = append(byMinistry[ref.Ministry], ref.Department)
	}
	col := generic.NewCollator()
	out := make([]MinistryGroup, 0, len(byMinistry))
	for _, m := range generic.SortedKeys(byMinistry) {
		deps := byMinistry[m]
		col.SortStrings(deps)
		out = append(out, MinistryGroup{Ministry: m, Departments: deps})
	}
	return out
}
