/*
reconcile.go - Paid/unpaid reconciliation over the department universe

PURPOSE:
  Answers "for every department and every period in range, has a record
  been submitted?". The output is the exhaustive cross product of the
  candidate departments and the scanned periods: exactly one row per
  (year, month, department), paid rows backed by a record, unpaid rows
  synthesised for gaps.

PERIOD RANGE:
  Year given  -> that year only
  Year absent -> min..max over (record years ∪ baseline years)
  Month given -> that month only
  Month absent-> 1..12
  The baseline guarantees that years with no data still show up as fully
  unpaid, and the record years extend the span to any out-of-baseline data.

ORDER:
  (year, month, department name) ascending, names under Arabic collation,
  ministry as the final tie-break so output is deterministic.

SEE ALSO:
  - ranking.go: latest-period classification
  - totals.go:  aggregation over the rows produced here
*/
package remittance

import (
	"sort"

	"github.com/warp/remittance-engine/generic"
)

// =============================================================================
// FILTER
// =============================================================================

// Filter restricts a reconciliation. Zero values mean "no restriction".
type Filter struct {
	Ministry   string
	Department string
	// FundingType restricts by classification when non-nil. A pointer so
	// that FundingUnknown ("") can be asked for explicitly.
	FundingType *FundingType
	Year        int
	Month       int
	Status      PaymentStatus
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine binds the directory, classifier and baseline year range used by
// the reports.
type Engine struct {
	Directory  *Directory
	Classifier *Classifier
	Baseline   generic.BaselineYears
}

func NewEngine(directory *Directory, classifier *Classifier, baseline generic.BaselineYears) *Engine {
	return &Engine{Directory: directory, Classifier: classifier, Baseline: baseline}
}

type candidate struct {
	ref     DepartmentRef
	funding FundingType
}

// candidates returns the departments a filter selects, with their
// funding type.
func (e *Engine) candidates(f Filter) []candidate {
	var out []candidate
	for _, ref := range e.Directory.All() {
		if f.Ministry != "" && ref.Ministry != f.Ministry {
			continue
		}
		if f.Department != "" && ref.Department != f.Department {
			continue
		}
		ft := e.Classifier.Classify(ref.Ministry, ref.Department)
		if f.FundingType != nil && ft != *f.FundingType {
			continue
		}
		out = append(out, candidate{ref: ref, funding: ft})
	}
	return out
}

// ScanYears returns the years a reconciliation with filter f covers.
func (e *Engine) ScanYears(records []Record, f Filter) []int {
	if f.Year != 0 {
		return []int{f.Year}
	}
	years := e.Baseline.Years()
	for _, r := range records {
		years = append(years, r.Year)
	}
	return generic.YearSpan(years...)
}

func scanMonths(f Filter) []int {
	if f.Month != 0 {
		return []int{f.Month}
	}
	return generic.AllMonths()
}

type recordKey struct {
	ref    DepartmentRef
	period int
}

func indexRecords(records []Record) map[recordKey]Record {
	idx := make(map[recordKey]Record, len(records))
	for _, r := range records {
		idx[recordKey{ref: r.Department(), period: r.Period().Key()}] = r
	}
	return idx
}

// Reconcile produces one row per (year, month, candidate department),
// applies the status filter, and sorts. It is a pure function of the
// engine's directory and rules, the records and the filter.
func (e *Engine) Reconcile(records []Record, f Filter) []SearchResult {
	cands := e.candidates(f)
	if len(cands) == 0 {
		return []SearchResult{}
	}
	years := e.ScanYears(records, f)
	months := scanMonths(f)
	idx := indexRecords(records)

	out := make([]SearchResult, 0, len(years)*len(months)*len(cands))
	for _, y := range years {
		for _, m := range months {
			p := generic.Period{Year: y, Month: m}
			for _, c := range cands {
				row := Unpaid(c.ref, c.funding, p)
				if rec, ok := idx[recordKey{ref: c.ref, period: p.Key()}]; ok {
					row = Paid(rec)
				}
				if f.Status == StatusPaid && row.Status != StatusPaid {
					continue
				}
				if f.Status == StatusUnpaid && row.Status != StatusUnpaid {
					continue
				}
				out = append(out, row)
			}
		}
	}

	SortResults(out)
	return out
}

// SortResults orders rows by (year, month, department) with Arabic
// collation on department names and ministry as the final tie-break.
func SortResults(rows []SearchResult) {
	col := generic.NewCollator()
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Period.Year != b.Period.Year {
			return a.Period.Year < b.Period.Year
		}
		if a.Period.Month != b.Period.Month {
			return a.Period.Month < b.Period.Month
		}
		if c := col.Compare(a.Department.Department, b.Department.Department); c != 0 {
			return c < 0
		}
		return col.Less(a.Department.Ministry, b.Department.Ministry)
	})
}
