package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - One reporting cycle (year, month)
// =============================================================================

// Period identifies one monthly remittance cycle.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// NewPeriod validates and builds a period.
func NewPeriod(year, month int) (Period, error) {
	p := Period{Year: year, Month: month}
	if !p.Valid() {
		return Period{}, fmt.Errorf("%w: %d-%d", ErrInvalidPeriod, year, month)
	}
	return p, nil
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Valid reports whether month is 1-12 and year is positive.
func (p Period) Valid() bool {
	return p.Year > 0 && p.Month >= 1 && p.Month <= 12
}

// Key linearises the period as year*100 + month. Months never exceed 12,
// so keys of different years never collide and compare in calendar order.
func (p Period) Key() int {
	return p.Year*100 + p.Month
}

// PeriodFromKey is the inverse of Key.
func PeriodFromKey(key int) Period {
	return Period{Year: key / 100, Month: key % 100}
}

func (p Period) Before(other Period) bool { return p.Key() < other.Key() }
func (p Period) After(other Period) bool  { return p.Key() > other.Key() }
func (p Period) IsZero() bool             { return p.Year == 0 && p.Month == 0 }

// Next returns the following month.
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Year: p.Year + 1, Month: 1}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// String formats as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// =============================================================================
// RANGES
// =============================================================================

// AllMonths returns 1..12.
func AllMonths() []int {
	months := make([]int, 12)
	for i := range months {
		months[i] = i + 1
	}
	return months
}

// YearSpan returns every year from min to max inclusive over the given
// years. An empty input yields nil.
func YearSpan(years ...int) []int {
	if len(years) == 0 {
		return nil
	}
	lo, hi := years[0], years[0]
	for _, y := range years[1:] {
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	span := make([]int, 0, hi-lo+1)
	for y := lo; y <= hi; y++ {
		span = append(span, y)
	}
	return span
}

// BaselineYears is the inclusive year range that reports always cover,
// even when no records exist in it.
type BaselineYears struct {
	From int
	To   int
}

// DefaultBaseline covers 2020 through 2028.
var DefaultBaseline = BaselineYears{From: 2020, To: 2028}

// Years expands the baseline. An inverted range yields nil.
func (b BaselineYears) Years() []int {
	if b.To < b.From {
		return nil
	}
	out := make([]int, 0, b.To-b.From+1)
	for y := b.From; y <= b.To; y++ {
		out = append(out, y)
	}
	return out
}

// =============================================================================
// MONTH NAMES
// =============================================================================

var arabicMonths = [12]string{
	"كانون الثاني", "شباط", "آذار", "نيسان", "أيار", "حزيران",
	"تموز", "آب", "أيلول", "تشرين الأول", "تشرين الثاني", "كانون الأول",
}

// MonthName returns the Levantine Arabic month name, or the number as a
// string when out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return fmt.Sprint(month)
	}
	return arabicMonths[month-1]
}
