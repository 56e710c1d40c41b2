package remittance

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/warp/remittance-engine/generic"
)

// =============================================================================
// DELINQUENCY - current-period unpaid departments with a grace period
// =============================================================================

// DefaultGraceDay is the last day of a month on which no department is yet
// considered delinquent for that month.
const DefaultGraceDay = 20

// Monitor evaluates the current period against the clock.
type Monitor struct {
	Directory *Directory
	Clock     generic.Clock
	GraceDay  int
}

func NewMonitor(directory *Directory, clock generic.Clock, graceDay int) *Monitor {
	if clock == nil {
		clock = generic.SystemClock{}
	}
	if graceDay <= 0 {
		graceDay = DefaultGraceDay
	}
	return &Monitor{Directory: directory, Clock: clock, GraceDay: graceDay}
}

// CurrentPeriod is the clock's (year, month).
func (m *Monitor) CurrentPeriod() generic.Period {
	return generic.PeriodOf(m.Clock.Now())
}

// InGracePeriod reports whether today's day-of-month is within the grace days.
func (m *Monitor) InGracePeriod() bool {
	return m.Clock.Now().Day() <= m.GraceDay
}

// UnpaidReport lists departments that have not paid for Period.
type UnpaidReport struct {
	Period      generic.Period
	GraceActive bool
	GraceDay    int
	Unpaid      []MinistryGroup
	Count       int
	// Recipients are the unpaid departments that have an email address.
	Recipients []Department
}

// Unpaid builds the current-period report. During the grace period the
// report is empty by definition.
func (m *Monitor) Unpaid(records []Record) UnpaidReport {
	report := UnpaidReport{
		Period:      m.CurrentPeriod(),
		GraceActive: m.InGracePeriod(),
		GraceDay:    m.GraceDay,
		Unpaid:      []MinistryGroup{},
	}
	if report.GraceActive {
		return report
	}

	refs := UnpaidFor(records, m.Directory, report.Period)
	report.Unpaid = GroupByMinistry(refs)
	report.Count = len(refs)
	for _, ref := range refs {
		if dep, ok := m.Directory.Lookup(ref); ok && dep.Email != "" {
			report.Recipients = append(report.Recipients, dep)
		}
	}
	return report
}

// UnpaidFor returns directory departments without a record for p, in
// directory order.
func UnpaidFor(records []Record, directory *Directory, p generic.Period) []DepartmentRef {
	paid := make(map[DepartmentRef]bool)
	for _, r := range records {
		if r.Year == p.Year && r.Month == p.Month {
			paid[r.Department()] = true
		}
	}
	var out []DepartmentRef
	for _, ref := range directory.All() {
		if !paid[ref] {
			out = append(out, ref)
		}
	}
	return out
}

// =============================================================================
// REMINDER - message to unpaid departments
// =============================================================================

// Reminder is a ready-to-send notice addressed (blind copy) to every
// unpaid department with an email.
type Reminder struct {
	Period  generic.Period
	Bcc     []string
	Subject string
	Body    string
}

// Signature closes every reminder.
var Signature = "هيئة التقاعد الوطنية / فرع البصرة"

// BuildReminder composes the reminder for report. Returns
// generic.ErrNoRecipients when no unpaid department has an email.
func BuildReminder(report UnpaidReport) (Reminder, error) {
	if len(report.Recipients) == 0 {
		return Reminder{}, generic.ErrNoRecipients
	}
	month := generic.MonthName(report.Period.Month)
	bcc := make([]string, 0, len(report.Recipients))
	for _, d := range report.Recipients {
		bcc = append(bcc, d.Email)
	}
	body := strings.Join([]string{
		"تحية طيبة،",
		"",
		fmt.Sprintf("نود تذكيركم بضرورة تسديد مستحقات التوقيفات التقاعدية لشهر %s من عام %d.", month, report.Period.Year),
		"",
		"يرجى اتخاذ الإجراءات اللازمة في أقرب وقت ممكن.",
		"",
		"مع التقدير،",
		Signature,
	}, "\n")
	return Reminder{
		Period:  report.Period,
		Bcc:     bcc,
		Subject: fmt.Sprintf("تذكير بخصوص تسديد التوقيفات التقاعدية لشهر %s %d", month, report.Period.Year),
		Body:    body,
	}, nil
}

// MailtoURL renders the reminder as a mailto: link.
func (r Reminder) MailtoURL() string {
	return "mailto:?bcc=" + mailtoEscape(strings.Join(r.Bcc, ",")) +
		"&subject=" + mailtoEscape(r.Subject) +
		"&body=" + mailtoEscape(r.Body)
}

// mailtoEscape escapes a header value. Mail clients do not read "+" as a
// space, so spaces become %20.
func mailtoEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
