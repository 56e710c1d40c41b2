package remittance_test

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/remittance-engine/generic"
	"github.com/warp/remittance-engine/remittance"
)

func newMonitor(day int) *remittance.Monitor {
	clock := generic.NewFixedClock(time.Date(2024, time.May, day, 10, 0, 0, 0, time.UTC))
	return remittance.NewMonitor(testDirectory(), clock, remittance.DefaultGraceDay)
}

func TestMonitor_GracePeriodBoundary(t *testing.T) {
	assert.True(t, newMonitor(1).InGracePeriod())
	assert.True(t, newMonitor(20).InGracePeriod())
	assert.False(t, newMonitor(21).InGracePeriod())
}

func TestMonitor_UnpaidEmptyDuringGrace(t *testing.T) {
	// GIVEN: the 20th of May and no records at all
	report := newMonitor(20).Unpaid(nil)

	// THEN: nobody is delinquent yet
	assert.True(t, report.GraceActive)
	assert.Zero(t, report.Count)
	assert.Empty(t, report.Unpaid)
	assert.Empty(t, report.Recipients)
	assert.Equal(t, generic.Period{Year: 2024, Month: 5}, report.Period)
}

func TestMonitor_UnpaidAfterGrace(t *testing.T) {
	// GIVEN: the 21st of May; oil and education paid for May, tax paid April only
	records := []remittance.Record{
		rec(minOil, depOil, 2024, 5, 100, 1),
		rec(minEducation, depEducation, 2024, 5, 100, 1),
		rec(minFinance, depTax, 2024, 4, 100, 1),
	}

	report := newMonitor(21).Unpaid(records)

	assert.False(t, report.GraceActive)
	assert.Equal(t, 5, report.Count)
	assert.Equal(t, []remittance.MinistryGroup{
		{Ministry: minIndependent, Departments: []string{depSchool}},
		{Ministry: minEducation, Departments: []string{depSchool}},
		{Ministry: minFinance, Departments: []string{depTreasury, depTax}},
		{Ministry: minOil, Departments: []string{depGas}},
	}, report.Unpaid)
	// paid departments are the only ones with an email in the fixture
	assert.Empty(t, report.Recipients)
}

func TestMonitor_RecipientsAreUnpaidWithEmail(t *testing.T) {
	records := []remittance.Record{rec(minEducation, depEducation, 2024, 5, 100, 1)}

	report := newMonitor(25).Unpaid(records)

	require.Len(t, report.Recipients, 1)
	assert.Equal(t, "oil@basra.example", report.Recipients[0].Email)
}

func TestNewMonitor_DefaultsGraceDay(t *testing.T) {
	m := remittance.NewMonitor(testDirectory(), nil, 0)
	assert.Equal(t, remittance.DefaultGraceDay, m.GraceDay)
	assert.NotNil(t, m.Clock)
}

func TestBuildReminder(t *testing.T) {
	report := newMonitor(25).Unpaid(nil)

	reminder, err := remittance.BuildReminder(report)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"edu@basra.example", "oil@basra.example"}, reminder.Bcc)
	assert.Contains(t, reminder.Subject, "أيار")
	assert.Contains(t, reminder.Subject, "2024")
	assert.Contains(t, reminder.Body, "أيار")
	assert.True(t, strings.HasSuffix(reminder.Body, remittance.Signature))

	mailto := reminder.MailtoURL()
	assert.True(t, strings.HasPrefix(mailto, "mailto:?bcc="))
	assert.Contains(t, mailto, "&subject=")
	assert.NotContains(t, mailto, " ")
}

func TestMailtoURL_EscapesQueryDelimiters(t *testing.T) {
	r := remittance.Reminder{
		Bcc:     []string{"a+b@x.example", "c@x.example"},
		Subject: "رواتب & استقطاعات = 25%",
		Body:    "سطر أول\nسطر ثان",
	}

	mailto := r.MailtoURL()

	// exactly the three parameters survive, and each decodes back
	raw := strings.TrimPrefix(mailto, "mailto:?")
	parts := strings.Split(raw, "&")
	require.Len(t, parts, 3)
	assert.NotContains(t, raw, "+")
	assert.Contains(t, raw, "%20")

	q, err := url.ParseQuery(raw)
	require.NoError(t, err)
	assert.Equal(t, "a+b@x.example,c@x.example", q.Get("bcc"))
	assert.Equal(t, r.Subject, q.Get("subject"))
	assert.Equal(t, r.Body, q.Get("body"))
}

func TestBuildReminder_NoRecipients(t *testing.T) {
	_, err := remittance.BuildReminder(remittance.UnpaidReport{Count: 3})
	assert.ErrorIs(t, err, generic.ErrNoRecipients)
}

func TestUnpaidFor_DirectoryOrder(t *testing.T) {
	p := generic.Period{Year: 2024, Month: 1}
	refs := remittance.UnpaidFor([]remittance.Record{rec(minEducation, depEducation, 2024, 1, 1, 1)}, testDirectory(), p)

	require.Len(t, refs, 6)
	assert.Equal(t, ref(minEducation, depSchool), refs[0])
	assert.Equal(t, ref(minIndependent, depSchool), refs[5])
}
