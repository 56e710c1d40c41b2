package api

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/remittance-engine/remittance"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []remittance.Reminder
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, r remittance.Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, r)
	return nil
}

// months returns the notified months in order.
func (n *recordingNotifier) months() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]int, len(n.sent))
	for i, r := range n.sent {
		out[i] = r.Period.Month
	}
	return out
}

func TestScheduler_SkipsDuringGracePeriod(t *testing.T) {
	env := newTestEnv(t)
	env.clock.Set(time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC))
	notifier := &recordingNotifier{}
	rs := NewReminderScheduler(env.handler, notifier)

	assert.False(t, rs.RunNow(context.Background()))
	assert.Empty(t, notifier.sent)
}

func TestScheduler_NotifiesOncePerPeriod(t *testing.T) {
	env := newTestEnv(t)
	notifier := &recordingNotifier{}
	rs := NewReminderScheduler(env.handler, notifier)
	ctx := context.Background()

	// GIVEN: past the grace day with nobody paid
	require.True(t, rs.RunNow(ctx))
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, []string{"oil@basra.example", "edu@basra.example"}, notifier.sent[0].Bcc)

	// THEN: the same period is not notified again
	assert.False(t, rs.RunNow(ctx))
	assert.Len(t, notifier.sent, 1)

	// WHEN: the next month's grace period has passed
	env.clock.Set(time.Date(2024, time.July, 21, 9, 0, 0, 0, time.UTC))

	// THEN: a new reminder goes out
	assert.True(t, rs.RunNow(ctx))
	assert.Len(t, notifier.sent, 2)
	assert.Equal(t, 7, notifier.sent[1].Period.Month)
}

func TestScheduler_RetriesAfterDeliveryFailure(t *testing.T) {
	env := newTestEnv(t)
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	rs := NewReminderScheduler(env.handler, notifier)
	ctx := context.Background()

	assert.False(t, rs.RunNow(ctx))

	notifier.err = nil
	assert.True(t, rs.RunNow(ctx))
	assert.Len(t, notifier.sent, 1)
}

func TestScheduler_NothingToSend(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	notifier := &recordingNotifier{}
	rs := NewReminderScheduler(env.handler, notifier)

	// only the department without an email is unpaid
	env.submit(t, token, minOil, depOil, 2024, 6, 1_000)
	env.submit(t, token, minEducation, depEducation, 2024, 6, 1_000)
	assert.False(t, rs.RunNow(context.Background()))

	env.submit(t, token, minOil, depGas, 2024, 6, 1_000)
	assert.False(t, rs.RunNow(context.Background()))
	assert.Empty(t, notifier.sent)
}

func TestScheduler_StartStop(t *testing.T) {
	env := newTestEnv(t)
	rs := NewReminderScheduler(env.handler, LogNotifier{Log: env.handler.Log})
	rs.CheckInterval = time.Hour

	rs.Start()
	rs.Stop()
	rs.Stop()

	disabled := NewReminderScheduler(env.handler, LogNotifier{Log: env.handler.Log})
	disabled.Enabled = false
	disabled.Start()
	disabled.Stop()

	assert.Equal(t, env.clock.Now().Add(time.Hour), rs.GetNextRunTime())
}

func TestScheduler_RestartAfterStop(t *testing.T) {
	env := newTestEnv(t)
	notifier := &recordingNotifier{}
	rs := NewReminderScheduler(env.handler, notifier)
	rs.CheckInterval = 5 * time.Millisecond

	// GIVEN: a first run notified June, then the scheduler was stopped
	rs.Start()
	require.Eventually(t, func() bool { return len(notifier.months()) == 1 }, time.Second, time.Millisecond)
	rs.Stop()

	// WHEN: it is started again, twice
	rs.Start()
	rs.Start()
	defer rs.Stop()
	env.clock.Set(time.Date(2024, time.July, 22, 9, 0, 0, 0, time.UTC))

	// THEN: the ticker keeps running and picks up the next period
	require.Eventually(t, func() bool { return len(notifier.months()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []int{6, 7}, notifier.months())
}
