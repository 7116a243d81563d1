package exec

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clde-code/polycopy/market"
)

// fakeClock advances only when the executor sleeps, so lifecycles run
// instantly and deterministically.
type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.now = c.now.Add(d)
	c.slept = append(c.slept, d)
	return nil
}

// pollStep is one scripted venue response.
type pollStep struct {
	rep StatusReport
	err error
}

type scriptedVenue struct {
	placeErrs []error // errors before a successful placement
	steps     []pollStep
	polls     int
	cancels   []string
}

func (v *scriptedVenue) PlaceOrder(context.Context, OrderIntent) (string, error) {
	if len(v.placeErrs) > 0 {
		err := v.placeErrs[0]
		v.placeErrs = v.placeErrs[1:]
		return "", err
	}
	return "ord-1", nil
}

func (v *scriptedVenue) OrderStatus(context.Context, string) (StatusReport, error) {
	step := v.steps[0]
	if len(v.steps) > 1 {
		v.steps = v.steps[1:]
	}
	v.polls++
	return step.rep, step.err
}

func (v *scriptedVenue) CancelOrder(_ context.Context, orderID string) error {
	v.cancels = append(v.cancels, orderID)
	return nil
}

var testIntent = OrderIntent{MarketID: "m1", Side: market.Buy, Size: 100, LimitPrice: 0.55}

func testConfig() Config {
	return Config{
		PollInterval: time.Second,
		Timeout:      5 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
	}
}

func run(t *testing.T, venue *scriptedVenue, cfg Config) (Outcome, *fakeClock, error) {
	t.Helper()
	clock := newFakeClock()
	ex := NewExecutor(venue, clock, cfg, nil)
	out, err := ex.Execute(context.Background(), testIntent)
	return out, clock, err
}

func TestFilledImmediately(t *testing.T) {
	t.Parallel()

	v := &scriptedVenue{steps: []pollStep{
		{rep: StatusReport{Status: VenueFilled, FilledSize: 100, AvgPrice: 0.56}},
	}}
	out, _, err := run(t, v, testConfig())
	require.NoError(t, err)

	assert.Equal(t, StatusFilled, out.Status)
	assert.Equal(t, 100.0, out.FilledSize)
	assert.Equal(t, 0.56, out.FillPrice)
	assert.Equal(t, 1, v.polls, "no polling after a terminal state")
	assert.Empty(t, v.cancels)
}

func TestOpenThenFilled(t *testing.T) {
	t.Parallel()

	v := &scriptedVenue{steps: []pollStep{
		{rep: StatusReport{Status: VenueOpen}},
		{rep: StatusReport{Status: VenueOpen}},
		{rep: StatusReport{Status: VenueFilled, FilledSize: 100, AvgPrice: 0.55}},
	}}
	out, _, err := run(t, v, testConfig())
	require.NoError(t, err)
	assert.Equal(t, StatusFilled, out.Status)
	assert.Equal(t, 3, v.polls)
}

func TestOpenPastDeadlineCancelsAndTimesOut(t *testing.T) {
	t.Parallel()

	v := &scriptedVenue{steps: []pollStep{
		{rep: StatusReport{Status: VenueOpen}}, // repeats forever
	}}
	cfg := testConfig()
	cfg.Timeout = 3 * time.Second

	out, clock, err := run(t, v, cfg)
	require.NoError(t, err)

	assert.Equal(t, StatusTimedOut, out.Status)
	assert.Equal(t, []string{"ord-1"}, v.cancels)
	assert.Equal(t, out.SubmittedAt.Add(3*time.Second), clock.Now())
}

func TestPartialFillAcceptedAtDeadlineWithoutCancel(t *testing.T) {
	t.Parallel()

	v := &scriptedVenue{steps: []pollStep{
		{rep: StatusReport{Status: VenuePartiallyFilled, FilledSize: 40, AvgPrice: 0.55}},
	}}
	cfg := testConfig()
	cfg.Timeout = 2 * time.Second

	out, _, err := run(t, v, cfg)
	require.NoError(t, err)

	assert.Equal(t, StatusPartiallyFilled, out.Status)
	assert.Equal(t, 40.0, out.FilledSize)
	// Partial fills are kept as-is; the remainder is never cancelled.
	assert.Empty(t, v.cancels)
	assert.Equal(t, 3, v.polls) // t=0s, 1s, 2s (deadline)
}

func TestExternallyCancelled(t *testing.T) {
	t.Parallel()

	v := &scriptedVenue{steps: []pollStep{
		{rep: StatusReport{Status: VenueOpen}},
		{rep: StatusReport{Status: VenueCancelled}},
	}}
	out, _, err := run(t, v, testConfig())
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, out.Status)
	assert.Empty(t, v.cancels)
}

func TestPollRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	transport := errors.New("connection reset")
	v := &scriptedVenue{steps: []pollStep{
		{err: transport},
		{err: transport},
		{rep: StatusReport{Status: VenueFilled, FilledSize: 100, AvgPrice: 0.55}},
	}}
	out, clock, err := run(t, v, testConfig())
	require.NoError(t, err)
	assert.Equal(t, StatusFilled, out.Status)
	// Two backoff sleeps before the third attempt succeeded.
	assert.Contains(t, clock.slept, 100*time.Millisecond)
}

func TestPollBudgetExhausted(t *testing.T) {
	t.Parallel()

	transport := errors.New("connection reset")
	v := &scriptedVenue{steps: []pollStep{{err: transport}}}

	_, _, err := run(t, v, testConfig())
	assert.ErrorIs(t, err, ErrExecutionFailed)
	assert.Equal(t, 3, v.polls)
}

func TestSubmitRetriesThenFails(t *testing.T) {
	t.Parallel()

	transport := errors.New("503")
	v := &scriptedVenue{
		placeErrs: []error{transport, transport, transport},
		steps:     []pollStep{{rep: StatusReport{Status: VenueFilled}}},
	}
	_, _, err := run(t, v, testConfig())
	assert.ErrorIs(t, err, ErrExecutionFailed)
	assert.Zero(t, v.polls, "failed submission must never poll")
}

func TestSubmitRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	v := &scriptedVenue{
		placeErrs: []error{errors.New("503")},
		steps:     []pollStep{{rep: StatusReport{Status: VenueFilled, FilledSize: 100, AvgPrice: 0.55}}},
	}
	out, _, err := run(t, v, testConfig())
	require.NoError(t, err)
	assert.Equal(t, StatusFilled, out.Status)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, testConfig().Validate())

	bad := testConfig()
	bad.PollInterval = 0
	assert.Error(t, bad.Validate())

	bad = testConfig()
	bad.Timeout = time.Millisecond
	assert.Error(t, bad.Validate())

	bad = testConfig()
	bad.MaxRetries = 0
	assert.Error(t, bad.Validate())
}

func TestPaperVenueLifecycle(t *testing.T) {
	t.Parallel()

	ex := NewExecutor(NewPaperVenue(), newFakeClock(), testConfig(), nil)
	out, err := ex.Execute(context.Background(), testIntent)
	require.NoError(t, err)

	assert.Equal(t, StatusFilled, out.Status)
	assert.Equal(t, testIntent.Size, out.FilledSize)
	assert.Equal(t, testIntent.LimitPrice, out.FillPrice)
	assert.NotEmpty(t, out.OrderID)
}
