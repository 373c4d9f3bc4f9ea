package expand

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ssoenhancer/portal"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage renders roles for clicked accounts whose ID is in loads
type fakePage struct {
	mu         sync.Mutex
	accounts   []portal.Account
	loads      map[string]bool
	clicks     []string
	clickErr   error
	onSnapshot func()
}

func newFakePage(n int, loads ...string) *fakePage {
	p := &fakePage{loads: map[string]bool{}}
	for i := 0; i < n; i++ {
		p.accounts = append(p.accounts, portal.Account{
			ID:     fmt.Sprintf("%012d", i+1),
			Name:   fmt.Sprintf("acc-%d", i+1),
			Handle: i,
		})
	}
	for _, id := range loads {
		p.loads[id] = true
	}
	return p
}

func (p *fakePage) Snapshot(ctx context.Context) ([]portal.Account, error) {
	if p.onSnapshot != nil {
		p.onSnapshot()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]portal.Account(nil), p.accounts...), nil
}

func (p *fakePage) Expand(ctx context.Context, acc portal.Account) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.clickErr != nil {
		return p.clickErr
	}
	p.clicks = append(p.clicks, acc.ID)
	for i := range p.accounts {
		if p.accounts[i].ID == acc.ID {
			p.accounts[i].Expanded = true
			if p.loads[acc.ID] {
				p.accounts[i].Roles = []portal.Role{{Name: "Admin", Keys: -1}}
			}
		}
	}
	return nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *VirtualClock, *Metrics) {
	t.Helper()
	clock := NewVirtualClock(time.Unix(0, 0))
	metrics, err := NewMetrics()
	require.NoError(t, err)
	return New(DefaultPolicy(), WithClock(clock), WithMetrics(metrics)), clock, metrics
}

func TestRunSpeedsUpOnSuccess(t *testing.T) {
	page := newFakePage(6, "000000000001", "000000000002", "000000000003", "000000000004", "000000000005", "000000000006")
	s, _, metrics := newTestScheduler(t)

	var delays []time.Duration
	var completed []int
	res, err := s.Run(context.Background(), page, func(p Progress) {
		delays = append(delays, p.Delay)
		completed = append(completed, p.Completed)
		assert.Equal(t, 6, p.Total)
		assert.True(t, p.Expanded)
		assert.Zero(t, p.Failures)
	})
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{
		90 * time.Millisecond,
		80 * time.Millisecond,
		70 * time.Millisecond,
		60 * time.Millisecond,
		50 * time.Millisecond,
		50 * time.Millisecond,
	}, delays)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, completed)
	assert.Equal(t, 6, res.Expanded)
	assert.Equal(t, 50*time.Millisecond, res.Delay)
	assert.Equal(t, 6, len(page.clicks))
	assert.Equal(t, float64(6), testutil.ToFloat64(metrics.items.WithLabelValues(resultExpanded)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.runs))
	assert.Equal(t, 0.05, testutil.ToFloat64(metrics.delay))
}

func TestRunBacksOffAndCoolsDownOnce(t *testing.T) {
	page := newFakePage(4)
	s, clock, metrics := newTestScheduler(t)

	var delays []time.Duration
	var failures []int
	res, err := s.Run(context.Background(), page, func(p Progress) {
		delays = append(delays, p.Delay)
		failures = append(failures, p.Failures)
		assert.False(t, p.Expanded)
	})
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
	}, delays)
	for i := 1; i < len(delays); i++ {
		assert.Greater(t, delays[i], delays[i-1])
	}
	assert.Equal(t, []int{1, 2, 3, 1}, failures)

	assert.Equal(t, 4, res.TimedOut)
	assert.Equal(t, 1, res.Cooldowns)
	assert.Equal(t, 1, clock.Count(3*time.Second))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cooldowns))
	assert.Equal(t, float64(4), testutil.ToFloat64(metrics.items.WithLabelValues(resultTimeout)))

	// each item polls until the timeout elapses
	assert.Equal(t, 4*100, clock.Count(50*time.Millisecond))
	assert.Equal(t, 4, len(page.clicks), "no retries within a run")
}

func TestRunDelayIsCapped(t *testing.T) {
	page := newFakePage(8)
	s, _, _ := newTestScheduler(t)

	var last time.Duration
	_, err := s.Run(context.Background(), page, func(p Progress) {
		assert.LessOrEqual(t, p.Delay, 5*time.Second)
		last = p.Delay
	})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, last)
}

func TestRunRecoversAfterFailure(t *testing.T) {
	page := newFakePage(3, "000000000002", "000000000003")
	s, _, _ := newTestScheduler(t)

	var delays []time.Duration
	_, err := s.Run(context.Background(), page, func(p Progress) {
		delays = append(delays, p.Delay)
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 190 * time.Millisecond, 180 * time.Millisecond}, delays)
	assert.Equal(t, 0, s.Status().Failures)
}

func TestRunSkipsExpandedAccounts(t *testing.T) {
	page := newFakePage(3, "000000000001", "000000000002", "000000000003")
	page.accounts[1].Expanded = true
	page.accounts[1].Roles = []portal.Role{{Name: "ReadOnly"}}

	s, _, _ := newTestScheduler(t)
	res, err := s.Run(context.Background(), page, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	assert.Equal(t, []string{"000000000001", "000000000003"}, page.clicks)
}

func TestRunSkipsAccountsExpandedMidRun(t *testing.T) {
	page := newFakePage(2, "000000000001", "000000000002")
	s, _, _ := newTestScheduler(t)

	// the user opens the second account while the first one loads
	page.onSnapshot = func() {
		page.mu.Lock()
		defer page.mu.Unlock()
		if len(page.clicks) == 1 {
			page.accounts[1].Expanded = true
		}
	}

	res, err := s.Run(context.Background(), page, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expanded)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"000000000001"}, page.clicks)
}

func TestRunIsNotReentrant(t *testing.T) {
	page := newFakePage(1, "000000000001")
	s, _, _ := newTestScheduler(t)

	var nested error
	page.onSnapshot = func() {
		if nested == nil {
			_, nested = s.Run(context.Background(), page, nil)
		}
	}

	_, err := s.Run(context.Background(), page, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, nested, ErrRunning)
	assert.False(t, s.Running())
	assert.Equal(t, Idle, s.Status().State)
}

func TestRunResetsStateBetweenRuns(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	_, err := s.Run(context.Background(), newFakePage(2), nil)
	require.NoError(t, err)
	assert.Equal(t, 400*time.Millisecond, s.Status().Delay)

	var first time.Duration
	_, err = s.Run(context.Background(), newFakePage(1, "000000000001"), func(p Progress) {
		first = p.Delay
	})
	require.NoError(t, err)
	assert.Equal(t, 90*time.Millisecond, first)
}

func TestRunClickErrors(t *testing.T) {
	t.Run("read-only page stops the run", func(t *testing.T) {
		page := newFakePage(3)
		page.clickErr = portal.ErrReadOnly
		s, _, _ := newTestScheduler(t)

		_, err := s.Run(context.Background(), page, nil)
		assert.ErrorIs(t, err, portal.ErrReadOnly)
		assert.False(t, s.Running())
	})

	t.Run("other click errors count as failures", func(t *testing.T) {
		page := newFakePage(2)
		page.clickErr = errors.New("element detached")
		s, _, _ := newTestScheduler(t)

		res, err := s.Run(context.Background(), page, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Errors)
		assert.Equal(t, 400*time.Millisecond, res.Delay)
	})
}

func TestRunStopsWhenContextDone(t *testing.T) {
	page := newFakePage(3)
	s, _, _ := newTestScheduler(t)

	ctx, cancel := context.WithCancel(context.Background())
	res, err := s.Run(ctx, page, func(p Progress) {
		cancel()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.TimedOut)
	assert.False(t, s.Running())
}
