package expand

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ssoenhancer/portal"
)

// ErrRunning is returned when a run is requested while one is active
var ErrRunning = errors.New("expansion already running")

// Policy controls the pacing of an expansion run
type Policy struct {
	InitialDelay time.Duration
	// Step is subtracted from the delay after every successful expansion
	Step     time.Duration
	MinDelay time.Duration
	MaxDelay time.Duration

	PollInterval time.Duration
	ItemTimeout  time.Duration

	// FailureThreshold consecutive timeouts trigger one Cooldown pause
	FailureThreshold int
	Cooldown         time.Duration
}

// DefaultPolicy returns the pacing used against the AWS access portal
func DefaultPolicy() Policy {
	return Policy{
		InitialDelay:     100 * time.Millisecond,
		Step:             10 * time.Millisecond,
		MinDelay:         50 * time.Millisecond,
		MaxDelay:         5 * time.Second,
		PollInterval:     50 * time.Millisecond,
		ItemTimeout:      5 * time.Second,
		FailureThreshold: 3,
		Cooldown:         3 * time.Second,
	}
}

func (p Policy) speedUp(d time.Duration) time.Duration {
	return max(p.MinDelay, d-p.Step)
}

func (p Policy) backOff(d time.Duration) time.Duration {
	return min(p.MaxDelay, d*2)
}

// Target is what the scheduler expands. portal.Page satisfies it.
type Target interface {
	Snapshot(ctx context.Context) ([]portal.Account, error)
	Expand(ctx context.Context, acc portal.Account) error
}

// State of the scheduler
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Progress is reported after every account of a run
type Progress struct {
	Completed int
	Total     int
	Account   portal.Account
	Expanded  bool
	Delay     time.Duration
	Failures  int
}

// Result summarizes a finished run
type Result struct {
	Total     int
	Expanded  int
	TimedOut  int
	Skipped   int
	Errors    int
	Cooldowns int
	Delay     time.Duration
}

// Status is a point-in-time view of the scheduler
type Status struct {
	State     State
	Delay     time.Duration
	Failures  int
	Completed int
	Total     int
}

// Scheduler clicks every collapsed account open, one at a time, slowing
// down when roles stop appearing. A timeout is the only throttling signal
// the page gives, so slow rendering and a broken account look the same.
type Scheduler struct {
	policy  Policy
	clock   Clock
	metrics *Metrics
	logger  *slog.Logger

	mu     sync.Mutex
	status Status
}

// Option configures a Scheduler
type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New creates a scheduler
func New(policy Policy, opts ...Option) *Scheduler {
	s := &Scheduler{
		policy: policy,
		clock:  RealClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.status.Delay = policy.InitialDelay
	return s
}

// Status returns the current run state
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Running reports whether a run is in progress
func (s *Scheduler) Running() bool {
	return s.Status().State == Running
}

func (s *Scheduler) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.State == Running {
		return false
	}
	s.status = Status{State: Running, Delay: s.policy.InitialDelay}
	return true
}

func (s *Scheduler) update(fn func(*Status)) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.status)
	return s.status
}

// Run expands every collapsed account in page order. onProgress may be
// nil. A second Run while one is active returns ErrRunning and does
// nothing. The run only stops early when ctx is done or the page refuses
// clicks altogether.
func (s *Scheduler) Run(ctx context.Context, target Target, onProgress func(Progress)) (Result, error) {
	if !s.begin() {
		return Result{}, ErrRunning
	}
	defer s.update(func(st *Status) { st.State = Idle })

	s.metrics.runStarted()
	s.metrics.setDelay(s.policy.InitialDelay.Seconds())

	accounts, err := target.Snapshot(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read accounts: %w", err)
	}

	var pending []portal.Account
	for _, acc := range accounts {
		if !acc.Expanded {
			pending = append(pending, acc)
		}
	}

	s.update(func(st *Status) { st.Total = len(pending) })
	res := Result{Total: len(pending), Delay: s.policy.InitialDelay}
	s.logger.Info("expansion run started", "pending", len(pending))

	for _, acc := range pending {
		outcome, err := s.expandOne(ctx, target, acc)
		if err != nil {
			return res, err
		}
		s.metrics.item(outcome)

		st := s.update(func(st *Status) {
			switch outcome {
			case resultExpanded:
				st.Failures = 0
				st.Delay = s.policy.speedUp(st.Delay)
			case resultTimeout, resultError:
				st.Failures++
				st.Delay = s.policy.backOff(st.Delay)
			}
			st.Completed++
		})
		res.Delay = st.Delay
		s.metrics.setDelay(st.Delay.Seconds())

		switch outcome {
		case resultExpanded:
			res.Expanded++
		case resultTimeout:
			res.TimedOut++
			s.logger.Debug("account expansion timed out", "account", acc.ID, "delay", st.Delay, "failures", st.Failures)
		case resultError:
			res.Errors++
		case resultSkipped:
			res.Skipped++
		}

		if onProgress != nil {
			onProgress(Progress{
				Completed: st.Completed,
				Total:     st.Total,
				Account:   acc,
				Expanded:  outcome == resultExpanded || outcome == resultSkipped,
				Delay:     st.Delay,
				Failures:  st.Failures,
			})
		}

		if outcome == resultSkipped {
			continue
		}

		if err := s.clock.Sleep(ctx, st.Delay); err != nil {
			return res, err
		}

		if st.Failures >= s.policy.FailureThreshold {
			s.logger.Info("pausing after consecutive expansion timeouts", "failures", st.Failures, "cooldown", s.policy.Cooldown)
			s.metrics.cooldown()
			res.Cooldowns++
			if err := s.clock.Sleep(ctx, s.policy.Cooldown); err != nil {
				return res, err
			}
			s.update(func(st *Status) { st.Failures = 0 })
		}
	}

	s.logger.Info("expansion run finished",
		"expanded", res.Expanded, "timed_out", res.TimedOut, "skipped", res.Skipped, "errors", res.Errors)
	return res, nil
}

// expandOne clicks the account open and waits for its roles. The returned
// error is only set when the run has to stop.
func (s *Scheduler) expandOne(ctx context.Context, target Target, acc portal.Account) (string, error) {
	if current, err := target.Snapshot(ctx); err == nil {
		if a, ok := lookup(current, acc); ok && a.Expanded {
			return resultSkipped, nil
		}
	}

	if err := target.Expand(ctx, acc); err != nil {
		if errors.Is(err, portal.ErrReadOnly) || ctx.Err() != nil {
			return "", err
		}
		s.logger.Warn("failed to click account", "account", acc.ID, "error", err)
		return resultError, nil
	}

	deadline := s.clock.Now().Add(s.policy.ItemTimeout)
	for s.clock.Now().Before(deadline) {
		if err := s.clock.Sleep(ctx, s.policy.PollInterval); err != nil {
			return "", err
		}
		current, err := target.Snapshot(ctx)
		if err != nil {
			continue
		}
		if a, ok := lookup(current, acc); ok && a.RolesLoaded() {
			return resultExpanded, nil
		}
	}

	return resultTimeout, nil
}

// lookup finds acc in a fresh snapshot, by ID when the page showed one
func lookup(accounts []portal.Account, acc portal.Account) (portal.Account, bool) {
	if acc.ID != "" {
		return portal.Find(accounts, acc.ID)
	}
	for _, a := range accounts {
		if a.Handle == acc.Handle {
			return a, true
		}
	}
	return portal.Account{}, false
}
