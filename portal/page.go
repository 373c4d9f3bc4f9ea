package portal

import (
	"context"
	"fmt"
	"time"
)

// Page is the host portal page as seen by the enhancer. Implementations
// read the rendered markup and trigger the page's own controls; they never
// call portal APIs themselves.
type Page interface {
	// Snapshot reads the accounts currently rendered on the page
	Snapshot(ctx context.Context) ([]Account, error)

	// Expand clicks the account's expansion control once
	Expand(ctx context.Context, acc Account) error

	// GenerateKeys clicks the role's access keys trigger
	GenerateKeys(ctx context.Context, acc Account, role Role) error

	// Launch opens a console URL
	Launch(ctx context.Context, url string) error

	// URL returns the current page URL
	URL() string
}

const (
	DefaultReadyInterval = 200 * time.Millisecond
	DefaultReadyTimeout  = 10 * time.Second
)

// WaitReady polls the page until at least one account control is rendered.
// It returns ErrNotReady once timeout elapses. Snapshot errors while waiting
// are treated like an empty page.
func WaitReady(ctx context.Context, page Page, interval, timeout time.Duration) ([]Account, error) {
	if interval <= 0 {
		interval = DefaultReadyInterval
	}
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		accounts, err := page.Snapshot(ctx)
		if err == nil && len(accounts) > 0 {
			return accounts, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w after %s", ErrNotReady, timeout)
		case <-ticker.C:
		}
	}
}

// WaitURL polls until the page URL matches m, for flows where the user has
// to sign in before the portal shows up.
func WaitURL(ctx context.Context, page Page, m *Matcher, interval, timeout time.Duration) error {
	if interval <= 0 {
		interval = DefaultReadyInterval
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if m.Match(page.URL()) {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("page never reached %s: %w", m, ctx.Err())
		case <-ticker.C:
		}
	}
}
