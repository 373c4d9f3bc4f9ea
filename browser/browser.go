// Package browser drives the live portal page through Playwright. It
// either launches Chromium with a persistent profile, so the SSO login
// survives restarts, or attaches to a browser the user already runs with
// remote debugging enabled.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"ssoenhancer/portal"

	"github.com/playwright-community/playwright-go"
)

const (
	DefaultTimeout = 10 * time.Second

	// ProfileDirName is the Chromium profile directory under the data dir
	ProfileDirName = "chromium-profile"
)

// ErrNoPortalPage is returned when no open tab matches the portal pattern
var ErrNoPortalPage = errors.New("no portal page open")

// Options configures how the browser is reached
type Options struct {
	// StartURL is opened in a launched browser
	StartURL string
	// CDPURL attaches to a running browser instead of launching one
	CDPURL string
	// UserDataDir holds the persistent profile of a launched browser
	UserDataDir string
	Headless    bool
	Timeout     time.Duration
	// Match selects the portal tab among the open pages
	Match *portal.Matcher
	// Install downloads the Playwright driver and Chromium if missing
	Install bool
}

// Page is the live portal tab. It implements portal.Page.
type Page struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page

	match  *portal.Matcher
	reader portal.Reader
	logger *slog.Logger

	// Playwright calls on one page are serialized
	mu sync.Mutex
}

// Open starts Playwright and finds the portal tab
func Open(opts Options, logger *slog.Logger) (*Page, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Match == nil {
		m, err := portal.NewMatcher("")
		if err != nil {
			return nil, err
		}
		opts.Match = m
	}

	// Driver output would corrupt the terminal UI
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if opts.Install {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	p := &Page{
		pw:     pw,
		match:  opts.Match,
		reader: portal.Reader{StartURL: opts.StartURL},
		logger: logger,
	}

	if opts.CDPURL != "" {
		err = p.connect(opts)
	} else {
		err = p.launch(opts)
	}
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	p.page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))
	return p, nil
}

func (p *Page) connect(opts Options) error {
	browser, err := p.pw.Chromium.ConnectOverCDP(opts.CDPURL)
	if err != nil {
		return fmt.Errorf("failed to connect to browser at %s: %w", opts.CDPURL, err)
	}
	p.browser = browser

	for _, bc := range browser.Contexts() {
		for _, pg := range bc.Pages() {
			if p.match.Match(pg.URL()) {
				p.context, p.page = bc, pg
				p.logger.Info("attached to portal tab", "url", pg.URL())
				return nil
			}
		}
	}
	return fmt.Errorf("%w matching %s", ErrNoPortalPage, p.match)
}

func (p *Page) launch(opts Options) error {
	if opts.StartURL == "" {
		return errors.New("a start url is required to launch a browser")
	}

	bc, err := p.pw.Chromium.LaunchPersistentContext(opts.UserDataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	p.context = bc

	if pages := bc.Pages(); len(pages) > 0 {
		p.page = pages[0]
	} else if p.page, err = bc.NewPage(); err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}

	if _, err := p.page.Goto(portal.DashboardURL(opts.StartURL)); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	p.logger.Info("opened portal", "url", p.page.URL(), "profile", opts.UserDataDir)
	return nil
}

// Snapshot reads the rendered page
func (p *Page) Snapshot(ctx context.Context) ([]portal.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	content, err := p.page.Content()
	p.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}
	return p.reader.Parse(strings.NewReader(content))
}

// Expand clicks the account's control. Handles are ordinals among the
// account controls; when the page showed an ID the control is checked to
// still carry it, since the list can re-render between reads.
func (p *Page) Expand(ctx context.Context, acc portal.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	cells, err := p.page.QuerySelectorAll(portal.AccountCellSelector)
	if err != nil {
		return fmt.Errorf("selector query failed: %w", err)
	}

	cell, err := pick(cells, acc)
	if err != nil {
		return err
	}
	if err := cell.Click(); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func pick(cells []playwright.ElementHandle, acc portal.Account) (playwright.ElementHandle, error) {
	carries := func(cell playwright.ElementHandle) bool {
		text, err := cell.TextContent()
		return err == nil && strings.Contains(text, acc.ID)
	}

	if acc.Handle >= 0 && acc.Handle < len(cells) {
		if acc.ID == "" || carries(cells[acc.Handle]) {
			return cells[acc.Handle], nil
		}
	}
	if acc.ID != "" {
		for _, cell := range cells {
			if carries(cell) {
				return cell, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", portal.ErrUnknownAccount, acc.Name)
}

// GenerateKeys clicks the role's access keys trigger
func (p *Page) GenerateKeys(ctx context.Context, acc portal.Account, role portal.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !role.HasKeys() {
		return fmt.Errorf("role %s has no access keys trigger", role.Name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	triggers, err := p.page.QuerySelectorAll(portal.KeysButtonSelector)
	if err != nil {
		return fmt.Errorf("selector query failed: %w", err)
	}
	if role.Keys >= len(triggers) {
		return fmt.Errorf("access keys trigger for %s in %s is gone", role.Name, acc.Name)
	}
	if err := triggers[role.Keys].Click(); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

// Launch opens url in a new tab of the same browser context, so the
// portal session cookies apply
func (p *Page) Launch(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tab, err := p.context.NewPage()
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}
	if _, err := tab.Goto(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.page == nil {
		return ""
	}
	return p.page.URL()
}

// Close releases the browser. An attached browser is left running.
func (p *Page) Close() error {
	var errs []error

	if p.browser == nil && p.context != nil {
		if err := p.context.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.pw != nil {
		if err := p.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}
