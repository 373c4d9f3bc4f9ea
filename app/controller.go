// Package app wires the page, the preference store, the expansion
// scheduler and the renderer into one controller that the terminal UI
// drives.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ssoenhancer/expand"
	"ssoenhancer/filter"
	"ssoenhancer/portal"
	"ssoenhancer/prefs"
	"ssoenhancer/view"
)

// DefaultSettle is how long a single expansion click is given before the
// page is read again
const DefaultSettle = 500 * time.Millisecond

// ErrBusy is returned when an operation is not allowed in the current phase
var ErrBusy = errors.New("controller is busy")

// Phase of the controller
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRendering
	PhaseExpanding
)

func (p Phase) String() string {
	switch p {
	case PhaseRendering:
		return "rendering"
	case PhaseExpanding:
		return "expanding"
	default:
		return "idle"
	}
}

// Controller owns everything the picker shows: the last page snapshot,
// the filter criteria, the preference store and the render state. Its
// methods are safe to call from the UI goroutine and from commands
// running in the background.
type Controller struct {
	page      portal.Page
	store     *prefs.Store
	scheduler *expand.Scheduler
	clock     expand.Clock
	logger    *slog.Logger
	limits    filter.Limits
	settle    time.Duration
	readOnly  bool
	copy      func(string) error
	progress  func(expand.Progress)
	onRender  func(*view.Node)

	dispatcher *Dispatcher

	mu       sync.Mutex
	phase    Phase
	accounts []portal.Account
	criteria filter.Criteria
	run      view.Progress
	renderer *view.Renderer
}

// Option configures a Controller
type Option func(*Controller)

func WithClock(c expand.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(ctl *Controller) { ctl.logger = l }
}

func WithLimits(l filter.Limits) Option {
	return func(ctl *Controller) { ctl.limits = l }
}

func WithSettle(d time.Duration) Option {
	return func(ctl *Controller) { ctl.settle = d }
}

// WithClipboard sets the function used by the copy-url action
func WithClipboard(fn func(string) error) Option {
	return func(ctl *Controller) { ctl.copy = fn }
}

// WithProgress sets a callback for expand-all runs started from an action
func WithProgress(fn func(expand.Progress)) Option {
	return func(ctl *Controller) { ctl.progress = fn }
}

// WithRenderHook is called with every rendered tree. The hook runs with
// the controller locked and must not call back into it.
func WithRenderHook(fn func(*view.Node)) Option {
	return func(ctl *Controller) { ctl.onRender = fn }
}

// New creates a controller for page
func New(page portal.Page, store *prefs.Store, scheduler *expand.Scheduler, opts ...Option) *Controller {
	c := &Controller{
		page:      page,
		store:     store,
		scheduler: scheduler,
		clock:     expand.RealClock(),
		logger:    slog.Default(),
		limits:    filter.DefaultLimits,
		settle:    DefaultSettle,
		copy:      func(string) error { return errors.New("clipboard not available") },
	}
	for _, opt := range opts {
		opt(c)
	}

	if ro, ok := page.(interface{ ReadOnly() bool }); ok {
		c.readOnly = ro.ReadOnly()
	}

	c.renderer = view.NewRenderer(c.build, c.onRender)
	c.dispatcher = c.routes()
	return c
}

// transition moves from one phase to another. The caller holds mu.
func (c *Controller) transition(from, to Phase) error {
	if c.phase != from {
		return fmt.Errorf("%w: cannot start %s while %s", ErrBusy, to, c.phase)
	}
	c.phase = to
	return nil
}

// render rebuilds the tree. The caller holds mu.
func (c *Controller) render() {
	if c.transition(PhaseIdle, PhaseRendering) == nil {
		defer func() { _ = c.transition(PhaseRendering, PhaseIdle) }()
	}
	c.renderer.Request()
}

func (c *Controller) build() *view.Node {
	favs := c.store.Favorites()
	return view.Build(view.State{
		Criteria:  c.criteria,
		View:      filter.Apply(c.accounts, favs, c.criteria),
		Quick:     filter.Quick(c.accounts, favs, c.store.Usage(), c.limits),
		Favorites: favs,
		Expanding: c.phase == PhaseExpanding,
		Progress:  c.run,
		ReadOnly:  c.readOnly,
	})
}

// Start waits for the account list to appear and renders it. When the
// list never shows up the page is left alone and ErrNotReady is returned.
func (c *Controller) Start(ctx context.Context, interval, timeout time.Duration) error {
	accounts, err := portal.WaitReady(ctx, c.page, interval, timeout)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts = accounts
	c.render()
	c.logger.Info("portal ready", "accounts", len(accounts), "url", c.page.URL(), "read_only", c.readOnly)
	return nil
}

// Refresh reads the page again and re-renders
func (c *Controller) Refresh(ctx context.Context) error {
	accounts, err := c.page.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read page: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts = accounts
	c.render()
	return nil
}

// Phase returns the current phase
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Accounts returns the last snapshot
func (c *Controller) Accounts() []portal.Account {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accounts
}

// Criteria returns the current filter input
func (c *Controller) Criteria() filter.Criteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.criteria
}

// ReadOnly reports whether the page's controls can be clicked
func (c *Controller) ReadOnly() bool {
	return c.readOnly
}

func (c *Controller) SetAccountFilter(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.criteria.Account = s
	c.render()
}

func (c *Controller) SetRoleFilter(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.criteria.Role = s
	c.render()
}

func (c *Controller) SetFavoritesOnly(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.criteria.FavoritesOnly = on
	c.render()
}

// ToggleFavoritesOnly flips the favorites-only toggle
func (c *Controller) ToggleFavoritesOnly() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.criteria.FavoritesOnly = !c.criteria.FavoritesOnly
	c.render()
}

func (c *Controller) ToggleFavoriteAccount(accountID string) (bool, error) {
	return c.toggle(func() (bool, error) { return c.store.ToggleAccount(accountID) })
}

func (c *Controller) ToggleFavoriteRole(roleName string) (bool, error) {
	return c.toggle(func() (bool, error) { return c.store.ToggleRole(roleName) })
}

func (c *Controller) ToggleFavoriteCombo(accountID, roleName string) (bool, error) {
	return c.toggle(func() (bool, error) { return c.store.ToggleCombo(accountID, roleName) })
}

func (c *Controller) toggle(fn func() (bool, error)) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	on, err := fn()
	c.render()
	if err != nil {
		return on, fmt.Errorf("failed to save favorites: %w", err)
	}
	return on, nil
}

// Expand clicks one account open, waits for the page to settle and reads
// it again
func (c *Controller) Expand(ctx context.Context, accountID string) error {
	return c.expandMatching(ctx, func(a portal.Account) bool { return a.ID == accountID })
}

// ExpandHandle is Expand for accounts the page showed no ID for
func (c *Controller) ExpandHandle(ctx context.Context, handle int) error {
	return c.expandMatching(ctx, func(a portal.Account) bool { return a.Handle == handle })
}

func (c *Controller) expandMatching(ctx context.Context, match func(portal.Account) bool) error {
	c.mu.Lock()
	acc, ok := c.find(match)
	if !ok {
		c.mu.Unlock()
		return portal.ErrUnknownAccount
	}
	if err := c.transition(PhaseIdle, PhaseExpanding); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	err := c.page.Expand(ctx, acc)
	if err == nil {
		err = c.clock.Sleep(ctx, c.settle)
	}

	c.mu.Lock()
	c.phase = PhaseIdle
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to expand %s: %w", acc.Name, err)
	}
	return c.Refresh(ctx)
}

// ExpandAll runs the scheduler over every collapsed account. The picker is
// refreshed after every account so roles show up as they load.
func (c *Controller) ExpandAll(ctx context.Context, onProgress func(expand.Progress)) (expand.Result, error) {
	c.mu.Lock()
	if err := c.transition(PhaseIdle, PhaseExpanding); err != nil {
		c.mu.Unlock()
		return expand.Result{}, err
	}
	c.run = view.Progress{}
	c.render()
	c.mu.Unlock()

	res, err := c.scheduler.Run(ctx, c.page, func(p expand.Progress) {
		c.mu.Lock()
		c.run = view.Progress{Completed: p.Completed, Total: p.Total}
		c.mu.Unlock()

		if err := c.Refresh(ctx); err != nil {
			c.logger.Debug("refresh during expansion failed", "error", err)
		}
		if onProgress != nil {
			onProgress(p)
		}
	})

	c.mu.Lock()
	c.phase = PhaseIdle
	c.run = view.Progress{}
	c.mu.Unlock()

	if rerr := c.Refresh(ctx); rerr != nil && err == nil {
		err = rerr
	}
	if err != nil {
		return res, fmt.Errorf("failed to expand accounts: %w", err)
	}
	return res, nil
}

// GenerateKeys clicks the role's access keys trigger on the page
func (c *Controller) GenerateKeys(ctx context.Context, accountID, roleName string) error {
	c.mu.Lock()
	if c.phase == PhaseExpanding {
		c.mu.Unlock()
		return fmt.Errorf("%w: expansion in progress", ErrBusy)
	}
	acc, ok := c.find(func(a portal.Account) bool { return a.ID == accountID })
	c.mu.Unlock()
	if !ok {
		return portal.ErrUnknownAccount
	}

	role, ok := acc.Role(roleName)
	if !ok || !role.HasKeys() {
		return fmt.Errorf("no access keys for %s in %s", roleName, acc.Name)
	}
	if err := c.page.GenerateKeys(ctx, acc, role); err != nil {
		return fmt.Errorf("failed to open access keys: %w", err)
	}
	return nil
}

// launchTarget is a resolved console destination
type launchTarget struct {
	accountID   string
	accountName string
	roleName    string
	url         string
}

// resolve finds the console URL for a pair. The caller holds mu.
func (c *Controller) resolve(accountID, roleName string) (launchTarget, error) {
	if acc, ok := portal.Find(c.accounts, accountID); ok {
		if role, ok := acc.Role(roleName); ok && role.ConsoleURL != "" {
			return launchTarget{acc.ID, acc.Name, role.Name, role.ConsoleURL}, nil
		}
	}
	if u, ok := c.store.UsageFor(accountID, roleName); ok && u.ConsoleURL != "" {
		return launchTarget{u.AccountID, u.AccountName, u.RoleName, u.ConsoleURL}, nil
	}
	return launchTarget{}, fmt.Errorf("%w: no console link for %s", portal.ErrUnknownAccount, prefs.ComboKey(accountID, roleName))
}

// Launch records the use of a pair and opens its console
func (c *Controller) Launch(ctx context.Context, accountID, roleName string) error {
	c.mu.Lock()
	t, err := c.resolve(accountID, roleName)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if _, err := c.store.RecordUsage(t.accountID, t.accountName, t.roleName, t.url); err != nil {
		c.logger.Warn("failed to record usage", "account", t.accountID, "role", t.roleName, "error", err)
	}
	c.render()
	c.mu.Unlock()

	c.logger.Info("launching console", "account", t.accountID, "role", t.roleName)
	if err := c.page.Launch(ctx, t.url); err != nil {
		return fmt.Errorf("failed to launch console: %w", err)
	}
	return nil
}

// CopyURL copies a pair's console URL to the clipboard and returns it
func (c *Controller) CopyURL(accountID, roleName string) (string, error) {
	c.mu.Lock()
	t, err := c.resolve(accountID, roleName)
	c.mu.Unlock()
	if err != nil {
		return "", err
	}
	if err := c.copy(t.url); err != nil {
		return "", fmt.Errorf("failed to copy url: %w", err)
	}
	return t.url, nil
}

// find looks an account up in the snapshot. The caller holds mu.
func (c *Controller) find(match func(portal.Account) bool) (portal.Account, bool) {
	for _, acc := range c.accounts {
		if match(acc) {
			return acc, true
		}
	}
	return portal.Account{}, false
}

// View renders the current tree for the terminal
func (c *Controller) View() ([]string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.renderer.Tree() == nil {
		c.render()
	}
	return view.Text(c.renderer.Tree())
}

// Focused returns a copy of the focused node
func (c *Controller) Focused() (view.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.renderer.Tree() == nil {
		return view.Node{}, false
	}
	n := c.renderer.Tree().FocusedNode()
	if n == nil {
		return view.Node{}, false
	}
	return *n, true
}

// Focus returns the focused node ID and selection
func (c *Controller) Focus() view.Focus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderer.Focus()
}

func (c *Controller) SetFocus(f view.Focus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderer.SetFocus(f)
}

// MoveFocus moves focus by delta rows
func (c *Controller) MoveFocus(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderer.Move(delta)
}

// Dispatcher returns the action dispatcher bound to this controller
func (c *Controller) Dispatcher() *Dispatcher {
	return c.dispatcher
}
