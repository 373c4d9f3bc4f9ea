package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ssoenhancer/app"
	"ssoenhancer/expand"
	"ssoenhancer/styles"
	"ssoenhancer/view"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	refreshInterval = 3 * time.Second
	statusTTL       = 4 * time.Second
)

type keyMap struct {
	up           key.Binding
	down         key.Binding
	next         key.Binding
	activate     key.Binding
	favorite     key.Binding
	favoriteRole key.Binding
	expand       key.Binding
	expandAll    key.Binding
	keys         key.Binding
	copyURL      key.Binding
	search       key.Binding
	clear        key.Binding
	refresh      key.Binding
	toggleHelp   key.Binding
	quit         key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓", "down"),
		),
		next: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "next field"),
		),
		activate: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "open / expand"),
		),
		favorite: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "favorite"),
		),
		favoriteRole: key.NewBinding(
			key.WithKeys("F", "alt+f"),
			key.WithHelp("F", "favorite role everywhere"),
		),
		expand: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "expand"),
		),
		expandAll: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "expand all"),
		),
		keys: key.NewBinding(
			key.WithKeys("k"),
			key.WithHelp("k", "access keys"),
		),
		copyURL: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy url"),
		),
		search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		clear: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear filter"),
		),
		refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload page"),
		),
		toggleHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.activate, k.favorite, k.expandAll, k.search, k.toggleHelp, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.next, k.search, k.clear},
		{k.activate, k.expand, k.expandAll, k.keys, k.copyURL},
		{k.favorite, k.favoriteRole, k.refresh, k.toggleHelp, k.quit},
	}
}

type (
	actionDoneMsg struct {
		kind view.ActionKind
		err  error
	}
	progressMsg  expand.Progress
	refreshMsg   struct{}
	refreshedMsg struct{ err error }
)

// Main app model
type model struct {
	ctx      context.Context
	ctl      *app.Controller
	progress <-chan expand.Progress
	title    string

	keys    keyMap
	help    help.Model
	input   textinput.Model
	spinner spinner.Model

	busy      int
	status    string
	statusErr bool
	statusAt  time.Time
	offset    int
	width     int
	height    int
}

func newModel(ctx context.Context, ctl *app.Controller, progress <-chan expand.Progress, title string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SpinnerStyle

	in := textinput.New()
	in.CharLimit = 100

	h := help.New()
	h.Styles.ShortKey = styles.MutedStyle
	h.Styles.ShortDesc = styles.MutedStyle
	h.Styles.FullKey = styles.MutedStyle
	h.Styles.FullDesc = styles.MutedStyle

	m := model{
		ctx:      ctx,
		ctl:      ctl,
		progress: progress,
		title:    title,
		keys:     newKeyMap(),
		help:     h,
		input:    in,
		spinner:  s,
	}
	m.syncInput()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForProgress(), scheduleRefresh(), textinput.Blink)
}

func (m model) waitForProgress() tea.Cmd {
	if m.progress == nil {
		return nil
	}
	ch := m.progress
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return progressMsg(p)
	}
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshMsg{} })
}

func (m *model) dispatch(a *view.Action, mod app.Modifiers) tea.Cmd {
	if a == nil {
		return nil
	}
	m.busy++
	ctx, d, action := m.ctx, m.ctl.Dispatcher(), *a
	return func() tea.Msg {
		return actionDoneMsg{kind: action.Kind, err: d.Dispatch(ctx, &action, mod)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case progressMsg:
		cmds = append(cmds, m.waitForProgress())

	case refreshMsg:
		// the live page changes under us when the user clicks in the browser
		if m.ctl.Phase() == app.PhaseIdle {
			ctx, ctl := m.ctx, m.ctl
			cmds = append(cmds, func() tea.Msg { return refreshedMsg{err: ctl.Refresh(ctx)} })
		}
		cmds = append(cmds, scheduleRefresh())

	case refreshedMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.setStatus(msg.err.Error(), true)
		}

	case actionDoneMsg:
		m.busy = max(m.busy-1, 0)
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		} else if s := doneText(msg.kind); s != "" {
			m.setStatus(s, false)
		}

	case tea.KeyMsg:
		cmd, quit := m.handleKey(msg)
		if quit {
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)
	}

	m.syncInput()
	m.scroll()
	return m, tea.Batch(cmds...)
}

func doneText(kind view.ActionKind) string {
	switch kind {
	case view.ActionCopyURL:
		return "Console URL copied"
	case view.ActionLaunch:
		return "Console opened"
	case view.ActionKeys:
		return "Access keys opened in the browser"
	case view.ActionExpandAll:
		return "All accounts expanded"
	default:
		return ""
	}
}

func (m *model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
	m.statusAt = time.Now()
}

// handleKey routes a key press. Keys that trigger an action are resolved
// against the focused row and sent through the controller's dispatcher.
func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	focused, ok := m.ctl.Focused()
	editing := ok && focused.Kind == view.KindInput

	switch {
	case msg.String() == "ctrl+c":
		return nil, true
	case key.Matches(msg, m.keys.up):
		m.ctl.MoveFocus(-1)
		return nil, false
	case key.Matches(msg, m.keys.down):
		m.ctl.MoveFocus(1)
		return nil, false
	case key.Matches(msg, m.keys.next):
		if msg.String() == "shift+tab" {
			m.ctl.MoveFocus(-1)
		} else {
			m.ctl.MoveFocus(1)
		}
		return nil, false
	case editing && key.Matches(msg, m.keys.clear):
		m.input.SetValue("")
		m.applyInput(focused.ID)
		return nil, false
	case editing && msg.Type != tea.KeyEnter:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.applyInput(focused.ID)
		return cmd, false
	}

	if !ok {
		return nil, key.Matches(msg, m.keys.quit)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return nil, true
	case key.Matches(msg, m.keys.search):
		m.ctl.SetFocus(view.Focus{ID: view.AccountFilterID})
	case key.Matches(msg, m.keys.clear):
		m.ctl.SetAccountFilter("")
		m.ctl.SetRoleFilter("")
		m.ctl.SetFocus(view.Focus{ID: view.AccountFilterID})
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.refresh):
		ctx, ctl := m.ctx, m.ctl
		return func() tea.Msg { return refreshedMsg{err: ctl.Refresh(ctx)} }, false
	case key.Matches(msg, m.keys.activate):
		// filters apply as they are typed
		if focused.Kind == view.KindInput || focused.Disabled {
			return nil, false
		}
		return m.dispatch(focused.Action, app.Modifiers{}), false
	case key.Matches(msg, m.keys.favoriteRole):
		return m.dispatch(focused.ActionFor(view.ActionFavRole), app.Modifiers{Alt: true}), false
	case key.Matches(msg, m.keys.favorite):
		a := focused.ActionFor(view.ActionFavAccount)
		if a == nil {
			a = focused.ActionFor(view.ActionFavRole)
		}
		return m.dispatch(a, app.Modifiers{}), false
	case key.Matches(msg, m.keys.expand):
		return m.dispatch(focused.ActionFor(view.ActionExpand), app.Modifiers{}), false
	case key.Matches(msg, m.keys.expandAll):
		// a second run request is a no-op
		if m.ctl.Phase() == app.PhaseExpanding {
			return nil, false
		}
		return m.dispatch(&view.Action{Kind: view.ActionExpandAll}, app.Modifiers{}), false
	case key.Matches(msg, m.keys.keys):
		return m.dispatch(focused.ActionFor(view.ActionKeys), app.Modifiers{}), false
	case key.Matches(msg, m.keys.copyURL):
		return m.dispatch(focused.ActionFor(view.ActionCopyURL), app.Modifiers{}), false
	}
	return nil, false
}

// applyInput pushes the text input's value into the filter it edits
func (m *model) applyInput(id string) {
	switch id {
	case view.AccountFilterID:
		m.ctl.SetAccountFilter(m.input.Value())
	case view.RoleFilterID:
		m.ctl.SetRoleFilter(m.input.Value())
	}
	pos := m.input.Position()
	m.ctl.SetFocus(view.Focus{ID: id, Start: pos, End: pos})
}

// syncInput loads the focused filter into the text input so editing
// resumes where the cursor was
func (m *model) syncInput() {
	n, ok := m.ctl.Focused()
	if !ok || n.Kind != view.KindInput {
		m.input.Blur()
		return
	}
	if m.input.Value() != n.Value {
		m.input.SetValue(n.Value)
	}
	m.input.SetCursor(n.SelStart)
	m.input.Focus()
}

// bodyHeight is what is left of the terminal after the header, the status
// line, the help and the page padding
func (m model) bodyHeight() int {
	h := m.height - 6
	if m.help.ShowAll {
		h -= 3
	}
	return max(h, 3)
}

// scroll keeps the focused line inside the visible window
func (m *model) scroll() {
	lines, focus := m.ctl.View()
	h := m.bodyHeight()
	if focus >= 0 {
		if focus < m.offset {
			m.offset = focus
		} else if focus >= m.offset+h {
			m.offset = focus - h + 1
		}
	}
	m.offset = min(m.offset, max(len(lines)-h, 0))
}

func (m model) View() string {
	if m.width > 0 && (m.width < styles.MinWidth || m.height < styles.MinHeight) {
		return styles.ErrorBox.Render(fmt.Sprintf("Terminal too small (%dx%d), need at least %dx%d",
			m.width, m.height, styles.MinWidth, styles.MinHeight))
	}

	header := styles.TitleStyle.Render("AWS access portal")
	if m.title != "" {
		header += " " + styles.MutedStyle.Render(m.title)
	}
	if m.ctl.ReadOnly() {
		header += " " + styles.WarningStyle.Render("read-only")
	}
	if m.busy > 0 || m.ctl.Phase() == app.PhaseExpanding {
		header += " " + m.spinner.View()
	}

	lines, _ := m.ctl.View()
	end := min(m.offset+m.bodyHeight(), len(lines))
	body := strings.Join(lines[min(m.offset, end):end], "\n")

	var status string
	if m.status != "" && time.Since(m.statusAt) < statusTTL {
		if m.statusErr {
			status = styles.ErrorStyle.Render(m.status)
		} else {
			status = styles.SuccessStyle.Render(m.status)
		}
	} else if len(lines) > m.bodyHeight() {
		status = styles.MutedStyle.Render(fmt.Sprintf("%d-%d of %d", m.offset+1, end, len(lines)))
	}

	return styles.FullPageStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		status,
		styles.HelpStyle.Render(m.help.View(m.keys)),
	))
}
