package view

import (
	"fmt"
	"strconv"

	"ssoenhancer/filter"
	"ssoenhancer/portal"
	"ssoenhancer/prefs"
)

// Stable IDs of the toolbar controls
const (
	AccountFilterID = "account-filter"
	RoleFilterID    = "role-filter"
	FavoritesOnlyID = "favorites-only"
	ExpandAllID     = "expand-all"
	StatsID         = "stats"
	QuickAccessID   = "quick-access"
	AccountsID      = "accounts"
)

// Progress is the expand-all progress shown on the toolbar
type Progress struct {
	Completed int
	Total     int
}

// State is everything the builder reads
type State struct {
	Criteria  filter.Criteria
	View      filter.View
	Quick     filter.QuickAccess
	Favorites filter.Favorites
	Expanding bool
	Progress  Progress
	ReadOnly  bool
}

// AccountNodeID is the node ID of an account row
func AccountNodeID(acc portal.Account) string {
	if acc.ID == "" {
		return "account-h" + strconv.Itoa(acc.Handle)
	}
	return "account-" + acc.ID
}

// RoleNodeID is the node ID of a role row
func RoleNodeID(acc portal.Account, role string) string {
	return "role-" + prefs.ComboKey(accountKey(acc), role)
}

func accountKey(acc portal.Account) string {
	if acc.ID == "" {
		return "h" + strconv.Itoa(acc.Handle)
	}
	return acc.ID
}

// Build renders the picker for s. It has no side effects; the same state
// always produces the same tree.
func Build(s State) *Node {
	root := &Node{Kind: KindRoot, ID: "picker"}
	root.Add(toolbar(s), quickAccess(s.Quick), accounts(s))
	return root
}

func toolbar(s State) *Node {
	bar := &Node{Kind: KindToolbar, ID: "toolbar"}
	stats := fmt.Sprintf("%d/%d accounts · %d/%d roles",
		len(s.View.Accounts), s.View.TotalAccounts, s.View.VisibleRoles, s.View.TotalRoles)

	bar.Add(
		&Node{
			Kind:        KindInput,
			ID:          AccountFilterID,
			Text:        "Account",
			Placeholder: "name, id or email",
			Value:       s.Criteria.Account,
			Focusable:   true,
			Action:      &Action{Kind: ActionAccountFilter},
		},
		&Node{
			Kind:        KindInput,
			ID:          RoleFilterID,
			Text:        "Role",
			Placeholder: "role name",
			Value:       s.Criteria.Role,
			Focusable:   true,
			Action:      &Action{Kind: ActionRoleFilter},
		},
		&Node{
			Kind:      KindToggle,
			ID:        FavoritesOnlyID,
			Text:      "Favorites only",
			Checked:   s.Criteria.FavoritesOnly,
			Focusable: true,
			Action:    &Action{Kind: ActionFavoritesOnly},
		},
		&Node{Kind: KindText, ID: StatsID, Class: "muted", Text: stats},
	)

	expandAll := &Node{
		Kind:      KindButton,
		ID:        ExpandAllID,
		Text:      "Expand all",
		Focusable: true,
		Disabled:  s.ReadOnly,
		Action:    &Action{Kind: ActionExpandAll},
	}
	if s.Expanding {
		expandAll.Text = fmt.Sprintf("Expanding %d/%d", s.Progress.Completed, s.Progress.Total)
		expandAll.Class = "busy"
		expandAll.Disabled = true
	}
	bar.Add(expandAll)

	return bar
}

func quickAccess(q filter.QuickAccess) *Node {
	if q.Empty() {
		return nil
	}

	panel := &Node{Kind: KindSection, ID: QuickAccessID, Text: "Quick access"}
	panel.Add(
		quickSection("fav", "Favorites", q.Favorites, false),
		quickSection("recent", "Recent", q.Recent, false),
		quickSection("frequent", "Frequent", q.Frequent, true),
	)
	return panel
}

func quickSection(id, title string, items []filter.Item, counts bool) *Node {
	if len(items) == 0 {
		return nil
	}

	section := &Node{Kind: KindSection, ID: "qa-" + id, Text: title}
	for _, it := range items {
		text := it.AccountName + " · " + it.RoleName
		if counts {
			text += fmt.Sprintf(" ×%d", it.Count)
		}

		class := ""
		if it.FavoriteCombo {
			class = "combo"
		}

		section.Add(&Node{
			Kind:      KindCard,
			ID:        "qa-" + id + "-" + prefs.ComboKey(it.AccountID, it.RoleName),
			Class:     class,
			Text:      text,
			Focusable: true,
			Action: &Action{
				Kind:        ActionLaunch,
				AccountID:   it.AccountID,
				AccountName: it.AccountName,
				Role:        it.RoleName,
				URL:         it.ConsoleURL,
			},
		})
	}
	return section
}

func accounts(s State) *Node {
	list := &Node{Kind: KindSection, ID: AccountsID}

	if len(s.View.Accounts) == 0 {
		text := "No accounts match the current filters"
		if s.View.TotalAccounts == 0 {
			text = "No accounts found on the page"
		}
		return list.Add(&Node{Kind: KindEmpty, ID: "empty", Class: "muted", Text: text})
	}

	for _, av := range s.View.Accounts {
		list.Add(accountRow(s, av))
		for _, role := range av.Visible {
			list.Add(roleRow(s, av.Account, role))
		}
	}
	return list
}

func accountRow(s State, av filter.AccountView) *Node {
	acc := av.Account
	ref := Action{AccountID: acc.ID, AccountName: acc.Name, Handle: acc.Handle}

	star := &Node{Kind: KindButton, ID: "fav-" + AccountNodeID(acc), Text: "☆", Action: withKind(ref, ActionFavAccount)}
	if av.Favorite {
		star.Text = "★"
		star.Class = "fav"
	}

	caret := "▸"
	if acc.Expanded {
		caret = "▾"
	}
	expand := &Node{
		Kind:     KindButton,
		ID:       "expand-" + AccountNodeID(acc),
		Text:     caret,
		Disabled: s.ReadOnly || s.Expanding,
		Action:   withKind(ref, ActionExpand),
	}

	row := &Node{
		Kind:      KindAccount,
		ID:        AccountNodeID(acc),
		Focusable: true,
		Action:    withKind(ref, ActionExpand),
	}
	if av.Favorite {
		row.Class = "fav"
	}
	row.Add(
		expand,
		star,
		&Node{Kind: KindText, Class: "name", Text: acc.Name},
		&Node{Kind: KindText, Class: "muted", Text: acc.ID},
		&Node{Kind: KindText, Class: "muted", Text: acc.Email},
	)
	if acc.Expanded && !acc.RolesLoaded() {
		row.Add(&Node{Kind: KindText, Class: "muted", Text: "no roles"})
	}
	return row
}

func roleRow(s State, acc portal.Account, role portal.Role) *Node {
	ref := Action{AccountID: acc.ID, AccountName: acc.Name, Handle: acc.Handle, Role: role.Name, URL: role.ConsoleURL}

	star := &Node{Kind: KindButton, ID: "fav-" + RoleNodeID(acc, role.Name), Text: "☆", Action: withKind(ref, ActionFavRole)}
	switch {
	case s.Favorites != nil && s.Favorites.IsCombo(acc.ID, role.Name):
		star.Text = "★"
		star.Class = "combo"
	case s.Favorites != nil && s.Favorites.IsRole(role.Name):
		star.Text = "◆"
		star.Class = "role-fav"
	}

	row := &Node{
		Kind:      KindRole,
		ID:        RoleNodeID(acc, role.Name),
		Class:     star.Class,
		Focusable: true,
		Action:    withKind(ref, ActionLaunch),
	}
	row.Add(
		star,
		&Node{Kind: KindLink, Class: "role", Text: role.Name, Action: withKind(ref, ActionLaunch)},
		&Node{Kind: KindLink, Class: "copy", Text: "copy", Action: withKind(ref, ActionCopyURL)},
	)
	if role.HasKeys() {
		row.Add(&Node{
			Kind:     KindLink,
			Class:    "keys",
			Text:     "keys",
			Disabled: s.ReadOnly,
			Action:   withKind(ref, ActionKeys),
		})
	}
	return row
}

func withKind(a Action, kind ActionKind) *Action {
	a.Kind = kind
	return &a
}
