// Package filter computes what the picker shows: the accounts and roles
// left after the text filters and the favorites toggle, and the quick
// access lists built from favorites and usage history.
//
// Everything here is a pure function of the page snapshot and the
// preference record.
package filter

import (
	"strings"

	"ssoenhancer/portal"
)

// Favorites is the favorite predicate set the engine reads
type Favorites interface {
	IsAccount(accountID string) bool
	IsRole(roleName string) bool
	IsCombo(accountID, roleName string) bool
	IsFavorite(accountID, roleName string) bool
}

// Criteria is the user's current filter input
type Criteria struct {
	Account       string
	Role          string
	FavoritesOnly bool
}

// AccountView is an account with the roles that passed the filters
type AccountView struct {
	portal.Account
	Visible  []portal.Role
	Favorite bool
}

// View is the filtered picker content
type View struct {
	Accounts      []AccountView
	TotalAccounts int
	TotalRoles    int
	VisibleRoles  int
}

// Apply filters accounts. An account is shown when it matches the account
// filter, still has a role left after the role filter (or has no roles
// loaded yet), and, with FavoritesOnly, is itself a favorite or has a
// favorite role.
func Apply(accounts []portal.Account, favs Favorites, c Criteria) View {
	af := strings.ToLower(c.Account)
	rf := strings.ToLower(c.Role)

	v := View{TotalAccounts: len(accounts)}

	for _, acc := range accounts {
		v.TotalRoles += len(acc.Roles)

		if !accountMatches(acc, af) {
			continue
		}

		var visible []portal.Role
		hasFavoriteRole := false
		for _, role := range acc.Roles {
			fav := favs.IsFavorite(acc.ID, role.Name)
			hasFavoriteRole = hasFavoriteRole || fav

			if rf != "" && !strings.Contains(strings.ToLower(role.Name), rf) {
				continue
			}
			if c.FavoritesOnly && !fav {
				continue
			}
			visible = append(visible, role)
		}

		if len(visible) == 0 && len(acc.Roles) > 0 {
			continue
		}

		favAccount := favs.IsAccount(acc.ID)
		if c.FavoritesOnly && !hasFavoriteRole && !favAccount {
			continue
		}

		v.Accounts = append(v.Accounts, AccountView{
			Account:  acc,
			Visible:  visible,
			Favorite: favAccount,
		})
		v.VisibleRoles += len(visible)
	}

	return v
}

func accountMatches(acc portal.Account, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(acc.Name), filter) ||
		strings.Contains(acc.ID, filter) ||
		strings.Contains(strings.ToLower(acc.Email), filter)
}
