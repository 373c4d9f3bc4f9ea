package filter

import (
	"cmp"
	"slices"
	"strings"

	"ssoenhancer/portal"
	"ssoenhancer/prefs"
)

// Item is one quick access entry
type Item struct {
	AccountID   string
	AccountName string
	RoleName    string
	ConsoleURL  string

	Count    int
	LastUsed int64

	FavoriteAccount bool
	FavoriteRole    bool
	FavoriteCombo   bool
}

// Limits caps each quick access list
type Limits struct {
	Favorites int
	Recent    int
	Frequent  int
}

// DefaultLimits matches the portal overlay's panel sizes
var DefaultLimits = Limits{Favorites: 6, Recent: 5, Frequent: 5}

// QuickAccess holds the three ranked lists
type QuickAccess struct {
	Favorites []Item
	Recent    []Item
	Frequent  []Item
}

// Empty reports whether there is nothing to show
func (q QuickAccess) Empty() bool {
	return len(q.Favorites) == 0 && len(q.Recent) == 0 && len(q.Frequent) == 0
}

// Quick builds the capped quick access lists
func Quick(accounts []portal.Account, favs Favorites, usage []prefs.Usage, limits Limits) QuickAccess {
	return QuickAccess{
		Favorites: capped(FavoriteItems(accounts, favs), limits.Favorites),
		Recent:    Recent(usage, limits.Recent),
		Frequent:  Frequent(usage, limits.Frequent),
	}
}

// FavoriteItems lists every loaded account/role pair that is a favorite.
// Pair favorites come first, then the list is ordered by account name.
func FavoriteItems(accounts []portal.Account, favs Favorites) []Item {
	var items []Item
	for _, acc := range accounts {
		for _, role := range acc.Roles {
			if !favs.IsFavorite(acc.ID, role.Name) {
				continue
			}
			items = append(items, Item{
				AccountID:       acc.ID,
				AccountName:     acc.Name,
				RoleName:        role.Name,
				ConsoleURL:      role.ConsoleURL,
				FavoriteAccount: favs.IsAccount(acc.ID),
				FavoriteRole:    favs.IsRole(role.Name),
				FavoriteCombo:   favs.IsCombo(acc.ID, role.Name),
			})
		}
	}

	slices.SortStableFunc(items, func(a, b Item) int {
		if a.FavoriteCombo != b.FavoriteCombo {
			if a.FavoriteCombo {
				return -1
			}
			return 1
		}
		return strings.Compare(strings.ToLower(a.AccountName), strings.ToLower(b.AccountName))
	})
	return items
}

// Recent returns the most recently used pairs, newest first
func Recent(usage []prefs.Usage, limit int) []Item {
	items := usageItems(usage)
	slices.SortStableFunc(items, func(a, b Item) int {
		return cmp.Compare(b.LastUsed, a.LastUsed)
	})
	return capped(items, limit)
}

// Frequent returns the most used pairs. Ties go to the more recent one.
func Frequent(usage []prefs.Usage, limit int) []Item {
	items := usageItems(usage)
	slices.SortStableFunc(items, func(a, b Item) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(b.LastUsed, a.LastUsed)
	})
	return capped(items, limit)
}

func usageItems(usage []prefs.Usage) []Item {
	items := make([]Item, 0, len(usage))
	for _, u := range usage {
		items = append(items, Item{
			AccountID:   u.AccountID,
			AccountName: u.AccountName,
			RoleName:    u.RoleName,
			ConsoleURL:  u.ConsoleURL,
			Count:       u.Count,
			LastUsed:    u.LastUsed,
		})
	}
	return items
}

func capped(items []Item, limit int) []Item {
	if limit >= 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
