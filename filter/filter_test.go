package filter

import (
	"testing"

	"ssoenhancer/portal"
	"ssoenhancer/prefs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoAccounts() []portal.Account {
	roles := func(id string) []portal.Role {
		return []portal.Role{
			{Name: "Admin", ConsoleURL: "https://console/" + id + "/Admin", Keys: -1},
			{Name: "ReadOnly", ConsoleURL: "https://console/" + id + "/ReadOnly", Keys: -1},
		}
	}
	return []portal.Account{
		{ID: "111111111111", Name: "Prod", Email: "prod@example.com", Expanded: true, Roles: roles("111111111111")},
		{ID: "222222222222", Name: "Dev", Email: "dev@example.com", Expanded: true, Roles: roles("222222222222"), Handle: 1},
	}
}

func names(v View) map[string][]string {
	out := map[string][]string{}
	for _, acc := range v.Accounts {
		var roles []string
		for _, r := range acc.Visible {
			roles = append(roles, r.Name)
		}
		out[acc.Name] = roles
	}
	return out
}

func TestEndToEndScenario(t *testing.T) {
	accounts := twoAccounts()
	favs := prefs.NewFavorites()

	v := Apply(accounts, favs, Criteria{Role: "admin"})
	assert.Equal(t, map[string][]string{"Prod": {"Admin"}, "Dev": {"Admin"}}, names(v))
	assert.Equal(t, 2, v.TotalAccounts)
	assert.Equal(t, 4, v.TotalRoles)
	assert.Equal(t, 2, v.VisibleRoles)

	v = Apply(accounts, favs, Criteria{Role: "admin", FavoritesOnly: true})
	assert.Empty(t, v.Accounts)

	v = Apply(accounts, favs, Criteria{FavoritesOnly: true})
	assert.Empty(t, v.Accounts)
}

func TestAccountFilter(t *testing.T) {
	accounts := twoAccounts()
	favs := prefs.NewFavorites()

	tests := []struct {
		filter string
		want   []string
	}{
		{"", []string{"Prod", "Dev"}},
		{"PROD", []string{"Prod"}},
		{"2222", []string{"Dev"}},
		{"@example.com", []string{"Prod", "Dev"}},
		{"DEV@", []string{"Dev"}},
		{"staging", nil},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			v := Apply(accounts, favs, Criteria{Account: tt.filter})
			var got []string
			for _, acc := range v.Accounts {
				got = append(got, acc.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccountsWithoutRolesAreNotHiddenByRoleFilter(t *testing.T) {
	accounts := append(twoAccounts(), portal.Account{ID: "333333333333", Name: "Sandbox", Handle: 2})
	favs := prefs.NewFavorites()

	v := Apply(accounts, favs, Criteria{Role: "no-such-role"})
	require.Len(t, v.Accounts, 1)
	assert.Equal(t, "Sandbox", v.Accounts[0].Name)
	assert.Empty(t, v.Accounts[0].Visible)

	v = Apply(accounts, favs, Criteria{Account: "prod", Role: "no-such-role"})
	assert.Empty(t, v.Accounts, "the account filter still applies")

	v = Apply(accounts, favs, Criteria{FavoritesOnly: true})
	assert.Empty(t, v.Accounts, "favorites-only hides accounts that are not favorites")

	favs.ToggleAccount("333333333333")
	v = Apply(accounts, favs, Criteria{FavoritesOnly: true, Role: "no-such-role"})
	require.Len(t, v.Accounts, 1)
	assert.Equal(t, "Sandbox", v.Accounts[0].Name)
	assert.True(t, v.Accounts[0].Favorite)
}

func TestFavoritesOnly(t *testing.T) {
	accounts := twoAccounts()

	t.Run("combo", func(t *testing.T) {
		favs := prefs.NewFavorites()
		favs.ToggleCombo("222222222222", "ReadOnly")
		v := Apply(accounts, favs, Criteria{FavoritesOnly: true})
		assert.Equal(t, map[string][]string{"Dev": {"ReadOnly"}}, names(v))
	})

	t.Run("role everywhere", func(t *testing.T) {
		favs := prefs.NewFavorites()
		favs.ToggleRole("ReadOnly")
		v := Apply(accounts, favs, Criteria{FavoritesOnly: true})
		assert.Equal(t, map[string][]string{"Prod": {"ReadOnly"}, "Dev": {"ReadOnly"}}, names(v))
	})

	t.Run("account", func(t *testing.T) {
		favs := prefs.NewFavorites()
		favs.ToggleAccount("111111111111")
		v := Apply(accounts, favs, Criteria{FavoritesOnly: true})
		assert.Equal(t, map[string][]string{"Prod": {"Admin", "ReadOnly"}}, names(v))
	})

	t.Run("favorite role filtered out by role filter", func(t *testing.T) {
		favs := prefs.NewFavorites()
		favs.ToggleCombo("111111111111", "ReadOnly")
		v := Apply(accounts, favs, Criteria{FavoritesOnly: true, Role: "admin"})
		assert.Empty(t, v.Accounts)
	})
}

func TestFilteringIsMonotonic(t *testing.T) {
	accounts := append(twoAccounts(),
		portal.Account{ID: "333333333333", Name: "Prod EU", Email: "eu@example.com", Expanded: true, Handle: 2,
			Roles: []portal.Role{{Name: "AdministratorAccess"}, {Name: "Billing"}}},
		portal.Account{ID: "444444444444", Name: "Shared", Handle: 3},
	)
	favs := prefs.NewFavorites()
	favs.ToggleRole("Billing")

	count := func(c Criteria) (int, int) {
		v := Apply(accounts, favs, c)
		return len(v.Accounts), v.VisibleRoles
	}

	words := []string{"prod eu", "administrator", "333333333333", "eu@example", "billing"}
	for _, favOnly := range []bool{false, true} {
		for _, word := range words {
			prevAccounts, prevRoles := count(Criteria{FavoritesOnly: favOnly})
			for i := 1; i <= len(word); i++ {
				for _, c := range []Criteria{
					{Account: word[:i], FavoritesOnly: favOnly},
					{Role: word[:i], FavoritesOnly: favOnly},
				} {
					shorter := c
					if shorter.Account != "" {
						shorter.Account = word[:i-1]
					} else {
						shorter.Role = word[:i-1]
					}
					a0, r0 := count(shorter)
					a1, r1 := count(c)
					assert.LessOrEqual(t, a1, a0, "%+v", c)
					assert.LessOrEqual(t, r1, r0, "%+v", c)
				}
			}
			a, r := count(Criteria{Account: word, FavoritesOnly: favOnly})
			assert.LessOrEqual(t, a, prevAccounts)
			assert.LessOrEqual(t, r, prevRoles)
		}
	}
}
