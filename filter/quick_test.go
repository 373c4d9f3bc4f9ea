package filter

import (
	"testing"
	"time"

	"ssoenhancer/portal"
	"ssoenhancer/prefs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemKeys(items []Item) []string {
	var out []string
	for _, it := range items {
		out = append(out, prefs.ComboKey(it.AccountID, it.RoleName))
	}
	return out
}

func TestFavoriteItemsOrder(t *testing.T) {
	accounts := []portal.Account{
		{ID: "333333333333", Name: "staging", Roles: []portal.Role{{Name: "Admin"}}},
		{ID: "111111111111", Name: "Prod", Roles: []portal.Role{{Name: "Admin"}, {Name: "ReadOnly"}}},
		{ID: "222222222222", Name: "Dev", Roles: []portal.Role{{Name: "Admin"}, {Name: "ReadOnly"}}},
	}

	favs := prefs.NewFavorites()
	favs.ToggleRole("Admin")
	favs.ToggleCombo("222222222222", "ReadOnly")
	favs.ToggleCombo("111111111111", "ReadOnly")

	items := FavoriteItems(accounts, favs)
	assert.Equal(t, []string{
		"222222222222:ReadOnly",
		"111111111111:ReadOnly",
		"222222222222:Admin",
		"111111111111:Admin",
		"333333333333:Admin",
	}, itemKeys(items))

	assert.True(t, items[0].FavoriteCombo)
	assert.False(t, items[0].FavoriteRole)
	assert.True(t, items[2].FavoriteRole)
	assert.False(t, items[2].FavoriteCombo)
}

func TestRecentAndFrequent(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	s := prefs.Open(prefs.MemoryBlob{}, nil).WithClock(func() time.Time { return now })

	record := func(id, role string, times int) {
		for i := 0; i < times; i++ {
			now = now.Add(time.Second)
			_, err := s.RecordUsage(id, "acc-"+id, role, "https://console")
			require.NoError(t, err)
		}
	}

	record("111111111111", "Admin", 3)
	record("222222222222", "ReadOnly", 2)

	assert.Equal(t, []string{"222222222222:ReadOnly", "111111111111:Admin"}, itemKeys(Recent(s.Usage(), 5)))
	assert.Equal(t, []string{"111111111111:Admin", "222222222222:ReadOnly"}, itemKeys(Frequent(s.Usage(), 5)))

	// a lower-count, more recent record
	record("333333333333", "Billing", 1)
	assert.Equal(t, []string{"333333333333:Billing", "222222222222:ReadOnly", "111111111111:Admin"}, itemKeys(Recent(s.Usage(), 5)))
	assert.Equal(t, []string{"111111111111:Admin", "222222222222:ReadOnly", "333333333333:Billing"}, itemKeys(Frequent(s.Usage(), 5)))

	frequent := Frequent(s.Usage(), 1)
	require.Len(t, frequent, 1)
	assert.Equal(t, 3, frequent[0].Count)
	assert.Equal(t, "acc-111111111111", frequent[0].AccountName)
}

func TestQuickCapsLists(t *testing.T) {
	var accounts []portal.Account
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7", "8"} {
		accounts = append(accounts, portal.Account{ID: id, Name: id, Roles: []portal.Role{{Name: "Admin"}}})
	}
	favs := prefs.NewFavorites()
	favs.ToggleRole("Admin")

	s := prefs.Open(prefs.MemoryBlob{}, nil)
	for _, acc := range accounts {
		_, err := s.RecordUsage(acc.ID, acc.Name, "Admin", "")
		require.NoError(t, err)
	}

	q := Quick(accounts, favs, s.Usage(), DefaultLimits)
	assert.Len(t, q.Favorites, 6)
	assert.Len(t, q.Recent, 5)
	assert.Len(t, q.Frequent, 5)
	assert.False(t, q.Empty())

	assert.True(t, Quick(nil, prefs.NewFavorites(), nil, DefaultLimits).Empty())
}
