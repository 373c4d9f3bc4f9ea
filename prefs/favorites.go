package prefs

import (
	"encoding/json"
	"slices"
	"strings"
)

// ComboKey identifies an account/role pair in favorites and usage records
func ComboKey(accountID, roleName string) string {
	return accountID + ":" + roleName
}

// SplitComboKey reverses ComboKey. Account IDs never contain ':' so the
// first separator splits the key.
func SplitComboKey(key string) (accountID, roleName string) {
	accountID, roleName, _ = strings.Cut(key, ":")
	return accountID, roleName
}

type set map[string]struct{}

func newSet(values []string) set {
	s := make(set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s set) has(v string) bool {
	_, ok := s[v]
	return ok
}

// toggle flips membership and returns the new state
func (s set) toggle(v string) bool {
	if s.has(v) {
		delete(s, v)
		return false
	}
	s[v] = struct{}{}
	return true
}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Favorites holds the three independent favorite relations: whole
// accounts, role names across every account, and single account/role pairs.
type Favorites struct {
	accounts set
	roles    set
	combos   set
}

// NewFavorites returns an empty favorites record
func NewFavorites() *Favorites {
	return &Favorites{
		accounts: set{},
		roles:    set{},
		combos:   set{},
	}
}

func (f *Favorites) ToggleAccount(accountID string) bool {
	return f.accounts.toggle(accountID)
}

func (f *Favorites) ToggleRole(roleName string) bool {
	return f.roles.toggle(roleName)
}

func (f *Favorites) ToggleCombo(accountID, roleName string) bool {
	return f.combos.toggle(ComboKey(accountID, roleName))
}

func (f *Favorites) IsAccount(accountID string) bool {
	return f.accounts.has(accountID)
}

func (f *Favorites) IsRole(roleName string) bool {
	return f.roles.has(roleName)
}

func (f *Favorites) IsCombo(accountID, roleName string) bool {
	return f.combos.has(ComboKey(accountID, roleName))
}

// IsFavorite reports whether the pair is a favorite by any relation
func (f *Favorites) IsFavorite(accountID, roleName string) bool {
	return f.IsAccount(accountID) || f.IsRole(roleName) || f.IsCombo(accountID, roleName)
}

// Empty reports whether no favorites are set
func (f *Favorites) Empty() bool {
	return len(f.accounts) == 0 && len(f.roles) == 0 && len(f.combos) == 0
}

// Clone returns an independent copy
func (f *Favorites) Clone() *Favorites {
	return FromDocument(f.Document())
}

// Equal reports whether both records hold the same favorites
func (f *Favorites) Equal(other *Favorites) bool {
	a, b := f.Document(), other.Document()
	return slices.Equal(a.Accounts, b.Accounts) &&
		slices.Equal(a.Roles, b.Roles) &&
		slices.Equal(a.Combos, b.Combos)
}

// Document is the serialized form of Favorites
type Document struct {
	Accounts []string `json:"favoriteAccounts" yaml:"favoriteAccounts"`
	Roles    []string `json:"favoriteRoles" yaml:"favoriteRoles"`
	Combos   []string `json:"favoriteCombos" yaml:"favoriteCombos"`
}

// Document returns the serialized form with every list sorted
func (f *Favorites) Document() Document {
	return Document{
		Accounts: f.accounts.sorted(),
		Roles:    f.roles.sorted(),
		Combos:   f.combos.sorted(),
	}
}

// FromDocument builds favorites from their serialized form
func FromDocument(doc Document) *Favorites {
	return &Favorites{
		accounts: newSet(doc.Accounts),
		roles:    newSet(doc.Roles),
		combos:   newSet(doc.Combos),
	}
}

func (f *Favorites) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Document())
}

func (f *Favorites) UnmarshalJSON(data []byte) error {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*f = *FromDocument(doc)
	return nil
}
