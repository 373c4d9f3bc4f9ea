package portal

import "errors"

// Account represents an AWS account row on the SSO portal page
type Account struct {
	ID       string
	Name     string
	Email    string
	Expanded bool
	Roles    []Role

	// Handle is the position of the account control among all account
	// controls on the page. It is how a Page finds the control to click.
	Handle int
}

// RolesLoaded reports whether the page has rendered the account's roles
func (a Account) RolesLoaded() bool {
	return len(a.Roles) > 0
}

// Role looks up a role by name
func (a Account) Role(name string) (Role, bool) {
	for _, r := range a.Roles {
		if r.Name == name {
			return r, true
		}
	}
	return Role{}, false
}

// Role represents a permission set the user can assume in an account
type Role struct {
	Name       string
	ConsoleURL string

	// Keys is the position of the role's "access keys" trigger among all
	// such triggers on the page, -1 when the role has none.
	Keys int
}

// HasKeys reports whether the role exposes a keys trigger
func (r Role) HasKeys() bool {
	return r.Keys >= 0
}

var (
	// ErrReadOnly is returned by pages that cannot be interacted with
	ErrReadOnly = errors.New("page is read-only")

	// ErrNotReady is returned when the account list never showed up
	ErrNotReady = errors.New("account list did not appear")

	// ErrUnknownAccount is returned when an account ID is not on the page
	ErrUnknownAccount = errors.New("unknown account")
)

// Find returns the account with the given ID
func Find(accounts []Account, id string) (Account, bool) {
	for _, acc := range accounts {
		if acc.ID == id {
			return acc, true
		}
	}
	return Account{}, false
}
