package prefs

import (
	"slices"
	"strings"
	"time"
)

// Usage counts how often an account/role pair was launched. Display fields
// are captured at the time of the last use so the record can be shown
// before the account has been loaded on the page.
type Usage struct {
	Count       int    `json:"count" yaml:"count"`
	LastUsed    int64  `json:"lastUsed" yaml:"lastUsed"` // unix milliseconds
	AccountID   string `json:"accountId" yaml:"accountId"`
	AccountName string `json:"accountName" yaml:"accountName"`
	RoleName    string `json:"roleName" yaml:"roleName"`
	ConsoleURL  string `json:"consoleUrl" yaml:"consoleUrl"`
}

// LastUsedAt returns LastUsed as a time
func (u Usage) LastUsedAt() time.Time {
	return time.UnixMilli(u.LastUsed)
}

// Key returns the combo key of the record
func (u Usage) Key() string {
	return ComboKey(u.AccountID, u.RoleName)
}

// UsageLog maps combo keys to usage records
type UsageLog map[string]Usage

// Record counts one use of the pair at the given time
func (l UsageLog) Record(accountID, accountName, roleName, consoleURL string, at time.Time) Usage {
	key := ComboKey(accountID, roleName)
	u := Usage{
		Count:       l[key].Count + 1,
		LastUsed:    at.UnixMilli(),
		AccountID:   accountID,
		AccountName: accountName,
		RoleName:    roleName,
		ConsoleURL:  consoleURL,
	}
	l[key] = u
	return u
}

// Records returns every record ordered by key
func (l UsageLog) Records() []Usage {
	out := make([]Usage, 0, len(l))
	for _, u := range l {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b Usage) int {
		return strings.Compare(a.Key(), b.Key())
	})
	return out
}
