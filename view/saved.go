package view

import (
	"fmt"

	"ssoenhancer/portal"
	"ssoenhancer/prefs"
)

// SavedID is the section listing the stored favorites and usage
const SavedID = "saved"

// Saved lists everything the preference store holds, whether or not the
// accounts are on the page. Names and console links come from usage
// records when there are any.
func Saved(doc prefs.Document, usage []prefs.Usage, startURL string) *Node {
	names := map[string]string{}
	urls := map[string]string{}
	for _, u := range usage {
		if u.AccountName != "" {
			names[u.AccountID] = u.AccountName
		}
		urls[u.Key()] = u.ConsoleURL
	}

	label := func(accountID string) string {
		if name := names[accountID]; name != "" {
			return name + " (" + accountID + ")"
		}
		return accountID
	}

	section := &Node{Kind: KindSection, ID: SavedID, Text: "Saved favorites"}

	if len(doc.Accounts) > 0 {
		accounts := &Node{Kind: KindSection, ID: SavedID + "-accounts", Text: "Accounts"}
		for _, id := range doc.Accounts {
			accounts.Add(&Node{Kind: KindText, ID: SavedID + "-account-" + id, Class: "fav", Text: "★ " + label(id)})
		}
		section.Add(accounts)
	}

	if len(doc.Roles) > 0 {
		roles := &Node{Kind: KindSection, ID: SavedID + "-roles", Text: "Roles in every account"}
		for _, name := range doc.Roles {
			roles.Add(&Node{Kind: KindText, ID: SavedID + "-role-" + name, Class: "role-fav", Text: "◆ " + name})
		}
		section.Add(roles)
	}

	if len(doc.Combos) > 0 {
		pairs := &Node{Kind: KindSection, ID: SavedID + "-pairs", Text: "Account roles"}
		for _, key := range doc.Combos {
			accountID, role := prefs.SplitComboKey(key)
			url := urls[key]
			if url == "" && startURL != "" {
				url = portal.ConsoleURL(startURL, accountID, role)
			}
			pairs.Add(&Node{
				Kind:  KindCard,
				ID:    SavedID + "-pair-" + key,
				Class: "combo",
				Text:  label(accountID) + " · " + role,
				Action: &Action{
					Kind:        ActionLaunch,
					AccountID:   accountID,
					AccountName: names[accountID],
					Role:        role,
					URL:         url,
				},
			})
		}
		section.Add(pairs)
	}

	if len(usage) > 0 {
		used := &Node{Kind: KindSection, ID: SavedID + "-usage", Text: "Usage"}
		for _, u := range usage {
			used.Add(&Node{
				Kind:  KindText,
				ID:    SavedID + "-usage-" + u.Key(),
				Class: "muted",
				Text:  fmt.Sprintf("%s · %s ×%d", label(u.AccountID), u.RoleName, u.Count),
			})
		}
		section.Add(used)
	}

	if len(section.Children) == 0 {
		section.Add(&Node{Kind: KindEmpty, ID: SavedID + "-empty", Class: "muted", Text: "No favorites saved"})
	}
	return section
}
