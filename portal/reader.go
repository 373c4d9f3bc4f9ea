package portal

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// data-testid values the portal page exposes
const (
	AccountCellTestID    = "account-list-cell"
	RoleContainerTestID  = "role-list-container"
	RoleItemTestID       = "role-list-item"
	FederationLinkTestID = "federation-link"
	KeysButtonTestID     = "role-creation-action-button"
)

// Selectors for the same nodes, for substrates that query the live page
var (
	AccountCellSelector = testIDSelector("button", AccountCellTestID)
	KeysButtonSelector  = testIDSelector("", KeysButtonTestID)
)

var accountIDPattern = regexp.MustCompile(`^\d{12}$`)

func testIDSelector(tag, id string) string {
	return fmt.Sprintf(`%s[data-testid="%s"]`, tag, id)
}

// Reader extracts accounts and roles from a portal page document
type Reader struct {
	// StartURL, when set, is used to build console links for roles whose
	// federation link carries no href.
	StartURL string
}

// Parse reads a portal page from r
func Parse(r io.Reader) ([]Account, error) {
	return Reader{}.Parse(r)
}

// Read extracts accounts from an already parsed document
func Read(doc *html.Node) []Account {
	return Reader{}.Read(doc)
}

// Parse reads a portal page from r
func (rd Reader) Parse(r io.Reader) ([]Account, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse portal page: %w", err)
	}
	return rd.Read(doc), nil
}

// Read walks the document in order. A role container belongs to the
// closest account control before it. Roles are only collected for accounts
// the page marks as expanded; every other account reports no roles.
func (rd Reader) Read(doc *html.Node) []Account {
	w := &walker{startURL: rd.StartURL}
	w.walk(doc)
	return w.accounts
}

type walker struct {
	startURL string
	accounts []Account
	keys     int
}

func (w *walker) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch testID(n) {
		case AccountCellTestID:
			if n.Data == "button" {
				w.accounts = append(w.accounts, readAccount(n, len(w.accounts)))
				return
			}
		case RoleContainerTestID:
			w.readContainer(n)
			return
		case KeysButtonTestID:
			w.keys++
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *walker) readContainer(container *html.Node) {
	var roles []Role
	forEach(container, func(n *html.Node) bool {
		switch testID(n) {
		case RoleItemTestID:
			roles = append(roles, w.readRole(n))
			return false
		case KeysButtonTestID:
			w.keys++
		}
		return true
	})

	if len(w.accounts) == 0 {
		return
	}
	acc := &w.accounts[len(w.accounts)-1]
	if !acc.Expanded {
		return
	}
	for _, role := range roles {
		if _, dup := acc.Role(role.Name); dup {
			continue
		}
		if role.ConsoleURL == "" && w.startURL != "" {
			role.ConsoleURL = ConsoleURL(w.startURL, acc.ID, role.Name)
		}
		acc.Roles = append(acc.Roles, role)
	}
}

func (w *walker) readRole(item *html.Node) Role {
	role := Role{Keys: -1}
	seenLink := false
	forEach(item, func(n *html.Node) bool {
		switch testID(n) {
		case FederationLinkTestID:
			if !seenLink {
				seenLink = true
				role.Name = textContent(n)
				role.ConsoleURL = attr(n, "href")
			}
			return false
		case KeysButtonTestID:
			if role.Keys < 0 {
				role.Keys = w.keys
			}
			w.keys++
			return false
		}
		return true
	})
	return role
}

func readAccount(btn *html.Node, handle int) Account {
	acc := Account{
		Handle:   handle,
		Expanded: attr(btn, "aria-expanded") == "true",
	}

	// first span under any strong, like the selector "strong span"
	forEach(btn, func(n *html.Node) bool {
		if acc.Name != "" {
			return false
		}
		if n.Data != "strong" {
			return true
		}
		if span := first(n, "span"); span != nil {
			acc.Name = textContent(span)
		}
		return false
	})

	forEach(btn, func(p *html.Node) bool {
		if p.Data != "p" {
			return true
		}
		forEach(p, func(span *html.Node) bool {
			if span.Data != "span" {
				return true
			}
			text := textContent(span)
			switch {
			case acc.ID == "" && accountIDPattern.MatchString(text):
				acc.ID = text
			case acc.Email == "" && strings.Contains(text, "@"):
				acc.Email = text
			}
			return true
		})
		return false
	})

	return acc
}

// forEach visits element descendants of n in document order. Returning
// false from fn skips the node's children.
func forEach(n *html.Node, fn func(*html.Node) bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if fn(c) {
			forEach(c, fn)
		}
	}
}

func first(n *html.Node, tag string) *html.Node {
	var found *html.Node
	forEach(n, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if c.Data == tag {
			found = c
			return false
		}
		return true
	})
	return found
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimSpace(sb.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func testID(n *html.Node) string {
	return attr(n, "data-testid")
}
