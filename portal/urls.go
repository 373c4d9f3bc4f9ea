package portal

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultMatch is the URL pattern of AWS access portal pages
const DefaultMatch = "https://*.awsapps.com/start*"

// ConsoleURL generates the portal deep link that signs into the console for
// an account and role
func ConsoleURL(startURL, accountID, roleName string) string {
	portalURL := strings.TrimSuffix(strings.TrimSuffix(startURL, "/"), "/start")

	return fmt.Sprintf("%s/start/#/console?account_id=%s&role_name=%s",
		portalURL, url.QueryEscape(accountID), url.QueryEscape(roleName))
}

// DashboardURL generates the portal accounts tab URL
func DashboardURL(startURL string) string {
	portalURL := strings.TrimSuffix(strings.TrimSuffix(startURL, "/"), "/start")

	return fmt.Sprintf("%s/start/#/?tab=accounts", portalURL)
}

// Matcher reports whether a page URL belongs to the portal
type Matcher struct {
	pattern string
	g       glob.Glob
}

// NewMatcher compiles a URL glob such as DefaultMatch
func NewMatcher(pattern string) (*Matcher, error) {
	if pattern == "" {
		pattern = DefaultMatch
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid url pattern %q: %w", pattern, err)
	}
	return &Matcher{pattern: pattern, g: g}, nil
}

// Match reports whether u matches the pattern
func (m *Matcher) Match(u string) bool {
	return m.g.Match(u)
}

// String returns the pattern
func (m *Matcher) String() string {
	return m.pattern
}
