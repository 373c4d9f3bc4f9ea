package portal

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/portal.html")
	require.NoError(t, err)
	return data
}

func TestParseFixture(t *testing.T) {
	accounts, err := Reader{StartURL: "https://example.awsapps.com/start"}.Parse(strings.NewReader(string(loadFixture(t))))
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	prod := accounts[0]
	assert.Equal(t, "Prod", prod.Name)
	assert.Equal(t, "111111111111", prod.ID)
	assert.Equal(t, "prod@example.com", prod.Email)
	assert.True(t, prod.Expanded)
	assert.Equal(t, 0, prod.Handle)
	require.Len(t, prod.Roles, 2)
	assert.Equal(t, "Admin", prod.Roles[0].Name)
	assert.Equal(t, "https://example.awsapps.com/start/#/console?account_id=111111111111&role_name=Admin", prod.Roles[0].ConsoleURL)
	assert.Equal(t, 0, prod.Roles[0].Keys)
	assert.Equal(t, "ReadOnly", prod.Roles[1].Name)
	assert.Equal(t, 1, prod.Roles[1].Keys)

	dev := accounts[1]
	assert.Equal(t, "Dev", dev.Name)
	assert.Equal(t, "222222222222", dev.ID)
	assert.False(t, dev.Expanded)
	assert.Empty(t, dev.Roles)
	assert.False(t, dev.RolesLoaded())
	assert.Equal(t, 1, dev.Handle)

	sandbox := accounts[2]
	assert.Equal(t, "333333333333", sandbox.ID, "first 12-digit match wins")
	assert.Equal(t, "sandbox@example.com", sandbox.Email)
	require.Len(t, sandbox.Roles, 1, "duplicate role names are dropped")
	assert.Equal(t, "PowerUser", sandbox.Roles[0].Name)
	assert.False(t, sandbox.Roles[0].HasKeys())
	assert.Equal(t, "https://example.awsapps.com/start/#/console?account_id=333333333333&role_name=PowerUser", sandbox.Roles[0].ConsoleURL)
}

func TestParseMissingNodes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Account
	}{
		{
			name:  "no accounts",
			input: `<html><body><main>Loading…</main></body></html>`,
			want:  nil,
		},
		{
			name:  "account without name or email",
			input: `<button data-testid="account-list-cell" aria-expanded="false"><p><span>123456789012</span></p></button>`,
			want:  []Account{{ID: "123456789012"}},
		},
		{
			name:  "expanded account with empty container",
			input: `<button data-testid="account-list-cell" aria-expanded="true"><strong><span>A</span></strong></button><div data-testid="role-list-container"></div>`,
			want:  []Account{{Name: "A", Expanded: true}},
		},
		{
			name: "roles ignored for collapsed account",
			input: `<button data-testid="account-list-cell" aria-expanded="false"><strong><span>A</span></strong></button>
				<div data-testid="role-list-container"><div data-testid="role-list-item"><a data-testid="federation-link" href="/x">Admin</a></div></div>`,
			want: []Account{{Name: "A"}},
		},
		{
			name:  "role container before any account",
			input: `<div data-testid="role-list-container"><div data-testid="role-list-item"><a data-testid="federation-link" href="/x">Admin</a></div></div>`,
			want:  nil,
		},
		{
			name:  "name in a later strong",
			input: `<button data-testid="account-list-cell"><strong>!</strong><strong><span>Prod</span></strong></button>`,
			want:  []Account{{Name: "Prod"}},
		},
		{
			name:  "account cell that is not a button",
			input: `<div data-testid="account-list-cell"><strong><span>A</span></strong></div>`,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCountsKeysAcrossAccounts(t *testing.T) {
	input := `
		<button data-testid="account-list-cell" aria-expanded="true"><p><span>111111111111</span></p></button>
		<div data-testid="role-list-container">
			<div data-testid="role-list-item"><a data-testid="federation-link" href="/a">A</a></div>
			<div data-testid="role-list-item"><a data-testid="federation-link" href="/b">B</a><button data-testid="role-creation-action-button">k</button></div>
		</div>
		<button data-testid="account-list-cell" aria-expanded="true"><p><span>222222222222</span></p></button>
		<div data-testid="role-list-container">
			<div data-testid="role-list-item"><a data-testid="federation-link" href="/c">C</a><button data-testid="role-creation-action-button">k</button></div>
		</div>`

	accounts, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	assert.Equal(t, -1, accounts[0].Roles[0].Keys)
	assert.Equal(t, 0, accounts[0].Roles[1].Keys)
	assert.Equal(t, 1, accounts[1].Roles[0].Keys)
	assert.Equal(t, 1, accounts[1].Handle)
}

func TestFind(t *testing.T) {
	accounts := []Account{{ID: "1"}, {ID: "2", Name: "two"}}

	acc, ok := Find(accounts, "2")
	assert.True(t, ok)
	assert.Equal(t, "two", acc.Name)

	_, ok = Find(accounts, "3")
	assert.False(t, ok)
}

func TestStaticPage(t *testing.T) {
	var opened string
	page := NewStaticPage("https://example.awsapps.com/start", loadFixture(t)).
		WithOpener(func(u string) error {
			opened = u
			return nil
		})

	accounts, err := page.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 3)

	assert.ErrorIs(t, page.Expand(context.Background(), accounts[1]), ErrReadOnly)
	assert.ErrorIs(t, page.GenerateKeys(context.Background(), accounts[0], accounts[0].Roles[0]), ErrReadOnly)

	require.NoError(t, page.Launch(context.Background(), "https://console.example"))
	assert.Equal(t, "https://console.example", opened)
	assert.Equal(t, "https://example.awsapps.com/start", page.URL())
}

func TestWaitReady(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		page := NewStaticPage("", loadFixture(t))
		accounts, err := WaitReady(context.Background(), page, time.Millisecond, time.Second)
		require.NoError(t, err)
		assert.Len(t, accounts, 3)
	})

	t.Run("times out", func(t *testing.T) {
		page := NewStaticPage("", []byte(`<html><body>signing in</body></html>`))
		_, err := WaitReady(context.Background(), page, time.Millisecond, 20*time.Millisecond)
		assert.ErrorIs(t, err, ErrNotReady)
	})
}

func TestWaitURL(t *testing.T) {
	m, err := NewMatcher("")
	require.NoError(t, err)

	page := NewStaticPage("https://example.awsapps.com/start/#/", nil)
	require.NoError(t, WaitURL(context.Background(), page, m, time.Millisecond, time.Second))

	page = NewStaticPage("https://login.example.com/", nil)
	assert.Error(t, WaitURL(context.Background(), page, m, time.Millisecond, 20*time.Millisecond))
}
