package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleURL(t *testing.T) {
	tests := []struct {
		startURL string
		want     string
	}{
		{"https://corp.awsapps.com/start", "https://corp.awsapps.com/start/#/console?account_id=111111111111&role_name=Admin+Role"},
		{"https://corp.awsapps.com/start/", "https://corp.awsapps.com/start/#/console?account_id=111111111111&role_name=Admin+Role"},
		{"https://corp.awsapps.com", "https://corp.awsapps.com/start/#/console?account_id=111111111111&role_name=Admin+Role"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ConsoleURL(tt.startURL, "111111111111", "Admin Role"))
	}
}

func TestDashboardURL(t *testing.T) {
	assert.Equal(t, "https://corp.awsapps.com/start/#/?tab=accounts", DashboardURL("https://corp.awsapps.com/start"))
}

func TestMatcher(t *testing.T) {
	m, err := NewMatcher("")
	require.NoError(t, err)
	assert.Equal(t, DefaultMatch, m.String())

	assert.True(t, m.Match("https://corp.awsapps.com/start"))
	assert.True(t, m.Match("https://corp.awsapps.com/start/#/?tab=accounts"))
	assert.False(t, m.Match("https://signin.aws.amazon.com/"))
}
