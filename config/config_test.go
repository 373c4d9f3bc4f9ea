package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ssoenhancer/expand"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	m := NewManagerAt(t.TempDir())

	s, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
	assert.Equal(t, expand.DefaultPolicy(), s.Pacing.Policy())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := NewManagerAt(t.TempDir())

	s := Default()
	s.Portal.StartURL = "https://example.awsapps.com/start"
	s.Portal.Headless = true
	s.Pacing.Cooldown = 10 * time.Second
	s.Pacing.FailureThreshold = 5
	s.UI.RecentLimit = 3
	s.Log.Format = "json"

	require.NoError(t, m.Save(s))

	got, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	m := NewManagerAt(dir)

	data := "[pacing]\nmax_delay = 2s\n\n[ui]\nfavorites_limit = 10\n"
	require.NoError(t, os.WriteFile(m.SettingsPath(), []byte(data), 0600))

	s, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, s.Pacing.MaxDelay)
	assert.Equal(t, expand.DefaultPolicy().Cooldown, s.Pacing.Cooldown)
	assert.Equal(t, 10, s.UI.Limits().Favorites)
	assert.Equal(t, 5, s.UI.Limits().Recent)
	assert.Equal(t, "info", s.Log.Level)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(EnvCDPURL+"=http://localhost:9222\n"+EnvLogLevel+"=DEBUG\n"), 0600))

	t.Setenv(EnvStartURL, "https://env.awsapps.com/start")
	// keep the process environment clean for the vars the file sets
	t.Setenv(EnvCDPURL, "")
	t.Setenv(EnvLogLevel, "")
	os.Unsetenv(EnvCDPURL)
	os.Unsetenv(EnvLogLevel)

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))

	s := Default()
	ApplyEnv(&s)
	assert.Equal(t, "https://env.awsapps.com/start", s.Portal.StartURL)
	assert.Equal(t, "http://localhost:9222", s.Portal.CDPURL)
	assert.Equal(t, "debug", s.Log.Level)
}

func TestResolveStartURL(t *testing.T) {
	dir := t.TempDir()
	m := NewManagerAt(dir)

	awsConfig := `[profile legacy]
sso_start_url = https://legacy.awsapps.com/start
sso_region = eu-west-1
sso_account_id = 111111111111
sso_role_name = Admin

[profile modern]
sso_session = corp
sso_account_id = 111111111111
sso_role_name = Admin

[sso-session corp]
sso_start_url = https://corp.awsapps.com/start
sso_region = eu-west-1

[profile plain]
region = eu-west-1
`
	require.NoError(t, os.WriteFile(m.AWSConfigPath(), []byte(awsConfig), 0600))
	ctx := context.Background()

	tests := []struct {
		name    string
		portal  PortalSettings
		want    string
		wantErr bool
	}{
		{"explicit url wins", PortalSettings{StartURL: "https://x.awsapps.com/start", Profile: "legacy"}, "https://x.awsapps.com/start", false},
		{"legacy profile", PortalSettings{Profile: "legacy"}, "https://legacy.awsapps.com/start", false},
		{"sso session", PortalSettings{Profile: "modern"}, "https://corp.awsapps.com/start", false},
		{"no sso settings", PortalSettings{Profile: "plain"}, "", true},
		{"unknown profile", PortalSettings{Profile: "nope"}, "", true},
		{"nothing configured", PortalSettings{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ResolveStartURL(ctx, Settings{Portal: tt.portal})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
