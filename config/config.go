package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ssoenhancer/expand"
	"ssoenhancer/filter"
	"ssoenhancer/portal"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

const (
	settingsFileName = "ssoenhancer"
	dataDirName      = "ssoenhancer-data"
	logDirName       = "ssoenhancer-logs"
	awsConfigName    = "config"
)

// Environment overrides
const (
	EnvStartURL = "SSOENHANCER_START_URL"
	EnvCDPURL   = "SSOENHANCER_CDP_URL"
	EnvLogLevel = "SSOENHANCER_LOG_LEVEL"
)

// PortalSettings is the [portal] section
type PortalSettings struct {
	StartURL     string        `ini:"start_url"`
	Profile      string        `ini:"profile"`
	Match        string        `ini:"match"`
	CDPURL       string        `ini:"cdp_url"`
	Headless     bool          `ini:"headless"`
	ReadyTimeout time.Duration `ini:"ready_timeout"`
	LoginTimeout time.Duration `ini:"login_timeout"`
}

// PacingSettings is the [pacing] section
type PacingSettings struct {
	InitialDelay     time.Duration `ini:"initial_delay"`
	Step             time.Duration `ini:"step"`
	MinDelay         time.Duration `ini:"min_delay"`
	MaxDelay         time.Duration `ini:"max_delay"`
	PollInterval     time.Duration `ini:"poll_interval"`
	ItemTimeout      time.Duration `ini:"item_timeout"`
	FailureThreshold int           `ini:"failure_threshold"`
	Cooldown         time.Duration `ini:"cooldown"`
}

// UISettings is the [ui] section
type UISettings struct {
	FavoritesLimit int `ini:"favorites_limit"`
	RecentLimit    int `ini:"recent_limit"`
	FrequentLimit  int `ini:"frequent_limit"`
}

// LogSettings is the [log] section
type LogSettings struct {
	Level  string `ini:"level"`
	Format string `ini:"format"`
}

// Settings is the whole settings file
type Settings struct {
	Portal PortalSettings
	Pacing PacingSettings
	UI     UISettings
	Log    LogSettings
}

// Default returns the settings used when the file has no value
func Default() Settings {
	p := expand.DefaultPolicy()
	return Settings{
		Portal: PortalSettings{
			Match:        portal.DefaultMatch,
			ReadyTimeout: portal.DefaultReadyTimeout,
			LoginTimeout: 5 * time.Minute,
		},
		Pacing: PacingSettings{
			InitialDelay:     p.InitialDelay,
			Step:             p.Step,
			MinDelay:         p.MinDelay,
			MaxDelay:         p.MaxDelay,
			PollInterval:     p.PollInterval,
			ItemTimeout:      p.ItemTimeout,
			FailureThreshold: p.FailureThreshold,
			Cooldown:         p.Cooldown,
		},
		UI: UISettings{
			FavoritesLimit: filter.DefaultLimits.Favorites,
			RecentLimit:    filter.DefaultLimits.Recent,
			FrequentLimit:  filter.DefaultLimits.Frequent,
		},
		Log: LogSettings{Level: "info", Format: "text"},
	}
}

// Policy returns the scheduler pacing
func (p PacingSettings) Policy() expand.Policy {
	return expand.Policy{
		InitialDelay:     p.InitialDelay,
		Step:             p.Step,
		MinDelay:         p.MinDelay,
		MaxDelay:         p.MaxDelay,
		PollInterval:     p.PollInterval,
		ItemTimeout:      p.ItemTimeout,
		FailureThreshold: p.FailureThreshold,
		Cooldown:         p.Cooldown,
	}
}

// Limits returns the quick access list sizes
func (u UISettings) Limits() filter.Limits {
	return filter.Limits{Favorites: u.FavoritesLimit, Recent: u.RecentLimit, Frequent: u.FrequentLimit}
}

// Manager handles the files the enhancer keeps under ~/.aws
type Manager struct {
	awsDir string
}

// NewManager creates a manager rooted at ~/.aws
func NewManager() (*Manager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	awsDir := filepath.Join(homeDir, ".aws")
	if err := os.MkdirAll(awsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create .aws directory: %w", err)
	}

	return NewManagerAt(awsDir), nil
}

// NewManagerAt creates a manager rooted at dir instead of ~/.aws
func NewManagerAt(dir string) *Manager {
	return &Manager{awsDir: dir}
}

func (m *Manager) SettingsPath() string {
	return filepath.Join(m.awsDir, settingsFileName)
}

func (m *Manager) DataDir() string {
	return filepath.Join(m.awsDir, dataDirName)
}

func (m *Manager) LogDir() string {
	return filepath.Join(m.awsDir, logDirName)
}

// AWSConfigPath is the shared AWS config file holding SSO profiles
func (m *Manager) AWSConfigPath() string {
	return filepath.Join(m.awsDir, awsConfigName)
}

// Load reads the settings file. Missing files and keys fall back to
// Default.
func (m *Manager) Load() (Settings, error) {
	s := Default()

	cfg, err := ini.Load(m.SettingsPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("failed to load settings file: %w", err)
	}

	sections := map[string]any{
		"portal": &s.Portal,
		"pacing": &s.Pacing,
		"ui":     &s.UI,
		"log":    &s.Log,
	}
	for name, v := range sections {
		if !cfg.HasSection(name) {
			continue
		}
		if err := cfg.Section(name).MapTo(v); err != nil {
			return s, fmt.Errorf("failed to parse [%s] settings: %w", name, err)
		}
	}

	return s, nil
}

// Save writes the settings file
func (m *Manager) Save(s Settings) error {
	cfg := ini.Empty()

	sections := []struct {
		name string
		v    any
	}{
		{"portal", &s.Portal},
		{"pacing", &s.Pacing},
		{"ui", &s.UI},
		{"log", &s.Log},
	}
	for _, sec := range sections {
		section, err := cfg.NewSection(sec.name)
		if err != nil {
			return fmt.Errorf("failed to create section %s: %w", sec.name, err)
		}
		if err := section.ReflectFrom(sec.v); err != nil {
			return fmt.Errorf("failed to write [%s] settings: %w", sec.name, err)
		}
	}

	// ReflectFrom writes durations as nanoseconds
	durations := map[string]map[string]time.Duration{
		"portal": {
			"ready_timeout": s.Portal.ReadyTimeout,
			"login_timeout": s.Portal.LoginTimeout,
		},
		"pacing": {
			"initial_delay": s.Pacing.InitialDelay,
			"step":          s.Pacing.Step,
			"min_delay":     s.Pacing.MinDelay,
			"max_delay":     s.Pacing.MaxDelay,
			"poll_interval": s.Pacing.PollInterval,
			"item_timeout":  s.Pacing.ItemTimeout,
			"cooldown":      s.Pacing.Cooldown,
		},
	}
	for name, keys := range durations {
		for key, d := range keys {
			cfg.Section(name).Key(key).SetValue(d.String())
		}
	}

	if err := cfg.SaveTo(m.SettingsPath()); err != nil {
		return fmt.Errorf("failed to save settings file: %w", err)
	}
	return nil
}

// LoadDotEnv loads variables from .env files into the environment.
// Variables already set win and missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from the environment
func ApplyEnv(s *Settings) {
	if v := os.Getenv(EnvStartURL); v != "" {
		s.Portal.StartURL = v
	}
	if v := os.Getenv(EnvCDPURL); v != "" {
		s.Portal.CDPURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		s.Log.Level = strings.ToLower(v)
	}
}

// ResolveStartURL returns the configured start URL, or the one of the
// configured AWS profile. Only the local shared config file is read.
func (m *Manager) ResolveStartURL(ctx context.Context, s Settings) (string, error) {
	if s.Portal.StartURL != "" {
		return s.Portal.StartURL, nil
	}
	if s.Portal.Profile == "" {
		return "", errors.New("no start url or profile configured")
	}

	shared, err := awsconfig.LoadSharedConfigProfile(ctx, s.Portal.Profile, func(o *awsconfig.LoadSharedConfigOptions) {
		o.ConfigFiles = []string{m.AWSConfigPath()}
		o.CredentialsFiles = []string{}
	})
	if err != nil {
		return "", fmt.Errorf("failed to load profile %s: %w", s.Portal.Profile, err)
	}

	switch {
	case shared.SSOSession != nil && shared.SSOSession.SSOStartURL != "":
		return shared.SSOSession.SSOStartURL, nil
	case shared.SSOStartURL != "":
		return shared.SSOStartURL, nil
	default:
		return "", fmt.Errorf("profile %s has no sso start url", s.Portal.Profile)
	}
}
