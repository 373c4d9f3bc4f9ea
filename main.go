package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"ssoenhancer/app"
	"ssoenhancer/browser"
	"ssoenhancer/config"
	"ssoenhancer/expand"
	"ssoenhancer/logging"
	"ssoenhancer/portal"
	"ssoenhancer/prefs"
	"ssoenhancer/utils"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
)

const usage = `Usage: ssoenhancer [command] [flags]

Commands:
  run      open the access portal and start the picker (default)
  export   write favorites and usage to a file
  import   restore favorites from an export
`

type options struct {
	startURL    string
	profile     string
	cdpURL      string
	snapshot    string
	metricsAddr string
	envFile     string
	logLevel    string
	headless    bool
	install     bool

	format string
	path   string
}

// env is what every command shares once settings and logging are up
type env struct {
	manager  *config.Manager
	settings config.Settings
	session  *logging.Session
	logger   *slog.Logger
	store    *prefs.Store
}

func main() {
	cmd, args := "run", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	if err := execute(cmd, args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func execute(cmd string, args []string) error {
	var o options
	flags := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fmt.Fprintf(os.Stderr, "\nFlags for %s:\n%s", cmd, flags.FlagUsages())
	}
	flags.StringVar(&o.startURL, "start-url", "", "AWS access portal start URL")
	flags.StringVar(&o.profile, "profile", "", "AWS profile to read the SSO start URL from")
	flags.StringVar(&o.envFile, "env-file", ".env", "file with environment overrides")
	flags.StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	switch cmd {
	case "run":
		flags.StringVar(&o.cdpURL, "cdp-url", "", "attach to a running browser at this DevTools URL")
		flags.StringVar(&o.snapshot, "snapshot", "", "use a saved portal page instead of a browser")
		flags.StringVar(&o.metricsAddr, "metrics-addr", "", "serve expansion metrics on this address")
		flags.BoolVar(&o.headless, "headless", false, "launch the browser without a window")
		flags.BoolVar(&o.install, "install", false, "install the browser driver if missing")
	case "export":
		flags.StringVarP(&o.format, "format", "f", "json", "export format (json, yaml, html)")
		flags.StringVarP(&o.path, "out", "o", "-", "output file, - for stdout")
		flags.StringVar(&o.snapshot, "snapshot", "", "saved portal page whose accounts are exported with the favorites")
	case "import":
		flags.StringVarP(&o.format, "format", "f", "", "import format (json, yaml), guessed from the file name when empty")
		flags.StringVarP(&o.path, "in", "i", "", "export file to restore")
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command: %s", cmd)
	}

	if err := flags.Parse(args); err != nil {
		return err
	}

	e, err := setup(flags, o)
	if err != nil {
		return err
	}
	defer e.session.Close()

	switch cmd {
	case "export":
		return runExport(e, o)
	case "import":
		return runImport(e, o)
	default:
		return run(e, o)
	}
}

func setup(flags *pflag.FlagSet, o options) (*env, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return nil, err
	}

	manager, err := config.NewManager()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(manager.SettingsPath()); errors.Is(err, fs.ErrNotExist) {
		if err := manager.Save(config.Default()); err != nil {
			return nil, err
		}
	}

	settings, err := manager.Load()
	if err != nil {
		return nil, err
	}
	config.ApplyEnv(&settings)

	if o.startURL != "" {
		settings.Portal.StartURL = o.startURL
	}
	if o.profile != "" {
		settings.Portal.Profile = o.profile
	}
	if o.cdpURL != "" {
		settings.Portal.CDPURL = o.cdpURL
	}
	if o.logLevel != "" {
		settings.Log.Level = o.logLevel
	}
	if flags.Changed("headless") {
		settings.Portal.Headless = o.headless
	}

	session, err := logging.Open(manager.LogDir(), settings.Log)
	if session == nil {
		return nil, err
	}

	blob, err := prefs.NewFileBlob(manager.DataDir())
	if err != nil {
		session.Close()
		return nil, err
	}

	return &env{
		manager:  manager,
		settings: settings,
		session:  session,
		logger:   session.Logger,
		store:    prefs.Open(blob, session.Logger),
	}, nil
}

func run(e *env, o options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	portalSettings := e.settings.Portal
	startURL, err := e.manager.ResolveStartURL(ctx, e.settings)
	if err != nil {
		// attaching to a running browser or reading a saved page works without one
		if o.snapshot == "" && portalSettings.CDPURL == "" {
			return err
		}
		e.logger.Debug("no start url", "error", err)
	}

	metrics, err := expand.NewMetrics()
	if err != nil {
		return err
	}
	if o.metricsAddr != "" {
		srv := &http.Server{Addr: o.metricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				e.logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer srv.Close()
	}

	var page portal.Page
	if o.snapshot != "" {
		sp, err := portal.LoadStaticPage(o.snapshot, startURL)
		if err != nil {
			return err
		}
		page = sp.WithOpener(utils.OpenBrowser)
	} else {
		match, err := portal.NewMatcher(portalSettings.Match)
		if err != nil {
			return err
		}
		bp, err := browser.Open(browser.Options{
			StartURL:    startURL,
			CDPURL:      portalSettings.CDPURL,
			UserDataDir: filepath.Join(e.manager.DataDir(), browser.ProfileDirName),
			Headless:    portalSettings.Headless,
			Match:       match,
			Install:     o.install,
		}, e.logger)
		if err != nil {
			return err
		}
		defer bp.Close()

		fmt.Fprintln(os.Stderr, "Waiting for the access portal, sign in if the browser asks you to...")
		if err := portal.WaitURL(ctx, bp, match, 0, portalSettings.LoginTimeout); err != nil {
			return err
		}
		page = bp
	}

	progress := make(chan expand.Progress, 16)
	scheduler := expand.New(e.settings.Pacing.Policy(),
		expand.WithLogger(e.logger),
		expand.WithMetrics(metrics),
	)
	ctl := app.New(page, e.store, scheduler,
		app.WithLogger(e.logger),
		app.WithLimits(e.settings.UI.Limits()),
		app.WithClipboard(clipboard.WriteAll),
		app.WithProgress(func(p expand.Progress) {
			select {
			case progress <- p:
			default:
			}
		}),
	)

	if err := ctl.Start(ctx, 0, portalSettings.ReadyTimeout); err != nil {
		if errors.Is(err, portal.ErrNotReady) {
			e.logger.Error("account list never appeared, leaving the page alone", "url", page.URL(), "error", err)
			return fmt.Errorf("%w, see %s", err, e.session.Path)
		}
		return err
	}

	p := tea.NewProgram(newModel(ctx, ctl, progress, page.URL()), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// offline returns a controller for the preference commands. Without a
// saved page it runs over an empty one.
func offline(e *env, snapshot string) (*app.Controller, error) {
	startURL, err := e.manager.ResolveStartURL(context.Background(), e.settings)
	if err != nil {
		e.logger.Debug("no start url", "error", err)
	}

	page := portal.NewStaticPage(startURL, nil)
	if snapshot != "" {
		if page, err = portal.LoadStaticPage(snapshot, startURL); err != nil {
			return nil, err
		}
	}

	ctl := app.New(page, e.store, expand.New(e.settings.Pacing.Policy()),
		app.WithLogger(e.logger),
		app.WithLimits(e.settings.UI.Limits()),
	)
	if err := ctl.Refresh(context.Background()); err != nil {
		return nil, err
	}
	return ctl, nil
}

func runExport(e *env, o options) error {
	ctl, err := offline(e, o.snapshot)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if o.path != "-" {
		f, err := os.Create(o.path)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := ctl.Export(w, o.format, time.Now()); err != nil {
		return err
	}
	e.logger.Info("favorites exported", "format", o.format, "path", o.path)
	return nil
}

func runImport(e *env, o options) error {
	if o.path == "" {
		return errors.New("--in is required")
	}

	format := o.format
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(o.path), ".")
	}

	f, err := os.Open(o.path)
	if err != nil {
		return fmt.Errorf("failed to open export file: %w", err)
	}
	defer f.Close()

	ctl, err := offline(e, "")
	if err != nil {
		return err
	}
	if err := ctl.Import(f, format); err != nil {
		return err
	}
	e.logger.Info("favorites imported", "format", format, "path", o.path)
	fmt.Fprintln(os.Stderr, "Favorites restored")
	return nil
}
