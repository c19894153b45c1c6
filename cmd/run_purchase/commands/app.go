package commands

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"purchase-automation/internal/browser"
	"purchase-automation/internal/config"
	"purchase-automation/internal/db"
	"purchase-automation/internal/notify"
	"purchase-automation/internal/pages"
	"purchase-automation/internal/purchase"
	"purchase-automation/internal/site"
	"purchase-automation/internal/telemetry"
	"purchase-automation/lib/serviceutil"
	libtelemetry "purchase-automation/lib/telemetry"
	"time"
)

const serviceName = "run_purchase"

// app is everything a command needs, built from the configuration.
type app struct {
	cfg      config.Config
	tel      telemetry.API
	sites    *site.Registry
	database *sql.DB
	history  purchase.History
	cleanup  []func()
}

// Close releases everything in reverse order, it may be called twice.
func (a *app) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

// setup reads the configuration and starts logging and telemetry, it
// exits the process when anything is misconfigured.
func setup(ctx context.Context) *app {
	cfg, err := config.Load(*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if *headless {
		cfg.Browser.Headless = true
	}

	a := &app{
		cfg: cfg,
		tel: telemetry.SlogAPI{},
	}

	err = os.MkdirAll(cfg.LogsDir, 0777)
	if err != nil {
		serviceutil.Fatal("failed to create logs directory", err)
	}
	logFile, err := os.OpenFile(cfg.LogFile(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		serviceutil.Fatal("failed to open log file", err)
	}
	a.cleanup = append(a.cleanup, func() { logFile.Close() })

	libtelemetry.InitSlog(*verbose, logFile)
	if !*verbose {
		libtelemetry.SetLogLevel(libtelemetry.ParseLevel(cfg.LogLevel))
	}

	exporters, err := libtelemetry.SetupFromEnv(ctx, serviceName)
	if err != nil {
		slog.Debug("telemetry exporters are disabled", "err", err)
	} else {
		a.cleanup = append(a.cleanup, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := exporters.Shutdown(ctx)
			if err != nil {
				slog.Warn("failed to flush telemetry", "err", err)
			}
		})
	}
	libtelemetry.InstrumentPerfStats(ctx, 15*time.Second)

	a.sites = site.NewRegistry()
	err = a.sites.Merge(cfg.Sites)
	if err != nil {
		serviceutil.Fatal("invalid site configuration", err)
	}

	return a
}

// openHistory opens the run history database, creating its tables the
// first time.
func (a *app) openHistory(ctx context.Context) purchase.History {
	database, err := a.cfg.Database.OpenDB()
	if err != nil {
		serviceutil.Fatal("failed to open history database", err)
	}
	_, err = database.ExecContext(ctx, db.Schema)
	if err != nil {
		database.Close()
		serviceutil.Fatal("failed to create history tables", err)
	}
	a.database = database
	a.cleanup = append(a.cleanup, func() { database.Close() })
	a.history = purchase.NewHistory(db.New(database), db.NewMakeTx(database))
	return a.history
}

func (a *app) launchBrowser() browser.Launcher {
	launcher, err := browser.LaunchPlaywright(a.cfg.LaunchOptions())
	if err != nil {
		serviceutil.Fatal("failed to launch browser", err)
	}
	a.cleanup = append(a.cleanup, func() {
		err := launcher.Close()
		if err != nil {
			slog.Warn("failed to close browser", "err", err)
		}
	})
	return launcher
}

func (a *app) pagesOptions() pages.Options {
	return pages.Options{
		ScreenshotDir:  a.cfg.ScreenshotsDir,
		RetryCount:     a.cfg.RetryCount,
		DefaultTimeout: a.cfg.DefaultTimeout.Duration(),
		VisibleTimeout: a.cfg.VisibleTimeout(),
		HumanTyping:    a.cfg.HumanTyping,
	}
}

func (a *app) lookupSite(name string) site.Site {
	s, ok := a.sites.Lookup(name)
	if !ok {
		slog.Error("unknown site", "site", name, "known", a.sites.Names())
		os.Exit(1)
	}
	return s
}

func (a *app) notifier() notify.Notifier {
	return notify.NewNotifier(a.cfg.Notification, a.tel)
}
