// Package main is the entry point for the perchd floating widget daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/perch/internal/audio"
	"github.com/jmylchreest/perch/internal/config"
	"github.com/jmylchreest/perch/internal/daemon"
	"github.com/jmylchreest/perch/internal/dbus"
	"github.com/jmylchreest/perch/internal/display"
	"github.com/jmylchreest/perch/internal/engine"
	"github.com/jmylchreest/perch/internal/model"
	"github.com/jmylchreest/perch/internal/overlay"
	"github.com/jmylchreest/perch/internal/theme"
)

const appID = "io.github.jmylchreest.perchd"

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/perch/perch.toml)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		println("perchd version", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	runDaemon(logger, *configPath)
}

// hostOptions derives display host options from the config.
func hostOptions(cfg *config.Config) display.Options {
	return display.Options{
		Screen:      model.Size{Width: float64(cfg.Screen.Width), Height: float64(cfg.Screen.Height)},
		Monitor:     cfg.Screen.Monitor,
		LockedGlyph: cfg.Widget.LockedGlyph,
	}
}

func runDaemon(logger *slog.Logger, configPath string) {
	logger.Info("starting perchd", "version", version)

	if configPath == "" {
		p, err := config.ConfigPath()
		if err != nil {
			logger.Error("failed to get config path", "error", err)
			os.Exit(1)
		}
		configPath = p
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	app := adw.NewApplication(appID, 0)

	// Shared state between the GTK main loop and signal handlers
	var (
		host          *display.Host
		eng           *engine.Engine
		server        *dbus.Server
		sounds        *audio.Manager
		themeLoader   *theme.Loader
		themeWatcher  *theme.Watcher
		configWatcher *daemon.ConfigWatcher
		notifier      *daemon.Notifier
		engineDone    = make(chan struct{})
		running       atomic.Bool
	)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
		glib.IdleAdd(func() {
			app.Quit()
		})
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		themeLoader = theme.NewLoader(logger)
		themeLoader.Load(cfg.Theme.Name)
		theme.ApplyColorScheme(cfg.Theme.ColorScheme)
		themeLoader.Apply(nil)

		var sender daemon.Sender
		if n, err := dbus.NewNotifier(nil); err != nil {
			logger.Warn("desktop notifications unavailable", "error", err)
		} else {
			sender = n
		}
		notifier = daemon.NewNotifier(sender, nil, logger)
		notifier.SetEnabled(cfg.Notify.Enabled)
		notifier.SetMinInterval(cfg.Notify.MinInterval.Duration())

		sounds = audio.NewManager(cfg, logger)
		sounds.SetErrorCallback(notifier.NotifyAudioError)
		if err := sounds.Start(); err != nil {
			logger.Warn("failed to start audio manager", "error", err)
		}

		host = display.NewHost(&app.Application, hostOptions(cfg), logger)
		host.OnPermissionRequest(notifier.NotifyPermissionNeeded)

		eng = engine.New(cfg, host, host,
			engine.WithLogger(logger),
			engine.WithFeedback(sounds),
			engine.WithErrorHandler(func(err error) {
				var he *overlay.HostError
				if errors.As(err, &he) {
					notifier.NotifyHostError(he.Op, err)
					return
				}
				notifier.Notify("engine", "Widget Error", err.Error(), daemon.NotificationLevelWarning)
			}),
		)
		go func() {
			defer close(engineDone)
			if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("engine stopped", "error", err)
			}
		}()

		server = dbus.NewServer(eng, logger)
		if err := server.Start(); err != nil {
			logger.Error("failed to start D-Bus server", "error", err)
			app.Quit()
			return
		}
		go server.ForwardLifecycle(ctx, eng.Subscribe())

		current := cfg
		configWatcher = daemon.NewConfigWatcher(configPath, logger)
		configWatcher.SetReloadCallback(func(newConfig *config.Config) {
			if err := eng.UpdateConfig(ctx, newConfig); err != nil {
				logger.Warn("failed to apply config", "error", err)
				notifier.NotifyConfigError(err)
				return
			}
			sounds.UpdateConfig(newConfig)
			notifier.SetEnabled(newConfig.Notify.Enabled)
			notifier.SetMinInterval(newConfig.Notify.MinInterval.Duration())

			glib.IdleAdd(func() {
				host.SetOptions(hostOptions(newConfig))
				if newConfig.Theme.Name != current.Theme.Name {
					themeLoader.Load(newConfig.Theme.Name)
				}
				if newConfig.Theme.ColorScheme != current.Theme.ColorScheme {
					theme.ApplyColorScheme(newConfig.Theme.ColorScheme)
				}
				current = newConfig
				notifier.NotifyConfigReloaded()
			})
		})
		configWatcher.SetErrorCallback(notifier.NotifyConfigError)
		if err := configWatcher.Start(ctx, cfg); err != nil {
			logger.Warn("failed to start config watcher", "error", err)
		}

		if dir, err := theme.ThemesDir(); err == nil {
			themeWatcher = theme.NewWatcher(dir, logger)
			themeWatcher.SetChangeCallback(func() {
				glib.IdleAdd(func() {
					themeLoader.Load(current.Theme.Name)
				})
			})
			if err := themeWatcher.Start(ctx); err != nil {
				logger.Warn("failed to start theme watcher", "error", err)
			}
		}

		logger.Info("perchd ready", "dbus_interface", dbus.Interface)

		// Create a hidden window to keep the application running
		// (GTK apps quit when all windows are closed)
		keepAliveWindow := gtk.NewWindow()
		keepAliveWindow.SetApplication(&app.Application)
		keepAliveWindow.SetDefaultSize(1, 1)
		keepAliveWindow.SetDecorated(false)
		keepAliveWindow.SetVisible(false)
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		cancel()
		if configWatcher != nil {
			configWatcher.Stop()
		}
		if themeWatcher != nil {
			themeWatcher.Stop()
		}
		if server != nil {
			_ = server.Stop()
		}
		if host != nil {
			host.Close()
		}
		if eng != nil {
			<-engineDone
		}
		if sounds != nil {
			sounds.Stop()
		}
		running.Store(false)
	})

	status := app.Run(os.Args)
	cancel()

	if status != 0 {
		logger.Error("application exited with error", "status", status)
		os.Exit(status)
	}
}
