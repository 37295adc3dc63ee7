package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/claude/sessiontimer/internal/config"
	"github.com/claude/sessiontimer/internal/install"
	"github.com/claude/sessiontimer/internal/journal"
	"github.com/claude/sessiontimer/internal/mcp"
	"github.com/claude/sessiontimer/internal/models"
	"github.com/claude/sessiontimer/internal/notify"
	"github.com/claude/sessiontimer/internal/progress"
	"github.com/claude/sessiontimer/internal/runner"
	"github.com/claude/sessiontimer/internal/server"
	"github.com/claude/sessiontimer/internal/timer"
	"github.com/claude/sessiontimer/internal/tui"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (optional)")
	sessionPath := flag.String("session", "", "path to workout session file (JSON or YAML)")
	mode := flag.String("mode", "tui", "run mode: tui, serve or mcp")
	remote := flag.String("remote", "", "mcp mode: control a timer served at this URL instead of running one")
	logFile := flag.String("log-file", filepath.Join(os.TempDir(), "sessiontimer.log"), "tui mode: log destination")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("sessiontimer", Version)
		return nil
	}

	// stdout belongs to the protocol in mcp mode and to the screen in tui mode.
	var logOut io.Writer = os.Stdout
	switch *mode {
	case "mcp":
		logOut = os.Stderr
	case "tui":
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	case "serve":
	default:
		return fmt.Errorf("unknown -mode %q (want tui, serve or mcp)", *mode)
	}

	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("sessiontimer starting", "version", Version, "mode", *mode)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		return err
	}

	if *mode == "mcp" && *remote != "" {
		return runRemoteMCP(*remote, cfg, log)
	}

	if *sessionPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: sessiontimer -session <file> [-mode tui|serve|mcp] [-config config.yaml]\n\n")
		flag.PrintDefaults()
		return fmt.Errorf("-session is required")
	}

	session, err := models.LoadSession(*sessionPath)
	if err != nil {
		log.Error("failed to load session", "path", *sessionPath, "error", err)
		return err
	}
	log.Info("session loaded", "session_id", session.ID, "exercises", len(session.Exercises), "sets", session.TotalSets())

	launch, err := launchArgs(*sessionPath, *configPath)
	if err != nil {
		log.Error("failed to resolve launch paths", "error", err)
		return err
	}

	a, err := newApp(cfg, session, launch, log)
	if err != nil {
		log.Error("failed to set up timer", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	runCtx, cancelRun := context.WithCancel(ctx)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = a.runner.Run(runCtx)
	}()

	switch *mode {
	case "tui":
		err = runTUI(ctx, cfg, session, a, log)
	case "serve":
		err = runServe(ctx, cfg, a, log)
	case "mcp":
		err = runMCP(a, log)
	}

	cancelRun()
	wg.Wait()
	// Reports already in flight still get their chance to land.
	a.dispatcher.Wait()
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			log.Warn("journal close failed", "error", err)
		}
	}

	if err != nil {
		log.Error("exited with error", "error", err)
		return err
	}
	log.Info("sessiontimer stopped")
	return nil
}

// launchArgs are the flags an installed launcher needs to reopen this session.
func launchArgs(sessionPath, configPath string) ([]string, error) {
	abs, err := filepath.Abs(sessionPath)
	if err != nil {
		return nil, fmt.Errorf("session path: %w", err)
	}
	args := []string{"-session", abs}
	if configPath != "" {
		abs, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("config path: %w", err)
		}
		args = append(args, "-config", abs)
	}
	return args, nil
}

// app is the timer core shared by every front end.
type app struct {
	notes      *notify.Center
	dispatcher *progress.Dispatcher
	runner     *runner.Runner
	installer  *install.Helper
	journal    *journal.Journal // nil when disabled
}

func newApp(cfg *config.Config, session *models.Session, launch []string, log *slog.Logger) (*app, error) {
	notes := notify.NewCenter(cfg.Notifications.TTL(), log)

	backend, err := newBackend(cfg, log)
	if err != nil {
		return nil, err
	}

	var j *journal.Journal
	if cfg.Journal.Dir != "" {
		j, err = journal.Open(cfg.Journal.Dir)
		if err != nil {
			return nil, err
		}
		backend = j.Wrap(backend)
		log.Info("report journal enabled", "dir", cfg.Journal.Dir)
	}
	dispatcher := progress.NewDispatcher(backend, notes, cfg.Backend.Timeout(), log)

	machine := timer.New(*session, timer.Config{
		PreparationSeconds: cfg.Timer.PreparationSeconds,
		WorkSeconds:        cfg.Timer.WorkSeconds,
	}, dispatcher)

	r := runner.New(machine, runner.Config{Interval: cfg.Timer.TickInterval()}, log)

	installer := install.NewHelper(notes, log)
	offerDesktopEntry(cfg, installer, launch, log)

	return &app{notes: notes, dispatcher: dispatcher, runner: r, installer: installer, journal: j}, nil
}

// newBackend picks where progress reports go. No base URL means dry-run.
func newBackend(cfg *config.Config, log *slog.Logger) (progress.Backend, error) {
	if cfg.Backend.DryRun() {
		log.Info("DRY RUN mode: progress reports are logged, not sent")
		return progress.DryRun{Log: log}, nil
	}

	httpClient, err := progress.NewHTTPClient(cfg.Backend.Timeout())
	if err != nil {
		return nil, fmt.Errorf("backend http client: %w", err)
	}

	var tokens progress.TokenSource = progress.StaticToken(cfg.Backend.CSRFToken)
	if cfg.Backend.CSRFToken == "" {
		tokens = progress.NewPageToken(cfg.Backend.PageURL(), httpClient)
		log.Info("csrf token from page", "url", cfg.Backend.PageURL())
	}

	log.Info("reporting progress", "backend", cfg.Backend.BaseURL)
	return progress.NewClient(cfg.Backend.BaseURL, httpClient, tokens), nil
}

// offerDesktopEntry registers an install offer when no launcher exists yet.
func offerDesktopEntry(cfg *config.Config, installer *install.Helper, launch []string, log *slog.Logger) {
	exe, err := os.Executable()
	if err != nil {
		log.Warn("install offer skipped", "error", err)
		return
	}
	dir, err := install.ApplicationsDir()
	if err != nil {
		log.Warn("install offer skipped", "error", err)
		return
	}
	if entry, ok := install.Detect(cfg.App.Name, exe, dir, launch...); ok {
		installer.Offer(entry)
	}
}

func runTUI(ctx context.Context, cfg *config.Config, session *models.Session, a *app, log *slog.Logger) error {
	m := tui.New(tui.Config{
		Title:     cfg.App.Name,
		Session:   session,
		Timer:     a.runner,
		Notes:     a.notes,
		Installer: a.installer,
		Updates:   a.runner.Subscribe(16),
	})

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	log.Info("tui closed")
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, a *app, log *slog.Logger) error {
	srv := server.New(a.runner, a.notes, a.installer, cfg.Auth.APIKey, log)
	if a.journal != nil {
		srv.SetHistory(a.journal)
	}

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var err error

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			return fmt.Errorf("tsnet start: %w", err)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			return fmt.Errorf("tsnet listen: %w", err)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}
	serveErr := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
	return nil
}

func runMCP(a *app, log *slog.Logger) error {
	s := mcp.New(a.runner, Version, log)
	log.Info("mcp server on stdio")
	if err := mcpserver.ServeStdio(s); err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

// runRemoteMCP serves MCP on stdio against a timer running in `-mode serve` elsewhere.
func runRemoteMCP(remote string, cfg *config.Config, log *slog.Logger) error {
	s := mcp.New(mcp.NewHTTPClient(remote, cfg.Auth.APIKey), Version, log)
	log.Info("mcp server on stdio", "remote", remote)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp error", "error", err)
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}
