package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/sessiontimer/internal/install"
	"github.com/claude/sessiontimer/internal/journal"
	"github.com/claude/sessiontimer/internal/notify"
	"github.com/claude/sessiontimer/internal/timer"
	"github.com/go-chi/chi/v5"
)

// Controller is the timer command interface (satisfied by *runner.Runner).
type Controller interface {
	Start(ctx context.Context) (timer.Snapshot, error)
	Pause(ctx context.Context) (timer.Snapshot, error)
	Resume(ctx context.Context) (timer.Snapshot, error)
	Advance(ctx context.Context) (timer.Snapshot, error)
	Snapshot(ctx context.Context) (timer.Snapshot, error)
	Summary(ctx context.Context) (timer.Summary, error)
	SetHidden(ctx context.Context, hidden bool) (timer.Snapshot, error)
}

// Notifications lists toasts that are still visible.
type Notifications interface {
	Active() []notify.Notification
}

// Installer is the install prompt helper.
type Installer interface {
	Available() bool
	Install(ctx context.Context) (install.Outcome, error)
}

// History lists recent progress report attempts.
type History interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	timer     Controller
	notes     Notifications
	installer Installer
	history   History
	log       *slog.Logger
	apiKey    string
	router    chi.Router
}

// New creates a new Server with all routes configured. An empty apiKey leaves
// command routes open (tsnet or a loopback bind handles access).
func New(ctrl Controller, notes Notifications, installer Installer, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		timer:     ctrl,
		notes:     notes,
		installer: installer,
		log:       log,
		apiKey:    apiKey,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/timer", s.handleSnapshot)
		r.Get("/timer/summary", s.handleSummary)
		r.Get("/notifications", s.handleNotifications)
		r.Get("/install", s.handleInstallStatus)
		r.Get("/reports", s.handleReports)

		// Commands (API key required when configured)
		r.Group(func(r chi.Router) {
			if s.apiKey != "" {
				r.Use(APIKeyAuth(s.apiKey))
			}
			r.Post("/timer/start", s.command(s.timer.Start))
			r.Post("/timer/pause", s.command(s.timer.Pause))
			r.Post("/timer/resume", s.command(s.timer.Resume))
			r.Post("/timer/next", s.command(s.timer.Advance))
			r.Post("/timer/visibility", s.handleVisibility)
			r.Post("/install", s.handleInstall)
		})
	})
}

// SetHistory enables the report history endpoint.
func (s *Server) SetHistory(h History) {
	s.history = h
}
