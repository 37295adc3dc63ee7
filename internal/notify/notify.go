// Package notify keeps short-lived user-facing notifications, the terminal and
// API equivalent of the web app's dismissable toasts.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 5 * time.Second

// Level is the notification style.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a single toast.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier is what producers of notifications depend on.
type Notifier interface {
	Notify(level Level, message string)
}

// Center stores notifications until they expire. Safe for concurrent use.
type Center struct {
	mu    sync.Mutex
	items []Notification
	ttl   time.Duration
	log   *slog.Logger
	now   func() time.Time
}

// NewCenter creates a Center. A non-positive ttl uses DefaultTTL.
func NewCenter(ttl time.Duration, log *slog.Logger) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{ttl: ttl, log: log, now: time.Now}
}

// Notify records a notification and logs it at the matching level.
func (c *Center) Notify(level Level, message string) {
	now := c.now()
	n := Notification{
		ID:        uuid.New(),
		Level:     level,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.mu.Lock()
	c.items = append(pruneLocked(c.items, now), n)
	c.mu.Unlock()

	switch level {
	case LevelError:
		c.log.Error("notification", "level", level, "message", message)
	case LevelWarning:
		c.log.Warn("notification", "level", level, "message", message)
	default:
		c.log.Info("notification", "level", level, "message", message)
	}
}

// Active returns unexpired notifications, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = pruneLocked(c.items, c.now())
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

func pruneLocked(items []Notification, now time.Time) []Notification {
	kept := items[:0]
	for _, n := range items {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	return kept
}
