package progress

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/claude/sessiontimer/internal/notify"
)

// Connectivity follows whether the backend answers at all. Only requests that
// fail with ErrUnreachable count as offline; any HTTP response, including a
// rejected one, means the backend is back.
type Connectivity struct {
	notifier notify.Notifier
	log      *slog.Logger

	mu      sync.Mutex
	offline bool
}

// NewConnectivity creates a tracker that starts online.
func NewConnectivity(notifier notify.Notifier, log *slog.Logger) *Connectivity {
	return &Connectivity{notifier: notifier, log: log}
}

// Observe records the outcome of one backend request and notifies when the
// online state flips.
func (c *Connectivity) Observe(err error) {
	offline := errors.Is(err, ErrUnreachable)

	c.mu.Lock()
	changed := offline != c.offline
	c.offline = offline
	c.mu.Unlock()

	if !changed {
		return
	}
	if offline {
		c.log.Warn("backend offline", "error", err)
		c.notifier.Notify(notify.LevelWarning, "Offline mode")
		return
	}
	c.log.Info("backend reachable again")
	c.notifier.Notify(notify.LevelSuccess, "Connection restored")
}

// Online reports the state after the last observed request.
func (c *Connectivity) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.offline
}
