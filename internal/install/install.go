// Package install holds a pending "available for install" offer from the
// platform and replays it when the user explicitly asks to install.
package install

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/claude/sessiontimer/internal/notify"
)

// ErrNoOffer is returned by Install when the platform has not offered installation.
var ErrNoOffer = errors.New("no install offer pending")

// Outcome is the user's answer to an install prompt.
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeDismissed Outcome = "dismissed"
)

// Prompt is a platform install capability that can be triggered once.
type Prompt interface {
	Prompt(ctx context.Context) (Outcome, error)
}

// Helper stores at most one pending Prompt.
type Helper struct {
	mu       sync.Mutex
	pending  Prompt
	notifier notify.Notifier
	log      *slog.Logger
}

// NewHelper creates a Helper with no pending offer.
func NewHelper(notifier notify.Notifier, log *slog.Logger) *Helper {
	return &Helper{notifier: notifier, log: log}
}

// Offer records the platform's install offer instead of showing it right away.
// A later offer replaces an earlier one.
func (h *Helper) Offer(p Prompt) {
	if p == nil {
		return
	}
	h.mu.Lock()
	h.pending = p
	h.mu.Unlock()
	h.log.Info("install offer available")
}

// Available reports whether an offer is pending.
func (h *Helper) Available() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending != nil
}

// Install triggers the pending offer. The offer is consumed whatever the outcome.
func (h *Helper) Install(ctx context.Context) (Outcome, error) {
	h.mu.Lock()
	p := h.pending
	h.pending = nil
	h.mu.Unlock()

	if p == nil {
		return "", ErrNoOffer
	}

	outcome, err := p.Prompt(ctx)
	if err != nil {
		h.log.Error("install failed", "error", err)
		h.notifier.Notify(notify.LevelError, "Installation failed")
		return "", fmt.Errorf("install prompt: %w", err)
	}

	h.log.Info("install prompt answered", "outcome", outcome)
	if outcome == OutcomeAccepted {
		h.notifier.Notify(notify.LevelSuccess, "App installed")
	}
	return outcome, nil
}
