package mcp

import (
	"context"

	"github.com/claude/sessiontimer/internal/runner"
	"github.com/claude/sessiontimer/internal/timer"
)

// Timer abstracts the workout timer for MCP tools. Both *runner.Runner (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type Timer interface {
	Start(ctx context.Context) (timer.Snapshot, error)
	Pause(ctx context.Context) (timer.Snapshot, error)
	Resume(ctx context.Context) (timer.Snapshot, error)
	Advance(ctx context.Context) (timer.Snapshot, error)
	Snapshot(ctx context.Context) (timer.Snapshot, error)
	Summary(ctx context.Context) (timer.Summary, error)
}

// Compile-time check: *runner.Runner satisfies Timer.
var _ Timer = (*runner.Runner)(nil)
