package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/sessiontimer/internal/timer"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolStartWorkout = mcp.NewTool("start_workout",
	mcp.WithDescription("Start the workout. Begins the preparation countdown; ignored unless the timer is idle."),
)

var toolPauseWorkout = mcp.NewTool("pause_workout",
	mcp.WithDescription("Pause the running countdown. Remaining time is kept."),
)

var toolResumeWorkout = mcp.NewTool("resume_workout",
	mcp.WithDescription("Resume a paused countdown from where it stopped."),
)

var toolNextStep = mcp.NewTool("next_step",
	mcp.WithDescription("Skip the rest of the current phase (preparation, set or rest) and move to the next one. Progress is reported exactly as if the phase had run out."),
)

var toolGetTimerState = mcp.NewTool("get_timer_state",
	mcp.WithDescription("Current phase, exercise, set number, remaining and elapsed seconds, and whether the countdown is running."),
)

var toolGetSummary = mcp.NewTool("get_summary",
	mcp.WithDescription("Session summary: exercise count, total sets and whole minutes elapsed. completed is true once the last set has finished."),
)

// --- Tool handlers ---

func (h *handlers) startWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.command(ctx, "start_workout", h.timer.Start)
}

func (h *handlers) pauseWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.command(ctx, "pause_workout", h.timer.Pause)
}

func (h *handlers) resumeWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.command(ctx, "resume_workout", h.timer.Resume)
}

func (h *handlers) nextStep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.command(ctx, "next_step", h.timer.Advance)
}

func (h *handlers) getTimerState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.command(ctx, "get_timer_state", h.timer.Snapshot)
}

func (h *handlers) getSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sum, err := h.timer.Summary(ctx)
	if err != nil {
		h.log.Error("mcp get_summary", "error", err)
		return mcp.NewToolResultError("timer unavailable: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sum)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) command(ctx context.Context, name string, fn func(context.Context) (timer.Snapshot, error)) (*mcp.CallToolResult, error) {
	snap, err := fn(ctx)
	if err != nil {
		h.log.Error("mcp "+name, "error", err)
		return mcp.NewToolResultError("timer unavailable: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(snap)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Resource handlers ---

func (h *handlers) session(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	snap, err := h.timer.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	sum, err := h.timer.Summary(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(map[string]any{
		"timer":   snap,
		"summary": sum,
	})
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
