package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(t Timer, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Session Timer", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Workout session timer. Start the session, pause or resume it, skip to the next phase, and read the current phase, remaining seconds and completion summary."),
	)

	h := &handlers{timer: t, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolStartWorkout, Handler: h.startWorkout},
		server.ServerTool{Tool: toolPauseWorkout, Handler: h.pauseWorkout},
		server.ServerTool{Tool: toolResumeWorkout, Handler: h.resumeWorkout},
		server.ServerTool{Tool: toolNextStep, Handler: h.nextStep},
		server.ServerTool{Tool: toolGetTimerState, Handler: h.getTimerState},
		server.ServerTool{Tool: toolGetSummary, Handler: h.getSummary},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resSession, Handler: h.session},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	timer Timer
	log   *slog.Logger
}

// --- Resource definitions ---

var resSession = mcp.NewResource(
	"sessiontimer://session",
	"Current Session",
	mcp.WithResourceDescription("Current phase, exercise, set and remaining seconds, plus the session summary"),
	mcp.WithMIMEType("application/json"),
)
