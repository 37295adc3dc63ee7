// Package tui is the terminal front end for a workout session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/claude/sessiontimer/internal/install"
	"github.com/claude/sessiontimer/internal/models"
	"github.com/claude/sessiontimer/internal/notify"
	"github.com/claude/sessiontimer/internal/runner"
	"github.com/claude/sessiontimer/internal/timer"
)

const (
	commandTimeout  = 2 * time.Second
	refreshInterval = 500 * time.Millisecond
	// Below this many seconds the clock turns red (not during preparation).
	urgentSeconds = 5
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

// Config wires a Model to the running timer.
type Config struct {
	Title     string
	Session   *models.Session
	Timer     Controller
	Notes     Notifications
	Installer Installer
	Updates   <-chan runner.Update
}

type updateMsg runner.Update

type updatesClosedMsg struct{}

type refreshMsg time.Time

type snapshotMsg struct {
	snap timer.Snapshot
	err  error
}

type summaryMsg struct {
	sum timer.Summary
	err error
}

type installMsg struct {
	outcome install.Outcome
	err     error
}

// Model is the bubbletea model for the timer screen.
type Model struct {
	cfg Config

	snap        timer.Snapshot
	summary     *timer.Summary
	hidden      bool
	toasts      []notify.Notification
	installable bool
	err         error

	keys     KeyMap
	help     help.Model
	bar      progress.Model
	width    int
	quitting bool
}

// New creates the timer screen model.
func New(cfg Config) Model {
	if cfg.Title == "" {
		cfg.Title = "Session Timer"
	}
	return Model{
		cfg:  cfg,
		keys: DefaultKeyMap(),
		help: help.New(),
		bar:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

// Init subscribes to runner updates and loads the first snapshot.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForUpdate(m.cfg.Updates),
		m.snapshotCmd(m.cfg.Timer.Snapshot),
		refreshCmd(),
	)
}

// waitForUpdate blocks until the runner publishes. A closed channel stops polling.
func waitForUpdate(updates <-chan runner.Update) tea.Cmd {
	return func() tea.Msg {
		if updates == nil {
			return nil
		}
		u, ok := <-updates
		if !ok {
			return updatesClosedMsg{}
		}
		return updateMsg(u)
	}
}

func refreshCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m Model) snapshotCmd(fn func(context.Context) (timer.Snapshot, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		snap, err := fn(ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m Model) visibilityCmd(hidden bool) tea.Cmd {
	return m.snapshotCmd(func(ctx context.Context) (timer.Snapshot, error) {
		return m.cfg.Timer.SetHidden(ctx, hidden)
	})
}

func (m Model) summaryCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		sum, err := m.cfg.Timer.Summary(ctx)
		return summaryMsg{sum: sum, err: err}
	}
}

func (m Model) installCmd() tea.Cmd {
	return func() tea.Msg {
		outcome, err := m.cfg.Installer.Install(context.Background())
		return installMsg{outcome: outcome, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.bar.Width = min(max(msg.Width-12, 10), 60)
		return m, nil

	case updateMsg:
		m.snap = msg.Snapshot
		m.hidden = msg.Hidden
		if msg.Summary != nil {
			m.summary = msg.Summary
		}
		return m, waitForUpdate(m.cfg.Updates)

	case updatesClosedMsg:
		return m, nil

	case snapshotMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.snap = msg.snap
		if m.snap.State == timer.StateCompleted && m.summary == nil {
			return m, m.summaryCmd()
		}
		return m, nil

	case summaryMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.summary = &msg.sum
		return m, nil

	case installMsg:
		if msg.err != nil && !errors.Is(msg.err, install.ErrNoOffer) {
			m.err = msg.err
		}
		return m, nil

	case refreshMsg:
		if m.cfg.Notes != nil {
			m.toasts = m.cfg.Notes.Active()
		}
		if m.cfg.Installer != nil {
			m.installable = m.cfg.Installer.Available()
		}
		return m, refreshCmd()

	// Terminal focus stands in for page visibility.
	case tea.BlurMsg:
		return m, m.visibilityCmd(true)

	case tea.FocusMsg:
		return m, m.visibilityCmd(false)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Start):
			return m, m.snapshotCmd(m.cfg.Timer.Start)
		case key.Matches(msg, m.keys.Pause):
			if m.snap.Running {
				return m, m.snapshotCmd(m.cfg.Timer.Pause)
			}
			return m, m.snapshotCmd(m.cfg.Timer.Resume)
		case key.Matches(msg, m.keys.Next):
			return m, m.snapshotCmd(m.cfg.Timer.Advance)
		case key.Matches(msg, m.keys.Install):
			if m.installable && m.cfg.Installer != nil {
				m.installable = false
				return m, m.installCmd()
			}
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	return m, nil
}

// View renders the timer screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	header := m.cfg.Title
	if m.snap.SessionID > 0 {
		header += fmt.Sprintf(" · session %d", m.snap.SessionID)
	}
	b.WriteString(HeaderStyle.Render(header))
	b.WriteString("\n\n")

	b.WriteString(PanelStyle.Render(m.renderPanel()))
	b.WriteString("\n")

	if list := m.renderExercises(); list != "" {
		b.WriteString(list)
		b.WriteString("\n")
	}

	for _, n := range m.toasts {
		b.WriteString(notificationStyle(n.Level).Render(n.Message))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(notificationStyle(notify.LevelError).Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}

	status := "elapsed " + formatClock(m.snap.Elapsed)
	if m.installable {
		status += " · press i to install"
	}
	b.WriteString(StatusBarStyle.Render(status))
	b.WriteString("\n")
	b.WriteString(StatusBarStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) renderPanel() string {
	var lines []string
	lines = append(lines, phaseStyle(m.snap.State).Render(phaseLabel(m.snap.State)))

	switch m.snap.State {
	case timer.StateIdle:
		lines = append(lines, DetailStyle.Render("Press s to start"))

	case timer.StateCompleted:
		lines = append(lines, SummaryStyle.Render("Great work!"))
		if m.summary != nil {
			lines = append(lines, DetailStyle.Render(fmt.Sprintf(
				"%d exercises · %d sets · %d min", m.summary.Exercises, m.summary.Sets, m.summary.Minutes)))
		}

	default:
		if ex := m.snap.Exercise; ex != nil {
			lines = append(lines, ExerciseStyle.Render(ex.Name))
			detail := fmt.Sprintf("Set %d of %d", m.snap.Set, ex.Sets)
			if ex.Reps != "" {
				detail += " · " + ex.Reps + " reps"
			}
			lines = append(lines, DetailStyle.Render(detail))
		}

		clock := ClockStyle
		if m.urgent() {
			clock = ClockUrgentStyle
		}
		lines = append(lines, "", clock.Render(formatClock(m.snap.Remaining)))
		if !m.snap.Running {
			label := "paused"
			if m.hidden {
				label = "paused (window hidden)"
			}
			lines = append(lines, PausedStyle.Render(label))
		}
		if m.snap.TotalExercises > 0 && m.snap.State != timer.StatePreparation {
			pct := float64(m.snap.ExerciseIndex+1) / float64(m.snap.TotalExercises)
			lines = append(lines, "", m.bar.ViewAs(pct))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderExercises lists the session, marking finished and current exercises.
func (m Model) renderExercises() string {
	if m.cfg.Session == nil {
		return ""
	}
	active := m.snap.State == timer.StateWork || m.snap.State == timer.StateRest
	var lines []string
	for i, ex := range m.cfg.Session.Exercises {
		line := fmt.Sprintf("%d×%s %s", ex.Sets, ex.Reps, ex.Name)
		switch {
		case m.snap.State == timer.StateCompleted || (active && i < m.snap.ExerciseIndex):
			lines = append(lines, notificationStyle(notify.LevelSuccess).Render("✓ "+line))
		case active && i == m.snap.ExerciseIndex:
			lines = append(lines, notificationStyle(notify.LevelInfo).Render("▶ "+line))
		default:
			lines = append(lines, DetailStyle.PaddingLeft(1).Render("  "+line))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) urgent() bool {
	return m.snap.State != timer.StatePreparation && m.snap.Remaining <= urgentSeconds
}

func phaseLabel(s timer.State) string {
	switch s {
	case timer.StatePreparation:
		return "GET READY"
	case timer.StateWork:
		return "WORK"
	case timer.StateRest:
		return "REST"
	case timer.StateCompleted:
		return "WORKOUT COMPLETE"
	default:
		return "READY"
	}
}

// formatClock renders seconds as mm:ss.
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
