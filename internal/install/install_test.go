package install

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/claude/sessiontimer/internal/notify"
)

type stubPrompt struct {
	outcome Outcome
	err     error
	calls   int
}

func (s *stubPrompt) Prompt(context.Context) (Outcome, error) {
	s.calls++
	return s.outcome, s.err
}

type recordingNotifier struct{ levels []notify.Level }

func (r *recordingNotifier) Notify(level notify.Level, _ string) {
	r.levels = append(r.levels, level)
}

func newHelper() (*Helper, *recordingNotifier) {
	n := &recordingNotifier{}
	return NewHelper(n, slog.New(slog.NewTextHandler(io.Discard, nil))), n
}

// TestInstallWithoutOffer verifies Install reports ErrNoOffer until the platform offers.
func TestInstallWithoutOffer(t *testing.T) {
	h, _ := newHelper()
	if h.Available() {
		t.Error("new helper should have no offer")
	}
	if _, err := h.Install(context.Background()); !errors.Is(err, ErrNoOffer) {
		t.Errorf("err = %v, want ErrNoOffer", err)
	}
}

// TestInstallConsumesOffer verifies the stored offer is replayed once and then cleared.
func TestInstallConsumesOffer(t *testing.T) {
	h, n := newHelper()
	p := &stubPrompt{outcome: OutcomeAccepted}
	h.Offer(p)
	if !h.Available() {
		t.Fatal("offer should be available")
	}

	outcome, err := h.Install(context.Background())
	if err != nil || outcome != OutcomeAccepted {
		t.Fatalf("Install() = %q, %v", outcome, err)
	}
	if p.calls != 1 {
		t.Errorf("prompt called %d times, want 1", p.calls)
	}
	if h.Available() {
		t.Error("offer should be consumed")
	}
	if len(n.levels) != 1 || n.levels[0] != notify.LevelSuccess {
		t.Errorf("notifications = %v, want one success", n.levels)
	}
	if _, err := h.Install(context.Background()); !errors.Is(err, ErrNoOffer) {
		t.Errorf("second Install err = %v, want ErrNoOffer", err)
	}
}

// TestInstallDismissedAndFailed verifies dismissals are silent and failures notify.
func TestInstallDismissedAndFailed(t *testing.T) {
	h, n := newHelper()
	h.Offer(&stubPrompt{outcome: OutcomeDismissed})
	if outcome, err := h.Install(context.Background()); err != nil || outcome != OutcomeDismissed {
		t.Errorf("Install() = %q, %v", outcome, err)
	}
	if len(n.levels) != 0 {
		t.Errorf("dismissal notified: %v", n.levels)
	}

	h.Offer(&stubPrompt{err: errors.New("disk full")})
	if _, err := h.Install(context.Background()); err == nil {
		t.Error("expected error")
	}
	if h.Available() {
		t.Error("failed offer should still be consumed")
	}
	if len(n.levels) != 1 || n.levels[0] != notify.LevelError {
		t.Errorf("notifications = %v, want one error", n.levels)
	}
}

// TestDesktopEntryInstall writes the launcher and stops offering it afterwards.
func TestDesktopEntryInstall(t *testing.T) {
	dir := t.TempDir()
	entry, ok := Detect("Session Timer", "/opt/session timer/bin", dir)
	if !ok {
		t.Fatal("expected an offer for a missing entry")
	}

	outcome, err := entry.Prompt(context.Background())
	if err != nil || outcome != OutcomeAccepted {
		t.Fatalf("Prompt() = %q, %v", outcome, err)
	}
	data, err := os.ReadFile(entry.Path())
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "Name=Session Timer") {
		t.Errorf("entry missing name:\n%s", content)
	}
	if !strings.Contains(content, `Exec="/opt/session timer/bin" -mode tui`) {
		t.Errorf("entry exec not quoted:\n%s", content)
	}
	if !strings.HasSuffix(entry.Path(), "session-timer.desktop") {
		t.Errorf("path = %q", entry.Path())
	}

	if _, ok := Detect("Session Timer", "/opt/session timer/bin", dir); ok {
		t.Error("installed entry should not be offered again")
	}
}

// TestDesktopEntryLaunchArgs verifies the launcher carries the session and config paths.
func TestDesktopEntryLaunchArgs(t *testing.T) {
	dir := t.TempDir()
	entry, ok := Detect("Session Timer", "/usr/bin/sessiontimer", dir,
		"-session", "/home/ana/workouts/leg day.yaml", "-config", "/etc/sessiontimer.yaml")
	if !ok {
		t.Fatal("expected an offer for a missing entry")
	}
	if _, err := entry.Prompt(context.Background()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(entry.Path())
	if err != nil {
		t.Fatal(err)
	}
	want := `Exec=/usr/bin/sessiontimer -mode tui -session "/home/ana/workouts/leg day.yaml" -config /etc/sessiontimer.yaml`
	if !strings.Contains(string(data), want+"\n") {
		t.Errorf("entry exec line missing launch args:\n%s", data)
	}
}

// TestQuoteExecArg covers Exec key quoting and escaping.
func TestQuoteExecArg(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/usr/bin/timer", "/usr/bin/timer"},
		{"", `""`},
		{"a b", `"a b"`},
		{`cost$5`, `"cost\$5"`},
		{`say "hi"`, `"say \"hi\""`},
	}
	for _, tt := range tests {
		if got := quoteExecArg(tt.in); got != tt.want {
			t.Errorf("quoteExecArg(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

// TestDesktopEntryDeclined verifies a declined confirmation writes nothing.
func TestDesktopEntryDeclined(t *testing.T) {
	entry := &DesktopEntry{
		AppName:  "timer",
		ExecPath: "/usr/bin/timer",
		Dir:      t.TempDir(),
		Confirm:  func(context.Context) (bool, error) { return false, nil },
	}
	outcome, err := entry.Prompt(context.Background())
	if err != nil || outcome != OutcomeDismissed {
		t.Fatalf("Prompt() = %q, %v", outcome, err)
	}
	if _, err := os.Stat(entry.Path()); !os.IsNotExist(err) {
		t.Errorf("entry written despite decline: %v", err)
	}
}

// TestApplicationsDirXDG honours XDG_DATA_HOME.
func TestApplicationsDirXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	dir, err := ApplicationsDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/data/applications" {
		t.Errorf("dir = %q", dir)
	}
}
