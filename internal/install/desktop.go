package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DesktopEntry installs a freedesktop launcher entry for the timer.
type DesktopEntry struct {
	AppName  string
	ExecPath string
	Args     []string // appended after -mode tui
	Dir      string   // applications directory

	// Confirm, when set, asks the user before writing. Declining yields OutcomeDismissed.
	Confirm func(ctx context.Context) (bool, error)
}

// ApplicationsDir returns $XDG_DATA_HOME/applications, defaulting to ~/.local/share/applications.
func ApplicationsDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "applications"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("applications dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "applications"), nil
}

// Detect returns an entry to offer when the launcher is not installed yet.
// args are passed to the executable after -mode tui.
func Detect(appName, execPath, dir string, args ...string) (*DesktopEntry, bool) {
	entry := &DesktopEntry{AppName: appName, ExecPath: execPath, Args: args, Dir: dir}
	if _, err := os.Stat(entry.Path()); err == nil {
		return nil, false
	}
	return entry, true
}

// Path is where the entry is written.
func (d *DesktopEntry) Path() string {
	return filepath.Join(d.Dir, desktopFileName(d.AppName))
}

func (d *DesktopEntry) Prompt(ctx context.Context) (Outcome, error) {
	if d.AppName == "" {
		return "", fmt.Errorf("desktop entry: app name is empty")
	}
	if d.ExecPath == "" {
		return "", fmt.Errorf("desktop entry: exec path is empty")
	}
	if d.Confirm != nil {
		ok, err := d.Confirm(ctx)
		if err != nil {
			return "", fmt.Errorf("desktop entry: confirm: %w", err)
		}
		if !ok {
			return OutcomeDismissed, nil
		}
	}

	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("desktop entry: create dir: %w", err)
	}
	if err := os.WriteFile(d.Path(), []byte(buildDesktopEntry(d.AppName, d.ExecPath, d.Args)), 0o644); err != nil {
		return "", fmt.Errorf("desktop entry: write: %w", err)
	}
	return OutcomeAccepted, nil
}

func desktopFileName(appName string) string {
	name := strings.ToLower(strings.TrimSpace(appName))
	if name == "" {
		name = "sessiontimer"
	}
	return strings.ReplaceAll(name, " ", "-") + ".desktop"
}

func buildDesktopEntry(appName, execPath string, args []string) string {
	parts := []string{quoteExecArg(execPath), "-mode", "tui"}
	for _, a := range args {
		parts = append(parts, quoteExecArg(a))
	}
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Exec=%s
Terminal=true
Categories=Utility;Sports;
`, appName, strings.Join(parts, " "))
}

// quoteExecArg quotes an Exec key argument that contains reserved characters.
// Inside quotes, the characters " ` $ and \ are backslash-escaped.
func quoteExecArg(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\n\"'\\><~|&;$*?#()`") {
		return arg
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range arg {
		switch r {
		case '"', '`', '$', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
