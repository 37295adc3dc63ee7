package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// withArgs runs run() against a fresh flag set and the given arguments.
func withArgs(t *testing.T, args ...string) error {
	t.Helper()
	oldArgs, oldFlags := os.Args, flag.CommandLine
	t.Cleanup(func() {
		os.Args, flag.CommandLine = oldArgs, oldFlags
	})
	os.Args = append([]string{"sessiontimer"}, args...)
	flag.CommandLine = flag.NewFlagSet("sessiontimer", flag.ContinueOnError)
	return run()
}

// TestRunReturnsStartupErrors verifies startup failures come back as errors
// so deferred cleanup such as closing the log file still runs.
func TestRunReturnsStartupErrors(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "timer.log")

	if err := withArgs(t, "-mode", "bogus"); err == nil || !strings.Contains(err.Error(), "unknown -mode") {
		t.Errorf("unknown mode: err = %v", err)
	}
	if err := withArgs(t, "-mode", "tui", "-log-file", logFile); err == nil || !strings.Contains(err.Error(), "-session is required") {
		t.Errorf("missing session: err = %v", err)
	}
	if err := withArgs(t, "-mode", "tui", "-log-file", logFile, "-session", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing session file should fail")
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "failed to load session") {
		t.Errorf("log file missing the load failure:\n%s", data)
	}
}

// TestLaunchArgs verifies the launcher flags use absolute paths.
func TestLaunchArgs(t *testing.T) {
	args, err := launchArgs("workouts/legs.yaml", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(args) != 2 || args[0] != "-session" || !filepath.IsAbs(args[1]) || !strings.HasSuffix(args[1], filepath.Join("workouts", "legs.yaml")) {
		t.Errorf("launchArgs without config = %q", args)
	}

	args, err = launchArgs("/srv/legs.yaml", "conf/timer.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(args) != 4 || args[1] != "/srv/legs.yaml" || args[2] != "-config" || !filepath.IsAbs(args[3]) {
		t.Errorf("launchArgs with config = %q", args)
	}
}
