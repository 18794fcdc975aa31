//go:build blackbox

package blackbox

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var statarbBin string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "statarb-blackbox-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	statarbBin = filepath.Join(tmp, "statarb")

	// Build the binary once for all tests.
	cmd := exec.Command("go", "build", "-o", statarbBin, "../../cmd/statarb")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

// run executes the binary in dir and fails the test on a non-zero exit.
func run(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command(statarbBin, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("command failed: %v\nargs: %v\noutput:\n%s", err, args, string(out))
	}
	return string(out)
}

// runFail executes the binary and expects a non-zero exit.
func runFail(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command(statarbBin, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected failure\nargs: %v\noutput:\n%s", args, string(out))
	}
	return string(out)
}

func TestVersion(t *testing.T) {
	out := run(t, t.TempDir(), "version")
	if !contains(out, "statarb version") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestConfigInitValidate(t *testing.T) {
	dir := t.TempDir()
	run(t, dir, "config", "init", "-o", "statarb.yaml")
	out := run(t, dir, "config", "validate", "-f", "statarb.yaml")
	if !contains(out, "Configuration valid") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	writeFile(t, filepath.Join(dir, "bad.yaml"), "backtest:\n  capital: -1\n")
	out = runFail(t, dir, "config", "validate", "-f", "bad.yaml")
	if !contains(out, "invalid config") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
