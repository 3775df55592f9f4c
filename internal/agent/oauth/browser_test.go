package oauth

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"
)

func TestOpenBrowser(t *testing.T) {
	var launched *exec.Cmd
	originalLauncher := browserLauncher
	browserLauncher = func(cmd *exec.Cmd) error {
		launched = cmd
		return nil
	}
	defer func() { browserLauncher = originalLauncher }()

	err := OpenBrowser("https://example.com/authorize")

	switch runtime.GOOS {
	case "linux", "darwin", "windows":
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if launched == nil {
			t.Fatal("expected a command to be launched")
		}
		if !strings.Contains(strings.Join(launched.Args, " "), "https://example.com/authorize") {
			t.Errorf("expected URL in args, got %v", launched.Args)
		}
	default:
		if err == nil || !strings.Contains(err.Error(), "unsupported platform") {
			t.Errorf("expected unsupported platform error, got %v", err)
		}
	}
}

func TestOpenBrowser_LauncherFailure(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" && runtime.GOOS != "windows" {
		t.Skip("unsupported platform")
	}

	originalLauncher := browserLauncher
	browserLauncher = func(cmd *exec.Cmd) error { return errors.New("no display") }
	defer func() { browserLauncher = originalLauncher }()

	err := OpenBrowser("https://example.com")
	if err == nil || !strings.Contains(err.Error(), "no display") {
		t.Errorf("expected wrapped launcher error, got %v", err)
	}
}
