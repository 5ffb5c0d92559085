package main

import (
	"bytes"
	"encoding/json"
	"runtime"
	"strings"
	"testing"
)

func runVersion(t *testing.T, short bool, format string) string {
	t.Helper()

	origVersion, origCommit := Version, GitCommit
	Version, GitCommit = "1.2.3-test", "abc123"
	origFlags := versionFlags
	versionFlags.short, versionFlags.format = short, format
	t.Cleanup(func() {
		Version, GitCommit = origVersion, origCommit
		versionFlags = origFlags
		versionCmd.SetOut(nil)
	})

	var out bytes.Buffer
	versionCmd.SetOut(&out)
	if err := printVersion(versionCmd, nil); err != nil {
		t.Fatalf("printVersion() error = %v", err)
	}
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	out := runVersion(t, false, "text")

	for _, want := range []string{
		"Turnstile 1.2.3-test",
		"Git Commit: abc123",
		"Go Version: " + runtime.Version(),
		"OS/Arch: " + runtime.GOOS + "/" + runtime.GOARCH,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestVersionCommand_Short(t *testing.T) {
	if out := runVersion(t, true, "text"); out != "1.2.3-test\n" {
		t.Errorf("output = %q, want %q", out, "1.2.3-test\n")
	}
}

func TestVersionCommand_JSON(t *testing.T) {
	out := runVersion(t, false, "json")

	var info buildInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if info.Version != "1.2.3-test" || info.GitCommit != "abc123" {
		t.Errorf("info = %+v", info)
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Platform = %q", info.Platform)
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"validate", "simulate", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("Find(%q) = %v, %v; want registered command", name, cmd, err)
		}
	}
}
