package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStagewisePath_Default(t *testing.T) {
	t.Setenv("STAGEWISE_PATH", "")

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}

	got := StagewisePath()
	want := filepath.Join(home, ".stagewise")
	if got != want {
		t.Errorf("StagewisePath() = %q, want %q", got, want)
	}
}

func TestStagewisePath_EnvOverride(t *testing.T) {
	t.Setenv("STAGEWISE_PATH", "/tmp/custom-stagewise")

	got := StagewisePath()
	want := "/tmp/custom-stagewise"
	if got != want {
		t.Errorf("StagewisePath() = %q, want %q", got, want)
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("STAGEWISE_PATH", "/tmp/test-stagewise")

	got := ConfigPath()
	want := "/tmp/test-stagewise/config.jsonc"
	if got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}
}

func TestDotenvPath(t *testing.T) {
	t.Setenv("STAGEWISE_PATH", "/tmp/test-stagewise")

	got := DotenvPath()
	want := "/tmp/test-stagewise/.env"
	if got != want {
		t.Errorf("DotenvPath() = %q, want %q", got, want)
	}
}

func TestMockHeartbeatPath(t *testing.T) {
	t.Setenv("STAGEWISE_PATH", "/tmp/test-stagewise")

	got := MockHeartbeatPath()
	want := "/tmp/test-stagewise/mock.heartbeat.json"
	if got != want {
		t.Errorf("MockHeartbeatPath() = %q, want %q", got, want)
	}
}
