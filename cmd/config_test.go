package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pwvkpno/pwvkpno/internal/config"
)

func TestConfigEditCreatesDefaults(t *testing.T) {
	home := isolate(t)
	// "true" stands in for an editor that saves without changes
	t.Setenv("VISUAL", "true")

	out, err := execute(t, "", "config", "edit")
	if err != nil {
		t.Fatalf("config edit failed: %v", err)
	}
	p := filepath.Join(home, "config.yaml")
	if !strings.Contains(out, "saved "+p) {
		t.Fatalf("unexpected output: %q", out)
	}
	s, err := config.LoadSettings(p)
	if err != nil {
		t.Fatalf("written settings do not load: %v", err)
	}
	if s.SuomiNet.Primary != "KITT" {
		t.Fatalf("expected defaults, got %+v", s.SuomiNet)
	}
}

func TestConfigEditReportsInvalidResult(t *testing.T) {
	home := isolate(t)
	p := filepath.Join(home, "config.yaml")
	if err := os.WriteFile(p, []byte("release:\n  dist_dir: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VISUAL", "true")
	if _, err := execute(t, "", "config", "edit"); err == nil {
		t.Fatalf("expected invalid settings to be reported after editing")
	}
}
