package cmd

import (
	"strings"
	"testing"
)

func TestWhoamiSetShowClear(t *testing.T) {
	isolate(t)

	if _, err := execute(t, "", "whoami", "set"); err == nil {
		t.Fatalf("expected error when missing --name")
	}

	if _, err := execute(t, "", "whoami", "set", "--name", "Bob", "--email", "bob@example.com"); err != nil {
		t.Fatalf("whoami set failed: %v", err)
	}
	out, err := execute(t, "", "whoami", "show")
	if err != nil {
		t.Fatalf("whoami show failed: %v", err)
	}
	if !strings.Contains(out, "Bob <bob@example.com>") {
		t.Fatalf("unexpected show output: %s", out)
	}

	if _, err := execute(t, "", "whoami", "clear"); err != nil {
		t.Fatalf("whoami clear failed: %v", err)
	}
	out, err = execute(t, "", "whoami", "show")
	if err != nil {
		t.Fatalf("whoami show after clear failed: %v", err)
	}
	if !strings.Contains(out, "no operator set") {
		t.Fatalf("unexpected show output after clear: %s", out)
	}
}

func TestReleaseRecordsOperator(t *testing.T) {
	_, cfg, work := releaseFixture(t)
	if _, err := execute(t, "", "whoami", "set", "--name", "Release Bot"); err != nil {
		t.Fatalf("whoami set failed: %v", err)
	}
	if _, err := execute(t, "n", "release", "--config", cfg, "--workdir", work); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	out, err := execute(t, "", "release", "history", "--config", cfg)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "Release Bot") {
		t.Fatalf("expected operator in history: %s", out)
	}
}
