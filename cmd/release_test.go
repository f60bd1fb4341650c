package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pwvkpno/pwvkpno/internal/executor"
)

type fakeRunner struct {
	mu   sync.Mutex
	cmds []string
}

// Execute records the command; the sdist step leaves a build tree behind.
func (f *fakeRunner) Execute(_ context.Context, command, cwd string, _ io.Reader, _ io.Writer, _ io.Writer) error {
	f.mu.Lock()
	f.cmds = append(f.cmds, command)
	f.mu.Unlock()
	if strings.Contains(command, "sdist") {
		for _, d := range []string{"dist", "build", "pwv_kpno.egg-info"} {
			if err := os.MkdirAll(filepath.Join(cwd, d), 0o755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(filepath.Join(cwd, "dist", "pwv_kpno-1.0.tar.gz"), []byte("archive"), 0o644); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(cwd, "MANIFEST"), []byte("setup.py\n"), 0o644)
	}
	return nil
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// releaseFixture installs a fake runner and a settings file whose commands
// resolve to a program present on PATH so preflight passes.
func releaseFixture(t *testing.T) (*fakeRunner, string, string) {
	t.Helper()
	home := isolate(t)
	cfgPath := filepath.Join(home, "config.yaml")
	writeFile(t, cfgPath, `release:
  build:
    - "true sdist"
    - "true bdist_wheel"
  upload: "true upload dist/*"
`)
	fr := &fakeRunner{}
	old := newRunner
	newRunner = func(bool, bool) executor.Runner { return fr }
	t.Cleanup(func() { newRunner = old })
	return fr, cfgPath, t.TempDir()
}

func assertCleaned(t *testing.T, work string) {
	t.Helper()
	for _, p := range []string{"build", "dist", "pwv_kpno.egg-info", "MANIFEST"} {
		if _, err := os.Stat(filepath.Join(work, p)); !os.IsNotExist(err) {
			t.Fatalf("expected %s to be removed, stat err=%v", p, err)
		}
	}
}

func TestReleaseConfirmUploads(t *testing.T) {
	for _, answer := range []string{"y", "Y"} {
		t.Run(answer, func(t *testing.T) {
			fr, cfg, work := releaseFixture(t)
			out, err := execute(t, answer, "release", "--config", cfg, "--workdir", work)
			if err != nil {
				t.Fatalf("release failed: %v", err)
			}
			want := []string{"true sdist", "true bdist_wheel", "true upload dist/*"}
			if strings.Join(fr.cmds, "|") != strings.Join(want, "|") {
				t.Fatalf("unexpected commands: %v", fr.cmds)
			}
			if !strings.Contains(out, "uploaded") {
				t.Fatalf("expected upload in output: %s", out)
			}
			assertCleaned(t, work)
		})
	}
}

func TestReleaseDeclineSkipsUpload(t *testing.T) {
	for _, answer := range []string{"n", "", "x"} {
		t.Run("answer="+answer, func(t *testing.T) {
			fr, cfg, work := releaseFixture(t)
			out, err := execute(t, answer, "release", "--config", cfg, "--workdir", work)
			if err != nil {
				t.Fatalf("release failed: %v", err)
			}
			for _, c := range fr.cmds {
				if strings.Contains(c, "upload") {
					t.Fatalf("upload must not run for %q: %v", answer, fr.cmds)
				}
			}
			if !strings.Contains(out, "upload skipped") {
				t.Fatalf("expected skip message: %s", out)
			}
			assertCleaned(t, work)
		})
	}
}

func TestReleaseHistoryListsRuns(t *testing.T) {
	_, cfg, work := releaseFixture(t)
	if _, err := execute(t, "n", "release", "--config", cfg, "--workdir", work); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	out, err := execute(t, "", "release", "history", "--config", cfg)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "1 artifact(s)") || !strings.Contains(out, "skipped") {
		t.Fatalf("unexpected history output: %s", out)
	}
}

func TestReleaseRefusesDangerousCommand(t *testing.T) {
	fr, _, work := releaseFixture(t)
	home := os.Getenv("PWVKPNO_HOME")
	cfg := filepath.Join(home, "danger.yaml")
	writeFile(t, cfg, "release:\n  build:\n    - \"rm -rf /\"\n")
	if _, err := execute(t, "y", "release", "--config", cfg, "--workdir", work, "--dry-run"); err == nil {
		t.Fatalf("expected dangerous command to be refused")
	}
	if len(fr.cmds) != 0 {
		t.Fatalf("nothing should run: %v", fr.cmds)
	}
}
