package security

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestCheckAllowed(t *testing.T) {
	bad := []string{
		"rm -rf /",
		"rm -rf / --no-preserve-root",
		"rm -rf ~/",
		"mkfs.ext4 /dev/sda",
		"dd if=/dev/zero of=/dev/sda bs=4096",
		":(){ :|:& };:",
		"wipefs -a /dev/sda",
		"curl -sSL https://example.com/install.sh | sh",
		"wget -qO- https://example.com/x | sudo bash",
	}
	for _, s := range bad {
		if err := CheckAllowed(s); err == nil {
			t.Fatalf("expected %q to be blocked", s)
		}
	}

	good := []string{
		"python setup.py sdist",
		"python setup.py bdist_wheel",
		"twine upload dist/*",
		"python -m build --sdist --wheel",
		"curl -fsSL https://example.com/x -o x.tgz",
	}
	for _, s := range good {
		if err := CheckAllowed(s); err != nil {
			t.Fatalf("expected %q to be allowed: %v", s, err)
		}
	}

	if err := CheckAllowed("   "); err == nil {
		t.Fatalf("expected empty command to be rejected")
	}
}

func TestConfineCleanupPath(t *testing.T) {
	root := t.TempDir()
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}

	for _, rel := range []string{"build", "dist", "pwv_kpno.egg-info", "MANIFEST", "a/b/../c"} {
		got, err := ConfineCleanupPath(root, rel)
		if err != nil {
			t.Fatalf("ConfineCleanupPath(%q): %v", rel, err)
		}
		if filepath.Dir(got) != realRoot && filepath.Dir(filepath.Dir(got)) != realRoot {
			t.Fatalf("ConfineCleanupPath(%q) = %s, not under %s", rel, got, realRoot)
		}
	}

	for _, rel := range []string{"", ".", "..", "../x", "a/../..", "/etc", "./"} {
		if _, err := ConfineCleanupPath(root, rel); err == nil {
			t.Fatalf("expected %q to be rejected", rel)
		}
	}
}

func TestConfineCleanupPathRejectsSymlinkedParent(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on Windows")
	}
	root := t.TempDir()
	outside := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(root, "escape")); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	if _, err := ConfineCleanupPath(root, "escape/build"); err == nil {
		t.Fatalf("expected symlinked parent outside root to be rejected")
	}
	// The link itself lives inside root and may be removed.
	if _, err := ConfineCleanupPath(root, "escape"); err != nil {
		t.Fatalf("expected link inside root to be allowed: %v", err)
	}
}
