// Package security guards the commands and paths a release touches.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var dangerousPatterns = []*regexp.Regexp{
	// Destructive filesystem ops
	regexp.MustCompile(`(?i)\brm\s+-rf\s+/?$`),
	regexp.MustCompile(`(?i)\brm\s+-rf\s+/`),
	regexp.MustCompile(`(?i)\brm\s+-rf\s+~`),
	regexp.MustCompile(`(?i)\bmkfs\b`),
	regexp.MustCompile(`(?i)\bdd\s+if=`),
	// fork bombs (e.g. :(){ :|:& };:)
	regexp.MustCompile(`:\(\)\s*\{`),
	// wipe disk
	regexp.MustCompile(`(?i)\bwipefs\b`),
	// piping remote scripts into a shell
	regexp.MustCompile(`(?i)\b(curl|wget)\b[^|]*\|\s*(sudo\s+)?(ba|z)?sh\b`),
}

// CheckAllowed returns nil if the command is allowed to run, or an error
// describing why it's blocked. Checking is conservative and not exhaustive.
func CheckAllowed(command string) error {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return errors.New("empty command")
	}
	for _, re := range dangerousPatterns {
		if re.MatchString(cmd) {
			return errors.New("command appears destructive or unsafe")
		}
	}
	return nil
}

// ConfineCleanupPath resolves rel against root and refuses anything that
// would escape root or delete root itself. Symlinked parents are resolved
// so a link cannot redirect the removal elsewhere.
func ConfineCleanupPath(root, rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", errors.New("cleanup path is empty")
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, "\\") {
		return "", fmt.Errorf("cleanup path must be relative: %s", rel)
	}
	clean := filepath.Clean(rel)
	if clean == "." {
		return "", fmt.Errorf("cleanup path resolves to the working directory: %s", rel)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("cleanup path escapes the working directory: %s", rel)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}

	full := filepath.Join(realRoot, clean)
	// Only the parent is resolved: removing a symlink itself is fine.
	parent, err := filepath.EvalSymlinks(filepath.Dir(full))
	if err != nil {
		if os.IsNotExist(err) {
			return full, nil
		}
		return "", fmt.Errorf("resolve %s: %w", rel, err)
	}
	resolved := filepath.Join(parent, filepath.Base(full))
	inside, err := filepath.Rel(realRoot, resolved)
	if err != nil || inside == "." || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("cleanup path escapes the working directory: %s", rel)
	}
	return resolved, nil
}
