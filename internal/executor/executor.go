// Package executor runs the shell commands that make up a release.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Runner is an interface for executing commands. It allows tests to inject
// fake implementations without running real shell commands.
type Runner interface {
	Execute(ctx context.Context, command string, cwd string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error
}

// Executor runs shell commands in an OS-aware way.
type Executor struct {
	DryRun  bool
	Verbose bool
	Shell   string // optional override (e.g., "pwsh")
	Env     []string
}

// New returns a Runner backed by the real Executor implementation.
func New(dry, verbose bool) Runner {
	return &Executor{DryRun: dry, Verbose: verbose}
}

// sanitizeCommand normalizes common unicode characters that often get
// inserted by editors (e.g., smart quotes, NBSP, zero-width spaces) and
// converts them to their ASCII equivalents where sensible.
func sanitizeCommand(s string) string {
	r := strings.NewReplacer(
		"\u2018", "'", // left single quote
		"\u2019", "'", // right single quote
		"\u201C", "\"", // left double quote
		"\u201D", "\"", // right double quote
		"\u00A0", " ", // NO-BREAK SPACE
		"\u200B", "", // zero width space
		"\u200E", "", // left-to-right mark
		"\u200F", "", // right-to-left mark
	)
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, r.Replace(s))
}

// Execute runs the provided command string using an OS-appropriate shell
// invocation (`bash -c` on Unix, `cmd /C` on Windows). Output is streamed to
// stdout/stderr as it is produced; the tail of stderr is kept for the error.
func (e *Executor) Execute(ctx context.Context, command string, cwd string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error {
	command, err := validateAndSanitize(command)
	if err != nil {
		return err
	}

	if e.DryRun {
		if e.Verbose && stdout != nil {
			_, _ = fmt.Fprintf(stdout, "dry-run: %s\n", command)
		}
		return nil
	}

	shell, args := shellInvocation(command, e.Shell)
	if err := validateShellAndArgs(shell, args); err != nil {
		return err
	}

	if e.Verbose && stderr != nil {
		_, _ = fmt.Fprintf(stderr, "+ %s\n", Quote(append([]string{shell}, args...)...))
	}

	cmd := exec.CommandContext(ctx, shell, args...)
	if cwd != "" {
		cmd.Dir = cwd
	}
	if len(e.Env) > 0 {
		cmd.Env = e.Env
	}
	cmd.Stdin = stdin
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	tail := &tailBuffer{max: 2048}
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(stderr, tail)

	if err := cmd.Run(); err != nil {
		return checkExecutionError(err, tail.String(), shell, args)
	}
	return nil
}

// Program returns the executable a command line would start, e.g. "python"
// for "python setup.py sdist". Environment assignments are skipped.
func Program(command string) (string, error) {
	toks, err := shellquote.Split(sanitizeCommand(command))
	if err != nil {
		return "", fmt.Errorf("parse command %q: %w", command, err)
	}
	for _, t := range toks {
		if strings.Contains(t, "=") && !strings.HasPrefix(t, "=") && !strings.ContainsAny(t, "/\\") {
			continue
		}
		return t, nil
	}
	return "", fmt.Errorf("parse command %q: no program", command)
}

// Preflight verifies the program behind each command is on PATH.
func Preflight(commands ...string) error {
	for _, c := range commands {
		if strings.TrimSpace(c) == "" {
			continue
		}
		prog, err := Program(c)
		if err != nil {
			return err
		}
		if _, err := exec.LookPath(prog); err != nil {
			return fmt.Errorf("%s not found in PATH (needed by %q)", prog, c)
		}
	}
	return nil
}

// Quote renders argv as a single shell-safe command line.
func Quote(argv ...string) string {
	return shellquote.Join(argv...)
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf.Write(p)
	if over := t.buf.Len() - t.max; over > 0 {
		t.buf.Next(over)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return t.buf.String() }

func checkExecutionError(err error, stderrTail string, shell string, args []string) error {
	errStr := strings.TrimSpace(CleanOutput(stderrTail))
	if errStr != "" {
		return fmt.Errorf("command failed: %w (shell=%s args=%q stderr=%q)", err, shell, args, errStr)
	}
	return fmt.Errorf("command failed: %w (shell=%s args=%q)", err, shell, args)
}

func shellInvocation(command string, overrideShell string) (string, []string) {
	if overrideShell != "" {
		switch overrideShell {
		case "pwsh":
			return "pwsh", []string{"-Command", command}
		case "powershell":
			if runtime.GOOS == "windows" {
				if p, err := exec.LookPath("powershell"); err == nil {
					return p, []string{"-Command", command}
				}
				return "powershell", []string{"-Command", command}
			}
			return "pwsh", []string{"-Command", command}
		default:
			return overrideShell, []string{"-c", command}
		}
	}

	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", command}
	}
	return "bash", []string{"-c", command}
}

func validateShellAndArgs(shell string, args []string) error {
	if _, err := exec.LookPath(shell); err != nil {
		return fmt.Errorf("shell not found in PATH: %s", shell)
	}
	for i, a := range args {
		if strings.IndexFunc(a, isControl) != -1 {
			return fmt.Errorf("invalid shell arg[%d]: contains control characters", i)
		}
	}
	return nil
}

func isControl(r rune) bool {
	return r == 0 || (r < 32 && r != '\t') || r == 0x7f
}

func validateAndSanitize(command string) (string, error) {
	command = sanitizeCommand(command)
	if err := ValidateCommand(command); err != nil {
		return "", err
	}
	return command, nil
}

// ValidateCommand checks for remaining problematic characters that will
// cause command execution to fail (e.g., newlines and control characters)
// and returns an error describing the problem if one is found.
func ValidateCommand(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("invalid command: empty")
	}
	if strings.Contains(s, "\n") {
		return fmt.Errorf("invalid command: contains newline characters; each command must be a single line")
	}
	if strings.IndexFunc(s, isControl) != -1 {
		return fmt.Errorf("invalid command: contains control characters; remove non-printable characters")
	}
	return nil
}
