package utils

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/kballard/go-shellquote"
)

// EditorCommand returns the argv used to edit files. $VISUAL wins over
// $EDITOR, and either may carry arguments (e.g. "code --wait"). Without
// either, notepad is used on Windows and vi elsewhere.
func EditorCommand() ([]string, error) {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		if runtime.GOOS == "windows" {
			return []string{"notepad"}, nil
		}
		return []string{"vi"}, nil
	}
	argv, err := shellquote.Split(editor)
	if err != nil {
		return nil, fmt.Errorf("parse editor %q: %w", editor, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("parse editor %q: empty command", editor)
	}
	return argv, nil
}

// OpenEditor opens the given file in the user's preferred editor.
func OpenEditor(path string) error {
	argv, err := EditorCommand()
	if err != nil {
		return err
	}
	cmd := exec.Command(argv[0], append(argv[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("open editor: %w", err)
	}
	return nil
}
