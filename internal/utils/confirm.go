// Package utils provides small terminal helpers shared by commands.
package utils

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/term"
)

// Hooks for tests.
var (
	isTerminal = term.IsTerminal
	makeRaw    = term.MakeRaw
	restore    = term.Restore
)

// ConfirmKey writes msg to out and reads exactly one character from in.
// Only 'y' or 'Y' confirm; any other character, or EOF, declines. When in is
// a terminal it is put in raw mode so the answer does not need Enter.
func ConfirmKey(msg string, in io.Reader, out io.Writer) (bool, error) {
	if out == nil {
		out = io.Discard
	}
	_, _ = fmt.Fprintf(out, "%s [y/N] ", msg)

	key, err := readKey(in)
	_, _ = fmt.Fprintln(out)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	return key == 'y' || key == 'Y', nil
}

func readKey(in io.Reader) (byte, error) {
	if in == nil {
		return 0, io.EOF
	}
	var b [1]byte
	if f, ok := in.(interface{ Fd() uintptr }); ok && isTerminal(int(f.Fd())) {
		state, err := makeRaw(int(f.Fd()))
		if err == nil {
			defer func() { _ = restore(int(f.Fd()), state) }()
		}
	}
	if _, err := io.ReadFull(in, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}
