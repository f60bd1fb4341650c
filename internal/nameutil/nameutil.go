// Package nameutil cleans identifiers typed or pasted by users: SuomiNet
// receiver IDs and the operator name recorded with releases.
package nameutil

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sanitize removes control characters and the zero-width characters that
// copy/paste tends to introduce (e.g. U+200B), then trims surrounding
// whitespace. The boolean reports whether anything changed.
func Sanitize(s string) (string, bool) {
	out := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		switch r {
		case '\u200B', '\u200C', '\u200D', '\uFEFF':
			return -1
		}
		return r
	}, s)
	out = strings.TrimSpace(out)
	return out, out != s
}

// ValidateName checks a free-form display name: non-empty, valid UTF-8 and
// free of control characters. It does not mutate the input.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("invalid name: name cannot be empty")
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("invalid name: contains invalid encoding")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("invalid name: contains control character U+%04X (%q)", r, r)
		}
	}
	return nil
}

// Receiver normalizes a SuomiNet receiver ID: sanitized, upper-cased and
// exactly four ASCII letters or digits (e.g. "kitt" becomes "KITT").
func Receiver(id string) (string, error) {
	clean, _ := Sanitize(id)
	clean = strings.ToUpper(clean)
	if len(clean) != 4 {
		return "", fmt.Errorf("invalid receiver %q: want a four character SuomiNet ID", id)
	}
	for _, r := range clean {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("invalid receiver %q: only letters and digits are allowed", id)
		}
	}
	return clean, nil
}
