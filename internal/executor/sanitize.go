package executor

import (
	"regexp"
	"strings"
)

var (
	oscRe = regexp.MustCompile(`\x1b\][^\x07\x1b]*(\x07|\x1b\\)`)
	csiRe = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)
)

// CleanOutput turns captured terminal output into plain text fit for an
// error message. Escape sequences are dropped, CRLF becomes LF, and a line
// redrawn with bare carriage returns (upload progress bars) keeps only its
// final state.
func CleanOutput(in string) string {
	out := oscRe.ReplaceAllString(in, "")
	out = csiRe.ReplaceAllString(out, "")
	out = strings.ReplaceAll(out, "\r\n", "\n")

	lines := strings.Split(out, "\n")
	for i, l := range lines {
		if idx := strings.LastIndexByte(strings.TrimRight(l, "\r"), '\r'); idx >= 0 {
			l = l[idx+1:]
		}
		lines[i] = strings.Map(func(r rune) rune {
			if isControl(r) {
				return -1
			}
			return r
		}, l)
	}
	return strings.Join(lines, "\n")
}
