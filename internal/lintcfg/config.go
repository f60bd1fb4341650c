// Package lintcfg reads the static-analysis configuration document: which
// checks run, their numeric thresholds, and which paths are rated or
// excluded. The document is consumed by an external analysis service; this
// package only parses, validates and answers questions about it.
package lintcfg

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the conventional document name at a repository root.
const DefaultFile = ".codeclimate.yml"

// ErrInvalid marks validation failures.
var ErrInvalid = errors.New("invalid analysis configuration")

//go:embed codeclimate.yml
var defaultDoc []byte

// KnownChecks are the maintainability checks the analysis service accepts.
var KnownChecks = []string{
	"argument-count",
	"complex-logic",
	"file-lines",
	"identical-code",
	"method-complexity",
	"method-count",
	"method-lines",
	"nested-control-flow",
	"return-statements",
	"similar-code",
}

// Config is the parsed document.
type Config struct {
	Version         string            `yaml:"version,omitempty"`
	Checks          map[string]Check  `yaml:"checks,omitempty"`
	Plugins         map[string]Plugin `yaml:"plugins,omitempty"`
	Ratings         Ratings           `yaml:"ratings,omitempty"`
	ExcludePatterns []string          `yaml:"exclude_patterns,omitempty"`
	// ExcludePaths is the older spelling of ExcludePatterns.
	ExcludePaths []string `yaml:"exclude_paths,omitempty"`

	rated    []*Pattern
	excluded []*Pattern
}

// Check is the per-check configuration. A check without an explicit
// enabled flag is enabled.
type Check struct {
	Enabled *bool       `yaml:"enabled,omitempty"`
	Config  CheckConfig `yaml:"config,omitempty"`
}

// Plugin is an additional analysis engine. Its config is engine specific
// and passed through untouched.
type Plugin struct {
	Enabled *bool          `yaml:"enabled,omitempty"`
	Channel string         `yaml:"channel,omitempty"`
	Config  map[string]any `yaml:"config,omitempty"`
}

// CheckConfig carries the numeric threshold, if any.
type CheckConfig struct {
	Threshold *int `yaml:"threshold,omitempty"`
}

// Ratings lists the globs of paths that are graded.
type Ratings struct {
	Paths []string `yaml:"paths,omitempty"`
}

// Default returns the project's own document.
func Default() *Config {
	c, err := Parse(defaultDoc)
	if err != nil {
		panic(fmt.Sprintf("embedded analysis configuration: %v", err))
	}
	return c
}

// Load reads and validates the document at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a document. Unknown top-level keys are rejected.
func Parse(b []byte) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks names, thresholds and patterns, and compiles the globs.
func (c *Config) Validate() error {
	var problems []string
	known := map[string]bool{}
	for _, k := range KnownChecks {
		known[k] = true
	}
	for _, name := range sortedKeys(c.Checks) {
		if !known[name] {
			problems = append(problems, fmt.Sprintf("unknown check %q", name))
		}
		if th := c.Checks[name].Config.Threshold; th != nil && *th < 1 {
			problems = append(problems, fmt.Sprintf("check %q: threshold must be positive, got %d", name, *th))
		}
	}

	rated, errs := compileAll("ratings.paths", c.Ratings.Paths)
	problems = append(problems, errs...)
	excluded, errs := compileAll("exclude_patterns", c.excludes())
	problems = append(problems, errs...)

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	c.rated, c.excluded = rated, excluded
	return nil
}

func compileAll(field string, globs []string) ([]*Pattern, []string) {
	var out []*Pattern
	var problems []string
	for i, g := range globs {
		p, err := Compile(g)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s[%d]: %v", field, i, err))
			continue
		}
		out = append(out, p)
	}
	return out, problems
}

func (c *Config) excludes() []string {
	return append(append([]string(nil), c.ExcludePatterns...), c.ExcludePaths...)
}

// Enabled reports whether the named check runs. Checks absent from the
// document run with the service's defaults.
func (c *Config) Enabled(name string) bool {
	ch, ok := c.Checks[name]
	if !ok || ch.Enabled == nil {
		return true
	}
	return *ch.Enabled
}

// Threshold returns the configured threshold for the named check.
func (c *Config) Threshold(name string) (int, bool) {
	ch, ok := c.Checks[name]
	if !ok || ch.Config.Threshold == nil {
		return 0, false
	}
	return *ch.Config.Threshold, true
}

// EnabledChecks lists the checks named in the document that are enabled.
func (c *Config) EnabledChecks() []string {
	var out []string
	for _, name := range sortedKeys(c.Checks) {
		if c.Enabled(name) {
			out = append(out, name)
		}
	}
	return out
}

// Rated reports whether path (slash-separated, relative to the repository
// root) is graded: it matches a ratings glob and no exclude glob. With no
// ratings globs every non-excluded path is rated.
func (c *Config) Rated(path string) bool {
	path = normalize(path)
	if c.Excluded(path) {
		return false
	}
	if len(c.rated) == 0 {
		return true
	}
	for _, p := range c.rated {
		if p.Match(path) {
			return true
		}
	}
	return false
}

// Excluded reports whether path matches an exclude glob.
func (c *Config) Excluded(path string) bool {
	path = normalize(path)
	for _, p := range c.excluded {
		if p.Match(path) {
			return true
		}
	}
	return false
}

// Marshal renders the document back to YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sortedKeys(m map[string]Check) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalize(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.TrimPrefix(path, "./")
}
