package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"github.com/pwvkpno/pwvkpno/internal/nameutil"
)

// Settings is the user-editable configuration. Every field has a default,
// so an absent settings file is not an error.
type Settings struct {
	LogLevel string           `yaml:"log_level"`
	SuomiNet SuomiNetSettings `yaml:"suominet"`
	Release  ReleaseSettings  `yaml:"release"`
}

// SuomiNetSettings controls downloads from the SuomiNet project.
type SuomiNetSettings struct {
	BaseURL           string   `yaml:"base_url"`
	Primary           string   `yaml:"primary"`
	Receivers         []string `yaml:"receivers"`
	Concurrency       int      `yaml:"concurrency"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	TimeoutSeconds    int      `yaml:"timeout_seconds"`
}

// ReleaseSettings describes how a distribution is built, uploaded and
// cleaned up.
type ReleaseSettings struct {
	Build     []string `yaml:"build"`
	Upload    string   `yaml:"upload"`
	Cleanup   []string `yaml:"cleanup"`
	DistDir   string   `yaml:"dist_dir"`
	Checksums bool     `yaml:"checksums"`
	SignKey   string   `yaml:"sign_key"`
}

// DefaultSettings mirrors the behavior of the project's original release
// script and data pipeline.
func DefaultSettings() Settings {
	return Settings{
		LogLevel: "info",
		SuomiNet: SuomiNetSettings{
			BaseURL:           "https://www.suominet.ucar.edu/data/staYrHr",
			Primary:           "KITT",
			Receivers:         []string{"KITT", "P014", "SA46", "SA48", "AZAM"},
			Concurrency:       4,
			RequestsPerSecond: 2,
			TimeoutSeconds:    60,
		},
		Release: ReleaseSettings{
			Build: []string{
				"python setup.py sdist",
				"python setup.py bdist_wheel",
			},
			Upload:    "twine upload dist/*",
			Cleanup:   []string{"build", "dist", "pwv_kpno.egg-info", "MANIFEST"},
			DistDir:   "dist",
			Checksums: false,
		},
	}
}

// LoadSettings reads path over the defaults. A missing file yields the
// defaults; unknown keys are rejected.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read settings: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if err := s.normalize(); err != nil {
		return s, fmt.Errorf("settings %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("settings %s: %w", path, err)
	}
	return s, nil
}

// normalize upper-cases receiver IDs and drops pasted invisible characters.
func (s *Settings) normalize() error {
	p, err := nameutil.Receiver(s.SuomiNet.Primary)
	if err != nil {
		return fmt.Errorf("suominet.primary: %w", err)
	}
	s.SuomiNet.Primary = p
	for i, r := range s.SuomiNet.Receivers {
		n, err := nameutil.Receiver(r)
		if err != nil {
			return fmt.Errorf("suominet.receivers[%d]: %w", i, err)
		}
		s.SuomiNet.Receivers[i] = n
	}
	return nil
}

// Load reads the settings file from its default location.
func Load() (Settings, error) {
	p, err := SettingsPath()
	if err != nil {
		return DefaultSettings(), err
	}
	return LoadSettings(p)
}

// Validate checks values that would otherwise fail deep inside a command.
func (s Settings) Validate() error {
	if s.SuomiNet.BaseURL == "" {
		return errors.New("suominet.base_url must not be empty")
	}
	if s.SuomiNet.Primary == "" {
		return errors.New("suominet.primary must not be empty")
	}
	found := false
	for _, r := range s.SuomiNet.Receivers {
		if r == s.SuomiNet.Primary {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("suominet.receivers must include primary receiver %q", s.SuomiNet.Primary)
	}
	if s.SuomiNet.Concurrency < 1 {
		return errors.New("suominet.concurrency must be at least 1")
	}
	if s.SuomiNet.RequestsPerSecond < 0 {
		return errors.New("suominet.requests_per_second must not be negative")
	}
	if len(s.Release.Build) == 0 {
		return errors.New("release.build must list at least one command")
	}
	if s.Release.DistDir == "" {
		return errors.New("release.dist_dir must not be empty")
	}
	return nil
}

// SaveSettings writes s to path atomically, creating parent directories.
func SaveSettings(path string, s Settings) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := renameio.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
