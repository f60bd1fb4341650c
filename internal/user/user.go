// Package user stores the release operator's identity, recorded with every
// release run.
package user

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	osuser "os/user"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/pwvkpno/pwvkpno/internal/config"
	"github.com/pwvkpno/pwvkpno/internal/nameutil"
)

// Profile identifies the person publishing releases.
type Profile struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// String renders the profile as "Name <email>", omitting missing parts.
func (p Profile) String() string {
	switch {
	case p.Name != "" && p.Email != "":
		return fmt.Sprintf("%s <%s>", p.Name, p.Email)
	case p.Email != "":
		return "<" + p.Email + ">"
	default:
		return p.Name
	}
}

// Validate rejects empty profiles and malformed email addresses.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" && strings.TrimSpace(p.Email) == "" {
		return errors.New("profile needs a name or an email")
	}
	if p.Name != "" {
		if err := nameutil.ValidateName(p.Name); err != nil {
			return err
		}
	}
	if p.Email != "" && (!strings.Contains(p.Email, "@") || strings.ContainsAny(p.Email, " <>")) {
		return fmt.Errorf("invalid email %q", p.Email)
	}
	return nil
}

func profilePath() (string, error) {
	d, err := config.EnsureDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "whoami.json"), nil
}

// SetProfile saves the operator profile to disk.
func SetProfile(p Profile) error {
	p.Name, _ = nameutil.Sanitize(p.Name)
	p.Email, _ = nameutil.Sanitize(p.Email)
	if err := p.Validate(); err != nil {
		return err
	}
	pfile, err := profilePath()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return renameio.WriteFile(pfile, append(b, '\n'), 0o644)
}

// GetProfile reads the operator profile. Returns (Profile, true, nil) if found.
func GetProfile() (Profile, bool, error) {
	pfile, err := profilePath()
	if err != nil {
		return Profile{}, false, err
	}
	b, err := os.ReadFile(pfile)
	if err != nil {
		if os.IsNotExist(err) {
			return Profile{}, false, nil
		}
		return Profile{}, false, err
	}
	var p Profile
	if err := json.Unmarshal(b, &p); err != nil {
		return Profile{}, false, fmt.Errorf("parse %s: %w", pfile, err)
	}
	return p, true, nil
}

// ClearProfile removes the persisted profile.
func ClearProfile() error {
	pfile, err := profilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(pfile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Operator returns the saved profile, falling back to the login name.
func Operator() string {
	if p, ok, err := GetProfile(); err == nil && ok {
		return p.String()
	}
	if u, err := osuser.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}
