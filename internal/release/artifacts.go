package release

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/renameio/v2"
)

// ChecksumFile is the manifest written next to the artifacts.
const ChecksumFile = "SHA256SUMS"

// Artifact is one file in the distribution directory.
type Artifact struct {
	Name      string
	Path      string
	Size      int64
	SHA256    string
	Signature string
}

// CollectArtifacts lists the regular files in dir, sorted by name, with
// their sizes and SHA-256 digests. Checksum manifests and signatures from a
// previous run are not artifacts. A missing dir yields no artifacts.
func CollectArtifacts(dir string) ([]Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dist dir: %w", err)
	}
	var out []Artifact
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if name == ChecksumFile || strings.HasSuffix(name, ".asc") {
			continue
		}
		path := filepath.Join(dir, name)
		sum, size, err := fileSHA256(path)
		if err != nil {
			return nil, err
		}
		out = append(out, Artifact{Name: name, Path: path, Size: size, SHA256: sum})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func fileSHA256(path string) (string, int64, error) {
	//nolint:gosec // G304: path comes from listing the dist directory
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// WriteChecksums writes a sha256sum-compatible manifest for arts into dir
// and returns its path.
func WriteChecksums(dir string, arts []Artifact) (string, error) {
	var b strings.Builder
	for _, a := range arts {
		fmt.Fprintf(&b, "%s  %s\n", a.SHA256, a.Name)
	}
	path := filepath.Join(dir, ChecksumFile)
	if err := renameio.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write checksums: %w", err)
	}
	return path, nil
}

// VerifyChecksums re-hashes every file listed in the manifest in dir.
func VerifyChecksums(dir string) error {
	b, err := os.ReadFile(filepath.Join(dir, ChecksumFile))
	if err != nil {
		return fmt.Errorf("read checksums: %w", err)
	}
	for i, line := range strings.Split(strings.TrimSpace(string(b)), "\n") {
		want, name, ok := strings.Cut(line, "  ")
		if !ok {
			return fmt.Errorf("%s line %d: malformed entry", ChecksumFile, i+1)
		}
		got, _, err := fileSHA256(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", name, want, got)
		}
	}
	return nil
}
