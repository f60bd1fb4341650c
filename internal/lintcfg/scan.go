package lintcfg

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Finding is a rated file over a configured threshold.
type Finding struct {
	Path      string
	Check     string
	Value     int
	Threshold int
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s %d exceeds threshold %d", f.Path, f.Check, f.Value, f.Threshold)
}

// RatedFiles walks root and returns the rated regular files as
// slash-separated paths relative to root. Excluded directories and VCS
// metadata are not descended into.
func RatedFiles(root string, c *Config) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == ".hg" || c.Excluded(rel+"/") || c.Excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && c.Rated(rel) {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Scan reports rated files whose line count exceeds the file-lines
// threshold. Other checks need a language parser and are left to the
// analysis service.
func Scan(root string, c *Config) ([]Finding, error) {
	limit, ok := c.Threshold("file-lines")
	if !ok || !c.Enabled("file-lines") {
		return nil, nil
	}
	files, err := RatedFiles(root, c)
	if err != nil {
		return nil, err
	}
	var out []Finding
	for _, rel := range files {
		n, err := countLines(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		if n > limit {
			out = append(out, Finding{Path: rel, Check: "file-lines", Value: n, Threshold: limit})
		}
	}
	return out, nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	r := bufio.NewReader(f)
	buf := make([]byte, 32*1024)
	n := 0
	var last byte
	for {
		k, err := r.Read(buf)
		if k > 0 {
			n += bytes.Count(buf[:k], []byte{'\n'})
			last = buf[k-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", path, err)
		}
	}
	if last != 0 && last != '\n' {
		n++
	}
	return n, nil
}
