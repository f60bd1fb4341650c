// Package importer installs PWV data shipped with a pwv_kpno source tree or
// written by the exporter: atmospheric transmission models and the measured
// SuomiNet table.
package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/renameio/v2"

	"github.com/pwvkpno/pwvkpno/internal/pwv"
)

// ErrNothingToImport means src holds neither models nor a measured table.
var ErrNothingToImport = errors.New("no atm_models or pwv_tables found")

// Report lists what an import installed.
type Report struct {
	Root   string
	Models []string
	Years  []int
}

// findRoot returns src or src/pwv_kpno, whichever holds the data dirs.
func findRoot(src string) (string, error) {
	for _, root := range []string{src, filepath.Join(src, "pwv_kpno")} {
		for _, sub := range []string{"atm_models", "pwv_tables"} {
			if fi, err := os.Stat(filepath.Join(root, sub)); err == nil && fi.IsDir() {
				return root, nil
			}
		}
	}
	return "", fmt.Errorf("%s: %w", src, ErrNothingToImport)
}

// Import copies the atmospheric models under src into the store and merges
// src's measured table into the local one. Existing models with the same
// name are only replaced when overwrite is set. Everything in src is parsed
// and checked before anything is written.
func Import(ctx context.Context, store *pwv.Store, src string, overwrite bool) (*Report, error) {
	root, err := findRoot(src)
	if err != nil {
		return nil, err
	}
	rep := &Report{Root: root}

	measured, err := readMeasured(filepath.Join(root, "pwv_tables", pwv.MeasuredFile))
	if err != nil {
		return nil, err
	}
	models, err := stageModels(filepath.Join(root, "atm_models"), store.AtmModelsDir, overwrite)
	if err != nil {
		return nil, err
	}

	if rep.Models, err = models.install(); err != nil {
		return nil, err
	}
	if measured == nil {
		return rep, nil
	}
	if rep.Years, err = store.ImportMeasured(ctx, measured); err != nil {
		return nil, err
	}
	return rep, nil
}

// readMeasured parses the measured table at path. A missing table is not
// an error and yields nil.
func readMeasured(path string) (*pwv.Measured, error) {
	f, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, err
	}
	defer func() { _ = f.Close() }()
	m, err := pwv.ReadMeasured(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// staged holds validated model files ready to be written to dir.
type staged struct {
	dir      string
	names    []string
	payloads [][]byte
}

// stageModels validates every *.csv model in srcDir against the others and
// against the installed models it would sit next to.
func stageModels(srcDir, dstDir string, overwrite bool) (*staged, error) {
	st := &staged{dir: dstDir}
	paths, err := filepath.Glob(filepath.Join(srcDir, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return st, nil
	}
	sort.Strings(paths)

	incoming := map[string]bool{}
	var models []pwv.AtmModel
	for _, p := range paths {
		name := filepath.Base(p)
		level, err := pwv.PWVLevel(p)
		if err != nil {
			return nil, err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		pts, err := pwv.ReadAtmModel(bytes.NewReader(b))
		if err != nil {
			return nil, fmt.Errorf("model file %s: %w", name, err)
		}
		if _, err := os.Stat(filepath.Join(dstDir, name)); err == nil && !overwrite {
			return nil, fmt.Errorf("model %s already installed; use --overwrite to replace", name)
		}
		incoming[name] = true
		models = append(models, pwv.AtmModel{PWV: level, Points: pts})
		st.names = append(st.names, name)
		st.payloads = append(st.payloads, b)
	}

	kept, err := installedModels(dstDir, incoming)
	if err != nil {
		return nil, err
	}
	if err := pwv.CheckGrids(append(models, kept...)); err != nil {
		return nil, fmt.Errorf("%s: %w", srcDir, err)
	}
	return st, nil
}

// installedModels loads the models in dir that an import would not replace.
func installedModels(dir string, skip map[string]bool) ([]pwv.AtmModel, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	var out []pwv.AtmModel
	for _, p := range paths {
		if skip[filepath.Base(p)] {
			continue
		}
		level, err := pwv.PWVLevel(p)
		if err != nil {
			return nil, err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		pts, err := pwv.ReadAtmModel(bytes.NewReader(b))
		if err != nil {
			return nil, fmt.Errorf("installed model %s: %w", filepath.Base(p), err)
		}
		out = append(out, pwv.AtmModel{PWV: level, Points: pts})
	}
	return out, nil
}

func (st *staged) install() ([]string, error) {
	if len(st.names) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(st.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create models dir: %w", err)
	}
	for i, name := range st.names {
		if err := renameio.WriteFile(filepath.Join(st.dir, name), st.payloads[i], 0o644); err != nil {
			return nil, fmt.Errorf("install model %s: %w", name, err)
		}
	}
	return st.names, nil
}
