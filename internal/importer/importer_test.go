package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pwvkpno/pwvkpno/internal/db"
	"github.com/pwvkpno/pwvkpno/internal/pwv"
)

func write(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newStore(t *testing.T) *pwv.Store {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(filepath.Join(dir, "pwv.db"))
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return pwv.NewStore(filepath.Join(dir, "pwv_tables"), filepath.Join(dir, "atm_models"),
		pwv.NewYearCatalog(conn), nil, "KITT", []string{"KITT"})
}

// sourceTree lays out data the way a pwv_kpno checkout ships it.
func sourceTree(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	pkg := filepath.Join(src, "pwv_kpno")
	write(t, filepath.Join(pkg, "atm_models", "atm_model_pwv_0_mm.csv"), "wavelength,transmission\n7000,1\n")
	write(t, filepath.Join(pkg, "atm_models", "atm_model_pwv_10_mm.csv"), "wavelength,transmission\n7000,0.5\n")
	write(t, filepath.Join(pkg, "pwv_tables", "measured_pwv.csv"),
		"date,KITT,P014\n1293840000,3,1\n1293843600,5,2\n1325379600,,3\n")
	return src
}

func TestImportSourceTree(t *testing.T) {
	store := newStore(t)
	rep, err := Import(context.Background(), store, sourceTree(t), false)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(rep.Models) != 2 {
		t.Fatalf("expected 2 models, got %v", rep.Models)
	}
	if len(rep.Years) != 2 || rep.Years[0] != 2011 || rep.Years[1] != 2012 {
		t.Fatalf("unexpected years: %v", rep.Years)
	}
	years, err := store.AvailableData(context.Background())
	if err != nil {
		t.Fatalf("AvailableData: %v", err)
	}
	if len(years) != 2 {
		t.Fatalf("unexpected available years: %v", years)
	}
	if _, err := os.Stat(filepath.Join(store.AtmModelsDir, "atm_model_pwv_10_mm.csv")); err != nil {
		t.Fatalf("model not installed: %v", err)
	}
}

func TestImportRefusesToReplaceModels(t *testing.T) {
	store := newStore(t)
	src := sourceTree(t)
	if _, err := Import(context.Background(), store, src, false); err != nil {
		t.Fatalf("first import: %v", err)
	}
	if _, err := Import(context.Background(), store, src, false); err == nil {
		t.Fatalf("expected second import without overwrite to fail")
	}
	if _, err := Import(context.Background(), store, src, true); err != nil {
		t.Fatalf("import with overwrite: %v", err)
	}
}

func TestImportRejectsBadModel(t *testing.T) {
	store := newStore(t)
	src := t.TempDir()
	write(t, filepath.Join(src, "atm_models", "atm_model_pwv_0_mm.csv"), "wavelength,transmission\n7000,1\n")
	write(t, filepath.Join(src, "atm_models", "atm_model_pwv_x_mm.csv"), "wavelength,transmission\n7000,1\n")
	if _, err := Import(context.Background(), store, src, false); err == nil {
		t.Fatalf("expected unparsable pwv level to be rejected")
	}
	// nothing is installed when any model is bad
	if _, err := os.Stat(filepath.Join(store.AtmModelsDir, "atm_model_pwv_0_mm.csv")); !os.IsNotExist(err) {
		t.Fatalf("expected no models installed, stat err=%v", err)
	}
}

func TestImportEmptyDir(t *testing.T) {
	_, err := Import(context.Background(), newStore(t), t.TempDir(), false)
	if !errors.Is(err, ErrNothingToImport) {
		t.Fatalf("expected ErrNothingToImport, got %v", err)
	}
}

func TestImportBadTableInstallsNothing(t *testing.T) {
	store := newStore(t)
	src := t.TempDir()
	model := filepath.Join(src, "atm_models", "atm_model_pwv_0_mm.csv")
	table := filepath.Join(src, "pwv_tables", "measured_pwv.csv")
	write(t, model, "wavelength,transmission\n7000,1\n")
	write(t, table, "date,KITT\nnotanumber,1\n")

	if _, err := Import(context.Background(), store, src, false); err == nil {
		t.Fatalf("expected bad measured table to be rejected")
	}
	if _, err := os.Stat(filepath.Join(store.AtmModelsDir, "atm_model_pwv_0_mm.csv")); !os.IsNotExist(err) {
		t.Fatalf("expected no models installed, stat err=%v", err)
	}

	// once the table is fixed the same import goes through without --overwrite
	write(t, table, "date,KITT\n1293840000,1\n")
	rep, err := Import(context.Background(), store, src, false)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(rep.Models) != 1 || len(rep.Years) != 1 || rep.Years[0] != 2011 {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestImportRejectsMismatchedGrids(t *testing.T) {
	store := newStore(t)
	src := t.TempDir()
	write(t, filepath.Join(src, "atm_models", "atm_model_pwv_0_mm.csv"), "wavelength,transmission\n7000,1\n7001,1\n")
	write(t, filepath.Join(src, "atm_models", "atm_model_pwv_10_mm.csv"), "wavelength,transmission\n7000,0.5\n")
	_, err := Import(context.Background(), store, src, false)
	if !errors.Is(err, pwv.ErrGridMismatch) {
		t.Fatalf("expected ErrGridMismatch, got %v", err)
	}
	if _, err := os.Stat(store.AtmModelsDir); !os.IsNotExist(err) {
		t.Fatalf("expected no models dir, stat err=%v", err)
	}
}

func TestImportRejectsGridDifferentFromInstalled(t *testing.T) {
	store := newStore(t)
	if _, err := Import(context.Background(), store, sourceTree(t), false); err != nil {
		t.Fatalf("first import: %v", err)
	}
	src := t.TempDir()
	write(t, filepath.Join(src, "atm_models", "atm_model_pwv_20_mm.csv"), "wavelength,transmission\n7100,0.2\n")
	_, err := Import(context.Background(), store, src, false)
	if !errors.Is(err, pwv.ErrGridMismatch) {
		t.Fatalf("expected ErrGridMismatch, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.AtmModelsDir, "atm_model_pwv_20_mm.csv")); !os.IsNotExist(err) {
		t.Fatalf("mismatched model was installed, stat err=%v", err)
	}
}
