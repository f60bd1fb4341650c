package exporter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pwvkpno/pwvkpno/internal/db"
	"github.com/pwvkpno/pwvkpno/internal/importer"
	"github.com/pwvkpno/pwvkpno/internal/pwv"
)

func newStore(t *testing.T) (*pwv.Store, func() error) {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(filepath.Join(dir, "pwv.db"))
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	s := pwv.NewStore(filepath.Join(dir, "pwv_tables"), filepath.Join(dir, "atm_models"),
		pwv.NewYearCatalog(conn), nil, "KITT", []string{"KITT"})
	return s, func() error {
		return ExportDatabase(context.Background(), conn, filepath.Join(dir, "backup", "pwvkpno.db"))
	}
}

func TestExportDataRoundTrip(t *testing.T) {
	src, _ := newStore(t)
	m := &pwv.Measured{
		Receivers: []string{"KITT"},
		Rows: []pwv.MeasuredRow{
			{Date: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), PWV: map[string]float64{"KITT": 4}},
		},
	}
	if _, err := src.ImportMeasured(context.Background(), m); err != nil {
		t.Fatalf("ImportMeasured: %v", err)
	}
	if err := os.MkdirAll(src.AtmModelsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src.AtmModelsDir, "atm_model_pwv_1_mm.csv"), []byte("wavelength,transmission\n7000,0.9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	bundle := t.TempDir()
	files, err := ExportData(src, bundle)
	if err != nil {
		t.Fatalf("ExportData: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected measured, modeled and one model, got %v", files)
	}

	dst, _ := newStore(t)
	rep, err := importer.Import(context.Background(), dst, bundle, false)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(rep.Years) != 1 || rep.Years[0] != 2015 {
		t.Fatalf("unexpected imported years: %v", rep.Years)
	}
	got, err := dst.MeasuredPWV(pwv.Filter{})
	if err != nil {
		t.Fatalf("MeasuredPWV: %v", err)
	}
	if len(got.Rows) != 1 || got.Rows[0].PWV["KITT"] != 4 {
		t.Fatalf("unexpected rows after round trip: %+v", got.Rows)
	}
}

func TestExportDataEmpty(t *testing.T) {
	s, _ := newStore(t)
	if _, err := ExportData(s, t.TempDir()); !errors.Is(err, pwv.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestExportDatabaseSnapshot(t *testing.T) {
	s, export := newStore(t)
	if err := s.Years.Add(context.Background(), 2016, []string{"KITT"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	// run twice to exercise replacing an existing backup
	for i := 0; i < 2; i++ {
		if err := export(); err != nil {
			t.Fatalf("ExportDatabase: %v", err)
		}
	}
	backup := filepath.Join(filepath.Dir(s.TablesDir), "backup", "pwvkpno.db")
	conn, err := db.Open(backup)
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer func() { _ = conn.Close() }()
	years, err := pwv.NewYearCatalog(conn).Years(context.Background())
	if err != nil {
		t.Fatalf("Years: %v", err)
	}
	if len(years) != 1 || years[0] != 2016 {
		t.Fatalf("unexpected years in backup: %v", years)
	}
}
