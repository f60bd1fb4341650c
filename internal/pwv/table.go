package pwv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/renameio/v2"
)

// ErrNoData is returned when a table or model has not been downloaded or
// installed yet.
var ErrNoData = errors.New("no local PWV data")

// MeasuredRow is one SuomiNet timestamp. Receivers without a measurement
// at that time are absent from PWV.
type MeasuredRow struct {
	Date time.Time          `json:"date"`
	PWV  map[string]float64 `json:"pwv"`
}

// Measured is the table of SuomiNet measurements in mm.
type Measured struct {
	Receivers []string      `json:"receivers"`
	Rows      []MeasuredRow `json:"rows"`
}

// ModeledRow is one modeled PWV value at Kitt Peak in mm.
type ModeledRow struct {
	Date time.Time `json:"date"`
	PWV  float64   `json:"pwv"`
}

// Modeled is the PWV model table, sorted by date.
type Modeled struct {
	Rows []ModeledRow `json:"rows"`
}

// ReadMeasured parses a measured_pwv.csv stream.
func ReadMeasured(r io.Reader) (*Measured, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read measured table: %w", err)
	}
	if len(records) == 0 {
		return &Measured{}, nil
	}
	header := records[0]
	if len(header) == 0 || header[0] != "date" {
		return nil, fmt.Errorf("read measured table: first column must be 'date'")
	}
	m := &Measured{Receivers: append([]string(nil), header[1:]...)}
	for i, rec := range records[1:] {
		date, err := parseUnix(rec[0])
		if err != nil {
			return nil, fmt.Errorf("measured table line %d: %w", i+2, err)
		}
		row := MeasuredRow{Date: date, PWV: map[string]float64{}}
		for j, cell := range rec[1:] {
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("measured table line %d column %s: %w", i+2, header[j+1], err)
			}
			row.PWV[header[j+1]] = v
		}
		m.Rows = append(m.Rows, row)
	}
	sort.SliceStable(m.Rows, func(i, j int) bool { return m.Rows[i].Date.Before(m.Rows[j].Date) })
	return m, nil
}

// WriteMeasured renders m as CSV.
func WriteMeasured(w io.Writer, m *Measured) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"date"}, m.Receivers...)); err != nil {
		return err
	}
	rec := make([]string, len(m.Receivers)+1)
	for _, row := range m.Rows {
		rec[0] = strconv.FormatInt(row.Date.Unix(), 10)
		for j, rx := range m.Receivers {
			if v, ok := row.PWV[rx]; ok {
				rec[j+1] = formatFloat(v)
			} else {
				rec[j+1] = ""
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadModeled parses a modeled_pwv.csv stream.
func ReadModeled(r io.Reader) (*Modeled, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read modeled table: %w", err)
	}
	if len(records) == 0 {
		return &Modeled{}, nil
	}
	if len(records[0]) != 2 || records[0][0] != "date" || records[0][1] != "pwv" {
		return nil, fmt.Errorf("read modeled table: header must be 'date,pwv'")
	}
	m := &Modeled{}
	for i, rec := range records[1:] {
		date, err := parseUnix(rec[0])
		if err != nil {
			return nil, fmt.Errorf("modeled table line %d: %w", i+2, err)
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("modeled table line %d: %w", i+2, err)
		}
		m.Rows = append(m.Rows, ModeledRow{Date: date, PWV: v})
	}
	sort.SliceStable(m.Rows, func(i, j int) bool { return m.Rows[i].Date.Before(m.Rows[j].Date) })
	return m, nil
}

// WriteModeled renders m as CSV.
func WriteModeled(w io.Writer, m *Modeled) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "pwv"}); err != nil {
		return err
	}
	for _, row := range m.Rows {
		if err := cw.Write([]string{strconv.FormatInt(row.Date.Unix(), 10), formatFloat(row.PWV)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseUnix(s string) (time.Time, error) {
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %w", s, err)
	}
	return time.Unix(int64(sec), 0).UTC(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// readTable opens path and decodes it with read. A missing file is ErrNoData.
func readTable[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return zero, fmt.Errorf("%w: %s not found", ErrNoData, path)
		}
		return zero, err
	}
	defer func() { _ = f.Close() }()
	return read(f)
}

// writeTable renders with write and atomically replaces path.
func writeTable(path string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
