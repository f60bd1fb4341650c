package pwv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// FirstModelDate is the earliest date (2010-06-25 00:15 UTC) the
	// transmission model covers.
	FirstModelDate int64 = 1277424900
	// MaxGap is the widest gap in modeled PWV, in seconds, that may be
	// interpolated across.
	MaxGap int64 = 3 * 24 * 60 * 60
)

// ErrGridMismatch means two atmospheric models sample different wavelengths.
var ErrGridMismatch = errors.New("atmospheric models use different wavelength grids")

// TransmissionPoint is one sample of the transmission function.
type TransmissionPoint struct {
	Wavelength   float64 `json:"wavelength"`
	Transmission float64 `json:"transmission"`
}

// AtmModel is the transmission spectrum for one PWV level.
type AtmModel struct {
	PWV    float64
	Points []TransmissionPoint
}

// ReadAtmModel parses a wavelength,transmission CSV stream.
func ReadAtmModel(r io.Reader) ([]TransmissionPoint, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	h := records[0]
	if len(h) < 2 || h[0] != "wavelength" || h[1] != "transmission" {
		return nil, fmt.Errorf("header must start with 'wavelength,transmission'")
	}
	out := make([]TransmissionPoint, 0, len(records)-1)
	for i, rec := range records[1:] {
		w, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		tr, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		out = append(out, TransmissionPoint{Wavelength: w, Transmission: tr})
	}
	return out, nil
}

// PWVLevel extracts the PWV level from a model file name such as
// atm_model_pwv_10_mm.csv (the fourth underscore separated field).
func PWVLevel(path string) (float64, error) {
	parts := strings.Split(filepath.Base(path), "_")
	if len(parts) < 4 {
		return 0, fmt.Errorf("model file %s: no pwv level in name", filepath.Base(path))
	}
	v, err := strconv.ParseFloat(parts[3], 64)
	if err != nil {
		return 0, fmt.Errorf("model file %s: %w", filepath.Base(path), err)
	}
	return v, nil
}

// LoadAtmModels reads every *.csv model in dir, sorted by PWV level.
func LoadAtmModels(dir string) ([]AtmModel, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no atmospheric models in %s", ErrNoData, dir)
	}
	models := make([]AtmModel, 0, len(paths))
	for _, p := range paths {
		level, err := PWVLevel(p)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(p)
		if err != nil {
			return nil, err
		}
		pts, err := ReadAtmModel(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("model file %s: %w", filepath.Base(p), err)
		}
		models = append(models, AtmModel{PWV: level, Points: pts})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].PWV < models[j].PWV })
	if err := CheckGrids(models); err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	return models, nil
}

// CheckGrids verifies every model samples the same wavelengths, in the same
// order, as the first one.
func CheckGrids(models []AtmModel) error {
	if len(models) < 2 {
		return nil
	}
	ref := models[0]
	for _, m := range models[1:] {
		if len(m.Points) != len(ref.Points) {
			return fmt.Errorf("%w: %v mm has %d points, %v mm has %d",
				ErrGridMismatch, ref.PWV, len(ref.Points), m.PWV, len(m.Points))
		}
		for i, pt := range m.Points {
			if pt.Wavelength != ref.Points[i].Wavelength {
				return fmt.Errorf("%w: point %d is %v in %v mm but %v in %v mm",
					ErrGridMismatch, i+1, ref.Points[i].Wavelength, ref.PWV, pt.Wavelength, m.PWV)
			}
		}
	}
	return nil
}

// ZenithPWV interpolates the modeled PWV at date. It rejects dates before
// FirstModelDate, after the last modeled sample, and inside gaps longer
// than MaxGap.
func ZenithPWV(m *Modeled, date time.Time) (float64, error) {
	ts := date.Unix()
	if ts < FirstModelDate {
		return 0, fmt.Errorf("%w: cannot model transmission prior to %s", ErrInvalidArgument,
			time.Unix(FirstModelDate, 0).UTC().Format(time.DateTime))
	}
	if len(m.Rows) == 0 {
		return 0, fmt.Errorf("%w: modeled PWV table is empty", ErrNoData)
	}
	last := m.Rows[len(m.Rows)-1].Date
	if last.Unix() < ts {
		return 0, fmt.Errorf("%w: no local SuomiNet data found for datetimes after %s",
			ErrInvalidArgument, last.UTC().Format(time.DateTime))
	}

	xs := make([]float64, len(m.Rows))
	ys := make([]float64, len(m.Rows))
	for i, r := range m.Rows {
		xs[i] = float64(r.Date.Unix())
		ys[i] = r.PWV
	}

	i := sort.Search(len(m.Rows), func(i int) bool { return m.Rows[i].Date.Unix() >= ts })
	if m.Rows[i].Date.Unix() != ts {
		if i == 0 {
			return 0, fmt.Errorf("%w: no SuomiNet data found before %s",
				ErrInvalidArgument, date.UTC().Format(time.DateTime))
		}
		gap := m.Rows[i].Date.Unix() - m.Rows[i-1].Date.Unix()
		if gap > MaxGap {
			return 0, fmt.Errorf("%w: date falls within interval of missing SuomiNet data larger than 3 days (%s interval found)",
				ErrInvalidArgument, time.Duration(gap)*time.Second)
		}
	}
	return interp(float64(ts), xs, ys), nil
}

// TransmissionAt interpolates the transmission function for a line of
// sight PWV across models, which must be sorted by level and share one
// wavelength grid.
func TransmissionAt(models []AtmModel, pwv float64) ([]TransmissionPoint, error) {
	if len(models) == 0 {
		return nil, nil
	}
	if err := CheckGrids(models); err != nil {
		return nil, err
	}
	grid := models[0].Points
	levels := make([]float64, len(models))
	for i, m := range models {
		levels[i] = m.PWV
	}
	out := make([]TransmissionPoint, len(grid))
	trans := make([]float64, len(models))
	for i, pt := range grid {
		for k, m := range models {
			trans[k] = m.Points[i].Transmission
		}
		out[i] = TransmissionPoint{Wavelength: pt.Wavelength, Transmission: interp(pwv, levels, trans)}
	}
	return out, nil
}

// ValidateAirmass rejects airmass values that cannot scale a PWV column.
func ValidateAirmass(airmass float64) error {
	if math.IsNaN(airmass) || math.IsInf(airmass, 0) || airmass <= 0 {
		return fmt.Errorf("%w: airmass must be a positive number, got %v", ErrInvalidArgument, airmass)
	}
	return nil
}

// WriteTransmission renders pts as a wavelength,transmission CSV.
func WriteTransmission(w io.Writer, pts []TransmissionPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"wavelength", "transmission"}); err != nil {
		return err
	}
	for _, p := range pts {
		if err := cw.Write([]string{formatFloat(p.Wavelength), formatFloat(p.Transmission)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
