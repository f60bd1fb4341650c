package pwv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// MeasuredFile holds the merged SuomiNet measurements.
	MeasuredFile = "measured_pwv.csv"
	// ModeledFile holds the PWV model for Kitt Peak.
	ModeledFile = "modeled_pwv.csv"
	// DefaultFirstUpdateYear is where an update without a year starts.
	// Earlier years ship with the package data.
	DefaultFirstUpdateYear = 2017
)

// Store provides PWV queries over the local tables and updates them from a
// Source.
type Store struct {
	TablesDir    string
	AtmModelsDir string
	Years        *YearCatalog
	Source       Source
	Primary      string
	Receivers    []string
	Concurrency  int
	Logger       zerolog.Logger

	now func() time.Time
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithClock overrides the clock used for range checks.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore returns a Store rooted at tablesDir and atmDir.
func NewStore(tablesDir, atmDir string, years *YearCatalog, src Source, primary string, receivers []string, opts ...StoreOption) *Store {
	s := &Store{
		TablesDir:    tablesDir,
		AtmModelsDir: atmDir,
		Years:        years,
		Source:       src,
		Primary:      primary,
		Receivers:    receivers,
		Concurrency:  4,
		Logger:       zerolog.Nop(),
		now:          time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// MeasuredPath is the location of the measured table.
func (s *Store) MeasuredPath() string { return filepath.Join(s.TablesDir, MeasuredFile) }

// ModeledPath is the location of the modeled table.
func (s *Store) ModeledPath() string { return filepath.Join(s.TablesDir, ModeledFile) }

// AvailableData returns the years with locally downloaded SuomiNet data,
// ascending. Years present in the measured table but missing from the
// catalogue are included.
func (s *Store) AvailableData(ctx context.Context) ([]int, error) {
	set := map[int]struct{}{}
	if s.Years != nil {
		ys, err := s.Years.Years(ctx)
		if err != nil {
			return nil, fmt.Errorf("list years: %w", err)
		}
		for _, y := range ys {
			set[y] = struct{}{}
		}
	}
	m, err := readTable(s.MeasuredPath(), ReadMeasured)
	switch {
	case err == nil:
		for _, r := range m.Rows {
			set[r.Date.Year()] = struct{}{}
		}
	case !errors.Is(err, ErrNoData):
		return nil, err
	}
	return sortedYears(set), nil
}

// UpdateModels downloads SuomiNet data for year, or for every year from
// DefaultFirstUpdateYear through the current one when year is nil, merges
// it into the measured table and rebuilds the PWV model. It returns the
// years for which any data was found.
func (s *Store) UpdateModels(ctx context.Context, year *int) ([]int, error) {
	now := s.now().UTC()
	var years []int
	if year != nil {
		if err := ValidateYear(*year, now); err != nil {
			return nil, err
		}
		years = []int{*year}
	} else {
		for y := DefaultFirstUpdateYear; y <= now.Year(); y++ {
			years = append(years, y)
		}
	}
	if s.Source == nil {
		return nil, errors.New("no SuomiNet source configured")
	}

	samples, err := s.download(ctx, years)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, samples)
}

// ImportMeasured merges an existing measured table, such as the one shipped
// with the package, and rebuilds the model. It returns the years imported.
func (s *Store) ImportMeasured(ctx context.Context, m *Measured) ([]int, error) {
	var samples []Sample
	for _, row := range m.Rows {
		for rx, v := range row.PWV {
			samples = append(samples, Sample{Receiver: rx, Date: row.Date, PWV: v})
		}
	}
	return s.apply(ctx, samples)
}

// apply merges samples into the measured table, rewrites both tables and
// records the years that received data.
func (s *Store) apply(ctx context.Context, samples []Sample) ([]int, error) {
	measured, err := readTable(s.MeasuredPath(), ReadMeasured)
	if err != nil {
		if !errors.Is(err, ErrNoData) {
			return nil, err
		}
		measured = &Measured{}
	}
	updated := merge(measured, samples, s.Receivers)

	if err := os.MkdirAll(s.TablesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tables dir: %w", err)
	}
	if err := writeTable(s.MeasuredPath(), func(w io.Writer) error { return WriteMeasured(w, measured) }); err != nil {
		return nil, err
	}
	modeled, fits := BuildModel(measured, s.Primary)
	for rx, f := range fits {
		s.Logger.Debug().Str("receiver", rx).Float64("slope", f.Slope).Float64("intercept", f.Intercept).Int("n", f.N).Msg("receiver fit")
	}
	if err := writeTable(s.ModeledPath(), func(w io.Writer) error { return WriteModeled(w, modeled) }); err != nil {
		return nil, err
	}

	out := make([]int, 0, len(updated))
	for y, rxs := range updated {
		if s.Years != nil && y >= FirstYear {
			if err := s.Years.Add(ctx, y, rxs); err != nil {
				return nil, err
			}
		}
		out = append(out, y)
	}
	sort.Ints(out)
	s.Logger.Info().Ints("years", out).Int("rows", len(modeled.Rows)).Msg("PWV model updated")
	return out, nil
}

// download fetches every receiver/year pair concurrently. Pairs SuomiNet
// has not published are logged and skipped.
func (s *Store) download(ctx context.Context, years []int) ([]Sample, error) {
	var (
		mu  sync.Mutex
		all []Sample
	)
	g, gctx := errgroup.WithContext(ctx)
	limit := s.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)
	for _, y := range years {
		for _, rx := range s.Receivers {
			y, rx := y, rx
			g.Go(func() error {
				got, err := s.Source.Fetch(gctx, rx, y)
				if errors.Is(err, ErrNotPublished) {
					s.Logger.Debug().Str("receiver", rx).Int("year", y).Msg("no SuomiNet data published")
					return nil
				}
				if err != nil {
					return fmt.Errorf("fetch %s %d: %w", rx, y, err)
				}
				s.Logger.Debug().Str("receiver", rx).Int("year", y).Int("samples", len(got)).Msg("downloaded")
				mu.Lock()
				all = append(all, got...)
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return all, nil
}

// merge folds samples into m, replacing values at matching timestamps, and
// returns the receivers that contributed data per year.
func merge(m *Measured, samples []Sample, receivers []string) map[int][]string {
	known := map[string]bool{}
	for _, rx := range m.Receivers {
		known[rx] = true
	}
	for _, rx := range receivers {
		if !known[rx] {
			m.Receivers = append(m.Receivers, rx)
			known[rx] = true
		}
	}

	byDate := make(map[int64]int, len(m.Rows))
	for i, r := range m.Rows {
		byDate[r.Date.Unix()] = i
	}
	seen := map[int]map[string]bool{}
	for _, smp := range samples {
		if !known[smp.Receiver] {
			m.Receivers = append(m.Receivers, smp.Receiver)
			known[smp.Receiver] = true
		}
		ts := smp.Date.Unix()
		i, ok := byDate[ts]
		if !ok {
			m.Rows = append(m.Rows, MeasuredRow{Date: smp.Date.UTC(), PWV: map[string]float64{}})
			i = len(m.Rows) - 1
			byDate[ts] = i
		}
		m.Rows[i].PWV[smp.Receiver] = smp.PWV
		y := smp.Date.UTC().Year()
		if seen[y] == nil {
			seen[y] = map[string]bool{}
		}
		seen[y][smp.Receiver] = true
	}
	sort.SliceStable(m.Rows, func(i, j int) bool { return m.Rows[i].Date.Before(m.Rows[j].Date) })

	out := make(map[int][]string, len(seen))
	for y, set := range seen {
		rxs := make([]string, 0, len(set))
		for rx := range set {
			rxs = append(rxs, rx)
		}
		sort.Strings(rxs)
		out[y] = rxs
	}
	return out
}

// MeasuredPWV returns the measured rows matching f.
func (s *Store) MeasuredPWV(f Filter) (*Measured, error) {
	if err := f.Validate(s.now().UTC()); err != nil {
		return nil, err
	}
	m, err := readTable(s.MeasuredPath(), ReadMeasured)
	if err != nil {
		return nil, err
	}
	out := &Measured{Receivers: m.Receivers}
	for _, r := range m.Rows {
		if f.Match(r.Date) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out, nil
}

// ModeledPWV returns the modeled rows matching f.
func (s *Store) ModeledPWV(f Filter) (*Modeled, error) {
	if err := f.Validate(s.now().UTC()); err != nil {
		return nil, err
	}
	m, err := readTable(s.ModeledPath(), ReadModeled)
	if err != nil {
		return nil, err
	}
	out := &Modeled{}
	for _, r := range m.Rows {
		if f.Match(r.Date) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out, nil
}

// Transmission models the atmospheric transmission due to PWV at date for
// the given airmass.
func (s *Store) Transmission(date time.Time, airmass float64) ([]TransmissionPoint, error) {
	if err := ValidateAirmass(airmass); err != nil {
		return nil, err
	}
	modeled, err := readTable(s.ModeledPath(), ReadModeled)
	if err != nil {
		return nil, err
	}
	zenith, err := ZenithPWV(modeled, date)
	if err != nil {
		return nil, err
	}
	models, err := LoadAtmModels(s.AtmModelsDir)
	if err != nil {
		return nil, err
	}
	los := zenith * airmass
	s.Logger.Debug().Float64("zenith_pwv", zenith).Float64("los_pwv", los).Int("models", len(models)).Msg("transmission")
	return TransmissionAt(models, los)
}

func sortedYears(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for y := range set {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
