package pwv

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Fit maps one receiver's PWV onto the primary receiver: primary ≈
// Slope*x + Intercept, estimated by least squares over N shared samples.
type Fit struct {
	Slope     float64
	Intercept float64
	N         int
}

// Apply evaluates the fit at x.
func (f Fit) Apply(x float64) float64 {
	return f.Slope*x + f.Intercept
}

// FitLinear fits ys = a*xs + b by ordinary least squares. It needs two
// distinct x values.
func FitLinear(xs, ys []float64) (Fit, bool) {
	n := len(xs)
	if n < 2 || n != len(ys) || constant(xs) {
		return Fit{}, false
	}
	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(slope) || math.IsNaN(intercept) {
		return Fit{}, false
	}
	return Fit{Slope: slope, Intercept: intercept, N: n}, true
}

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

// FitReceivers fits every secondary receiver in m against primary.
// Receivers sharing fewer than two samples with primary get no fit.
func FitReceivers(m *Measured, primary string) map[string]Fit {
	fits := map[string]Fit{}
	for _, rx := range m.Receivers {
		if rx == primary {
			continue
		}
		var xs, ys []float64
		for _, row := range m.Rows {
			p, okP := row.PWV[primary]
			v, okV := row.PWV[rx]
			if okP && okV {
				xs = append(xs, v)
				ys = append(ys, p)
			}
		}
		if f, ok := FitLinear(xs, ys); ok {
			fits[rx] = f
		}
	}
	return fits
}

// BuildModel derives the Kitt Peak PWV model from the measured table. The
// primary receiver's value is used where it exists; elsewhere the model is
// the mean of the fitted secondary receivers available at that time.
// Timestamps with neither are left out. Negative estimates are clamped
// to zero.
func BuildModel(m *Measured, primary string) (*Modeled, map[string]Fit) {
	fits := FitReceivers(m, primary)
	out := &Modeled{}
	for _, row := range m.Rows {
		if v, ok := row.PWV[primary]; ok {
			out.Rows = append(out.Rows, ModeledRow{Date: row.Date, PWV: v})
			continue
		}
		var sum float64
		var n int
		for _, rx := range m.Receivers {
			f, ok := fits[rx]
			if !ok {
				continue
			}
			if v, ok := row.PWV[rx]; ok {
				sum += f.Apply(v)
				n++
			}
		}
		if n == 0 {
			continue
		}
		est := math.Max(0, sum/float64(n))
		out.Rows = append(out.Rows, ModeledRow{Date: row.Date, PWV: round(est, 3)})
	}
	return out, fits
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// interp is one-dimensional linear interpolation over ascending xs,
// clamped to the end values outside the range.
func interp(x float64, xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if xs[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}
	if xs[hi] == xs[lo] {
		return ys[lo]
	}
	t := (x - xs[lo]) / (xs[hi] - xs[lo])
	return ys[lo] + t*(ys[hi]-ys[lo])
}
