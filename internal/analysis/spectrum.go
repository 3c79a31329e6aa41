package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/wrjanan/chladni/internal/field"
)

// RowProfile returns the vibration along row, or nil outside the field.
func RowProfile(f *field.Field, row int) []float64 {
	if !f.HasVibration() || row < 0 || row >= f.Height {
		return nil
	}
	out := make([]float64, f.Width)
	for x, v := range f.Vibration[row*f.Width : (row+1)*f.Width] {
		out[x] = float64(v)
	}
	return out
}

// ColumnProfile returns the vibration along col, or nil outside the field.
func ColumnProfile(f *field.Field, col int) []float64 {
	if !f.HasVibration() || col < 0 || col >= f.Width {
		return nil
	}
	out := make([]float64, f.Height)
	for y := range out {
		out[y] = float64(f.Vibration[y*f.Width+col])
	}
	return out
}

// PowerSpectrum returns the magnitudes of the first len(data)/2 frequency
// bins. The mean is removed first so bin 0 is near zero.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	coeffs := fft.FFTReal(centered)
	ps := make([]float64, len(coeffs)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(coeffs[i])
	}
	return ps
}

// DominantBin returns the strongest non-DC bin, or 0 when there is none.
func DominantBin(ps []float64) int {
	best, bestMag := 0, 0.0
	for i := 1; i < len(ps); i++ {
		if ps[i] > bestMag {
			best, bestMag = i, ps[i]
		}
	}
	return best
}
