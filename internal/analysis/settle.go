package analysis

import (
	"github.com/wrjanan/chladni/internal/field"
	"github.com/wrjanan/chladni/internal/particle"
)

// NodalFraction returns the share of pixels whose vibration is below
// threshold times the field's intensity.
func NodalFraction(f *field.Field, threshold float64) float64 {
	if !f.HasVibration() || f.VibrationIntensity <= 0 {
		return 0
	}
	limit := float32(threshold * f.VibrationIntensity)
	n := 0
	for _, v := range f.Vibration {
		if v < limit {
			n++
		}
	}
	return float64(n) / float64(len(f.Vibration))
}

// Settledness is the mean vibration under the particles divided by the
// plate mean. Particles outside the field are ignored. It returns 1 when
// nothing can be measured.
func Settledness(ps *particle.Set, f *field.Field) float64 {
	plate := f.MeanVibration()
	if ps == nil || plate <= 0 || !f.HasVibration() {
		return 1
	}
	sum, n := 0.0, 0
	pos := ps.Positions()
	for i := 0; i < len(pos); i += 2 {
		x, y := particle.Round(pos[i]), particle.Round(pos[i+1])
		if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
			continue
		}
		sum += float64(f.Vibration[y*f.Width+x])
		n++
	}
	if n == 0 {
		return 1
	}
	return sum / float64(n) / plate
}
