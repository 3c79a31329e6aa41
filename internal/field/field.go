package field

import (
	"math"
	"runtime"
	"sync"

	"github.com/wrjanan/chladni/internal/pattern"
	"gonum.org/v1/gonum/blas/blas32"
)

// Field is one completed computation. It is immutable once delivered.
// Vibration holds Width*Height intensities and Gradients holds
// Width*Height (gx, gy) pairs, both indexed row*Width + col. Either slice
// is nil when no field could be produced.
type Field struct {
	ID                 uint64
	Width, Height      int
	VibrationIntensity float64
	Vibration          []float32
	Gradients          []float32
}

// Matches reports whether the field was computed for a width×height viewport.
func (f *Field) Matches(width, height int) bool {
	return f != nil && f.Width == width && f.Height == height
}

// HasGradients reports whether the gradient array is present and complete.
func (f *Field) HasGradients() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && len(f.Gradients) == f.Width*f.Height*2
}

// HasVibration reports whether the vibration array is present and complete.
func (f *Field) HasVibration() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && len(f.Vibration) == f.Width*f.Height
}

// GradientAt returns the vector at pixel (col, row). ok is false outside the field.
func (f *Field) GradientAt(col, row int) (gx, gy float32, ok bool) {
	if col < 0 || row < 0 || col >= f.Width || row >= f.Height {
		return 0, 0, false
	}
	i := (row*f.Width + col) * 2
	return f.Gradients[i], f.Gradients[i+1], true
}

// DerivedIntensity refines the seed's jitter intensity for its mode
// numbers: finer patterns shake less so their nodal lines stay resolved.
func DerivedIntensity(p pattern.Params) float64 {
	k := 3 * math.Sqrt2 / math.Hypot(float64(p.ModeN), float64(p.ModeM))
	k = math.Max(0.5, math.Min(1.5, k))
	return p.VibrationIntensity * k
}

// Compute evaluates the plate function
//
//	f(u,v) = cos(nπu)cos(mπv) - cos(mπu)cos(nπv)
//
// over a width×height grid of normalized coordinates. Vibration is the
// derived intensity times |f|/2. Gradients point down |f| toward the nodal
// lines and are scaled so the longest vector has unit length. Rows are
// split into bands processed by up to workers goroutines.
func Compute(width, height int, p pattern.Params, workers int) *Field {
	out := &Field{
		Width:              width,
		Height:             height,
		VibrationIntensity: DerivedIntensity(p),
	}
	if width <= 0 || height <= 0 {
		return out
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > height {
		workers = height
	}

	n := float64(p.ModeN) * math.Pi
	m := float64(p.ModeM) * math.Pi
	cols := newAxis(width, n, m)
	rows := newAxis(height, n, m)

	out.Vibration = make([]float32, width*height)
	out.Gradients = make([]float32, width*height*2)
	mags := make([]float32, width*height)

	half := float32(out.VibrationIntensity / 2)
	invW, invH := 1/float64(width), 1/float64(height)

	var wg sync.WaitGroup
	band := (height + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * band
		end := start + band
		if end > height {
			end = height
		}
		if start >= end {
			break
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for y := start; y < end; y++ {
				cnv, snv, cmv, smv := rows.cn[y], rows.sn[y], rows.cm[y], rows.sm[y]
				base := y * width
				for x := 0; x < width; x++ {
					cnu, snu, cmu, smu := cols.cn[x], cols.sn[x], cols.cm[x], cols.sm[x]

					f := cnu*cmv - cmu*cnv
					dfdu := -n*snu*cmv + m*smu*cnv
					dfdv := -m*cnu*smv + n*cmu*snv

					var sign float64
					switch {
					case f > 0:
						sign = 1
					case f < 0:
						sign = -1
					}
					gx := -sign * dfdu * invW
					gy := -sign * dfdv * invH

					i := base + x
					out.Vibration[i] = half * float32(math.Abs(f))
					out.Gradients[2*i] = float32(gx)
					out.Gradients[2*i+1] = float32(gy)
					mags[i] = float32(math.Hypot(gx, gy))
				}
			}
		}(start, end)
	}
	wg.Wait()

	if peak := mags[blas32.Iamax(blas32.Vector{N: len(mags), Inc: 1, Data: mags})]; peak > 0 {
		blas32.Scal(1/peak, blas32.Vector{N: len(out.Gradients), Inc: 1, Data: out.Gradients})
	}
	return out
}

// MeanVibration averages the vibration map. Zero when absent.
func (f *Field) MeanVibration() float64 {
	if !f.HasVibration() {
		return 0
	}
	sum := blas32.Asum(blas32.Vector{N: len(f.Vibration), Inc: 1, Data: f.Vibration})
	return float64(sum) / float64(len(f.Vibration))
}

// axis caches the trig terms of one coordinate at pixel centers.
type axis struct {
	cn, sn, cm, sm []float64
}

func newAxis(size int, n, m float64) axis {
	a := axis{
		cn: make([]float64, size),
		sn: make([]float64, size),
		cm: make([]float64, size),
		sm: make([]float64, size),
	}
	for i := 0; i < size; i++ {
		u := (float64(i) + 0.5) / float64(size)
		a.sn[i], a.cn[i] = math.Sincos(n * u)
		a.sm[i], a.cm[i] = math.Sincos(m * u)
	}
	return a
}
