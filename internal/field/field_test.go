package field

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/wrjanan/chladni/internal/pattern"
)

func testParams() pattern.Params {
	return pattern.Params{Seed: 1, ParticleCount: 100, VibrationIntensity: 4, PullIntensity: 1, ModeN: 3, ModeM: 5}
}

func TestComputeDimensions(t *testing.T) {
	f := Compute(64, 48, testParams(), 3)

	if !f.Matches(64, 48) {
		t.Fatalf("expected 64x48, got %dx%d", f.Width, f.Height)
	}
	if len(f.Vibration) != 64*48 {
		t.Errorf("expected %d vibration values, got %d", 64*48, len(f.Vibration))
	}
	if len(f.Gradients) != 64*48*2 {
		t.Errorf("expected %d gradient values, got %d", 64*48*2, len(f.Gradients))
	}
	if !f.HasGradients() || !f.HasVibration() {
		t.Error("field should report both arrays present")
	}
}

func TestComputeGradientsNormalized(t *testing.T) {
	f := Compute(80, 60, testParams(), 0)

	peak := 0.0
	for i := 0; i < len(f.Gradients); i += 2 {
		m := math.Hypot(float64(f.Gradients[i]), float64(f.Gradients[i+1]))
		if m > peak {
			peak = m
		}
	}
	if math.Abs(peak-1) > 1e-4 {
		t.Errorf("expected longest gradient to be 1, got %v", peak)
	}
}

func TestComputeVibrationBounded(t *testing.T) {
	p := testParams()
	f := Compute(50, 50, p, 2)
	limit := float32(f.VibrationIntensity) + 1e-4
	for i, v := range f.Vibration {
		if v < 0 || v > limit {
			t.Fatalf("vibration[%d] = %v outside [0,%v]", i, v, limit)
		}
	}
	if f.MeanVibration() <= 0 {
		t.Error("expected positive mean vibration")
	}
}

func TestComputeGradientPointsDownhill(t *testing.T) {
	f := Compute(120, 120, testParams(), 4)

	// Away from the nodal lines a short step along the gradient lowers |f|.
	threshold := float32(f.VibrationIntensity * 0.3)
	total, worse := 0, 0
	for y := 5; y < f.Height-5; y += 3 {
		for x := 5; x < f.Width-5; x += 3 {
			here := f.Vibration[y*f.Width+x]
			if here < threshold {
				continue
			}
			gx, gy, _ := f.GradientAt(x, y)
			l := math.Hypot(float64(gx), float64(gy))
			if l == 0 {
				continue
			}
			nx := x + int(math.Round(float64(gx)/l*3))
			ny := y + int(math.Round(float64(gy)/l*3))
			total++
			if f.Vibration[ny*f.Width+nx] > here {
				worse++
			}
		}
	}
	if total == 0 {
		t.Fatal("no samples above threshold")
	}
	if float64(worse)/float64(total) > 0.05 {
		t.Errorf("gradient increased vibration at %d of %d samples", worse, total)
	}
}

func TestComputeDegenerate(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"zero width", 0, 10},
		{"zero height", 10, 0},
		{"negative", -1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Compute(tt.w, tt.h, testParams(), 1)
			if f.HasGradients() || f.HasVibration() {
				t.Error("degenerate field must have no arrays")
			}
		})
	}
}

func TestGradientAtOutside(t *testing.T) {
	f := Compute(4, 4, testParams(), 1)
	for _, c := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 4}} {
		if _, _, ok := f.GradientAt(c[0], c[1]); ok {
			t.Errorf("GradientAt(%d,%d) should be outside", c[0], c[1])
		}
	}
}

func TestDerivedIntensityBounded(t *testing.T) {
	p := testParams()
	for n := 1; n <= 10; n++ {
		for m := 1; m <= 10; m++ {
			p.ModeN, p.ModeM = n, m
			d := DerivedIntensity(p)
			if d < p.VibrationIntensity*0.5 || d > p.VibrationIntensity*1.5 {
				t.Errorf("modes (%d,%d): derived %v outside bounds", n, m, d)
			}
		}
	}
}

func TestServiceDeliversResult(t *testing.T) {
	s := NewService(2, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer s.Stop()

	id := s.Request(32, 16, testParams())
	if id != s.Latest() {
		t.Errorf("expected latest id %d, got %d", id, s.Latest())
	}

	select {
	case f := <-s.Results():
		if f.ID != id {
			t.Errorf("expected id %d, got %d", id, f.ID)
		}
		if !f.Matches(32, 16) {
			t.Errorf("unexpected dimensions %dx%d", f.Width, f.Height)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for field")
	}
}

func TestServiceRequestIDsIncrease(t *testing.T) {
	s := NewService(1, nil)
	var last uint64
	for i := 0; i < 10; i++ {
		id := s.Request(8, 8, testParams())
		if id <= last {
			t.Fatalf("id %d not greater than %d", id, last)
		}
		last = id
	}
}

func TestServiceSupersedesQueuedRequest(t *testing.T) {
	s := NewService(1, nil)

	// Not started: requests pile up in the one-slot mailbox.
	s.Request(8, 8, testParams())
	s.Request(9, 9, testParams())
	last := s.Request(10, 10, testParams())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer s.Stop()

	select {
	case f := <-s.Results():
		if f.ID != last || !f.Matches(10, 10) {
			t.Errorf("expected only the latest request, got id %d (%dx%d)", f.ID, f.Width, f.Height)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for field")
	}

	select {
	case f := <-s.Results():
		t.Errorf("unexpected extra result id %d", f.ID)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestServiceStartTwice(t *testing.T) {
	s := NewService(1, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer s.Stop()
	if err := s.Start(context.Background()); err != ErrRunning {
		t.Errorf("expected ErrRunning, got %v", err)
	}
}

func TestServiceStopsOnContext(t *testing.T) {
	s := NewService(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
}

func BenchmarkCompute(b *testing.B) {
	p := testParams()
	for i := 0; i < b.N; i++ {
		Compute(640, 480, p, 0)
	}
}
