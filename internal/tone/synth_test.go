package tone

import (
	"math"
	"testing"

	"github.com/wrjanan/chladni/internal/pattern"
)

func buffers(n int) [][]float32 {
	return [][]float32{make([]float32, n), make([]float32, n)}
}

func peak(out [][]float32) float64 {
	p := 0.0
	for _, ch := range out {
		for _, v := range ch {
			p = math.Max(p, math.Abs(float64(v)))
		}
	}
	return p
}

func TestFrequencies(t *testing.T) {
	lo, hi := Frequencies(pattern.Params{ModeN: 1, ModeM: 1})
	if math.Abs(lo-BaseFreq) > 1e-9 || math.Abs(hi-1.5*BaseFreq) > 1e-9 {
		t.Errorf("unexpected partials %f %f", lo, hi)
	}
	lo2, _ := Frequencies(pattern.Params{ModeN: 3, ModeM: 5})
	if lo2 <= lo {
		t.Error("higher modes should sound higher")
	}
	lo3, _ := Frequencies(pattern.Params{ModeN: 500, ModeM: 400})
	if lo3 != MaxFreq {
		t.Errorf("expected pitch capped at %f, got %f", MaxFreq, lo3)
	}
}

func TestSilentUntilTuned(t *testing.T) {
	s := NewSynth()
	out := buffers(1024)
	s.Fill(out)
	if p := peak(out); p != 0 {
		t.Errorf("untuned synth should be silent, peak %f", p)
	}
}

func TestFillBounded(t *testing.T) {
	s := NewSynth()
	s.SetPattern(pattern.Params{ModeN: 2, ModeM: 3})
	out := buffers(1024)
	loud := 0.0
	for i := 0; i < 40; i++ {
		s.Fill(out)
		loud = math.Max(loud, peak(out))
	}
	if loud == 0 {
		t.Fatal("tuned synth should make sound")
	}
	if loud > 1 {
		t.Errorf("output exceeds full scale: %f", loud)
	}
}

func TestMuteFades(t *testing.T) {
	s := NewSynth()
	s.SetPattern(pattern.Params{ModeN: 2, ModeM: 3})
	out := buffers(1024)
	for i := 0; i < 40; i++ {
		s.Fill(out)
	}
	s.SetMuted(true)
	for i := 0; i < 80; i++ {
		s.Fill(out)
	}
	if p := peak(out); p > 1e-3 {
		t.Errorf("muted synth should fade out, peak %f", p)
	}
}

func TestMonoOutput(t *testing.T) {
	s := NewSynth()
	s.SetPattern(pattern.Params{ModeN: 1, ModeM: 2})
	s.Fill([][]float32{make([]float32, 256)})
}

func crossings(ch []float32) int {
	n := 0
	for i := 1; i < len(ch); i++ {
		if (ch[i-1] < 0) != (ch[i] < 0) {
			n++
		}
	}
	return n
}

// retuneCrossings plays (1,2) for elapsed seconds, retunes to (2,3) and
// counts left channel zero crossings over the next 0.1 s.
func retuneCrossings(elapsed float64) int {
	s := NewSynth()
	s.SetPattern(pattern.Params{ModeN: 1, ModeM: 2})
	out := buffers(1024)
	for played := 0; played < int(elapsed*SampleRate); played += 1024 {
		s.Fill(out)
	}
	s.SetPattern(pattern.Params{ModeN: 2, ModeM: 3})
	window := buffers(SampleRate / 10)
	s.Fill(window)
	return crossings(window[0])
}

func TestGlideIndependentOfElapsedTime(t *testing.T) {
	early := retuneCrossings(0.05)
	late := retuneCrossings(120)

	// (2,3) sounds at about 140 and 210 Hz.
	if early == 0 || early > 100 {
		t.Fatalf("unexpected crossing count after early retune: %d", early)
	}
	if late > 100 || late > early*3/2+10 {
		t.Errorf("retune after 120s chirps: %d crossings, %d when retuned early", late, early)
	}
}
