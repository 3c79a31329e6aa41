package viewport_test

import (
	"math/rand"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wrjanan/chladni/internal/field"
	"github.com/wrjanan/chladni/internal/pattern"
	"github.com/wrjanan/chladni/internal/viewport"
)

type fakeRequest struct {
	id     uint64
	width  int
	height int
	params pattern.Params
}

// fakeSource records requests and lets specs deliver results by hand.
type fakeSource struct {
	mu       sync.Mutex
	seq      uint64
	requests []fakeRequest
	results  chan *field.Field
}

func newFakeSource() *fakeSource {
	return &fakeSource{results: make(chan *field.Field, 4)}
}

func (s *fakeSource) Request(width, height int, p pattern.Params) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.requests = append(s.requests, fakeRequest{s.seq, width, height, p})
	return s.seq
}

func (s *fakeSource) Results() <-chan *field.Field { return s.results }

func (s *fakeSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *fakeSource) last() fakeRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

// deliver computes the field for a recorded request.
func (s *fakeSource) deliver(r fakeRequest) {
	f := field.Compute(r.width, r.height, r.params, 2)
	f.ID = r.id
	s.results <- f
}

var smallRanges = pattern.Ranges{
	MinParticles: 500,
	MaxParticles: 1000,
	MinVibration: 2,
	MaxVibration: 6,
	MinPull:      0.5,
	MaxPull:      2,
	MaxMode:      6,
}

var _ = Describe("Manager", func() {
	var (
		src *fakeSource
		m   *viewport.Manager
	)

	BeforeEach(func() {
		src = newFakeSource()
		m = viewport.New(src, 42, viewport.Options{
			Debounce: 100 * time.Millisecond,
			Ranges:   smallRanges,
			Rand:     rand.New(rand.NewSource(1)),
		})
	})

	AfterEach(func() {
		m.Shutdown()
	})

	Describe("Resize", func() {
		It("sizes the buffer and keeps particles inside", func() {
			m.Resize(800, 600)
			m.Resize(400, 300)

			Expect(m.Buffer()).To(HaveLen(120000))
			Expect(m.Width()).To(Equal(400))
			Expect(m.Height()).To(Equal(300))
			ps := m.Particles()
			for i := 0; i < ps.Len(); i++ {
				x, y := ps.At(i)
				Expect(x).To(And(BeNumerically(">=", 0), BeNumerically("<", 400)))
				Expect(y).To(And(BeNumerically(">=", 0), BeNumerically("<", 300)))
			}
		})

		It("requests a field for the new dimensions", func() {
			m.Resize(320, 200)

			Expect(src.count()).To(Equal(1))
			r := src.last()
			Expect(r.width).To(Equal(320))
			Expect(r.height).To(Equal(200))
			Expect(r.id).To(Equal(m.Latest()))
		})

		It("handles a zero area viewport", func() {
			m.Resize(0, 0)
			Expect(m.Buffer()).To(BeEmpty())
			m.Resize(-5, 10)
			Expect(m.Width()).To(Equal(0))
			Expect(m.Buffer()).To(BeEmpty())
		})

		It("drops the bound field", func() {
			m.Resize(64, 48)
			src.deliver(src.last())
			Expect(m.Poll()).To(BeTrue())
			Expect(m.Field()).NotTo(BeNil())

			m.Resize(32, 24)
			Expect(m.Field()).To(BeNil())
		})
	})

	Describe("Poll", func() {
		It("binds the result of the latest request", func() {
			m.Resize(64, 48)
			src.deliver(src.last())

			Expect(m.Poll()).To(BeTrue())
			f := m.Field()
			Expect(f.Matches(64, 48)).To(BeTrue())
			Expect(m.Jitter()).To(Equal(f.VibrationIntensity))
		})

		It("binds at most one result per call", func() {
			m.Resize(64, 48)
			r := src.last()
			src.deliver(r)
			src.deliver(r)

			Expect(m.Poll()).To(BeTrue())
			Expect(src.results).To(HaveLen(1))
		})

		It("never binds a superseded result", func() {
			m.Resize(64, 48)
			stale := src.last()
			m.Resize(80, 60)

			src.deliver(stale)
			Expect(m.Poll()).To(BeFalse())
			Expect(m.Field()).To(BeNil())

			src.deliver(src.last())
			Expect(m.Poll()).To(BeTrue())
			Expect(m.Field().Matches(80, 60)).To(BeTrue())
		})

		It("rejects a result with the right id but wrong dimensions", func() {
			m.Resize(64, 48)
			r := src.last()
			f := field.Compute(32, 32, r.params, 1)
			f.ID = r.id
			src.results <- f

			Expect(m.Poll()).To(BeFalse())
			Expect(m.Field()).To(BeNil())
		})

		It("reports false when nothing arrived", func() {
			m.Resize(10, 10)
			Expect(m.Poll()).To(BeFalse())
		})

		It("picks up the derived intensity of a degenerate field without binding it", func() {
			m.Resize(0, 0)
			src.deliver(src.last())

			Expect(m.Poll()).To(BeFalse())
			Expect(m.Field()).To(BeNil())
			Expect(m.Jitter()).To(Equal(field.DerivedIntensity(m.Params())))
		})
	})

	Describe("NotifyResize", func() {
		It("collapses a burst into one rebuild with the last dimensions", func() {
			m.Resize(800, 600)
			before := src.count()

			m.NotifyResize(400, 300)
			time.Sleep(50 * time.Millisecond)
			m.NotifyResize(300, 200)

			Eventually(func() int {
				m.Poll()
				return m.Width()
			}).WithTimeout(2 * time.Second).Should(Equal(300))
			Consistently(func() int {
				m.Poll()
				return src.count()
			}).WithTimeout(300 * time.Millisecond).Should(Equal(before + 1))

			Expect(m.Height()).To(Equal(200))
			Expect(m.Rebuilds()).To(Equal(2))
			Expect(src.last().width).To(Equal(300))
		})

		It("does nothing after Shutdown", func() {
			m.Resize(100, 100)
			m.Shutdown()
			m.NotifyResize(50, 50)

			Consistently(func() int {
				m.Poll()
				return m.Width()
			}).WithTimeout(300 * time.Millisecond).Should(Equal(100))
		})
	})

	Describe("ChangeSeed", func() {
		It("rederives the pattern and requests a new field", func() {
			m.Resize(64, 48)
			old := src.last()
			src.deliver(old)
			Expect(m.Poll()).To(BeTrue())

			m.ChangeSeed(43)
			want := pattern.Derive(43, smallRanges)
			Expect(m.Params()).To(Equal(want))
			Expect(m.Particles().Len()).To(Equal(want.ParticleCount))
			Expect(m.Field()).To(BeNil())
			Expect(m.Jitter()).To(Equal(want.VibrationIntensity))

			r := src.last()
			Expect(r.id).To(BeNumerically(">", old.id))
			Expect(r.params.Seed).To(Equal(int64(43)))
			Expect(r.width).To(Equal(64))
		})

		It("applies the particle scale", func() {
			scaled := viewport.New(src, 42, viewport.Options{Ranges: smallRanges, ParticleScale: 0.5})
			defer scaled.Shutdown()
			base := pattern.Derive(42, smallRanges)
			Expect(scaled.Params().ParticleCount).To(Equal(base.Scaled(0.5).ParticleCount))
		})
	})
})

var _ = Describe("Debouncer", func() {
	It("runs only the last task", func() {
		d := viewport.NewDebouncer(30 * time.Millisecond)
		defer d.Stop()

		var mu sync.Mutex
		var got []int
		for i := 0; i < 5; i++ {
			i := i
			d.Set(func() {
				mu.Lock()
				got = append(got, i)
				mu.Unlock()
			})
		}

		Eventually(func() []int {
			mu.Lock()
			defer mu.Unlock()
			return append([]int(nil), got...)
		}).Should(Equal([]int{4}))
		Consistently(func() int {
			mu.Lock()
			defer mu.Unlock()
			return len(got)
		}).WithTimeout(100 * time.Millisecond).Should(Equal(1))
	})
})
