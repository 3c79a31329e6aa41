package field

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wrjanan/chladni/internal/pattern"
)

// ErrRunning is returned by Start when the service already has a worker.
var ErrRunning = errors.New("chladni: field service already running")

// Request asks for a field sized to a viewport.
type Request struct {
	ID     uint64
	Width  int
	Height int
	Params pattern.Params
}

// Service computes fields on a single background goroutine. Requests are
// never blocking: a request that is still queued when a newer one arrives
// is replaced. Results are delivered in completion order over Results.
type Service struct {
	workers int
	logger  *slog.Logger

	requests chan Request
	results  chan *Field

	seq     atomic.Uint64
	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewService creates a stopped service. workers bounds the goroutines one
// computation fans out to; zero means one per CPU.
func NewService(workers int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		workers:  workers,
		logger:   logger,
		requests: make(chan Request, 1),
		results:  make(chan *Field, 4),
	}
}

// Start launches the worker. It runs until ctx is done or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.loop(ctx)
	return nil
}

// Stop cancels the worker and waits for it to exit. Outstanding requests
// are dropped.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.running.Store(false)
}

// Request queues a computation and returns its id. Ids increase
// monotonically; the highest id returned so far is Latest.
func (s *Service) Request(width, height int, p pattern.Params) uint64 {
	req := Request{ID: s.seq.Add(1), Width: width, Height: height, Params: p}
	for {
		select {
		case s.requests <- req:
			return req.ID
		default:
		}
		select {
		case old := <-s.requests:
			s.logger.Debug("field request superseded", "id", old.ID, "by", req.ID)
		default:
		}
	}
}

// Latest returns the id of the most recent request.
func (s *Service) Latest() uint64 { return s.seq.Load() }

// Results delivers one field per completed request.
func (s *Service) Results() <-chan *Field { return s.results }

func (s *Service) loop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.requests:
			start := time.Now()
			f := Compute(req.Width, req.Height, req.Params, s.workers)
			f.ID = req.ID
			s.logger.Debug("field computed",
				"id", req.ID,
				"width", req.Width,
				"height", req.Height,
				"seed", req.Params.Seed,
				"elapsed", time.Since(start),
			)
			select {
			case s.results <- f:
			case <-ctx.Done():
				return
			}
		}
	}
}
