package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sablin/fairmarket/internal/domain/model"
)

// EscrowFacade exposes the subset of application functionality required by the sweeper.
type EscrowFacade interface {
	ExpiredEscrows(ctx context.Context, now time.Time, limit int) ([]model.Escrow, error)
	AutoReleaseEscrow(ctx context.Context, escrow model.Escrow) (bool, error)
}

// Sweeper periodically auto-releases escrows whose verification window
// elapsed with no customer action. The release write is conditional on
// the escrow status, so running a sweep twice, or concurrently with a
// customer action, never double-releases.
type Sweeper struct {
	facade    EscrowFacade
	interval  time.Duration
	batchSize int
	workers   int
	logger    *slog.Logger

	jobs   chan model.Escrow
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewSweeper constructs the verification-timer worker pool.
func NewSweeper(facade EscrowFacade, interval time.Duration, batchSize, workers int, logger *slog.Logger) *Sweeper {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Sweeper{
		facade:    facade,
		interval:  interval,
		batchSize: batchSize,
		workers:   workers,
		logger:    logger,
		jobs:      make(chan model.Escrow, batchSize*workers),
	}
}

// Start launches background sweeping.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(runCtx)
	}

	s.wg.Add(1)
	go s.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Sweeper) dispatch(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.jobs)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fetchAndDispatch(ctx)
		}
	}
}

func (s *Sweeper) fetchAndDispatch(ctx context.Context) {
	escrows, err := s.facade.ExpiredEscrows(ctx, time.Now(), s.batchSize)
	if err != nil {
		s.logger.Error("fetch expired escrows failed", slog.String("error", err.Error()))
		return
	}
	for _, escrow := range escrows {
		select {
		case <-ctx.Done():
			return
		case s.jobs <- escrow:
		}
	}
}

func (s *Sweeper) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case escrow, ok := <-s.jobs:
			if !ok {
				return
			}
			s.handleEscrow(ctx, escrow)
		}
	}
}

func (s *Sweeper) handleEscrow(ctx context.Context, escrow model.Escrow) {
	// A per-record failure is isolated: log and move on to the next.
	released, err := s.facade.AutoReleaseEscrow(ctx, escrow)
	if err != nil {
		s.logger.Error("auto-release failed",
			slog.Int64("escrow_id", escrow.ID),
			slog.Int64("order_id", escrow.OrderID),
			slog.String("error", err.Error()),
		)
		return
	}
	if !released {
		// Customer action or another sweep won the race; nothing to do.
		return
	}
	s.logger.Info("escrow auto-released",
		slog.Int64("escrow_id", escrow.ID),
		slog.Int64("order_id", escrow.OrderID),
		slog.Int64("amount_cents", escrow.AmountCents),
	)
}
