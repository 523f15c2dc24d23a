package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/shared"
)

// TenantProvider provides the list of tenants to sweep
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

const (
	// DefaultSweepInterval is the default interval between expiry sweeps
	DefaultSweepInterval = 5 * time.Minute

	// DefaultSweepBatchSize is the default number of quotes expired per tenant per sweep
	DefaultSweepBatchSize = 100
)

// QuoteExpiryConfig holds configuration for the quote expiry sweeper
type QuoteExpiryConfig struct {
	// Interval is how often the sweep runs
	Interval time.Duration
	// BatchSize caps the number of quotes expired per tenant per sweep
	BatchSize int
	// SweepTimeout is the maximum time a single sweep can run
	SweepTimeout time.Duration
}

// DefaultQuoteExpiryConfig returns default sweeper configuration
func DefaultQuoteExpiryConfig() QuoteExpiryConfig {
	return QuoteExpiryConfig{
		Interval:     DefaultSweepInterval,
		BatchSize:    DefaultSweepBatchSize,
		SweepTimeout: time.Minute,
	}
}

// Validate validates the configuration
func (c *QuoteExpiryConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.BatchSize <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// QuoteExpiryScheduler periodically flips SENT quotes whose expiry date
// has passed to EXPIRED. It runs per tenant and tolerates concurrent
// transitions: a quote accepted or rejected between the sweep's read and
// write loses the optimistic-lock race and is skipped.
type QuoteExpiryScheduler struct {
	config         QuoteExpiryConfig
	quoteRepo      billing.QuoteRepository
	tenantProvider TenantProvider
	logger         *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewQuoteExpiryScheduler creates a new quote expiry sweeper
func NewQuoteExpiryScheduler(
	config QuoteExpiryConfig,
	quoteRepo billing.QuoteRepository,
	tenantProvider TenantProvider,
	logger *zap.Logger,
) (*QuoteExpiryScheduler, error) {
	if config.Interval <= 0 {
		config.Interval = DefaultSweepInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultSweepBatchSize
	}
	if config.SweepTimeout <= 0 {
		config.SweepTimeout = time.Minute
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &QuoteExpiryScheduler{
		config:         config,
		quoteRepo:      quoteRepo,
		tenantProvider: tenantProvider,
		logger:         logger,
	}, nil
}

// Start starts the sweep loop
func (s *QuoteExpiryScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Quote expiry sweeper started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize),
	)

	return nil
}

// Stop gracefully stops the sweep loop
func (s *QuoteExpiryScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Quote expiry sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Quote expiry sweeper stop timed out")
		return ctx.Err()
	}
}

// run is the ticker loop. The first sweep happens one interval after start.
func (s *QuoteExpiryScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single expiry pass over all active tenants. It is exported
// so callers can trigger an immediate sweep outside the ticker.
func (s *QuoteExpiryScheduler) Sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	tenantIDs, err := s.tenantProvider.GetActiveTenantIDs(sweepCtx)
	if err != nil {
		s.logger.Error("Quote expiry sweep failed to list tenants", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		if sweepCtx.Err() != nil {
			return
		}
		s.sweepTenant(sweepCtx, tenantID)
	}
}

// sweepTenant expires overdue quotes for a single tenant
func (s *QuoteExpiryScheduler) sweepTenant(ctx context.Context, tenantID uuid.UUID) {
	quotes, err := s.quoteRepo.FindExpirable(ctx, tenantID, shared.Filter{
		Page:     1,
		PageSize: s.config.BatchSize,
	})
	if err != nil {
		s.logger.Error("Quote expiry sweep failed to load quotes",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		return
	}
	if len(quotes) == 0 {
		return
	}

	now := time.Now()
	expired := 0
	for i := range quotes {
		quote := &quotes[i]
		if err := quote.MarkExpired(now); err != nil {
			// FindExpirable already filtered on status and date, so this
			// only happens when the quote moved underneath us
			s.logger.Debug("Skipping quote that left the expirable state",
				zap.String("quote_id", quote.ID.String()),
				zap.Error(err),
			)
			continue
		}

		if err := s.quoteRepo.SaveWithLock(ctx, quote); err != nil {
			// Lost the optimistic-lock race, a concurrent accept or
			// reject won. The next sweep re-evaluates.
			s.logger.Debug("Quote expiry lost version race",
				zap.String("quote_id", quote.ID.String()),
				zap.Error(err),
			)
			continue
		}
		expired++
	}

	if expired > 0 {
		s.logger.Info("Expired overdue quotes",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("expired", expired),
			zap.Int("candidates", len(quotes)),
		)
	}
}
