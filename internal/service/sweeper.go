package service

import (
	"context"
	"log"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/laura2ndrea/payment-links/internal/redis"
	"github.com/laura2ndrea/payment-links/internal/repository"
)

// sweepTimeout bounds one sweep run; a stuck store call fails the run
// instead of blocking shutdown.
const sweepTimeout = 30 * time.Second

// Sweeper periodically transitions overdue CREATED links to EXPIRED. It only
// ever moves links forward along that one edge, in a single conditional
// statement, so running it concurrently with in-flight pays is safe and
// running it twice in a row is a no-op.
type Sweeper struct {
	linkRepo repository.PaymentLinkRepository
	locks    redis.LockStoreInterface
	nrApp    *newrelic.Application
	interval time.Duration
	now      func() time.Time
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper creates a new Sweeper. locks and nrApp may be nil.
func NewSweeper(linkRepo repository.PaymentLinkRepository, locks redis.LockStoreInterface, nrApp *newrelic.Application, interval time.Duration) *Sweeper {
	return &Sweeper{
		linkRepo: linkRepo,
		locks:    locks,
		nrApp:    nrApp,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the periodic sweep loop.
func (s *Sweeper) Start() {
	go s.run()
}

// Stop signals the loop to exit and waits for the in-flight run to finish.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Sweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
			if _, err := s.RunOnce(ctx); err != nil {
				log.Printf("expiration sweep failed: %v", err)
			}
			cancel()
		}
	}
}

// RunOnce performs a single sweep and returns the number of links expired.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	if s.locks != nil {
		// Leader lock keeps a fleet of instances from sweeping in lockstep.
		// The sweep is idempotent, so a lock failure is not fatal; only an
		// explicit "someone else holds it" skips the run.
		acquired, err := s.locks.AcquireSweepLock(ctx, s.interval)
		if err == nil && !acquired {
			return 0, nil
		}
	}

	if s.nrApp != nil {
		txn := s.nrApp.StartTransaction("expiration-sweep")
		defer txn.End()
		ctx = newrelic.NewContext(ctx, txn)
	}

	count, err := s.linkRepo.ExpireOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}

	if count > 0 {
		log.Printf("expired %d payment links", count)
	}
	if s.nrApp != nil {
		s.nrApp.RecordCustomMetric("Custom/PaymentLinks/Expired", float64(count))
	}

	return count, nil
}
