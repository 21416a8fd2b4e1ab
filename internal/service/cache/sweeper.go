package cache

import (
	"fmt"
	"time"

	"StockPulse/internal/domain/repository"
	applogger "StockPulse/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Sweeper evicts expired store entries on a fixed schedule.
type Sweeper struct {
	store    *Store
	metrics  repository.Metrics
	log      *applogger.Logger
	cron     *cron.Cron
	interval time.Duration
	hooks    []func()
}

func NewSweeper(store *Store, interval time.Duration, metrics repository.Metrics, l *applogger.Logger) *Sweeper {
	if l == nil {
		l = applogger.NewNop()
	}
	return &Sweeper{
		store:    store,
		metrics:  metrics,
		log:      l.With(applogger.String("component", "cache_sweeper")),
		cron:     cron.New(),
		interval: interval,
	}
}

// OnSweep registers fn to run after every sweep. Call before Start.
func (s *Sweeper) OnSweep(fn func()) {
	s.hooks = append(s.hooks, fn)
}

// Start registers the sweep job and starts the schedule.
func (s *Sweeper) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("sweep interval must be positive: %s", s.interval)
	}
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.RunOnce); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	s.cron.Start()
	s.log.Info("cache sweeper started", applogger.Duration("interval_ms", s.interval))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("cache sweeper stopped")
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce() {
	removed := s.store.Sweep()
	if s.metrics != nil {
		s.metrics.RecordCacheSweep(removed)
	}
	for _, fn := range s.hooks {
		fn()
	}
	s.log.Debug("cache sweep completed", applogger.Int("removed", removed))
}
