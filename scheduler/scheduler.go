package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"geoprecio/config"
	"geoprecio/storage"
)

// Triggerable allows workers to be kicked outside their own interval.
type Triggerable interface {
	Trigger()
}

// Scheduler drives the periodic maintenance of the dataset: the comuna
// statistics refresh on a cron or fixed interval, followed by a backfill
// pass so newly ingested listings get their prediction promptly.
type Scheduler struct {
	cfg    *config.SchedulerConfig
	store  storage.Store
	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}

	backfillWorker Triggerable
}

func New(cfg *config.SchedulerConfig, store storage.Store) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		store:  store,
		cron:   cron.New(),
		stopCh: make(chan struct{}),
	}
}

// SetWorkers registers the workers the schedule should trigger.
func (s *Scheduler) SetWorkers(backfill Triggerable) {
	s.backfillWorker = backfill
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Cron)
		_, err := s.cron.AddFunc(s.cfg.Cron, func() {
			s.runMaintenance(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Interval > 0 {
		log.Printf("Starting scheduler with interval: %s", s.cfg.Interval)
		s.ticker = time.NewTicker(s.cfg.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.runMaintenance(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		log.Println("No schedule configured, maintenance runs only on demand")
	}

	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

// TriggerNow runs one maintenance pass immediately.
func (s *Scheduler) TriggerNow(ctx context.Context) {
	s.runMaintenance(ctx)
}

func (s *Scheduler) runMaintenance(ctx context.Context) {
	if err := s.store.RefreshComunaStats(ctx); err != nil {
		log.Printf("Scheduled stats refresh error: %v", err)
	} else {
		log.Println("Comuna statistics refreshed")
	}

	if s.backfillWorker != nil {
		s.backfillWorker.Trigger()
	}
}
