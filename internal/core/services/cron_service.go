package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// ExpirySweeper removes snapshots whose TTL has elapsed
type ExpirySweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// CronService runs the store's scheduled housekeeping
type CronService struct {
	cron    *cron.Cron
	sweeper ExpirySweeper
	spec    string
	now     func() time.Time
}

// NewCronService creates a new cron service sweeping on spec
func NewCronService(sweeper ExpirySweeper, spec string) *CronService {
	if spec == "" {
		spec = "@every 10m"
	}
	return &CronService{
		cron:    cron.New(),
		sweeper: sweeper,
		spec:    spec,
		now:     time.Now,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.Sweep(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("🚀 CronService started (expiry sweep %s)", s.spec)
	return nil
}

// Stop waits for running jobs and stops the scheduler
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 CronService stopped")
}

// Sweep deletes expired snapshots once
func (s *CronService) Sweep(ctx context.Context) int64 {
	n, err := s.sweeper.DeleteExpired(ctx, s.now())
	if err != nil {
		log.Printf("❌ Expiry sweep error: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("✅ Expiry sweep removed %d snapshot(s)", n)
	}
	return n
}
