package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/coast-to-coast/internal/weather"
)

// Refresher is the part of the weather service the scheduler drives.
type Refresher interface {
	Cities() []weather.City
	RefreshAll(ctx context.Context) int
}

// Scheduler periodically refreshes the dashboard city cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. timeout bounds a single refresh run.
func New(interval, timeout time.Duration, service Refresher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the refresh job, runs it once immediately and starts the
// underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.service.Cities()) == 0 {
		log.Println("scheduler: no cities configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval < time.Minute {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	log.Println("scheduler: refreshing dashboard cities")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	failed := s.service.RefreshAll(ctx)
	log.Printf("scheduler: refresh completed, %d of %d cities failed", failed, len(s.service.Cities()))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
