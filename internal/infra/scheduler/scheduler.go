package scheduler

import (
	"context"
	"time"

	"performance_review_service/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReviewScheduler wires the periodic jobs: the due-cycle sweep that
// instantiates reviews, the daily deadline reminder sweep, and the
// notification retention purge. Each job runs to completion inside its cron
// invocation with its own timeout context.
type ReviewScheduler struct {
	cronEngine      *cron.Cron
	cycleService    *app.CycleService
	reminderService *app.ReminderService
	logger          *logrus.Logger

	cronSpecCycleSweep    string // e.g. "0 6 * * *"
	cronSpecDeadlineSweep string // e.g. "0 9 * * *"
	cronSpecRetention     string // e.g. "30 3 * * *"
}

func NewReviewScheduler(
	cycleService *app.CycleService,
	reminderService *app.ReminderService,
	logger *logrus.Logger,
	cronSpecCycleSweep string,
	cronSpecDeadlineSweep string,
	cronSpecRetention string,
) *ReviewScheduler {
	return &ReviewScheduler{
		cronEngine:            cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		cycleService:          cycleService,
		reminderService:       reminderService,
		logger:                logger,
		cronSpecCycleSweep:    cronSpecCycleSweep,
		cronSpecDeadlineSweep: cronSpecDeadlineSweep,
		cronSpecRetention:     cronSpecRetention,
	}
}

func (s *ReviewScheduler) Start() {
	s.logger.Info("Starting review scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecCycleSweep, func() {
		s.logger.Info("Cron job triggered: due-cycle sweep")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		summary, err := s.cycleService.ProcessDueCycles(ctx, time.Now())
		if err != nil {
			s.logger.Errorf("Due-cycle sweep failed: %v", err)
			return
		}
		for _, r := range summary.Results {
			if r.Err != "" {
				s.logger.Errorf("Cycle %d (%q) failed during sweep: %s", r.CycleID, r.CycleName, r.Err)
			}
		}
		s.logger.Infof("Due-cycle sweep finished: %d cycle(s) processed", summary.CyclesProcessed)
	})
	if err != nil {
		s.logger.Fatalf("Could not add due-cycle sweep cron job: %v", err)
	}

	_, err = s.cronEngine.AddFunc(s.cronSpecDeadlineSweep, func() {
		s.logger.Info("Cron job triggered: deadline reminder sweep")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.reminderService.ProcessDeadlineSweep(ctx, time.Now()); err != nil {
			s.logger.Errorf("Deadline sweep failed: %v", err)
		}
	})
	if err != nil {
		s.logger.Fatalf("Could not add deadline sweep cron job: %v", err)
	}

	_, err = s.cronEngine.AddFunc(s.cronSpecRetention, func() {
		s.logger.Info("Cron job triggered: notification retention purge")
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if _, err := s.reminderService.PurgeExpiredNotifications(ctx, time.Now()); err != nil {
			s.logger.Errorf("Notification retention purge failed: %v", err)
		}
	})
	if err != nil {
		s.logger.Fatalf("Could not add retention purge cron job: %v", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Review scheduler started with jobs.")
}

func (s *ReviewScheduler) Stop() {
	s.logger.Info("Stopping review scheduler...")
	ctx := s.cronEngine.Stop() // Stops new jobs, waits for running ones.
	<-ctx.Done()
	s.logger.Info("Review scheduler gracefully stopped.")
}
