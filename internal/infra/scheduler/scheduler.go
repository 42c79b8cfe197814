package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"commitment_notifier/internal/app" // For NotificationService interface
	"commitment_notifier/internal/domain/notification"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultJobTimeout bounds a single daily check. Each WhatsApp message may
// poll its status for several seconds.
const DefaultJobTimeout = 30 * time.Minute

type NotificationScheduler struct {
	cronEngine         *cron.Cron
	notifService       app.NotificationService // Using the interface
	logger             *logrus.Entry
	cronSpecDailyCheck string // e.g., "0 9 * * 1-5" (9:00 AM on business days)
	jobTimeout         time.Duration
	mu                 sync.Mutex // Serializes cron and manual runs
	now                func() time.Time
}

func NewNotificationScheduler(
	notifService app.NotificationService,
	logger *logrus.Entry,
	loc *time.Location,
	cronSpecDailyCheck string,
) *NotificationScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &NotificationScheduler{
		cronEngine:         cron.New(cron.WithLocation(loc), cron.WithLogger(cron.PrintfLogger(logger))),
		notifService:       notifService,
		logger:             logger,
		cronSpecDailyCheck: cronSpecDailyCheck,
		jobTimeout:         DefaultJobTimeout,
		now:                time.Now,
	}
}

// Start registers the daily job and starts the cron engine.
func (s *NotificationScheduler) Start() error {
	s.logger.Info("Starting notification scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecDailyCheck, func() {
		s.logger.Info("Cron job triggered for daily commitment check.")
		s.execute(notification.RunKindDailyCheck)
	})
	if err != nil {
		return fmt.Errorf("could not add daily check cron job (%q): %w", s.cronSpecDailyCheck, err)
	}

	s.cronEngine.Start()
	for _, e := range s.cronEngine.Entries() {
		s.logger.WithField("next_run", e.Next.Format(time.RFC3339)).Info("Notification scheduler started with jobs.")
	}
	return nil
}

// RunNow executes a manual check immediately and waits for it to finish.
func (s *NotificationScheduler) RunNow(ctx context.Context) (*notification.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notifService.RunDailyCheck(ctx, s.now(), notification.RunKindManual)
}

func (s *NotificationScheduler) execute(kind notification.RunKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	run, err := s.notifService.RunDailyCheck(ctx, s.now(), kind)
	if err != nil {
		s.logger.WithError(err).WithField("kind", kind).Error("Error during notification run")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"kind":   kind,
		"run_id": run.ID,
		"sent":   run.Sent,
		"failed": run.Failed,
	}).Info("Notification run finished")
}

func (s *NotificationScheduler) Stop() {
	s.logger.Info("Stopping notification scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Notification scheduler gracefully stopped.")
}
