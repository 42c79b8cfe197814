package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"commitment_notifier/internal/app"
	"commitment_notifier/internal/domain/commitment"
	"commitment_notifier/internal/domain/notification"
	"commitment_notifier/internal/infra/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	mu    sync.Mutex
	kinds []notification.RunKind
	err   error
}

func (f *fakeService) RunDailyCheck(_ context.Context, now time.Time, kind notification.RunKind) (*notification.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
	if f.err != nil {
		return nil, f.err
	}
	return &notification.Run{ID: int64(len(f.kinds)), RunDate: now, Kind: kind, Sent: 3}, nil
}

func (f *fakeService) NotifyNewCommitment(context.Context, *commitment.Commitment) error {
	return nil
}

func (f *fakeService) SendTest(context.Context, string, string, bool) (*app.DeliveryResult, error) {
	return nil, nil
}

func (f *fakeService) SendTemplate(context.Context, string, string, map[string]string) (*app.DeliveryResult, error) {
	return nil, nil
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewNotificationScheduler(&fakeService{}, logger.Discard(), time.UTC, "not a cron spec")
	assert.Error(t, s.Start())
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewNotificationScheduler(&fakeService{}, logger.Discard(), time.UTC, "0 9 * * 1-5")
	require.NoError(t, s.Start())
	require.Len(t, s.cronEngine.Entries(), 1)
	next := s.cronEngine.Entries()[0].Next
	assert.Equal(t, 9, next.Hour())
	assert.NotEqual(t, time.Saturday, next.Weekday())
	assert.NotEqual(t, time.Sunday, next.Weekday())
	s.Stop()
}

func TestScheduler_RunNowIsManual(t *testing.T) {
	svc := &fakeService{}
	s := NewNotificationScheduler(svc, logger.Discard(), time.UTC, "0 9 * * 1-5")

	run, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, notification.RunKindManual, run.Kind)

	s.execute(notification.RunKindDailyCheck)
	assert.Equal(t, []notification.RunKind{notification.RunKindManual, notification.RunKindDailyCheck}, svc.kinds)
}

func TestScheduler_ExecuteLogsErrors(t *testing.T) {
	svc := &fakeService{err: errors.New("database unavailable")}
	s := NewNotificationScheduler(svc, logger.Discard(), time.UTC, "0 9 * * 1-5")

	assert.NotPanics(t, func() { s.execute(notification.RunKindDailyCheck) })
	assert.Len(t, svc.kinds, 1)
}
