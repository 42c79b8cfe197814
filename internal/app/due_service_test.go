package app

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"commitment_notifier/internal/domain/commitment"
	"commitment_notifier/internal/infra/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bogota(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Bogota")
	if err != nil {
		return time.FixedZone("COT", -5*3600)
	}
	return loc
}

func openCommitment(id int64, due time.Time, priority commitment.Priority, amount int64) *commitment.Commitment {
	return &commitment.Commitment{
		ID:        id,
		CompanyID: 1,
		Concept:   "Compromiso",
		Amount:    decimal.NewFromInt(amount),
		DueDate:   sql.NullTime{Time: due, Valid: true},
		Status:    commitment.StatusPending,
		Priority:  priority,
	}
}

func TestDueCommitmentService_ListActive(t *testing.T) {
	loc := bogota(t)
	now := time.Date(2025, 5, 14, 10, 0, 0, 0, loc)
	day := func(offset int) time.Time { return time.Date(2025, 5, 14+offset, 9, 0, 0, 0, loc) }

	overdue := openCommitment(1, day(-3), commitment.PriorityLow, 300)
	overdue.Status = commitment.StatusOverdue
	tomorrow := openCommitment(2, day(1), commitment.PriorityLow, 100)
	inThree := openCommitment(3, day(3), commitment.PriorityMedium, 200)
	inTen := openCommitment(4, day(10), commitment.PriorityCritical, 999)
	missing := openCommitment(5, time.Time{}, commitment.PriorityHigh, 50)
	missing.DueDate = sql.NullTime{}
	inSeven := openCommitment(6, day(7), commitment.PriorityHigh, 400)

	repo := newFakeCommitmentRepo(overdue, tomorrow, inThree, inTen, missing, inSeven)
	svc := NewDueCommitmentService(repo, loc, logger.Discard())

	var list []ActiveCommitment
	require.NotPanics(t, func() {
		var err error
		list, err = svc.ListActive(context.Background(), now)
		require.NoError(t, err)
	})

	ids := make([]int64, len(list))
	for i, a := range list {
		ids[i] = a.Commitment.ID
	}
	// critical first, then high by due date, then medium
	assert.Equal(t, []int64{1, 2, 6, 3}, ids)

	assert.Equal(t, commitment.Classification{Status: commitment.AttentionOverdue, Priority: commitment.PriorityCritical, DaysUntilDue: -3}, list[0].Classification)
	assert.Equal(t, commitment.Classification{Status: commitment.AttentionDueSoon, Priority: commitment.PriorityHigh, DaysUntilDue: 1}, list[1].Classification)
	assert.Equal(t, commitment.AttentionUpcoming, list[2].Classification.Status)
	assert.Equal(t, commitment.AttentionDueSoon, list[3].Classification.Status)
	assert.Equal(t, commitment.PriorityMedium, list[3].Classification.Priority)

	st := Stats(list)
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 1, st.Overdue)
	assert.Equal(t, 2, st.DueSoon)
	assert.Equal(t, 1, st.Upcoming)
	assert.True(t, st.TotalAmount.Equal(decimal.NewFromInt(1000)), st.TotalAmount.String())
	assert.True(t, st.OverdueAmount.Equal(decimal.NewFromInt(300)))
	assert.True(t, st.AverageAmount.Equal(decimal.NewFromInt(250)))

	assert.Len(t, ByPriority(list, "high"), 2)
	assert.Len(t, ByPriority(list, FilterAll), 4)
	assert.Len(t, ByStatus(list, "due_soon"), 2)
	assert.Len(t, ByStatus(list, ""), 4)
}

func TestDueCommitmentService_RepositoryError(t *testing.T) {
	repo := newFakeCommitmentRepo()
	repo.err = errors.New("connection refused")
	svc := NewDueCommitmentService(repo, time.UTC, logger.Discard())

	_, err := svc.ListActive(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestStats_Empty(t *testing.T) {
	st := Stats(nil)
	assert.Zero(t, st.Total)
	assert.True(t, st.AverageAmount.IsZero())
}
