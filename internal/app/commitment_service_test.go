package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"commitment_notifier/internal/domain/commitment"
	"commitment_notifier/internal/domain/company"
	idb "commitment_notifier/internal/infra/database"
	"commitment_notifier/internal/infra/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu       sync.Mutex
	notified []int64
}

func (n *recordingNotifier) NotifyNewCommitment(_ context.Context, c *commitment.Commitment) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = append(n.notified, c.ID)
	return nil
}

func newCommitmentFixture() (*CommitmentService, *fakeCommitmentRepo, *fakePaymentRepo, *recordingNotifier) {
	cr := newFakeCommitmentRepo()
	pr := &fakePaymentRepo{}
	n := &recordingNotifier{}
	svc := NewCommitmentService(cr, pr, &fakeCompanyRepo{items: []*company.Company{{ID: 1, Name: "Acme SAS"}}}, n, logger.Discard())
	return svc, cr, pr, n
}

func TestCommitmentService_CreateRecurring(t *testing.T) {
	svc, repo, _, notifier := newCommitmentFixture()

	created, err := svc.Create(context.Background(), CreateCommitmentInput{
		CompanyID:   1,
		Concept:     "  Arriendo ",
		Amount:      decimal.NewFromInt(2500000),
		DueDate:     time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		Periodicity: commitment.PeriodicityMonthly,
		Instances:   3,
	})
	require.NoError(t, err)
	svc.Wait()

	require.Len(t, created, 3)
	assert.Equal(t, "Arriendo", created[0].Concept)
	assert.Equal(t, "Arriendo - febrero 2025", created[1].Concept)
	assert.Equal(t, commitment.PriorityMedium, created[0].Priority)
	assert.Equal(t, commitment.StatusPending, created[2].Status)
	assert.Equal(t, created[0].RecurringGroup, created[2].RecurringGroup)
	assert.Len(t, repo.items, 3)
	assert.Equal(t, []int64{created[0].ID}, notifier.notified)
}

func TestCommitmentService_CreateValidation(t *testing.T) {
	svc, repo, _, _ := newCommitmentFixture()
	due := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	cases := map[string]CreateCommitmentInput{
		"missing concept":  {CompanyID: 1, DueDate: due},
		"negative amount":  {CompanyID: 1, Concept: "x", DueDate: due, Amount: decimal.NewFromInt(-1)},
		"missing due date": {CompanyID: 1, Concept: "x"},
		"bad priority":     {CompanyID: 1, Concept: "x", DueDate: due, Priority: "urgent"},
		"bad periodicity":  {CompanyID: 1, Concept: "x", DueDate: due, Periodicity: "weekly"},
		"too many instances": {CompanyID: 1, Concept: "x", DueDate: due, Periodicity: commitment.PeriodicityMonthly,
			Instances: commitment.MaxRecurringInstances + 1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), in)
			assert.ErrorIs(t, err, ErrInvalidCommitment)
		})
	}

	assert.Empty(t, repo.items)

	_, err := svc.Create(context.Background(), CreateCommitmentInput{CompanyID: 2, Concept: "x", DueDate: due})
	assert.ErrorIs(t, err, idb.ErrCompanyNotFound)
}

func TestCommitmentService_RegisterPayment(t *testing.T) {
	svc, repo, payments, _ := newCommitmentFixture()
	c := openCommitment(1, time.Now(), commitment.PriorityMedium, 1000000)
	repo.items[c.ID] = c
	ctx := context.Background()

	updated, err := svc.RegisterPayment(ctx, 1, &commitment.Payment{Amount: decimal.NewFromInt(500000)})
	require.NoError(t, err)
	assert.Equal(t, commitment.StatusPending, updated.Status)

	// 995.000 of 1.000.000 is within the 1% tolerance
	updated, err = svc.RegisterPayment(ctx, 1, &commitment.Payment{Amount: decimal.NewFromInt(495000), Reference: "TRX-2"})
	require.NoError(t, err)
	assert.Equal(t, commitment.StatusPaid, updated.Status)
	assert.Equal(t, commitment.StatusPaid, repo.items[1].Status)
	assert.Len(t, payments.items, 2)
	assert.Equal(t, "transfer", payments.items[1].Method)
	assert.False(t, payments.items[1].PaidAt.IsZero())

	_, err = svc.RegisterPayment(ctx, 1, &commitment.Payment{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrCommitmentAlreadyPaid)

	_, err = svc.RegisterPayment(ctx, 42, &commitment.Payment{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, idb.ErrCommitmentNotFound)

	_, err = svc.RegisterPayment(ctx, 1, &commitment.Payment{Amount: decimal.Zero})
	assert.ErrorIs(t, err, ErrInvalidPayment)
}

func TestIsFullyPaid(t *testing.T) {
	amount := decimal.NewFromInt(100000)
	assert.True(t, IsFullyPaid(amount, decimal.NewFromInt(100000)))
	assert.True(t, IsFullyPaid(amount, decimal.NewFromInt(120000)))
	assert.True(t, IsFullyPaid(amount, decimal.NewFromInt(99000)))
	assert.False(t, IsFullyPaid(amount, decimal.NewFromInt(98999)))
	assert.False(t, IsFullyPaid(amount, decimal.Zero))
}
