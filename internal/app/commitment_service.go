package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"commitment_notifier/internal/domain/commitment"
	"commitment_notifier/internal/domain/company"
	idb "commitment_notifier/internal/infra/database"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Application-level errors for commitment operations
var ErrInvalidCommitment = errors.New("invalid commitment")
var ErrInvalidPayment = errors.New("invalid payment")
var ErrCommitmentAlreadyPaid = errors.New("commitment is already paid")

// paidTolerance is the share of the amount that may remain unpaid for a
// commitment to count as fully paid.
var paidTolerance = decimal.NewFromFloat(0.01)

// newCommitmentNotifyTimeout bounds the background new-commitment alert.
const newCommitmentNotifyTimeout = 2 * time.Minute

// NewCommitmentNotifier is the part of the notification service used on creation.
type NewCommitmentNotifier interface {
	NotifyNewCommitment(ctx context.Context, c *commitment.Commitment) error
}

// CreateCommitmentInput is what a user submits to create a commitment.
type CreateCommitmentInput struct {
	CompanyID    int64
	Concept      string
	Beneficiary  string
	Amount       decimal.Decimal
	DueDate      time.Time
	Periodicity  commitment.Periodicity
	Priority     commitment.Priority
	Category     string
	Observations string
	Instances    int // Recurring instances to generate; 0 uses the default
}

type CommitmentService struct {
	commitmentRepo commitment.Repository
	paymentRepo    commitment.PaymentRepository
	companyRepo    company.Repository
	notifier       NewCommitmentNotifier // Optional
	logger         *logrus.Entry
	wg             sync.WaitGroup
}

func NewCommitmentService(cr commitment.Repository, pr commitment.PaymentRepository, compRepo company.Repository, notifier NewCommitmentNotifier, logger *logrus.Entry) *CommitmentService {
	return &CommitmentService{
		commitmentRepo: cr,
		paymentRepo:    pr,
		companyRepo:    compRepo,
		notifier:       notifier,
		logger:         logger,
	}
}

func validPriority(p commitment.Priority) bool {
	switch p {
	case commitment.PriorityCritical, commitment.PriorityHigh, commitment.PriorityMedium, commitment.PriorityLow:
		return true
	}
	return false
}

// Create stores a commitment and its recurring instances in one batch and
// alerts the subscribed users about the first one in the background.
func (s *CommitmentService) Create(ctx context.Context, in CreateCommitmentInput) ([]*commitment.Commitment, error) {
	in.Concept = strings.TrimSpace(in.Concept)
	if in.Concept == "" {
		return nil, fmt.Errorf("%w: concept is required", ErrInvalidCommitment)
	}
	if in.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount cannot be negative", ErrInvalidCommitment)
	}
	if in.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: due date is required", ErrInvalidCommitment)
	}
	if in.Priority == "" {
		in.Priority = commitment.PriorityMedium
	}
	if !validPriority(in.Priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidCommitment, in.Priority)
	}
	if in.Periodicity == "" {
		in.Periodicity = commitment.PeriodicityUnique
	}
	if in.Category == "" {
		in.Category = "general"
	}

	if _, err := s.companyRepo.GetByID(ctx, in.CompanyID); err != nil {
		if errors.Is(err, idb.ErrCompanyNotFound) {
			return nil, idb.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to check company: %w", err)
	}

	base := commitment.Commitment{
		CompanyID:    in.CompanyID,
		Concept:      in.Concept,
		Beneficiary:  strings.TrimSpace(in.Beneficiary),
		Amount:       in.Amount,
		Status:       commitment.StatusPending,
		Periodicity:  in.Periodicity,
		Priority:     in.Priority,
		Category:     in.Category,
		Observations: in.Observations,
	}
	base.DueDate.Time, base.DueDate.Valid = in.DueDate, true

	instances, err := commitment.GenerateRecurring(base, in.Instances)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommitment, err)
	}
	created := make([]*commitment.Commitment, len(instances))
	for i := range instances {
		created[i] = &instances[i]
	}
	if err := s.commitmentRepo.CreateBatch(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to store commitments: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"company_id":  in.CompanyID,
		"first_id":    created[0].ID,
		"instances":   len(created),
		"periodicity": in.Periodicity,
	}).Info("Commitment created")

	if s.notifier != nil {
		first := created[0]
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), newCommitmentNotifyTimeout)
			defer cancel()
			if err := s.notifier.NotifyNewCommitment(nctx, first); err != nil {
				s.logger.WithError(err).WithField("commitment_id", first.ID).Error("Failed to notify new commitment")
			}
		}()
	}
	return created, nil
}

// Wait blocks until background notifications started by Create finish.
func (s *CommitmentService) Wait() {
	s.wg.Wait()
}

// RegisterPayment stores a payment and marks the commitment paid once the
// payments cover its amount within a 1% tolerance.
func (s *CommitmentService) RegisterPayment(ctx context.Context, commitmentID int64, p *commitment.Payment) (*commitment.Commitment, error) {
	if p == nil || !p.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	}

	c, err := s.commitmentRepo.GetByID(ctx, commitmentID)
	if err != nil {
		if errors.Is(err, idb.ErrCommitmentNotFound) {
			return nil, idb.ErrCommitmentNotFound
		}
		return nil, fmt.Errorf("failed to get commitment: %w", err)
	}
	if c.Status == commitment.StatusPaid {
		return c, ErrCommitmentAlreadyPaid
	}

	p.CommitmentID = c.ID
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now()
	}
	if p.Method == "" {
		p.Method = "transfer"
	}
	if err := s.paymentRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to store payment: %w", err)
	}

	payments, err := s.paymentRepo.ListByCommitment(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	paid := decimal.Zero
	for _, pay := range payments {
		paid = paid.Add(pay.Amount)
	}

	log := s.logger.WithFields(logrus.Fields{"commitment_id": c.ID, "paid": paid.String(), "amount": c.Amount.String()})
	if IsFullyPaid(c.Amount, paid) {
		if err := s.commitmentRepo.MarkPaid(ctx, c.ID); err != nil {
			return nil, fmt.Errorf("failed to mark commitment as paid: %w", err)
		}
		c.Status = commitment.StatusPaid
		log.Info("Commitment fully paid")
	} else {
		log.Info("Partial payment registered")
	}
	return c, nil
}

// IsFullyPaid reports whether paid covers amount within the tolerance.
func IsFullyPaid(amount, paid decimal.Decimal) bool {
	if paid.GreaterThanOrEqual(amount) {
		return true
	}
	return amount.Sub(paid).LessThanOrEqual(amount.Mul(paidTolerance))
}
