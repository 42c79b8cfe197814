package app

import (
	"context"
	"errors"
	"fmt"

	"commitment_notifier/internal/domain/commitment"
	"commitment_notifier/internal/domain/company"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for maintenance operations
var ErrConfirmationRequired = errors.New("destructive operation requires confirmation (--confirm)")

// OrphanReport lists the inconsistent records found by DiagnoseOrphans.
type OrphanReport struct {
	CommitmentsWithoutCompany []*commitment.Commitment
	PaymentsWithoutCommitment []*commitment.Payment
	PaidWithoutPayment        []*commitment.Commitment
}

// Empty reports whether nothing needs fixing.
func (r *OrphanReport) Empty() bool {
	return len(r.CommitmentsWithoutCompany) == 0 && len(r.PaymentsWithoutCommitment) == 0 && len(r.PaidWithoutPayment) == 0
}

// MaintenanceService finds and repairs records left inconsistent by deletions.
// Every repair is a dry run unless confirm is true.
type MaintenanceService struct {
	commitmentRepo commitment.Repository
	paymentRepo    commitment.PaymentRepository
	companyRepo    company.Repository
	logger         *logrus.Entry
}

func NewMaintenanceService(cr commitment.Repository, pr commitment.PaymentRepository, compRepo company.Repository, logger *logrus.Entry) *MaintenanceService {
	return &MaintenanceService{
		commitmentRepo: cr,
		paymentRepo:    pr,
		companyRepo:    compRepo,
		logger:         logger,
	}
}

// DiagnoseOrphans loads every commitment, payment and company and reports the
// dangling references. Nothing is modified.
func (s *MaintenanceService) DiagnoseOrphans(ctx context.Context) (*OrphanReport, error) {
	companies, err := s.companyRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	commitments, err := s.commitmentRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list commitments: %w", err)
	}
	payments, err := s.paymentRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	companyIDs := make(map[int64]bool, len(companies))
	for _, c := range companies {
		companyIDs[c.ID] = true
	}
	commitmentIDs := make(map[int64]bool, len(commitments))
	for _, c := range commitments {
		commitmentIDs[c.ID] = true
	}
	paidIDs := make(map[int64]bool, len(payments))

	report := &OrphanReport{}
	for _, p := range payments {
		paidIDs[p.CommitmentID] = true
		if !commitmentIDs[p.CommitmentID] {
			report.PaymentsWithoutCommitment = append(report.PaymentsWithoutCommitment, p)
		}
	}
	for _, c := range commitments {
		if c.Orphaned {
			continue
		}
		if !companyIDs[c.CompanyID] {
			report.CommitmentsWithoutCompany = append(report.CommitmentsWithoutCompany, c)
		}
		if c.Status == commitment.StatusPaid && !paidIDs[c.ID] {
			report.PaidWithoutPayment = append(report.PaidWithoutPayment, c)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"commitments_without_company": len(report.CommitmentsWithoutCompany),
		"payments_without_commitment": len(report.PaymentsWithoutCommitment),
		"paid_without_payment":        len(report.PaidWithoutPayment),
	}).Info("Orphan diagnosis completed")
	return report, nil
}

// CleanupOrphanedCommitments soft-marks commitments whose company no longer
// exists. Returns the number of affected commitments, or the number that
// would be affected together with ErrConfirmationRequired on a dry run.
func (s *MaintenanceService) CleanupOrphanedCommitments(ctx context.Context, confirm bool) (int64, error) {
	report, err := s.DiagnoseOrphans(ctx)
	if err != nil {
		return 0, err
	}
	ids := commitmentIDs(report.CommitmentsWithoutCompany)
	return s.apply(ctx, "mark_orphaned_commitments", ids, confirm, s.commitmentRepo.MarkOrphaned)
}

// CleanupOrphanedPayments deletes payments whose commitment no longer exists.
func (s *MaintenanceService) CleanupOrphanedPayments(ctx context.Context, confirm bool) (int64, error) {
	report, err := s.DiagnoseOrphans(ctx)
	if err != nil {
		return 0, err
	}
	ids := make([]int64, 0, len(report.PaymentsWithoutCommitment))
	for _, p := range report.PaymentsWithoutCommitment {
		ids = append(ids, p.ID)
	}
	return s.apply(ctx, "delete_orphaned_payments", ids, confirm, s.paymentRepo.Delete)
}

// FixPaidWithoutPayment resets commitments marked paid that have no payment.
func (s *MaintenanceService) FixPaidWithoutPayment(ctx context.Context, confirm bool) (int64, error) {
	report, err := s.DiagnoseOrphans(ctx)
	if err != nil {
		return 0, err
	}
	ids := commitmentIDs(report.PaidWithoutPayment)
	return s.apply(ctx, "reset_paid_without_payment", ids, confirm, s.commitmentRepo.ResetToPending)
}

func commitmentIDs(list []*commitment.Commitment) []int64 {
	ids := make([]int64, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	return ids
}

func (s *MaintenanceService) apply(ctx context.Context, op string, ids []int64, confirm bool, fn func(context.Context, []int64) (int64, error)) (int64, error) {
	log := s.logger.WithFields(logrus.Fields{"operation": op, "candidates": len(ids)})
	if len(ids) == 0 {
		log.Info("Nothing to clean up")
		return 0, nil
	}
	if !confirm {
		log.Warn("Dry run, no changes made")
		return int64(len(ids)), ErrConfirmationRequired
	}
	n, err := fn(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("%s failed: %w", op, err)
	}
	log.WithField("affected", n).Info("Cleanup applied")
	return n, nil
}
