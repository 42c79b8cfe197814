// internal/app/due_service.go
package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"commitment_notifier/internal/domain/commitment"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// FilterAll disables a priority or status filter.
const FilterAll = "all"

// ActiveCommitment is an open commitment inside the attention window,
// together with its current classification.
type ActiveCommitment struct {
	Commitment     *commitment.Commitment
	DueDate        time.Time
	Classification commitment.Classification
}

// DueStats summarizes a list of active commitments.
type DueStats struct {
	Total         int
	Overdue       int
	DueSoon       int
	Upcoming      int
	TotalAmount   decimal.Decimal
	OverdueAmount decimal.Decimal
	AverageAmount decimal.Decimal
}

// DueCommitmentService computes the commitments that need attention.
type DueCommitmentService struct {
	commitmentRepo commitment.Repository
	loc            *time.Location
	logger         *logrus.Entry
}

func NewDueCommitmentService(cr commitment.Repository, loc *time.Location, logger *logrus.Entry) *DueCommitmentService {
	if loc == nil {
		loc = time.UTC
	}
	return &DueCommitmentService{commitmentRepo: cr, loc: loc, logger: logger}
}

// Location is the time zone calendar days are counted in.
func (s *DueCommitmentService) Location() *time.Location {
	return s.loc
}

// ListActive returns open commitments due within the next week or already
// overdue, ordered by priority and then due date. Commitments without a
// usable due date are skipped.
func (s *DueCommitmentService) ListActive(ctx context.Context, now time.Time) ([]ActiveCommitment, error) {
	open, err := s.commitmentRepo.ListByStatuses(ctx, []commitment.Status{commitment.StatusPending, commitment.StatusOverdue})
	if err != nil {
		return nil, fmt.Errorf("failed to list open commitments: %w", err)
	}

	active := make([]ActiveCommitment, 0, len(open))
	for _, c := range open {
		due, err := commitment.ParseDueDate(c.DueDate, s.loc)
		if err != nil {
			s.logger.WithField("commitment_id", c.ID).WithError(err).Warn("Skipping commitment with invalid due date")
			continue
		}
		cl := commitment.Classify(due, now, c.Priority, s.loc)
		if !cl.InActiveWindow() {
			continue
		}
		active = append(active, ActiveCommitment{Commitment: c, DueDate: due, Classification: cl})
	}

	sort.SliceStable(active, func(i, j int) bool {
		ri, rj := active[i].Classification.Priority.Rank(), active[j].Classification.Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return active[i].DueDate.Before(active[j].DueDate)
	})

	s.logger.WithFields(logrus.Fields{"open": len(open), "active": len(active)}).Debug("Active commitments computed")
	return active, nil
}

// Stats aggregates counts and amounts over list.
func Stats(list []ActiveCommitment) DueStats {
	st := DueStats{
		Total:         len(list),
		TotalAmount:   decimal.Zero,
		OverdueAmount: decimal.Zero,
		AverageAmount: decimal.Zero,
	}
	for _, a := range list {
		st.TotalAmount = st.TotalAmount.Add(a.Commitment.Amount)
		switch a.Classification.Status {
		case commitment.AttentionOverdue:
			st.Overdue++
			st.OverdueAmount = st.OverdueAmount.Add(a.Commitment.Amount)
		case commitment.AttentionDueSoon:
			st.DueSoon++
		case commitment.AttentionUpcoming:
			st.Upcoming++
		}
	}
	if st.Total > 0 {
		st.AverageAmount = st.TotalAmount.Div(decimal.NewFromInt(int64(st.Total))).Round(2)
	}
	return st
}

// ByPriority keeps the entries with the given computed priority.
func ByPriority(list []ActiveCommitment, priority string) []ActiveCommitment {
	if priority == "" || priority == FilterAll {
		return list
	}
	out := make([]ActiveCommitment, 0, len(list))
	for _, a := range list {
		if string(a.Classification.Priority) == priority {
			out = append(out, a)
		}
	}
	return out
}

// ByStatus keeps the entries with the given attention status.
func ByStatus(list []ActiveCommitment, status string) []ActiveCommitment {
	if status == "" || status == FilterAll {
		return list
	}
	out := make([]ActiveCommitment, 0, len(list))
	for _, a := range list {
		if string(a.Classification.Status) == status {
			out = append(out, a)
		}
	}
	return out
}
