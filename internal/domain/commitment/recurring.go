package commitment

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultRecurringInstances is used when the caller does not ask for a count.
const DefaultRecurringInstances = 12

// MaxRecurringInstances caps a series at five years of monthly instances.
const MaxRecurringInstances = 60

// ErrTooManyInstances is returned when a series exceeds MaxRecurringInstances.
var ErrTooManyInstances = errors.New("too many recurring instances")

var periodicityMonths = map[Periodicity]int{
	PeriodicityMonthly:     1,
	PeriodicityBimonthly:   2,
	PeriodicityQuarterly:   3,
	PeriodicityFourMonthly: 4,
	PeriodicityBiannual:    6,
	PeriodicityAnnual:      12,
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// MonthInterval returns the number of months between two instances.
func (p Periodicity) MonthInterval() (int, bool) {
	m, ok := periodicityMonths[p]
	return m, ok
}

// GenerateRecurring expands a base commitment into its recurring instances.
// Unique commitments are returned as-is.
func GenerateRecurring(base Commitment, instances int) ([]Commitment, error) {
	if base.Periodicity == "" || base.Periodicity == PeriodicityUnique {
		base.InstanceNumber, base.TotalInstances = 1, 1
		return []Commitment{base}, nil
	}
	interval, ok := base.Periodicity.MonthInterval()
	if !ok {
		return nil, fmt.Errorf("unknown periodicity: %s", base.Periodicity)
	}
	if !base.DueDate.Valid {
		return nil, fmt.Errorf("recurring commitment requires a due date: %w", ErrInvalidDueDate)
	}
	if instances <= 0 {
		instances = DefaultRecurringInstances
	}
	if instances > MaxRecurringInstances {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyInstances, instances, MaxRecurringInstances)
	}

	group := sql.NullString{String: uuid.NewString(), Valid: true}
	first := base.DueDate.Time
	out := make([]Commitment, 0, instances)
	for i := 0; i < instances; i++ {
		c := base
		due := addMonthsClamped(first, i*interval)
		c.DueDate = sql.NullTime{Time: due, Valid: true}
		if i > 0 {
			c.Concept = fmt.Sprintf("%s - %s %d", base.Concept, spanishMonths[due.Month()-1], due.Year())
		}
		c.RecurringGroup = group
		c.InstanceNumber = i + 1
		c.TotalInstances = instances
		out = append(out, c)
	}
	return out, nil
}

// addMonthsClamped adds months to t, keeping the day within the target month.
// Jan 31 plus one month is the last day of February.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(target.Year(), target.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
