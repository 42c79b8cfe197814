package commitment

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Priority of a commitment in attention lists.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank orders priorities for sorting, most urgent first.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 2
	}
}

// AttentionStatus is the derived, never persisted, due state of a commitment.
type AttentionStatus string

const (
	AttentionOverdue  AttentionStatus = "overdue"
	AttentionDueSoon  AttentionStatus = "due_soon"
	AttentionUpcoming AttentionStatus = "upcoming"
)

// ActiveWindowDays is the inclusion limit of the active-attention view.
const ActiveWindowDays = 7

// ErrInvalidDueDate is returned when a due date is missing or cannot be parsed.
var ErrInvalidDueDate = errors.New("invalid due date")

// Classification is the result of evaluating a due date at a given instant.
type Classification struct {
	Status       AttentionStatus
	Priority     Priority
	DaysUntilDue int
}

// InActiveWindow reports whether the commitment belongs to the active-attention list.
func (c Classification) InActiveWindow() bool {
	return c.DaysUntilDue <= ActiveWindowDays
}

// DaysUntilDue returns the number of calendar days between now and due,
// both taken as dates in loc. Negative values mean the due date has passed.
func DaysUntilDue(due, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	d := due.In(loc)
	n := now.In(loc)
	dueDay := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	return int(dueDay.Sub(today).Hours() / 24)
}

// Classify assigns the attention status and effective priority of a due date.
func Classify(due, now time.Time, base Priority, loc *time.Location) Classification {
	if base == "" {
		base = PriorityMedium
	}
	days := DaysUntilDue(due, now, loc)
	c := Classification{Status: AttentionUpcoming, Priority: base, DaysUntilDue: days}

	switch {
	case days < 0:
		c.Status = AttentionOverdue
		c.Priority = PriorityCritical
	case days <= 1:
		c.Status = AttentionDueSoon
		if base.Rank() > PriorityHigh.Rank() {
			c.Priority = PriorityHigh
		}
	case days <= 3:
		c.Status = AttentionDueSoon
	}
	return c
}

var dueDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// ParseDueDate converts the due date representations found in stored and
// imported records into a time. Strings without a zone are read in loc
// (UTC when nil). Missing or zero values are rejected.
func ParseDueDate(v any, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	var t time.Time
	switch val := v.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("%w: missing", ErrInvalidDueDate)
	case time.Time:
		t = val
	case *time.Time:
		if val == nil {
			return time.Time{}, fmt.Errorf("%w: missing", ErrInvalidDueDate)
		}
		t = *val
	case sql.NullTime:
		if !val.Valid {
			return time.Time{}, fmt.Errorf("%w: missing", ErrInvalidDueDate)
		}
		t = val.Time
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, fmt.Errorf("%w: empty string", ErrInvalidDueDate)
		}
		parsed := false
		for _, layout := range dueDateLayouts {
			if p, err := time.ParseInLocation(layout, s, loc); err == nil {
				t, parsed = p, true
				break
			}
		}
		if !parsed {
			return time.Time{}, fmt.Errorf("%w: unrecognized format %q", ErrInvalidDueDate, s)
		}
	case int64:
		t = time.UnixMilli(val)
	case int:
		t = time.UnixMilli(int64(val))
	case float64:
		if val != val { // NaN
			return time.Time{}, fmt.Errorf("%w: NaN", ErrInvalidDueDate)
		}
		t = time.UnixMilli(int64(val))
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidDueDate, v)
	}
	if t.IsZero() || t.Unix() <= 0 {
		return time.Time{}, fmt.Errorf("%w: zero value", ErrInvalidDueDate)
	}
	return t, nil
}
