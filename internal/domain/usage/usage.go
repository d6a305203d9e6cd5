package usage

import (
	"errors"
	"fmt"
	"time"
)

// Period is the budget accounting window.
type Period string

// Accounting periods. Both are UTC calendar windows, matching the budget tracker.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ErrInvalidPeriod signals an unsupported period name.
var ErrInvalidPeriod = errors.New("invalid usage period")

// ParsePeriod validates a period name. Empty means PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("%w: %q (want day or month)", ErrInvalidPeriod, s)
	}
}

// Bounds returns the [start, end) UTC window of the period containing now.
func (p Period) Bounds(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	if p == PeriodMonth {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Report is embedding token consumption for one period.
type Report struct {
	period   Period
	start    time.Time
	end      time.Time
	provider string
	used     int64
	limit    int64
}

// NewReport creates a report. limit <= 0 means unlimited.
func NewReport(period Period, start, end time.Time, provider string, used, limit int64) Report {
	return Report{
		period:   period,
		start:    start,
		end:      end,
		provider: provider,
		used:     used,
		limit:    max(limit, 0),
	}
}

// Period returns the accounting window.
func (r Report) Period() Period { return r.period }

// PeriodStart returns the inclusive window start.
func (r Report) PeriodStart() time.Time { return r.start }

// PeriodEnd returns the exclusive window end, when the counters reset.
func (r Report) PeriodEnd() time.Time { return r.end }

// Provider returns the embedding provider the budget applies to.
func (r Report) Provider() string { return r.provider }

// Used returns tokens consumed in the window.
func (r Report) Used() int64 { return r.used }

// Limit returns the token limit, 0 if unlimited.
func (r Report) Limit() int64 { return r.limit }

// Unlimited reports whether no limit applies.
func (r Report) Unlimited() bool { return r.limit == 0 }

// Remaining returns tokens left, 0 when unlimited or overspent.
func (r Report) Remaining() int64 {
	if r.Unlimited() {
		return 0
	}
	return max(r.limit-r.used, 0)
}

// Exhausted reports whether a limit applies and nothing is left.
func (r Report) Exhausted() bool {
	return !r.Unlimited() && r.used >= r.limit
}
