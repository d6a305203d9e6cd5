package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/prodsearch/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	start, end := period.Bounds(s.now())
	if s.br == nil {
		return domusage.NewReport(period, start, end, "", 0, 0)
	}

	used, limit := s.br.DailyUsed(), s.br.DailyLimit()
	if period == domusage.PeriodMonth {
		used, limit = s.br.MonthlyUsed(), s.br.MonthlyLimit()
	}
	return domusage.NewReport(period, start, end, s.br.Provider(), used, limit)
}
