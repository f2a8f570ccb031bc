package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/keywordlab/internal/domain/usage"
	"github.com/kailas-cloud/keywordlab/internal/domain/usage/budget"
	"github.com/kailas-cloud/keywordlab/internal/domain/usage/metrics"
)

// Service handles usage reporting for the metered resources.
type Service struct {
	readers map[domusage.Resource]BudgetReader
	timeNow func() time.Time
}

// New creates a Service. A resource without a reader reports as unlimited.
func New(readers map[domusage.Resource]BudgetReader) *Service {
	if readers == nil {
		readers = map[domusage.Resource]BudgetReader{}
	}
	return &Service{
		readers: readers,
		timeNow: func() time.Time { return time.Now().UTC() },
	}
}

// GetReport builds a usage report for one resource and period.
func (s *Service) GetReport(_ context.Context, res domusage.Resource, period domusage.Period) domusage.Report {
	now := s.timeNow()
	br := s.readers[res]

	var start, end int64
	var limit, used, remaining, requests int64
	remaining = -1

	switch period {
	case domusage.PeriodDay:
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		start = dayStart.UnixMilli()
		end = dayStart.Add(24 * time.Hour).UnixMilli()
		if br != nil {
			limit, used, remaining = br.DailyLimit(), br.DailyUsed(), br.RemainingDaily()
		}
	case domusage.PeriodMonth:
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		start = monthStart.UnixMilli()
		end = monthStart.AddDate(0, 1, 0).UnixMilli()
		if br != nil {
			limit, used, remaining = br.MonthlyLimit(), br.MonthlyUsed(), br.RemainingMonthly()
		}
	default:
		// total: no period boundaries, capped by the monthly limit
		if br != nil {
			limit, used, remaining = br.MonthlyLimit(), br.MonthlyUsed(), br.RemainingMonthly()
		}
	}
	if br != nil {
		requests = br.Requests()
	}

	exhausted := limit > 0 && remaining == 0
	b := budget.New(limit, remaining, exhausted, end)
	m := metrics.New(requests, used)

	return domusage.NewReport(period, start, end, res, m, b)
}
