package keywordlab

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/keywordlab/internal/domain/usage"
)

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
	PeriodTotal UsagePeriod = "total"
)

// Resource is a metered upstream.
type Resource string

// Resource constants.
const (
	ResourceLLM    Resource = "llm"    // units are tokens
	ResourceVolume Resource = "volume" // units are keywords looked up
)

// UsageReport contains usage statistics of one resource for a time period.
type UsageReport struct {
	Period      UsagePeriod
	Resource    Resource
	PeriodStart time.Time
	PeriodEnd   time.Time
	Requests    int64
	Units       int64
	Budget      BudgetStatus
}

// BudgetStatus tracks quota state. Limit 0 means unlimited.
type BudgetStatus struct {
	Limit       int64
	Remaining   int64
	IsExhausted bool
	ResetsAt    time.Time
}

// Usage returns a usage report for res over period.
// Observer always records success: reports are read from in-memory counters.
func (c *Client) Usage(ctx context.Context, res Resource, period UsagePeriod) UsageReport {
	start := time.Now()
	defer func() { c.obs.observe("usage", start, nil) }()

	report := c.usageSvc.GetReport(ctx, domusage.Resource(res), domusage.Period(period))
	m := report.Metrics()
	b := report.Budget()

	out := UsageReport{
		Period:   UsagePeriod(report.Period()),
		Resource: Resource(report.Resource()),
		Requests: m.Requests(),
		Units:    m.Units(),
		Budget: BudgetStatus{
			Limit:       b.Limit(),
			Remaining:   b.Remaining(),
			IsExhausted: b.IsExhausted(),
		},
	}
	if report.PeriodEnd() > 0 {
		out.PeriodStart = time.UnixMilli(report.PeriodStart()).UTC()
		out.PeriodEnd = time.UnixMilli(report.PeriodEnd()).UTC()
	}
	if b.ResetsAt() > 0 {
		out.Budget.ResetsAt = time.UnixMilli(b.ResetsAt()).UTC()
	}
	return out
}

// usageUseCase is the internal interface for usage reports.
type usageUseCase interface {
	GetReport(ctx context.Context, res domusage.Resource, period domusage.Period) domusage.Report
}
