package usage

import (
	"fmt"

	"github.com/kailas-cloud/keywordlab/internal/domain/usage/budget"
	"github.com/kailas-cloud/keywordlab/internal/domain/usage/metrics"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodTotal Period = "total"
)

// ParsePeriod validates a period string; empty means month.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodMonth, nil
	case PeriodDay, PeriodMonth, PeriodTotal:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period %q (want day, month or total)", s)
	}
}

// Resource names a metered upstream: language model tokens or volume-lookup keywords.
type Resource string

// Metered resources.
const (
	ResourceLLM    Resource = "llm"
	ResourceVolume Resource = "volume"
)

// ParseResource validates a resource string; empty means llm.
func ParseResource(s string) (Resource, error) {
	switch r := Resource(s); r {
	case "":
		return ResourceLLM, nil
	case ResourceLLM, ResourceVolume:
		return r, nil
	default:
		return "", fmt.Errorf("unknown resource %q (want llm or volume)", s)
	}
}

// Report is the usage of one metered resource for a time period.
type Report struct {
	period      Period
	periodStart int64
	periodEnd   int64
	resource    Resource
	metrics     metrics.Metrics
	budget      budget.Budget
}

// NewReport creates a usage report.
func NewReport(period Period, start, end int64, res Resource, m metrics.Metrics, b budget.Budget) Report {
	return Report{
		period:      period,
		periodStart: start,
		periodEnd:   end,
		resource:    res,
		metrics:     m,
		budget:      b,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start timestamp (unix millis, 0 for total).
func (r *Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end timestamp (unix millis, 0 for total).
func (r *Report) PeriodEnd() int64 { return r.periodEnd }

// Resource returns the metered resource.
func (r *Report) Resource() Resource { return r.resource }

// Metrics returns the usage metrics.
func (r *Report) Metrics() metrics.Metrics { return r.metrics }

// Budget returns the budget status.
func (r *Report) Budget() budget.Budget { return r.budget }
