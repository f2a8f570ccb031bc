package budget

import "context"

// Checker is the local interface for budget enforcement.
type Checker interface {
	Check(ctx context.Context) error
	Record(units int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}
