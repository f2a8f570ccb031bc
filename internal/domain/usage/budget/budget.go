package budget

// Budget is a snapshot of a metered resource cap. Units are tokens for the
// language model and keywords for volume lookups.
type Budget struct {
	limit       int64
	remaining   int64
	isExhausted bool
	resetsAt    int64 // unix millis, converted to ISO 8601 at transport layer
}

// New creates a Budget snapshot. limit 0 means unlimited.
func New(limit, remaining int64, isExhausted bool, resetsAt int64) Budget {
	return Budget{
		limit:       limit,
		remaining:   remaining,
		isExhausted: isExhausted,
		resetsAt:    resetsAt,
	}
}

// Limit returns the cap in units.
func (b Budget) Limit() int64 { return b.limit }

// Remaining returns units left (-1 when unlimited).
func (b Budget) Remaining() int64 { return b.remaining }

// Unlimited reports whether no cap is configured.
func (b Budget) Unlimited() bool { return b.limit == 0 }

// IsExhausted reports whether the budget is spent.
func (b Budget) IsExhausted() bool { return b.isExhausted }

// ResetsAt returns the reset timestamp (unix millis).
func (b Budget) ResetsAt() int64 { return b.resetsAt }
