package metrics

// Metrics holds the consumption of one metered resource for a time period.
type Metrics struct {
	requests int64
	units    int64
}

// New creates a Metrics snapshot.
func New(requests, units int64) Metrics {
	return Metrics{requests: requests, units: units}
}

// Requests returns the number of upstream calls recorded by this process.
func (m Metrics) Requests() int64 { return m.requests }

// Units returns the consumed units (tokens or keywords).
func (m Metrics) Units() int64 { return m.units }
