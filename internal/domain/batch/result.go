package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of one seed query in a batch research request.
type Result struct {
	index      int
	query      string
	researchID string
	status     ItemStatus
	err        error
}

// NewOK creates a successful batch result.
func NewOK(index int, query, researchID string) Result {
	return Result{index: index, query: query, researchID: researchID, status: StatusOK}
}

// NewError creates a failed batch result. researchID may be empty when no record was created.
func NewError(index int, query, researchID string, err error) Result {
	return Result{index: index, query: query, researchID: researchID, status: StatusError, err: err}
}

// Index returns the item position in the request.
func (r Result) Index() int { return r.index }

// Query returns the seed query of the item.
func (r Result) Query() string { return r.query }

// ResearchID returns the created record, if any.
func (r Result) ResearchID() string { return r.researchID }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Summary counts results by outcome.
func Summary(results []Result) (ok, failed int) {
	for _, r := range results {
		if r.status == StatusOK {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}
