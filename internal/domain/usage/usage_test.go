package usage

import (
	"testing"

	"github.com/kailas-cloud/keywordlab/internal/domain/usage/budget"
	"github.com/kailas-cloud/keywordlab/internal/domain/usage/metrics"
)

func TestNewReport(t *testing.T) {
	m := metrics.New(12, 3840)
	b := budget.New(100000, 96160, false, 1700000000000)

	r := NewReport(PeriodMonth, 1700000000, 1702600000, ResourceLLM, m, b)

	if r.Period() != PeriodMonth {
		t.Errorf("Period() = %q", r.Period())
	}
	if r.PeriodStart() != 1700000000 || r.PeriodEnd() != 1702600000 {
		t.Errorf("period = %d..%d", r.PeriodStart(), r.PeriodEnd())
	}
	if r.Resource() != ResourceLLM {
		t.Errorf("Resource() = %q", r.Resource())
	}
	if r.Metrics().Units() != 3840 {
		t.Errorf("Metrics().Units() = %d", r.Metrics().Units())
	}
	if r.Budget().Limit() != 100000 {
		t.Errorf("Budget().Limit() = %d", r.Budget().Limit())
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", PeriodMonth, false},
		{"day", PeriodDay, false},
		{"month", PeriodMonth, false},
		{"total", PeriodTotal, false},
		{"week", "", true},
	}
	for _, tc := range tests {
		got, err := ParsePeriod(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParsePeriod(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestParseResource(t *testing.T) {
	if r, err := ParseResource(""); err != nil || r != ResourceLLM {
		t.Errorf("ParseResource(\"\") = %q, %v", r, err)
	}
	if r, err := ParseResource("volume"); err != nil || r != ResourceVolume {
		t.Errorf("ParseResource(volume) = %q, %v", r, err)
	}
	if _, err := ParseResource("gpu"); err == nil {
		t.Error("expected error")
	}
}
