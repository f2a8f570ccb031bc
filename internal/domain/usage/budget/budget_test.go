package budget

import "testing"

func TestNew(t *testing.T) {
	b := New(1000000, 615800, false, 1700000000000)
	if b.Limit() != 1000000 {
		t.Errorf("Limit() = %d", b.Limit())
	}
	if b.Remaining() != 615800 {
		t.Errorf("Remaining() = %d", b.Remaining())
	}
	if b.IsExhausted() || b.Unlimited() {
		t.Error("expected a limited, non-exhausted budget")
	}
	if b.ResetsAt() != 1700000000000 {
		t.Errorf("ResetsAt() = %d", b.ResetsAt())
	}
}

func TestNew_Unlimited(t *testing.T) {
	b := New(0, -1, false, 0)
	if !b.Unlimited() {
		t.Error("Unlimited() = false, want true")
	}
}

func TestNew_Exhausted(t *testing.T) {
	b := New(1000, 0, true, 0)
	if !b.IsExhausted() {
		t.Error("IsExhausted() = false, want true")
	}
}
