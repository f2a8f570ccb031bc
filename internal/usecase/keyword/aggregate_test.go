package keyword

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/keywordlab/internal/domain"
)

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func TestAggregate_MatchaPool(t *testing.T) {
	a := NewAggregator(
		staticSuggester([]string{"matcha latte", "matcha cake"}, nil),
		staticAutosuggester([]string{"matcha recipe easy", "matcha latte"}, nil),
		0, zap.NewNop(),
	)

	got := a.Aggregate(context.Background(), AggregateInput{Query: "matcha recipe"})

	want := []string{"matcha cake", "matcha latte", "matcha recipe", "matcha recipe easy"}
	if diff := cmp.Diff(want, sorted(got.Pool)); diff != "" {
		t.Errorf("pool mismatch (-want +got):\n%s", diff)
	}
	if got.Pool[0] != "matcha recipe" {
		t.Errorf("seed must lead the pool, got %q", got.Pool[0])
	}
	if diff := cmp.Diff([]string{"matcha latte", "matcha cake"}, got.AI); diff != "" {
		t.Errorf("ai mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_SeedAlreadyPresent(t *testing.T) {
	a := NewAggregator(
		staticSuggester([]string{"Matcha Recipe", "matcha tea"}, nil),
		nil, 0, zap.NewNop(),
	)

	got := a.Aggregate(context.Background(), AggregateInput{Query: "matcha recipe"})

	if diff := cmp.Diff([]string{"matcha recipe", "matcha tea"}, got.Pool); diff != "" {
		t.Errorf("pool mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_SourceFailureIsEmpty(t *testing.T) {
	a := NewAggregator(
		staticSuggester(nil, domain.ErrLLMProviderError),
		staticAutosuggester([]string{"matcha powder", " ", ""}, nil),
		0, zap.NewNop(),
	)

	got := a.Aggregate(context.Background(), AggregateInput{Query: "matcha"})

	if diff := cmp.Diff([]string{"matcha", "matcha powder"}, got.Pool); diff != "" {
		t.Errorf("pool mismatch (-want +got):\n%s", diff)
	}
	if len(got.AI) != 0 {
		t.Errorf("expected empty AI list, got %v", got.AI)
	}
}

func TestAggregate_BothSourcesFail(t *testing.T) {
	a := NewAggregator(
		staticSuggester(nil, errors.New("boom")),
		staticAutosuggester(nil, errors.New("boom")),
		0, zap.NewNop(),
	)

	got := a.Aggregate(context.Background(), AggregateInput{Query: "matcha"})

	if diff := cmp.Diff([]string{"matcha"}, got.Pool); diff != "" {
		t.Errorf("pool mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_OneFailureDoesNotCancelOther(t *testing.T) {
	a := NewAggregator(
		staticSuggester(nil, errors.New("boom")),
		&mockAutosuggester{fn: func(ctx context.Context, _ domain.AutosuggestRequest) ([]string, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return []string{"matcha whisk"}, nil
		}},
		0, zap.NewNop(),
	)

	got := a.Aggregate(context.Background(), AggregateInput{Query: "matcha"})

	if len(got.Engine) != 1 {
		t.Errorf("expected engine suggestions to survive, got %v", got.Engine)
	}
}

func TestAggregate_PassesOptions(t *testing.T) {
	var gotCount int
	var gotReq domain.AutosuggestRequest
	a := NewAggregator(
		&mockSuggester{fn: func(_ context.Context, _, _, _ string, count int) ([]string, error) {
			gotCount = count
			return nil, nil
		}},
		&mockAutosuggester{fn: func(_ context.Context, req domain.AutosuggestRequest) ([]string, error) {
			gotReq = req
			return nil, nil
		}},
		15, zap.NewNop(),
	)

	a.Aggregate(context.Background(), AggregateInput{
		Query: "q", Region: "de", Language: "de", SearchEngine: "youtube", Alphabet: true, Symbols: true,
	})

	if gotCount != 15 {
		t.Errorf("count = %d, want 15", gotCount)
	}
	want := domain.AutosuggestRequest{
		Query: "q", Region: "de", Language: "de", Engine: "youtube", Alphabet: true, Symbols: true,
	}
	if diff := cmp.Diff(want, gotReq); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}
