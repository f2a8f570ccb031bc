package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/keywordlab/internal/domain"
)

type mockCompleter struct {
	fn   func(req domain.CompletionRequest) (domain.CompletionResult, error)
	reqs []domain.CompletionRequest
}

func (m *mockCompleter) Complete(_ context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	m.reqs = append(m.reqs, req)
	return m.fn(req)
}

func reply(text string) *mockCompleter {
	return &mockCompleter{fn: func(domain.CompletionRequest) (domain.CompletionResult, error) {
		return domain.CompletionResult{Text: text}, nil
	}}
}

func TestSuggestKeywords(t *testing.T) {
	c := reply(`{"keywords": ["matcha latte", "Matcha Latte", "matcha cake", " ", "matcha tea"]}`)
	svc := New(c, Models{Suggest: "gpt-4o-mini"}, zap.NewNop())

	got, err := svc.SuggestKeywords(context.Background(), "matcha", "us", "en", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"matcha latte", "matcha cake"}, got); diff != "" {
		t.Errorf("keywords (-want +got):\n%s", diff)
	}
	req := c.reqs[0]
	if !req.Cacheable || !req.JSON || req.Model != "gpt-4o-mini" {
		t.Errorf("request = %+v", req)
	}
	if !strings.Contains(req.Prompt, "matcha") {
		t.Error("prompt must contain the seed")
	}
}

func TestSuggestKeywords_FencedArray(t *testing.T) {
	svc := New(reply("```json\n[\"a\", \"b\"]\n```"), Models{}, zap.NewNop())

	got, err := svc.SuggestKeywords(context.Background(), "q", "us", "en", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("keywords (-want +got):\n%s", diff)
	}
}

func TestSuggestKeywords_Errors(t *testing.T) {
	svc := New(reply("sorry, I cannot help"), Models{}, zap.NewNop())
	if _, err := svc.SuggestKeywords(context.Background(), "q", "us", "en", 5); !errors.Is(err, domain.ErrMalformedOutput) {
		t.Errorf("err = %v", err)
	}

	failing := &mockCompleter{fn: func(domain.CompletionRequest) (domain.CompletionResult, error) {
		return domain.CompletionResult{}, domain.ErrRateLimited
	}}
	svc = New(failing, Models{}, zap.NewNop())
	if _, err := svc.SuggestKeywords(context.Background(), "q", "us", "en", 5); !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("err = %v", err)
	}
}

func TestClusterKeywords(t *testing.T) {
	c := reply(`{"clusters": {"drinks": ["matcha latte", "iced matcha"], " ": ["x"], "baking": ["matcha cake"]}}`)
	svc := New(c, Models{Cluster: "default-model"}, zap.NewNop())

	got, err := svc.ClusterKeywords(context.Background(),
		[]string{"matcha latte", "iced matcha", "matcha cake", "matcha tea", "matcha powder"}, "override")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string][]string{
		"drinks": {"matcha latte", "iced matcha"},
		"baking": {"matcha cake"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("clusters (-want +got):\n%s", diff)
	}
	if c.reqs[0].Model != "override" || c.reqs[0].Cacheable {
		t.Errorf("request = %+v", c.reqs[0])
	}
}

func TestClusterKeywords_FlatObject(t *testing.T) {
	svc := New(reply(`{"drinks": ["a", "b", "c", "d", "e"]}`), Models{}, zap.NewNop())

	got, err := svc.ClusterKeywords(context.Background(), []string{"a", "b", "c", "d", "e"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got["drinks"]) != 5 {
		t.Errorf("clusters = %v", got)
	}
}

func TestClusterKeywords_MinimumInput(t *testing.T) {
	c := reply(`{}`)
	svc := New(c, Models{}, zap.NewNop())

	_, err := svc.ClusterKeywords(context.Background(), []string{"a", "b", "A", "c", "d"}, "")

	if !errors.Is(err, domain.ErrInsufficientKeywords) {
		t.Errorf("err = %v", err)
	}
	if len(c.reqs) != 0 {
		t.Error("completer must not be called")
	}
}

func TestClusterKeywords_Malformed(t *testing.T) {
	svc := New(reply(`{"clusters": []}`), Models{}, zap.NewNop())

	_, err := svc.ClusterKeywords(context.Background(), []string{"a", "b", "c", "d", "e"}, "")

	if !errors.Is(err, domain.ErrMalformedOutput) {
		t.Errorf("err = %v", err)
	}
}

func TestDescribePersona(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr error
	}{
		{"json", `{"description": " Busy professionals. "}`, "Busy professionals.", nil},
		{"prose", "Busy professionals who want energy.", "Busy professionals who want energy.", nil},
		{"empty json", `{"description": ""}`, "", domain.ErrMalformedOutput},
		{"broken json", `{"descr`, "", domain.ErrMalformedOutput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(reply(tc.text), Models{Persona: "p"}, zap.NewNop())

			got, err := svc.DescribePersona(context.Background(), "drinks", []string{"matcha latte"}, "")

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("description = %q, want %q", got, tc.want)
			}
		})
	}
}
