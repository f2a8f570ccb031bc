package keyword

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/keywordlab/internal/domain"
	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
	"github.com/kailas-cloud/keywordlab/internal/domain/research"
)

// --- Mocks ---

type mockSuggester struct {
	fn func(ctx context.Context, query, region, language string, count int) ([]string, error)
}

func (m *mockSuggester) SuggestKeywords(ctx context.Context, query, region, language string, count int) ([]string, error) {
	return m.fn(ctx, query, region, language, count)
}

type mockAutosuggester struct {
	fn func(ctx context.Context, req domain.AutosuggestRequest) ([]string, error)
}

func (m *mockAutosuggester) Autosuggest(ctx context.Context, req domain.AutosuggestRequest) ([]string, error) {
	return m.fn(ctx, req)
}

type mockVolume struct {
	mu    sync.Mutex
	reqs  []domain.VolumeRequest
	items map[string]int64 // normalized key -> volume
	err   error
}

func (m *mockVolume) Lookup(_ context.Context, req domain.VolumeRequest) ([]keyword.Item, error) {
	m.mu.Lock()
	m.reqs = append(m.reqs, req)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]keyword.Item, 0, len(req.Keywords))
	for _, kw := range req.Keywords {
		if v, ok := m.items[keyword.Normalize(kw)]; ok {
			out = append(out, keyword.Item{Text: kw, SearchVolume: v})
		}
	}
	return out, nil
}

type mockRepo struct {
	mu        sync.Mutex
	records   map[string]research.Research
	nextID    int
	createErr error
	updateErr error
	updateFn  func(id string, items []keyword.Item)
}

func newMockRepo() *mockRepo {
	return &mockRepo{records: make(map[string]research.Research)}
}

func (m *mockRepo) Create(_ context.Context, in research.Input) (research.Research, error) {
	if m.createErr != nil {
		return research.Research{}, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r, err := research.New(fmt.Sprintf("r-%d", m.nextID), in, 1)
	if err != nil {
		return research.Research{}, err
	}
	m.records[r.ID()] = r
	return r, nil
}

func (m *mockRepo) Get(_ context.Context, id string) (research.Research, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return research.Research{}, domain.ErrResearchNotFound
	}
	return r, nil
}

func (m *mockRepo) List(_ context.Context, _ string, limit int) ([]research.Research, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]research.Research, 0, len(m.records))
	for _, r := range m.records {
		if len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out, "", nil
}

func (m *mockRepo) UpdateKeywords(_ context.Context, id string, items []keyword.Item) error {
	if m.updateFn != nil {
		m.updateFn(id, items)
	}
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return domain.ErrResearchNotFound
	}
	st := r.State()
	st.Keywords = items
	m.records[id] = research.Reconstruct(st)
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return domain.ErrResearchNotFound
	}
	delete(m.records, id)
	return nil
}

func staticSuggester(out []string, err error) *mockSuggester {
	return &mockSuggester{fn: func(context.Context, string, string, string, int) ([]string, error) {
		return out, err
	}}
}

func staticAutosuggester(out []string, err error) *mockAutosuggester {
	return &mockAutosuggester{fn: func(context.Context, domain.AutosuggestRequest) ([]string, error) {
		return out, err
	}}
}
