package researchcache

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/keywordlab/internal/db"
	"github.com/kailas-cloud/keywordlab/internal/domain"
	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
	"github.com/kailas-cloud/keywordlab/internal/domain/persona"
	domres "github.com/kailas-cloud/keywordlab/internal/domain/research"
)

// mockRepo counts inner reads and lets tests override results.
type mockRepo struct {
	mu        sync.Mutex
	getCalls  int
	listCalls int

	getFn            func(ctx context.Context, id string) (domres.Research, error)
	claimFn          func(ctx context.Context, id string) error
	updatePersonasFn func(ctx context.Context, id string, personas []persona.Persona) error
}

func (m *mockRepo) Create(_ context.Context, in domres.Input) (domres.Research, error) {
	return domres.New("new-id", in, 1)
}

func (m *mockRepo) Get(ctx context.Context, id string) (domres.Research, error) {
	m.mu.Lock()
	m.getCalls++
	m.mu.Unlock()
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return domres.New(id, domres.Input{Query: "matcha"}, 1)
}

func (m *mockRepo) List(_ context.Context, _ string, _ int) ([]domres.Research, string, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()
	rec, _ := domres.New("r-1", domres.Input{Query: "matcha"}, 1)
	return []domres.Research{rec}, "1", nil
}

func (m *mockRepo) UpdateKeywords(_ context.Context, _ string, _ []keyword.Item) error { return nil }

func (m *mockRepo) UpdateClusters(_ context.Context, _ string, _ map[string]domres.Cluster) error {
	return nil
}

func (m *mockRepo) UpdatePersonas(ctx context.Context, id string, personas []persona.Persona) error {
	if m.updatePersonasFn != nil {
		return m.updatePersonasFn(ctx, id, personas)
	}
	return nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, _ string, _ domres.Status, _ string) error {
	return nil
}

func (m *mockRepo) ClaimClustering(ctx context.Context, id string) error {
	if m.claimFn != nil {
		return m.claimFn(ctx, id)
	}
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	if id == "missing" {
		return domain.ErrResearchNotFound
	}
	return nil
}

// memStore is an in-memory KV + set store. Generation counters live apart
// from kv so tests can count cache entries.
type memStore struct {
	mu   sync.Mutex
	kv   map[string][]byte
	gens map[string]int64
	sets map[string]map[string]struct{}

	// beforeSet runs ahead of every SetWithTTL, outside the lock.
	beforeSet func(key string)
}

func newMemStore() *memStore {
	return &memStore{
		kv:   map[string][]byte{},
		gens: map[string]int64{},
		sets: map[string]map[string]struct{}{},
	}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.gens[key]; ok {
		return []byte(strconv.FormatInt(g, 10)), nil
	}
	v, ok := s.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (s *memStore) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	if s.beforeSet != nil {
		s.beforeSet(key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = value
	return nil
}

func (s *memStore) IncrBy(_ context.Context, key string, val int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[key] += val
	return nil
}

func (s *memStore) Expire(_ context.Context, _ string, _ time.Duration, _ bool) error { return nil }

func (s *memStore) SAdd(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		set = map[string]struct{}{}
		s.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (s *memStore) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		out = append(out, m)
	}
	return out, nil
}

func (s *memStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.kv, k)
		delete(s.sets, k)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockRepo, *memStore) {
	t.Helper()
	inner := &mockRepo{}
	ms := newMemStore()
	return New(inner, ms, time.Minute, nil, zap.NewNop()), inner, ms
}
