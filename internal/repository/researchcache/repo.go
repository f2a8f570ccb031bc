// Package researchcache is a read-through cache over the research repository.
// Cached entries are grouped under tags; a record mutation drops every entry
// tagged with the record id and every cached list page.
//
// Every tag carries a generation counter bumped on invalidation. A fill records
// the generation before reading the inner repository and is discarded when the
// generation moved, so a read that raced a mutation never outlives it in cache.
package researchcache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/keywordlab/internal/db"
	"github.com/kailas-cloud/keywordlab/internal/domain"
	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
	"github.com/kailas-cloud/keywordlab/internal/domain/persona"
	domres "github.com/kailas-cloud/keywordlab/internal/domain/research"
)

// ListTag is the tag shared by every cached list page.
const ListTag = "research:list"

// RecordTag returns the tag of a single record.
func RecordTag(id string) string { return "research:" + id }

// repository is the decorated research repository.
//
//nolint:interfacebloat // mirrors the full repository surface it decorates
type repository interface {
	Create(ctx context.Context, in domres.Input) (domres.Research, error)
	Get(ctx context.Context, id string) (domres.Research, error)
	List(ctx context.Context, cursor string, limit int) ([]domres.Research, string, error)
	UpdateKeywords(ctx context.Context, id string, items []keyword.Item) error
	UpdateClusters(ctx context.Context, id string, clusters map[string]domres.Cluster) error
	UpdatePersonas(ctx context.Context, id string, personas []persona.Persona) error
	UpdateStatus(ctx context.Context, id string, status domres.Status, errMsg string) error
	ClaimClustering(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// store is the consumer interface for the cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// DefaultTTL is used when New receives a non-positive ttl.
const DefaultTTL = 5 * time.Minute

// Repo caches Get and List and invalidates on every successful mutation.
// Mutations go straight to the inner repository; only reads are cached.
type Repo struct {
	inner      repository
	store      store
	ttl        time.Duration
	group      singleflight.Group
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"stale"/"invalidate"), passed explicitly.
func New(
	inner repository,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Repo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Repo{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

type listPage struct {
	Items []domres.State `json:"items"`
	Next  string         `json:"next"`
}

// Get returns a record, served from cache when present.
func (r *Repo) Get(ctx context.Context, id string) (domres.Research, error) {
	key := entryKey("research:" + id)
	if data, ok := r.read(ctx, key); ok {
		var st domres.State
		if err := json.Unmarshal(data, &st); err == nil {
			r.inc("hit")
			return domres.Reconstruct(st), nil
		}
		r.logger.Warn("Failed to parse cached research", zap.String("key", key))
	}
	r.inc("miss")

	v, err, _ := r.group.Do(key, func() (any, error) {
		tag := RecordTag(id)
		gen, fillable := r.generation(ctx, tag)
		rec, err := r.inner.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if fillable {
			r.write(ctx, key, rec.State(), tag, gen)
		}
		return rec, nil
	})
	if err != nil {
		return domres.Research{}, err
	}
	return v.(domres.Research), nil
}

// List returns a page of records, served from cache when present.
func (r *Repo) List(ctx context.Context, cursor string, limit int) ([]domres.Research, string, error) {
	key := entryKey("research:list:" + cursor + ":" + strconv.Itoa(limit))
	if data, ok := r.read(ctx, key); ok {
		var page listPage
		if err := json.Unmarshal(data, &page); err == nil {
			r.inc("hit")
			return fromStates(page.Items), page.Next, nil
		}
		r.logger.Warn("Failed to parse cached research list", zap.String("key", key))
	}
	r.inc("miss")

	v, err, _ := r.group.Do(key, func() (any, error) {
		gen, fillable := r.generation(ctx, ListTag)
		items, next, err := r.inner.List(ctx, cursor, limit)
		if err != nil {
			return nil, err
		}
		page := listPage{Items: make([]domres.State, len(items)), Next: next}
		for i := range items {
			page.Items[i] = items[i].State()
		}
		if fillable {
			r.write(ctx, key, page, ListTag, gen)
		}
		return page, nil
	})
	if err != nil {
		return nil, "", err
	}
	page := v.(listPage)
	return fromStates(page.Items), page.Next, nil
}

// Create stores a record and drops cached list pages.
func (r *Repo) Create(ctx context.Context, in domres.Input) (domres.Research, error) {
	rec, err := r.inner.Create(ctx, in)
	if err != nil {
		return domres.Research{}, err
	}
	r.Invalidate(ctx, ListTag)
	return rec, nil
}

// UpdateKeywords overwrites keywords and revalidates the record.
func (r *Repo) UpdateKeywords(ctx context.Context, id string, items []keyword.Item) error {
	return r.mutate(ctx, id, r.inner.UpdateKeywords(ctx, id, items))
}

// UpdateClusters overwrites clusters and revalidates the record.
func (r *Repo) UpdateClusters(ctx context.Context, id string, clusters map[string]domres.Cluster) error {
	return r.mutate(ctx, id, r.inner.UpdateClusters(ctx, id, clusters))
}

// UpdatePersonas overwrites personas and revalidates the record.
func (r *Repo) UpdatePersonas(ctx context.Context, id string, personas []persona.Persona) error {
	return r.mutate(ctx, id, r.inner.UpdatePersonas(ctx, id, personas))
}

// UpdateStatus sets the clustering status and revalidates the record.
func (r *Repo) UpdateStatus(ctx context.Context, id string, status domres.Status, errMsg string) error {
	return r.mutate(ctx, id, r.inner.UpdateStatus(ctx, id, status, errMsg))
}

// ClaimClustering claims the record and revalidates it when the claim succeeds.
func (r *Repo) ClaimClustering(ctx context.Context, id string) error {
	return r.mutate(ctx, id, r.inner.ClaimClustering(ctx, id))
}

// Delete removes the record and revalidates it.
func (r *Repo) Delete(ctx context.Context, id string) error {
	return r.mutate(ctx, id, r.inner.Delete(ctx, id))
}

// Direct is the repository seen by read-merge-write callers: Get reads the
// inner repository, mutations still invalidate the cache.
type Direct struct {
	*Repo
}

// Direct returns a view of r whose Get bypasses the cache.
func (r *Repo) Direct() Direct { return Direct{Repo: r} }

// Get reads the record from the inner repository.
func (d Direct) Get(ctx context.Context, id string) (domres.Research, error) {
	return d.inner.Get(ctx, id)
}

// Revalidate drops every cached entry of a record and every cached list page.
func (r *Repo) Revalidate(ctx context.Context, id string) {
	r.Invalidate(ctx, RecordTag(id), ListTag)
}

// Invalidate bumps the generation of the tags and drops every cache entry
// registered under them. Failures are logged; entries left behind expire with the ttl.
func (r *Repo) Invalidate(ctx context.Context, tags ...string) {
	for _, tag := range tags {
		gk := genKey(tag)
		if err := r.store.IncrBy(ctx, gk, 1); err != nil {
			r.logger.Warn("Failed to bump cache generation", zap.String("tag", tag), zap.Error(err))
		} else if err := r.store.Expire(ctx, gk, r.ttl, false); err != nil {
			r.logger.Warn("Failed to expire cache generation", zap.String("tag", tag), zap.Error(err))
		}

		// The tag set itself is left to expire: a fill tagged after SMembers
		// must stay visible to the next invalidation.
		keys, err := r.store.SMembers(ctx, tagKey(tag))
		if err != nil {
			r.logger.Warn("Failed to read cache tag", zap.String("tag", tag), zap.Error(err))
			continue
		}
		if len(keys) > 0 {
			if err := r.store.Del(ctx, keys...); err != nil {
				r.logger.Warn("Failed to invalidate cache tag", zap.String("tag", tag), zap.Error(err))
				continue
			}
		}
		r.inc("invalidate")
	}
}

func (r *Repo) mutate(ctx context.Context, id string, err error) error {
	if err != nil {
		return err
	}
	r.Revalidate(ctx, id)
	return nil
}

func (r *Repo) read(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			r.logger.Warn("Failed to read research cache", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return data, len(data) > 0
}

// generation reads the invalidation counter of a tag. An unreadable counter
// disables the fill.
func (r *Repo) generation(ctx context.Context, tag string) (string, bool) {
	data, err := r.store.Get(ctx, genKey(tag))
	if errors.Is(err, db.ErrKeyNotFound) {
		return "0", true
	}
	if err != nil {
		r.logger.Warn("Failed to read cache generation", zap.String("tag", tag), zap.Error(err))
		return "", false
	}
	return string(data), true
}

// current reports whether the tag is still at generation gen.
func (r *Repo) current(ctx context.Context, tag, gen string) bool {
	now, ok := r.generation(ctx, tag)
	return ok && now == gen
}

func (r *Repo) write(ctx context.Context, key string, v any, tag, gen string) {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Warn("Failed to encode research cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	// Tag before the value so an invalidation after the generation check finds the entry.
	tk := tagKey(tag)
	if err := r.store.SAdd(ctx, tk, key); err != nil {
		r.logger.Warn("Failed to tag research cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.store.Expire(ctx, tk, 2*r.ttl, false); err != nil {
		r.logger.Warn("Failed to expire research cache tag", zap.String("key", key), zap.Error(err))
	}
	if !r.current(ctx, tag, gen) {
		r.inc("stale")
		return
	}
	if err := r.store.SetWithTTL(ctx, key, data, r.ttl); err != nil {
		r.logger.Warn("Failed to write research cache", zap.String("key", key), zap.Error(err))
		return
	}
	// An invalidation between the check and the write bumped the generation.
	if !r.current(ctx, tag, gen) {
		r.inc("stale")
		if err := r.store.Del(ctx, key); err != nil {
			r.logger.Warn("Failed to drop stale research cache entry", zap.String("key", key), zap.Error(err))
		}
	}
}

func (r *Repo) inc(result string) {
	if r.cacheTotal != nil {
		r.cacheTotal.WithLabelValues(result).Inc()
	}
}

func fromStates(states []domres.State) []domres.Research {
	out := make([]domres.Research, len(states))
	for i := range states {
		out[i] = domres.Reconstruct(states[i])
	}
	return out
}

func entryKey(name string) string { return domain.KeyPrefix + "cache:" + name }

func tagKey(tag string) string { return domain.KeyPrefix + "cache_tag:" + tag }

func genKey(tag string) string { return domain.KeyPrefix + "cache_gen:" + tag }
