package research

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/keywordlab/internal/db"
	"github.com/kailas-cloud/keywordlab/internal/domain"
	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
	"github.com/kailas-cloud/keywordlab/internal/domain/persona"
	domres "github.com/kailas-cloud/keywordlab/internal/domain/research"
)

// store is the consumer interface for research records (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HSetIf(ctx context.Context, key, guardField string, allowed []string, fields map[string]string) (db.CondResult, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

const defaultPageSize = 20

// Repo implements the research repository on a Redis hash per record.
// Record ids are indexed in a set that List reads.
type Repo struct {
	store   store
	timeNow func() time.Time
	newID   func() string
}

// New creates a research repository.
func New(s store) *Repo {
	return &Repo{
		store:   s,
		timeNow: func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// Create stores a new research record with status pending and server timestamps.
func (r *Repo) Create(ctx context.Context, in domres.Input) (domres.Research, error) {
	rec, err := domres.New(r.newID(), in, r.now())
	if err != nil {
		return domres.Research{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	fields, err := researchToHash(&rec)
	if err != nil {
		return domres.Research{}, err
	}
	key := recordKey(rec.ID())
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return domres.Research{}, fmt.Errorf("hset research %s: %w", rec.ID(), err)
	}
	if err := r.store.SAdd(ctx, indexKey(), rec.ID()); err != nil {
		// An unindexed record would never be listed.
		_ = r.store.Del(ctx, key)
		return domres.Research{}, fmt.Errorf("index research %s: %w", rec.ID(), err)
	}
	return rec, nil
}

// Get returns a research record by ID.
func (r *Repo) Get(ctx context.Context, id string) (domres.Research, error) {
	m, err := r.store.HGetAll(ctx, recordKey(id))
	if err != nil {
		return domres.Research{}, fmt.Errorf("hgetall research %s: %w", id, err)
	}
	if len(m) == 0 {
		return domres.Research{}, domain.ErrResearchNotFound
	}
	rec, err := researchFromHash(m)
	if err != nil {
		return domres.Research{}, fmt.Errorf("parse research %s: %w", id, err)
	}
	return rec, nil
}

// List returns records newest first with offset-cursor pagination.
func (r *Repo) List(ctx context.Context, cursor string, limit int) ([]domres.Research, string, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	offset := 0
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil || parsed < 0 {
			return nil, "", fmt.Errorf("%w: invalid cursor %q", domain.ErrInvalidInput, cursor)
		}
		offset = parsed
	}

	ids, err := r.store.SMembers(ctx, indexKey())
	if err != nil {
		return nil, "", fmt.Errorf("read research index: %w", err)
	}
	if len(ids) == 0 {
		return []domres.Research{}, "", nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(id)
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, "", fmt.Errorf("hgetall multi research: %w", err)
	}

	all := make([]domres.Research, 0, len(results))
	var gone []string
	for i, m := range results {
		if len(m) == 0 {
			gone = append(gone, ids[i])
			continue
		}
		rec, err := researchFromHash(m)
		if err != nil {
			return nil, "", fmt.Errorf("parse research %s: %w", ids[i], err)
		}
		all = append(all, rec)
	}
	if len(gone) > 0 {
		// Ids left behind by an interrupted delete; the next List retries.
		_ = r.store.SRem(ctx, indexKey(), gone...)
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt() != all[j].CreatedAt() {
			return all[i].CreatedAt() > all[j].CreatedAt()
		}
		return all[i].ID() < all[j].ID()
	})

	if offset >= len(all) {
		return []domres.Research{}, "", nil
	}
	end := offset + limit
	var next string
	if end < len(all) {
		next = strconv.Itoa(end)
	} else {
		end = len(all)
	}
	return all[offset:end], next, nil
}

// UpdateKeywords overwrites the keyword list. Duplicates by normalized text collapse
// to the higher-volume entry.
func (r *Repo) UpdateKeywords(ctx context.Context, id string, items []keyword.Item) error {
	data, err := encodeJSON(keyword.Dedupe(items))
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}
	return r.update(ctx, id, map[string]string{fieldKeywords: data})
}

// UpdateClusters overwrites the cluster map.
func (r *Repo) UpdateClusters(ctx context.Context, id string, clusters map[string]domres.Cluster) error {
	if clusters == nil {
		clusters = map[string]domres.Cluster{}
	}
	data, err := encodeJSON(clusters)
	if err != nil {
		return fmt.Errorf("marshal clusters: %w", err)
	}
	return r.update(ctx, id, map[string]string{fieldClusters: data})
}

// UpdatePersonas overwrites the persona list.
func (r *Repo) UpdatePersonas(ctx context.Context, id string, personas []persona.Persona) error {
	if personas == nil {
		personas = []persona.Persona{}
	}
	data, err := encodeJSON(personas)
	if err != nil {
		return fmt.Errorf("marshal personas: %w", err)
	}
	return r.update(ctx, id, map[string]string{fieldPersonas: data})
}

// UpdateStatus sets the clustering status and its error message (empty clears it).
func (r *Repo) UpdateStatus(ctx context.Context, id string, status domres.Status, errMsg string) error {
	return r.update(ctx, id, map[string]string{
		fieldStatus:      string(status),
		fieldStatusError: errMsg,
	})
}

// ClaimClustering atomically moves the status from absent, pending or failed to processing.
// A record already processing or completed is left untouched.
func (r *Repo) ClaimClustering(ctx context.Context, id string) error {
	allowed := make([]string, 0, 3)
	for _, s := range domres.TriggerableStatuses() {
		allowed = append(allowed, string(s))
	}

	res, err := r.store.HSetIf(ctx, recordKey(id), fieldStatus, allowed, map[string]string{
		fieldStatus:      string(domres.StatusProcessing),
		fieldStatusError: "",
		fieldUpdatedAt:   strconv.FormatInt(r.now(), 10),
	})
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrResearchNotFound
		}
		return fmt.Errorf("claim clustering %s: %w", id, err)
	}
	if res.Applied {
		return nil
	}

	switch domres.Status(res.Previous) {
	case domres.StatusProcessing:
		return domain.ErrClusteringInProgress
	case domres.StatusCompleted:
		return domain.ErrClusteringCompleted
	default:
		return fmt.Errorf("claim clustering %s: unexpected status %q", id, res.Previous)
	}
}

// Delete removes a research record.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := recordKey(id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", id, err)
	}
	if !exists {
		return domain.ErrResearchNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del research %s: %w", id, err)
	}
	if err := r.store.SRem(ctx, indexKey(), id); err != nil {
		return fmt.Errorf("unindex research %s: %w", id, err)
	}
	return nil
}

// update writes fields plus updated_at, guarded on the stored id so a deleted
// record is never resurrected as a partial hash.
func (r *Repo) update(ctx context.Context, id string, fields map[string]string) error {
	fields[fieldUpdatedAt] = strconv.FormatInt(r.now(), 10)
	res, err := r.store.HSetIf(ctx, recordKey(id), fieldID, []string{id}, fields)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrResearchNotFound
		}
		return fmt.Errorf("update research %s: %w", id, err)
	}
	if !res.Applied {
		return fmt.Errorf("update research %s: stored id %q does not match", id, res.Previous)
	}
	return nil
}

func (r *Repo) now() int64 {
	return r.timeNow().UnixMilli()
}

func recordKey(id string) string {
	return domain.KeyPrefix + "research:" + id
}

func indexKey() string {
	return domain.KeyPrefix + "research_index"
}
