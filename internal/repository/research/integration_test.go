package research

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	dbRedis "github.com/kailas-cloud/keywordlab/internal/db/redis"
	"github.com/kailas-cloud/keywordlab/internal/domain"
	domres "github.com/kailas-cloud/keywordlab/internal/domain/research"
)

// newRedisRepo builds a repository on REDIS_ADDR under a throwaway key prefix.
func newRedisRepo(t *testing.T) *Repo {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping integration test: REDIS_ADDR not set")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{Addrs: []string{addr}, Password: os.Getenv("REDIS_PASSWORD")})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.WaitForReady(context.Background(), 5*time.Second); err != nil {
		store.Close()
		t.Fatalf("redis not ready: %v", err)
	}
	t.Cleanup(store.Close)

	prev := domain.KeyPrefix
	domain.KeyPrefix = "kwtest:" + uuid.NewString() + ":"
	t.Cleanup(func() {
		_ = store.Del(context.Background(), indexKey())
		domain.KeyPrefix = prev
	})
	return New(store)
}

func TestIntegration_ClaimLifecycle(t *testing.T) {
	repo := newRedisRepo(t)
	ctx := context.Background()

	rec, err := repo.Create(ctx, domres.Input{Query: "matcha"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(context.Background(), rec.ID()) })

	if err := repo.ClaimClustering(ctx, rec.ID()); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if err := repo.ClaimClustering(ctx, rec.ID()); !errors.Is(err, domain.ErrClusteringInProgress) {
		t.Fatalf("second claim: expected ErrClusteringInProgress, got %v", err)
	}

	if err := repo.UpdateStatus(ctx, rec.ID(), domres.StatusFailed, "timeout"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := repo.ClaimClustering(ctx, rec.ID()); err != nil {
		t.Fatalf("claim after failure: %v", err)
	}
	if err := repo.UpdateStatus(ctx, rec.ID(), domres.StatusCompleted, ""); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := repo.ClaimClustering(ctx, rec.ID()); !errors.Is(err, domain.ErrClusteringCompleted) {
		t.Fatalf("claim after completion: expected ErrClusteringCompleted, got %v", err)
	}

	got, err := repo.Get(ctx, rec.ID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status() != domres.StatusCompleted || got.StatusError() != "" {
		t.Errorf("status = %q (%q)", got.Status(), got.StatusError())
	}
	if err := repo.ClaimClustering(ctx, "missing"); !errors.Is(err, domain.ErrResearchNotFound) {
		t.Errorf("missing record: expected ErrResearchNotFound, got %v", err)
	}
}

func TestIntegration_ListIndex(t *testing.T) {
	repo := newRedisRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, domres.Input{Query: "matcha"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := repo.Create(ctx, domres.Input{Query: "hojicha"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Delete(ctx, first.ID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(context.Background(), second.ID()) })

	page, next, err := repo.List(ctx, "", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 1 || page[0].ID() != second.ID() || next != "" {
		t.Errorf("unexpected page: %v next=%q", queries(page), next)
	}
}
