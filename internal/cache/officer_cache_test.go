package cache

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/citycare/issue-service/internal/domain"
	"github.com/citycare/issue-service/internal/repository"
)

// parkingRepo counts GetByID calls. When release is set, each call reads
// the underlying row, signals entered and waits for release before
// returning what it read.
type parkingRepo struct {
	repository.OfficerRepository
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (r *parkingRepo) GetByID(ctx context.Context, id string) (*domain.Officer, error) {
	r.calls.Add(1)
	officer, err := r.OfficerRepository.GetByID(ctx, id)
	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.release != nil {
		<-r.release
	}
	return officer, err
}

// fakeRedis implements the Get, Set and Del commands the directory uses.
type fakeRedis struct {
	redis.Cmdable
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	}
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

func (f *fakeRedis) put(key string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
}

func withClient(repo repository.OfficerRepository, client redis.Cmdable, ttl time.Duration) *OfficerDirectory {
	return &OfficerDirectory{repo: repo, client: client, ttl: ttl, logger: zap.NewNop()}
}

func seedOfficer(t *testing.T, repo repository.OfficerRepository) *domain.Officer {
	t.Helper()
	ward := "north"
	officer := &domain.Officer{
		FullName:     "Wanda Ward",
		Email:        "wanda@city.gov",
		PasswordHash: "$2a$10$hash",
		Role:         domain.OfficerRoleWard,
		WardZone:     &ward,
		Active:       true,
	}
	require.NoError(t, repo.Create(context.Background(), officer))
	return officer
}

func TestOfficerDirectory_WithoutRedis(t *testing.T) {
	base := repository.NewMemoryOfficerRepository()
	officer := seedOfficer(t, base)
	dir := NewOfficerDirectory(base, nil, time.Minute, nil)

	got, err := dir.GetOfficer(context.Background(), officer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wanda Ward", got.FullName)

	*got.WardZone = "mutated"
	again, err := dir.GetOfficer(context.Background(), officer.ID)
	require.NoError(t, err)
	assert.Equal(t, "north", *again.WardZone)

	_, err = dir.GetOfficer(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, dir.Invalidate(context.Background(), officer.ID))
}

func TestOfficerDirectory_CoalescesConcurrentMisses(t *testing.T) {
	base := repository.NewMemoryOfficerRepository()
	officer := seedOfficer(t, base)
	repo := &parkingRepo{
		OfficerRepository: base,
		entered:           make(chan struct{}, 8),
		release:           make(chan struct{}),
	}
	dir := NewOfficerDirectory(repo, nil, 0, nil)

	var g errgroup.Group
	lookup := func() error {
		got, err := dir.GetOfficer(context.Background(), officer.ID)
		if err == nil && got.ID != officer.ID {
			t.Errorf("got officer %s", got.ID)
		}
		return err
	}
	g.Go(lookup)
	<-repo.entered
	for i := 0; i < 7; i++ {
		g.Go(lookup)
	}
	time.Sleep(50 * time.Millisecond)
	close(repo.release)
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), repo.calls.Load())
}

func TestOfficerDirectory_RedisHitStoreAndInvalidate(t *testing.T) {
	base := repository.NewMemoryOfficerRepository()
	officer := seedOfficer(t, base)
	repo := &parkingRepo{OfficerRepository: base}
	client := newFakeRedis()
	dir := withClient(repo, client, time.Minute)
	ctx := context.Background()
	key := officerKey(officer.ID)

	first, err := dir.GetOfficer(ctx, officer.ID)
	require.NoError(t, err)
	assert.True(t, first.Active)
	require.True(t, client.has(key))
	assert.Equal(t, time.Minute, client.ttls[key])
	assert.NotContains(t, string(client.data[key]), "hash")

	cached, err := dir.GetOfficer(ctx, officer.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), repo.calls.Load())
	assert.Equal(t, "Wanda Ward", cached.FullName)
	assert.Equal(t, "north", *cached.WardZone)
	assert.Empty(t, cached.PasswordHash)

	require.NoError(t, dir.Invalidate(ctx, officer.ID))
	assert.False(t, client.has(key))

	_, err = dir.GetOfficer(ctx, officer.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), repo.calls.Load())
}

func TestOfficerDirectory_DiscardsCorruptEntry(t *testing.T) {
	base := repository.NewMemoryOfficerRepository()
	officer := seedOfficer(t, base)
	repo := &parkingRepo{OfficerRepository: base}
	client := newFakeRedis()
	client.put(officerKey(officer.ID), []byte("{not json"))
	dir := withClient(repo, client, time.Minute)

	got, err := dir.GetOfficer(context.Background(), officer.ID)
	require.NoError(t, err)
	assert.Equal(t, officer.ID, got.ID)
	assert.Equal(t, int32(1), repo.calls.Load())

	var stored cachedOfficer
	require.NoError(t, json.Unmarshal(client.data[officerKey(officer.ID)], &stored))
	assert.Equal(t, officer.Email, stored.Email)
}

func TestOfficerDirectory_InvalidateDuringFillDropsStaleEntry(t *testing.T) {
	base := repository.NewMemoryOfficerRepository()
	officer := seedOfficer(t, base)
	repo := &parkingRepo{
		OfficerRepository: base,
		entered:           make(chan struct{}, 1),
		release:           make(chan struct{}),
	}
	client := newFakeRedis()
	dir := withClient(repo, client, time.Minute)
	ctx := context.Background()

	var g errgroup.Group
	g.Go(func() error {
		_, err := dir.GetOfficer(ctx, officer.ID)
		return err
	})
	<-repo.entered

	deactivated := *officer
	deactivated.Active = false
	require.NoError(t, base.Update(ctx, &deactivated))
	require.NoError(t, dir.Invalidate(ctx, officer.ID))
	close(repo.release)
	require.NoError(t, g.Wait())

	assert.False(t, client.has(officerKey(officer.ID)))

	repo.entered, repo.release = nil, nil
	got, err := dir.GetOfficer(ctx, officer.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestOfficerDirectory_UnreachableRedisFallsBack(t *testing.T) {
	base := repository.NewMemoryOfficerRepository()
	officer := seedOfficer(t, base)
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	dir := NewOfficerDirectory(base, client, time.Minute, nil)

	got, err := dir.GetOfficer(context.Background(), officer.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.Error(t, dir.Invalidate(context.Background(), officer.ID))
}
