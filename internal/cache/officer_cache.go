package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/citycare/issue-service/internal/domain"
	"github.com/citycare/issue-service/internal/repository"
)

const officerKeyPrefix = "citycare:officer:"

// cachedOfficer is the redis representation. Password hashes never leave
// the officer store.
type cachedOfficer struct {
	ID       string             `json:"id"`
	FullName string             `json:"full_name"`
	Email    string             `json:"email"`
	Role     domain.OfficerRole `json:"role"`
	WardZone *string            `json:"ward_zone,omitempty"`
	Active   bool               `json:"active"`
}

// OfficerDirectory is a read-through cache in front of the officer
// repository. Concurrent misses for the same id share one repository read.
// Redis failures degrade to direct repository reads.
//
// generation counts invalidations. A fill whose repository read overlapped
// an Invalidate is never left in redis.
type OfficerDirectory struct {
	repo       repository.OfficerRepository
	client     redis.Cmdable
	ttl        time.Duration
	group      singleflight.Group
	generation atomic.Uint64
	logger     *zap.Logger
}

// NewOfficerDirectory builds the cache. A nil client or zero ttl disables
// redis and every lookup goes to the repository.
func NewOfficerDirectory(repo repository.OfficerRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *OfficerDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &OfficerDirectory{repo: repo, ttl: ttl, logger: logger}
	if client != nil && ttl > 0 {
		d.client = client
	}
	return d
}

// GetOfficer returns the officer with the given id or repository.ErrNotFound.
func (d *OfficerDirectory) GetOfficer(ctx context.Context, id string) (*domain.Officer, error) {
	if officer, ok := d.fromCache(ctx, id); ok {
		return officer, nil
	}

	v, err, _ := d.group.Do(id, func() (interface{}, error) {
		gen := d.generation.Load()
		officer, err := d.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		d.store(ctx, officer, gen)
		return officer, nil
	})
	if err != nil {
		return nil, err
	}
	shared := v.(*domain.Officer)
	out := *shared
	out.WardZone = copyString(shared.WardZone)
	return &out, nil
}

// Invalidate drops the cached entry for id.
func (d *OfficerDirectory) Invalidate(ctx context.Context, id string) error {
	d.generation.Add(1)
	d.group.Forget(id)
	if d.client == nil {
		return nil
	}
	if err := d.client.Del(ctx, officerKey(id)).Err(); err != nil {
		return fmt.Errorf("invalidating officer %s: %w", id, err)
	}
	return nil
}

func (d *OfficerDirectory) fromCache(ctx context.Context, id string) (*domain.Officer, bool) {
	if d.client == nil {
		return nil, false
	}
	data, err := d.client.Get(ctx, officerKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		d.logger.Debug("officer cache read failed", zap.String("officer_id", id), zap.Error(err))
		return nil, false
	}
	var cached cachedOfficer
	if err := json.Unmarshal(data, &cached); err != nil {
		d.logger.Warn("discarding corrupt officer cache entry", zap.String("officer_id", id), zap.Error(err))
		d.client.Del(ctx, officerKey(id))
		return nil, false
	}
	return &domain.Officer{
		ID:       cached.ID,
		FullName: cached.FullName,
		Email:    cached.Email,
		Role:     cached.Role,
		WardZone: cached.WardZone,
		Active:   cached.Active,
	}, true
}

// store caches officer as read at generation gen. The entry is skipped, or
// removed again, when an Invalidate ran since the read started.
func (d *OfficerDirectory) store(ctx context.Context, officer *domain.Officer, gen uint64) {
	if d.client == nil || d.generation.Load() != gen {
		return
	}
	data, err := json.Marshal(cachedOfficer{
		ID:       officer.ID,
		FullName: officer.FullName,
		Email:    officer.Email,
		Role:     officer.Role,
		WardZone: officer.WardZone,
		Active:   officer.Active,
	})
	if err != nil {
		return
	}
	if err := d.client.Set(ctx, officerKey(officer.ID), data, d.ttl).Err(); err != nil {
		d.logger.Debug("officer cache write failed", zap.String("officer_id", officer.ID), zap.Error(err))
		return
	}
	if d.generation.Load() != gen {
		d.client.Del(ctx, officerKey(officer.ID))
	}
}

func officerKey(id string) string {
	return officerKeyPrefix + id
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
