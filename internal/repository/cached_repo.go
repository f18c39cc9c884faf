package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"usermgr/internal/cache"
	"usermgr/internal/models"
	"usermgr/internal/services"

	"go.uber.org/zap"
)

const userKeyPrefix = "user:"

func userKey(id int64) string {
	return userKeyPrefix + strconv.FormatInt(id, 10)
}

// CachedUserRepository serves FindByID from the cache tiers before falling
// through to next. FindAll is never cached.
//
// Cached reads are never trusted for writes: next decides whether the
// record exists. Updates and deletes first evict the key from both tiers
// and fail if Redis cannot be reached, so an old entry cannot outlive the
// write. After a successful write the key is refreshed or evicted again.
type CachedUserRepository struct {
	next   services.UserRepository
	cache  *cache.CacheManager
	logger *zap.Logger
}

func NewCachedUserRepository(next services.UserRepository, cm *cache.CacheManager, logger *zap.Logger) *CachedUserRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedUserRepository{next: next, cache: cm, logger: logger}
}

func (r *CachedUserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	return r.next.FindAll(ctx)
}

func (r *CachedUserRepository) FindByID(ctx context.Context, id int64) (*models.User, bool, error) {
	var user models.User
	source, err := r.cache.GetJSON(ctx, userKey(id), &user)
	if err == nil {
		r.logger.Debug("User cache hit", zap.Int64("id", id), zap.String("source", source))
		return &user, true, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("User cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	found, ok, err := r.next.FindByID(ctx, id)
	if err != nil || !ok {
		return found, ok, err
	}
	if setErr := r.cache.SetJSON(ctx, userKey(id), found); setErr != nil {
		r.logger.Warn("User cache fill failed", zap.Int64("id", id), zap.Error(setErr))
	}
	return found, true, nil
}

func (r *CachedUserRepository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	if !user.IsNew() {
		if err := r.invalidate(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	saved, err := r.next.Save(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Refresh(ctx, userKey(saved.ID), saved); err != nil {
		r.logger.Warn("User cache refresh failed, dropping key", zap.Int64("id", saved.ID), zap.Error(err))
		r.evict(ctx, saved.ID)
	}
	return saved, nil
}

func (r *CachedUserRepository) Delete(ctx context.Context, user *models.User) error {
	if err := r.invalidate(ctx, user.ID); err != nil {
		return err
	}
	if err := r.next.Delete(ctx, user); err != nil {
		return err
	}
	// A concurrent read may have refilled the key before the row was gone.
	r.evict(ctx, user.ID)
	return nil
}

func (r *CachedUserRepository) invalidate(ctx context.Context, id int64) error {
	if err := r.cache.Invalidate(ctx, userKey(id)); err != nil {
		r.logger.Warn("User cache invalidation failed, rejecting write", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("invalidate cached user %d: %w", id, err)
	}
	return nil
}

func (r *CachedUserRepository) evict(ctx context.Context, id int64) {
	if err := r.cache.Delete(ctx, userKey(id)); err != nil {
		r.logger.Warn("User cache eviction failed", zap.Int64("id", id), zap.Error(err))
	}
}
