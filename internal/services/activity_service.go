package services

import (
	"context"
	"fmt"
	"log/slog"

	"trackr/internal/cache"
	"trackr/internal/core"
	"trackr/internal/storage"
)

// ActivityStore is the persistence surface the activity service needs.
// *storage.SQLiteRepository satisfies it.
type ActivityStore interface {
	CreateActivity(ctx context.Context, a core.Activity) (int64, error)
	GetActivity(ctx context.Context, id int64) (core.Activity, error)
	CreateEntry(ctx context.Context, e core.Entry) (int64, error)
	ListActivitiesWithEntries(ctx context.Context, ownerID string) ([]core.ActivityWithEntries, error)
}

// ActivityService orchestrates activity writes and the cached read path.
type ActivityService struct {
	store     ActivityStore
	publisher RowPublisher
	cache     *cache.TagCache[[]core.ActivityWithEntries]
}

func NewActivityService(store ActivityStore, publisher RowPublisher, c *cache.TagCache[[]core.ActivityWithEntries]) *ActivityService {
	return &ActivityService{
		store:     store,
		publisher: publisher,
		cache:     c,
	}
}

func activitiesCacheKey(ownerID string) string {
	return "activities:" + ownerID
}

// GetActivities returns the owner's activities with their entries,
// memoized under the activities tag. Failed reads are surfaced and
// never cached.
func (s *ActivityService) GetActivities(ctx context.Context, ownerID string) ([]core.ActivityWithEntries, error) {
	key := activitiesCacheKey(ownerID)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	activities, err := s.store.ListActivitiesWithEntries(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list activities: %v", core.ErrFetchFailed, err)
	}

	s.cache.Set(key, TagActivities, activities)
	return activities, nil
}

// CreateActivity inserts an activity and invalidates cached reads so
// the next fetch sees it.
func (s *ActivityService) CreateActivity(ctx context.Context, a core.Activity) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.CreateActivity(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("create activity: %w", err)
	}

	s.cache.InvalidateTag(TagActivities)
	s.publishRowCreated(ctx, storage.EntityActivity, id)
	return id, nil
}

// CreateEntry inserts a dated entry under one of the owner's activities.
func (s *ActivityService) CreateEntry(ctx context.Context, ownerID string, e core.Entry) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	activity, err := s.store.GetActivity(ctx, e.ActivityID)
	if err != nil {
		return 0, fmt.Errorf("resolve activity: %w", err)
	}
	if activity.OwnerID != ownerID {
		return 0, core.ErrInvalidReference
	}

	id, err := s.store.CreateEntry(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("create entry: %w", err)
	}

	s.cache.InvalidateTag(TagActivities)
	s.publishRowCreated(ctx, storage.EntityEntry, id)
	return id, nil
}

func (s *ActivityService) publishRowCreated(ctx context.Context, entity string, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRowCreated(ctx, entity, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish row event",
			"entity", entity, "id", id, "error", err)
	}
}
