package persistent

import (
	"context"

	"chronofeed/pkg/kv"
	"chronofeed/services/social/internal/entity"
	"chronofeed/services/social/internal/model"
)

type NotificationRepository interface {
	Add(ctx context.Context, email string, n *entity.Notification) error
	// List returns a recipient's notifications newest first.
	List(ctx context.Context, email string, offset, limit int) ([]*entity.Notification, error)
	Count(ctx context.Context, email string) (int64, error)
	// Trim drops the oldest notifications beyond keep.
	Trim(ctx context.Context, email string, keep int) error
}

type notificationRepository struct {
	store kv.Store
}

func NewNotificationRepository(store kv.Store) NotificationRepository {
	return &notificationRepository{store: store}
}

func (r *notificationRepository) Add(ctx context.Context, email string, n *entity.Notification) error {
	if err := setJSON(ctx, r.store, notificationKey(n.ID), ToNotificationRecord(n)); err != nil {
		return err
	}
	return r.store.ZAdd(ctx, notificationsKey(email), scoreOf(n.CreatedAt.UnixMilli()), n.ID)
}

func (r *notificationRepository) List(ctx context.Context, email string, offset, limit int) ([]*entity.Notification, error) {
	if limit <= 0 {
		return []*entity.Notification{}, nil
	}
	members, err := r.store.ZRevRangeWithScores(ctx, notificationsKey(email), int64(offset), int64(offset+limit-1))
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []*entity.Notification{}, nil
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = notificationKey(m.Member)
	}
	recs, err := mgetJSON[model.NotificationRecord](ctx, r.store, keys)
	if err != nil {
		return nil, err
	}

	out := make([]*entity.Notification, 0, len(recs))
	for _, rec := range recs {
		if rec != nil {
			out = append(out, ToNotificationEntity(rec))
		}
	}
	return out, nil
}

func (r *notificationRepository) Count(ctx context.Context, email string) (int64, error) {
	return r.store.ZCard(ctx, notificationsKey(email))
}

func (r *notificationRepository) Trim(ctx context.Context, email string, keep int) error {
	key := notificationsKey(email)
	n, err := r.store.ZCard(ctx, key)
	if err != nil {
		return err
	}
	excess := n - int64(keep)
	if excess <= 0 {
		return nil
	}

	ids, err := r.store.ZRange(ctx, key, 0, excess-1)
	if err != nil {
		return err
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = notificationKey(id)
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return err
	}
	return r.store.ZRem(ctx, key, ids...)
}
