package persistent

import (
	"context"

	"chronofeed/pkg/kv"
	"chronofeed/services/social/internal/entity"
	"chronofeed/services/social/internal/model"
)

type CommentRepository interface {
	// Create writes the record, then adds its ID to the post's comment set.
	Create(ctx context.Context, comment *entity.Comment) error
	Get(ctx context.Context, id string) (*entity.Comment, error)
	// ListByPost returns a post's comments oldest first, skipping IDs whose
	// record is gone.
	ListByPost(ctx context.Context, postID string) ([]*entity.Comment, error)
	Delete(ctx context.Context, comment *entity.Comment) error
	// DeleteAllForPost removes every comment record of a post and its set.
	DeleteAllForPost(ctx context.Context, postID string) error
	Count(ctx context.Context, postID string) (int64, error)
	Counts(ctx context.Context, postIDs []string) ([]int64, error)
}

type commentRepository struct {
	store kv.Store
}

func NewCommentRepository(store kv.Store) CommentRepository {
	return &commentRepository{store: store}
}

func (r *commentRepository) Create(ctx context.Context, comment *entity.Comment) error {
	if err := setJSON(ctx, r.store, commentKey(comment.ID), ToCommentRecord(comment)); err != nil {
		return err
	}
	return r.store.ZAdd(ctx, postCommentsKey(comment.PostID), scoreOf(comment.CreatedAt.UnixMilli()), comment.ID)
}

func (r *commentRepository) Get(ctx context.Context, id string) (*entity.Comment, error) {
	rec, err := getJSON[model.CommentRecord](ctx, r.store, commentKey(id))
	if err != nil {
		return nil, err
	}
	return ToCommentEntity(rec), nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID string) ([]*entity.Comment, error) {
	ids, err := r.store.ZRange(ctx, postCommentsKey(postID), 0, -1)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*entity.Comment{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = commentKey(id)
	}
	recs, err := mgetJSON[model.CommentRecord](ctx, r.store, keys)
	if err != nil {
		return nil, err
	}

	out := make([]*entity.Comment, 0, len(recs))
	for _, rec := range recs {
		if rec != nil {
			out = append(out, ToCommentEntity(rec))
		}
	}
	return out, nil
}

func (r *commentRepository) Delete(ctx context.Context, comment *entity.Comment) error {
	if err := r.store.Del(ctx, commentKey(comment.ID)); err != nil {
		return err
	}
	return r.store.ZRem(ctx, postCommentsKey(comment.PostID), comment.ID)
}

func (r *commentRepository) DeleteAllForPost(ctx context.Context, postID string) error {
	ids, err := r.store.ZRange(ctx, postCommentsKey(postID), 0, -1)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, commentKey(id))
	}
	keys = append(keys, postCommentsKey(postID))
	return r.store.Del(ctx, keys...)
}

func (r *commentRepository) Count(ctx context.Context, postID string) (int64, error) {
	return r.store.ZCard(ctx, postCommentsKey(postID))
}

func (r *commentRepository) Counts(ctx context.Context, postIDs []string) ([]int64, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	keys := make([]string, len(postIDs))
	for i, id := range postIDs {
		keys[i] = postCommentsKey(id)
	}
	return r.store.ZCards(ctx, keys...)
}
