package persistent

import (
	"context"

	"chronofeed/pkg/kv"
	"chronofeed/services/social/internal/entity"
	"chronofeed/services/social/internal/model"
)

type PostRepository interface {
	// Create stores the record and indexes it under its author and in the
	// site-wide index, scored by PostDate.
	Create(ctx context.Context, post *entity.Post) error
	Get(ctx context.Context, id string) (*entity.Post, error)
	// GetMany keeps input order; missing posts are nil.
	GetMany(ctx context.Context, ids []string) ([]*entity.Post, error)
	Update(ctx context.Context, post *entity.Post) error
	Delete(ctx context.Context, post *entity.Post) error
	// UserPostIDs returns up to max of a user's post IDs, newest first.
	UserPostIDs(ctx context.Context, username string, max int) ([]kv.ScoredMember, error)
	// LatestPostIDs returns up to max post IDs of the site-wide index,
	// newest first. max <= 0 reads the whole index.
	LatestPostIDs(ctx context.Context, max int) ([]kv.ScoredMember, error)
	Count(ctx context.Context) (int64, error)
}

type postRepository struct {
	store kv.Store
}

func NewPostRepository(store kv.Store) PostRepository {
	return &postRepository{store: store}
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	if err := setJSON(ctx, r.store, postKey(post.ID), ToPostRecord(post)); err != nil {
		return err
	}
	score := scoreOf(post.PostDate.UnixMilli())
	if err := r.store.ZAdd(ctx, userPostsKey(post.Username), score, post.ID); err != nil {
		return err
	}
	return r.store.ZAdd(ctx, postsIndexKey, score, post.ID)
}

func (r *postRepository) Get(ctx context.Context, id string) (*entity.Post, error) {
	rec, err := getJSON[model.PostRecord](ctx, r.store, postKey(id))
	if err != nil {
		return nil, err
	}
	return ToPostEntity(rec), nil
}

func (r *postRepository) GetMany(ctx context.Context, ids []string) ([]*entity.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = postKey(id)
	}
	recs, err := mgetJSON[model.PostRecord](ctx, r.store, keys)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Post, len(recs))
	for i, rec := range recs {
		out[i] = ToPostEntity(rec)
	}
	return out, nil
}

func (r *postRepository) Update(ctx context.Context, post *entity.Post) error {
	return setJSON(ctx, r.store, postKey(post.ID), ToPostRecord(post))
}

func (r *postRepository) Delete(ctx context.Context, post *entity.Post) error {
	if err := r.store.Del(ctx, postKey(post.ID)); err != nil {
		return err
	}
	if err := r.store.ZRem(ctx, userPostsKey(post.Username), post.ID); err != nil {
		return err
	}
	return r.store.ZRem(ctx, postsIndexKey, post.ID)
}

func (r *postRepository) UserPostIDs(ctx context.Context, username string, max int) ([]kv.ScoredMember, error) {
	return r.store.ZRevRangeWithScores(ctx, userPostsKey(username), 0, rangeStop(max))
}

func (r *postRepository) LatestPostIDs(ctx context.Context, max int) ([]kv.ScoredMember, error) {
	return r.store.ZRevRangeWithScores(ctx, postsIndexKey, 0, rangeStop(max))
}

func rangeStop(max int) int64 {
	if max > 0 {
		return int64(max - 1)
	}
	return -1
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	return r.store.ZCard(ctx, postsIndexKey)
}
