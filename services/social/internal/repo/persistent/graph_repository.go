package persistent

import (
	"context"

	"chronofeed/pkg/kv"
)

// GraphRepository stores follow edges twice: the follower's "following"
// set holds usernames, the followee's "followers" set holds emails.
type GraphRepository interface {
	Follow(ctx context.Context, followerEmail, targetUsername, targetEmail string) error
	Unfollow(ctx context.Context, followerEmail, targetUsername, targetEmail string) error
	Following(ctx context.Context, email string) ([]string, error)
	Followers(ctx context.Context, email string) ([]string, error)
	IsFollowing(ctx context.Context, followerEmail, targetUsername string) (bool, error)
	FollowingCount(ctx context.Context, email string) (int64, error)
	FollowerCount(ctx context.Context, email string) (int64, error)
}

type graphRepository struct {
	store kv.Store
}

func NewGraphRepository(store kv.Store) GraphRepository {
	return &graphRepository{store: store}
}

func (r *graphRepository) Follow(ctx context.Context, followerEmail, targetUsername, targetEmail string) error {
	if err := r.store.SAdd(ctx, followingKey(followerEmail), targetUsername); err != nil {
		return err
	}
	return r.store.SAdd(ctx, followersKey(targetEmail), followerEmail)
}

func (r *graphRepository) Unfollow(ctx context.Context, followerEmail, targetUsername, targetEmail string) error {
	if err := r.store.SRem(ctx, followingKey(followerEmail), targetUsername); err != nil {
		return err
	}
	return r.store.SRem(ctx, followersKey(targetEmail), followerEmail)
}

func (r *graphRepository) Following(ctx context.Context, email string) ([]string, error) {
	return r.store.SMembers(ctx, followingKey(email))
}

func (r *graphRepository) Followers(ctx context.Context, email string) ([]string, error) {
	return r.store.SMembers(ctx, followersKey(email))
}

func (r *graphRepository) IsFollowing(ctx context.Context, followerEmail, targetUsername string) (bool, error) {
	return r.store.SIsMember(ctx, followingKey(followerEmail), targetUsername)
}

func (r *graphRepository) FollowingCount(ctx context.Context, email string) (int64, error) {
	return r.store.SCard(ctx, followingKey(email))
}

func (r *graphRepository) FollowerCount(ctx context.Context, email string) (int64, error) {
	return r.store.SCard(ctx, followersKey(email))
}
