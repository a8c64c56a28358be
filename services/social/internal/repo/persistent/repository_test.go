package persistent

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"chronofeed/pkg/kv"
	"chronofeed/services/social/internal/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) kv.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return kv.NewRedisStore(client)
}

func TestPostRepository_KeyLayout(t *testing.T) {
	store := newTestStore(t)
	repo := NewPostRepository(store)
	ctx := context.Background()

	captured := testTime.Add(-48 * time.Hour)
	post := &entity.Post{
		ID:          "image_1717234200000_abc",
		Type:        entity.PostTypeImage,
		Username:    "alice",
		UserEmail:   "alice@example.com",
		PostDate:    testTime,
		URL:         "https://blobs.test/posts/alice/x.jpg",
		Caption:     "sunset",
		CaptureDate: &captured,
		BlobKey:     "posts/alice/x.jpg",
	}
	require.NoError(t, repo.Create(ctx, post))

	raw, err := store.Get(ctx, "post:"+post.ID)
	require.NoError(t, err)
	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.Equal(t, "2024-06-01T09:30:00Z", rec["postDate"])
	assert.Equal(t, "posts/alice/x.jpg", rec["blobKey"])
	assert.Equal(t, "alice@example.com", rec["userEmail"])

	mine, err := store.ZRevRangeWithScores(ctx, "user:alice:posts", 0, -1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, float64(testTime.UnixMilli()), mine[0].Score)
	all, err := store.ZRange(ctx, "posts", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{post.ID}, all)

	got, err := repo.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post, got)

	require.NoError(t, repo.Delete(ctx, post))
	_, err = repo.Get(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	n, err := store.ZCard(ctx, "posts")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostRepository_IndexRanges(t *testing.T) {
	repo := NewPostRepository(newTestStore(t))
	ctx := context.Background()

	for i, user := range []string{"alice", "bob", "alice", "bob"} {
		require.NoError(t, repo.Create(ctx, &entity.Post{
			ID:       fmt.Sprintf("text_%d", i),
			Type:     entity.PostTypeText,
			Username: user,
			PostDate: testTime.Add(time.Duration(i) * time.Minute),
			Content:  "hi",
		}))
	}

	ids := func(members []kv.ScoredMember) []string {
		out := make([]string, len(members))
		for i, m := range members {
			out[i] = m.Member
		}
		return out
	}

	latest, err := repo.LatestPostIDs(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"text_3", "text_2"}, ids(latest))

	all, err := repo.LatestPostIDs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	bob, err := repo.UserPostIDs(ctx, "bob", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"text_3", "text_1"}, ids(bob))
}

func TestProfileRepository_Claims(t *testing.T) {
	store := newTestStore(t)
	repo := NewProfileRepository(store)
	ctx := context.Background()

	alice := &entity.UserProfile{Email: "alice@example.com", Username: "alice", CreatedAt: testTime}
	ok, err := repo.Claim(ctx, alice)
	require.NoError(t, err)
	assert.True(t, ok)

	imposter := &entity.UserProfile{Email: "mallory@example.com", Username: "alice", CreatedAt: testTime}
	ok, err = repo.Claim(ctx, imposter)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.ClaimEmail(ctx, alice)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.ClaimEmail(ctx, &entity.UserProfile{Email: "alice@example.com", Username: "alice2"})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	require.NoError(t, repo.Release(ctx, "alice"))
	_, err = repo.GetByUsername(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGraphRepository_StoresBothSides(t *testing.T) {
	store := newTestStore(t)
	repo := NewGraphRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Follow(ctx, "alice@example.com", "bob", "bob@example.com"))

	following, err := store.SMembers(ctx, "user:alice@example.com:following")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, following)
	followers, err := store.SMembers(ctx, "user:bob@example.com:followers")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com"}, followers)

	require.NoError(t, repo.Unfollow(ctx, "alice@example.com", "bob", "bob@example.com"))
	ok, err := repo.IsFollowing(ctx, "alice@example.com", "bob")
	require.NoError(t, err)
	assert.False(t, ok)
	n, err := repo.FollowerCount(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCommentRepository_DeleteAllForPost(t *testing.T) {
	store := newTestStore(t)
	repo := NewCommentRepository(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &entity.Comment{
			ID:        fmt.Sprintf("comment_%d", i),
			PostID:    "p1",
			Username:  "bob",
			UserEmail: "bob@example.com",
			Content:   "hi",
			CreatedAt: testTime.Add(time.Duration(i) * time.Second),
		}))
	}
	counts, err := repo.Counts(ctx, []string{"p1", "p2"})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 0}, counts)

	require.NoError(t, repo.DeleteAllForPost(ctx, "p1"))
	_, err = store.Get(ctx, "comment:comment_1")
	assert.ErrorIs(t, err, ErrNotFound)
	list, err := repo.ListByPost(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNotificationRepository_ListAndTrim(t *testing.T) {
	store := newTestStore(t)
	repo := NewNotificationRepository(store)
	ctx := context.Background()
	const email = "alice@example.com"

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Add(ctx, email, &entity.Notification{
			ID:        fmt.Sprintf("n%d", i),
			Type:      entity.NotificationFollow,
			Actor:     "bob",
			Message:   "bob started following you",
			CreatedAt: testTime.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, err := repo.List(ctx, email, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "n3", page[0].ID)
	assert.Equal(t, "n2", page[1].ID)

	require.NoError(t, repo.Trim(ctx, email, 3))
	n, err := repo.Count(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	_, err = store.Get(ctx, "notification:n0")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, "notification:n2")
	assert.NoError(t, err)

	// trimming below the limit is a no-op
	require.NoError(t, repo.Trim(ctx, email, 10))
	all, err := repo.List(ctx, email, 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
