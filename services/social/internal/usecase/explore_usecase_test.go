package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, name := range []string{"alice", "bob", "carol", "dave"} {
		env.signup(t, name)
	}
	env.follow(t, "alice", "carol")
	env.follow(t, "bob", "carol")
	env.follow(t, "alice", "bob")
	env.seedPost(t, "alice", 1, false)
	env.seedPost(t, "bob", 2, false)

	board, err := env.exploreUC.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 4)
	assert.Equal(t, "carol", board[0].Username)
	assert.Equal(t, int64(2), board[0].FollowerCount)
	assert.Equal(t, "bob", board[1].Username)
	// ties ordered by username
	assert.Equal(t, "alice", board[2].Username)
	assert.Equal(t, "dave", board[3].Username)

	top2, err := env.exploreUC.Leaderboard(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, top2, 2)

	stats, err := env.exploreUC.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalUsers)
	assert.Equal(t, int64(2), stats.TotalPosts)
	assert.Len(t, stats.TopFollowedAccounts, 4)

	latest, err := env.exploreUC.LatestSignups(ctx, 3)
	require.NoError(t, err)
	require.Len(t, latest, 3)
	for i := 1; i < len(latest); i++ {
		assert.False(t, latest[i].CreatedAt.After(*latest[i-1].CreatedAt))
	}
}
