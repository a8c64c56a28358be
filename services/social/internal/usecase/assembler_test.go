package usecase

import (
	"testing"
	"time"

	"chronofeed/services/social/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestMergeNewest(t *testing.T) {
	lists := [][]scored{
		{{"b3", 3}, {"b1", 1}},
		{{"c2", 2}, {"x", 2}},
		{{"b3", 3}},
	}

	assert.Equal(t, []string{"b3", "x", "c2", "b1"}, mergeNewest(lists))
	assert.Empty(t, mergeNewest(nil))
}

func TestSortPosts(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	posts := []*entity.Post{
		{ID: "a", PostDate: t0},
		{ID: "c", PostDate: t0.Add(time.Minute)},
		{ID: "b", PostDate: t0},
	}

	sortPosts(posts)

	assert.Equal(t, "c", posts[0].ID)
	assert.Equal(t, "b", posts[1].ID)
	assert.Equal(t, "a", posts[2].ID)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dedupe([]string{"a", "", "b", "a"}))
}
