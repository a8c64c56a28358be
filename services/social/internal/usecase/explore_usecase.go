package usecase

import (
	"context"
	"sort"

	"chronofeed/pkg/apperror"
	"chronofeed/pkg/logger"
	"chronofeed/services/social/internal/entity"
	"chronofeed/services/social/internal/repo/persistent"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultListLimit = 50
	topAccounts      = 5
)

type ExploreUseCase interface {
	Stats(ctx context.Context) (*entity.SiteStats, error)
	Leaderboard(ctx context.Context, limit int) ([]entity.UserStat, error)
	LatestSignups(ctx context.Context, limit int) ([]entity.UserStat, error)
}

type exploreUseCase struct {
	profiles persistent.ProfileRepository
	graph    persistent.GraphRepository
	posts    persistent.PostRepository
	logger   *logger.Logger
}

func NewExploreUseCase(
	profiles persistent.ProfileRepository,
	graph persistent.GraphRepository,
	posts persistent.PostRepository,
	logger *logger.Logger,
) ExploreUseCase {
	return &exploreUseCase{profiles: profiles, graph: graph, posts: posts, logger: logger}
}

func (uc *exploreUseCase) Stats(ctx context.Context) (*entity.SiteStats, error) {
	users, err := uc.profiles.Count(ctx)
	if err != nil {
		return nil, apperror.Upstream("count users", err)
	}
	posts, err := uc.posts.Count(ctx)
	if err != nil {
		return nil, apperror.Upstream("count posts", err)
	}
	top, err := uc.Leaderboard(ctx, topAccounts)
	if err != nil {
		return nil, err
	}
	return &entity.SiteStats{TotalUsers: users, TotalPosts: posts, TopFollowedAccounts: top}, nil
}

func (uc *exploreUseCase) Leaderboard(ctx context.Context, limit int) ([]entity.UserStat, error) {
	names, err := uc.profiles.Usernames(ctx)
	if err != nil {
		return nil, apperror.Upstream("list users", err)
	}
	stats, err := uc.userStats(ctx, names)
	if err != nil {
		return nil, err
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].FollowerCount != stats[j].FollowerCount {
			return stats[i].FollowerCount > stats[j].FollowerCount
		}
		return stats[i].Username < stats[j].Username
	})
	return capStats(stats, limit), nil
}

func (uc *exploreUseCase) LatestSignups(ctx context.Context, limit int) ([]entity.UserStat, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	names, err := uc.profiles.RecentUsernames(ctx, limit)
	if err != nil {
		return nil, apperror.Upstream("list users", err)
	}
	return uc.userStats(ctx, names)
}

// userStats loads profiles in one batch and follower counts concurrently,
// keeping the order of names and skipping missing profiles.
func (uc *exploreUseCase) userStats(ctx context.Context, names []string) ([]entity.UserStat, error) {
	profiles, err := uc.profiles.GetManyByUsername(ctx, names)
	if err != nil {
		return nil, apperror.Upstream("get profiles", err)
	}

	counts := make([]int64, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(candidateFetchConcurrency)
	for i, p := range profiles {
		if p == nil {
			continue
		}
		g.Go(func() error {
			n, err := uc.graph.FollowerCount(gctx, p.Email)
			counts[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperror.Upstream("count followers", err)
	}

	stats := make([]entity.UserStat, 0, len(profiles))
	for i, p := range profiles {
		if p == nil {
			continue
		}
		createdAt := p.CreatedAt
		stats = append(stats, entity.UserStat{
			Username:       p.Username,
			DisplayName:    p.DisplayName,
			ProfilePicture: p.ProfilePicture,
			FollowerCount:  counts[i],
			CreatedAt:      &createdAt,
		})
	}
	return stats, nil
}

func capStats(stats []entity.UserStat, limit int) []entity.UserStat {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if len(stats) > limit {
		return stats[:limit]
	}
	return stats
}
