package usecase

import (
	"context"

	"chronofeed/pkg/apperror"
	"chronofeed/pkg/logger"
	"chronofeed/services/social/internal/entity"
	"chronofeed/services/social/internal/repo/persistent"
)

type FeedUseCase interface {
	// GetFeed returns the posts of username and everyone they follow.
	GetFeed(ctx context.Context, username string, page, limit int) (*entity.FeedPage, error)
	// GetLatestPosts returns the posts of every registered user.
	GetLatestPosts(ctx context.Context, page, limit int) (*entity.FeedPage, error)
}

type feedUseCase struct {
	profiles  persistent.ProfileRepository
	graph     persistent.GraphRepository
	assembler *feedAssembler
	maxScan   int
	logger    *logger.Logger
}

func NewFeedUseCase(
	profiles persistent.ProfileRepository,
	graph persistent.GraphRepository,
	posts persistent.PostRepository,
	comments persistent.CommentRepository,
	limits Limits,
	logger *logger.Logger,
) FeedUseCase {
	return &feedUseCase{
		profiles: profiles,
		graph:    graph,
		assembler: &feedAssembler{
			posts:    posts,
			comments: comments,
			profiles: profiles,
		},
		maxScan: limits.FeedMaxScan,
		logger:  logger,
	}
}

func (uc *feedUseCase) GetFeed(ctx context.Context, username string, page, limit int) (*entity.FeedPage, error) {
	if username == "" {
		return nil, apperror.Validation("username is required")
	}

	profile, err := uc.profiles.GetByUsername(ctx, normalizeUsername(username))
	if err != nil {
		return nil, lookup(err, "user")
	}

	following, err := uc.graph.Following(ctx, profile.Email)
	if err != nil {
		return nil, apperror.Upstream("get following", err)
	}

	candidates := append([]string{profile.Username}, following...)
	return uc.assembler.assemble(ctx, assembleRequest{
		kind:    "following",
		postIDs: uc.assembler.fromUsers(candidates),
		page:    page,
		limit:   limit,
		visible: notHidden,
	})
}

// GetLatestPosts only considers the newest maxScan posts of the site-wide
// index, hidden ones included.
func (uc *feedUseCase) GetLatestPosts(ctx context.Context, page, limit int) (*entity.FeedPage, error) {
	return uc.assembler.assemble(ctx, assembleRequest{
		kind:    "latest",
		postIDs: uc.assembler.fromIndex(uc.maxScan),
		page:    page,
		limit:   limit,
		visible: notHidden,
	})
}
