package http

import (
	"context"

	"chronofeed/pkg/logger"
	"chronofeed/pkg/middleware"
	"chronofeed/pkg/queue"
	"chronofeed/services/social/internal/entity"
	"chronofeed/services/social/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

var testPaging = Paging{DefaultLimit: 20, MaxLimit: 100}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// asUser stands in for the auth middleware.
func asUser(email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if email != "" {
			c.Set(middleware.ContextUserEmail, email)
		}
		c.Next()
	}
}

var testLogger = logger.New()

// MockFeedUseCase is a mock implementation of FeedUseCase
type MockFeedUseCase struct {
	mock.Mock
}

func (m *MockFeedUseCase) GetFeed(ctx context.Context, username string, page, limit int) (*entity.FeedPage, error) {
	args := m.Called(ctx, username, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FeedPage), args.Error(1)
}

func (m *MockFeedUseCase) GetLatestPosts(ctx context.Context, page, limit int) (*entity.FeedPage, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FeedPage), args.Error(1)
}

var _ usecase.FeedUseCase = (*MockFeedUseCase)(nil)

// MockPostUseCase is a mock implementation of PostUseCase
type MockPostUseCase struct {
	mock.Mock
}

func (m *MockPostUseCase) CreateTextPost(ctx context.Context, email, content string) (*entity.Post, error) {
	args := m.Called(ctx, email, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) CreateImagePost(ctx context.Context, email string, upload entity.Upload, caption string) (*entity.Post, error) {
	args := m.Called(ctx, email, upload, caption)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) GetPost(ctx context.Context, id, viewerEmail string) (*entity.Post, error) {
	args := m.Called(ctx, id, viewerEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) ListUserPosts(ctx context.Context, username, viewerEmail string, page, limit int) (*entity.FeedPage, error) {
	args := m.Called(ctx, username, viewerEmail, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FeedPage), args.Error(1)
}

func (m *MockPostUseCase) UpdatePost(ctx context.Context, id, email string, patch entity.PostPatch) (*entity.Post, error) {
	args := m.Called(ctx, id, email, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) DeletePost(ctx context.Context, id, email string) error {
	args := m.Called(ctx, id, email)
	return args.Error(0)
}

var _ usecase.PostUseCase = (*MockPostUseCase)(nil)

// MockCommentUseCase is a mock implementation of CommentUseCase
type MockCommentUseCase struct {
	mock.Mock
}

func (m *MockCommentUseCase) ListComments(ctx context.Context, postID, viewerEmail string) ([]*entity.Comment, error) {
	args := m.Called(ctx, postID, viewerEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Comment), args.Error(1)
}

func (m *MockCommentUseCase) CreateComment(ctx context.Context, email, postID, content string) (*entity.Comment, error) {
	args := m.Called(ctx, email, postID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Comment), args.Error(1)
}

func (m *MockCommentUseCase) DeleteComment(ctx context.Context, id, email string) error {
	args := m.Called(ctx, id, email)
	return args.Error(0)
}

var _ usecase.CommentUseCase = (*MockCommentUseCase)(nil)

// MockProfileUseCase is a mock implementation of ProfileUseCase
type MockProfileUseCase struct {
	mock.Mock
}

func (m *MockProfileUseCase) GetProfile(ctx context.Context, username, email, viewerEmail string) (*entity.ProfileView, error) {
	args := m.Called(ctx, username, email, viewerEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProfileView), args.Error(1)
}

func (m *MockProfileUseCase) CreateProfile(ctx context.Context, email, username, bio string) (*entity.UserProfile, error) {
	args := m.Called(ctx, email, username, bio)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserProfile), args.Error(1)
}

func (m *MockProfileUseCase) UpdateProfile(ctx context.Context, email string, patch entity.ProfilePatch) (*entity.ProfileView, error) {
	args := m.Called(ctx, email, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProfileView), args.Error(1)
}

func (m *MockProfileUseCase) UploadAvatar(ctx context.Context, email string, upload entity.Upload) (*entity.UserProfile, error) {
	args := m.Called(ctx, email, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserProfile), args.Error(1)
}

func (m *MockProfileUseCase) Follow(ctx context.Context, followerEmail, targetUsername string) error {
	return m.Called(ctx, followerEmail, targetUsername).Error(0)
}

func (m *MockProfileUseCase) Unfollow(ctx context.Context, followerEmail, targetUsername string) error {
	return m.Called(ctx, followerEmail, targetUsername).Error(0)
}

func (m *MockProfileUseCase) ListFollowing(ctx context.Context, username string) ([]*entity.UserProfile, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.UserProfile), args.Error(1)
}

func (m *MockProfileUseCase) ListFollowers(ctx context.Context, username string) ([]*entity.UserProfile, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.UserProfile), args.Error(1)
}

var _ usecase.ProfileUseCase = (*MockProfileUseCase)(nil)

// MockExploreUseCase is a mock implementation of ExploreUseCase
type MockExploreUseCase struct {
	mock.Mock
}

func (m *MockExploreUseCase) Stats(ctx context.Context) (*entity.SiteStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SiteStats), args.Error(1)
}

func (m *MockExploreUseCase) Leaderboard(ctx context.Context, limit int) ([]entity.UserStat, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.UserStat), args.Error(1)
}

func (m *MockExploreUseCase) LatestSignups(ctx context.Context, limit int) ([]entity.UserStat, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.UserStat), args.Error(1)
}

var _ usecase.ExploreUseCase = (*MockExploreUseCase)(nil)

// MockNotificationUseCase is a mock implementation of NotificationUseCase
type MockNotificationUseCase struct {
	mock.Mock
}

func (m *MockNotificationUseCase) HandleEvent(ctx context.Context, event queue.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockNotificationUseCase) ListNotifications(ctx context.Context, email string, page, limit int) (*entity.NotificationPage, error) {
	args := m.Called(ctx, email, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.NotificationPage), args.Error(1)
}

var _ usecase.NotificationUseCase = (*MockNotificationUseCase)(nil)
