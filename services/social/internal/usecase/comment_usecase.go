package usecase

import (
	"context"
	"strings"
	"time"

	"chronofeed/pkg/apperror"
	"chronofeed/pkg/logger"
	"chronofeed/pkg/metrics"
	"chronofeed/pkg/queue"
	"chronofeed/pkg/text"
	"chronofeed/services/social/internal/entity"
	"chronofeed/services/social/internal/repo/persistent"
)

type CommentUseCase interface {
	ListComments(ctx context.Context, postID, viewerEmail string) ([]*entity.Comment, error)
	CreateComment(ctx context.Context, email, postID, content string) (*entity.Comment, error)
	DeleteComment(ctx context.Context, id, email string) error
}

type commentUseCase struct {
	comments  persistent.CommentRepository
	posts     persistent.PostRepository
	profiles  persistent.ProfileRepository
	publisher queue.Publisher
	logger    *logger.Logger
}

func NewCommentUseCase(
	comments persistent.CommentRepository,
	posts persistent.PostRepository,
	profiles persistent.ProfileRepository,
	publisher queue.Publisher,
	logger *logger.Logger,
) CommentUseCase {
	return &commentUseCase{
		comments:  comments,
		posts:     posts,
		profiles:  profiles,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *commentUseCase) visiblePost(ctx context.Context, postID, viewerEmail string) (*entity.Post, error) {
	if postID == "" {
		return nil, apperror.Validation("Post ID is required")
	}
	post, err := uc.posts.Get(ctx, postID)
	if err != nil {
		return nil, lookup(err, "Post")
	}
	if !post.VisibleTo(viewerEmail) {
		return nil, apperror.NotFound("Post")
	}
	return post, nil
}

func (uc *commentUseCase) ListComments(ctx context.Context, postID, viewerEmail string) ([]*entity.Comment, error) {
	if _, err := uc.visiblePost(ctx, postID, viewerEmail); err != nil {
		return nil, err
	}
	comments, err := uc.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, apperror.Upstream("list comments", err)
	}
	return comments, nil
}

func (uc *commentUseCase) CreateComment(ctx context.Context, email, postID, content string) (*entity.Comment, error) {
	// the limit applies to what was submitted, markup included
	if text.Length(strings.TrimSpace(content)) > maxCommentLength {
		return nil, apperror.Validationf("comment must be 1-%d characters", maxCommentLength)
	}
	content = text.Sanitize(content)
	if content == "" {
		return nil, apperror.Validationf("comment must be 1-%d characters", maxCommentLength)
	}
	if email == "" {
		return nil, apperror.Unauthorized("Unauthorized")
	}

	post, err := uc.visiblePost(ctx, postID, email)
	if err != nil {
		return nil, err
	}
	profile, err := uc.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, lookup(err, "profile")
	}

	now := time.Now().UTC()
	comment := &entity.Comment{
		ID:        newID("comment", now),
		PostID:    post.ID,
		Username:  profile.Username,
		UserEmail: profile.Email,
		Content:   content,
		CreatedAt: now,
	}
	if err := uc.comments.Create(ctx, comment); err != nil {
		return nil, apperror.Upstream("create comment", err)
	}
	if err := uc.refreshCount(ctx, post.ID); err != nil {
		return nil, err
	}
	metrics.CommentsCreated.Inc()

	publish(ctx, uc.publisher, uc.logger, queue.CommentCreated, map[string]string{
		"commentId":  comment.ID,
		"postId":     post.ID,
		"postOwner":  post.Username,
		"commenter":  profile.Username,
		"ownerEmail": post.UserEmail,
	})
	notifyMentions(ctx, uc.profiles, uc.publisher, uc.logger, content, profile.Username, map[string]string{
		"postId":    post.ID,
		"commentId": comment.ID,
	})
	return comment, nil
}

func (uc *commentUseCase) DeleteComment(ctx context.Context, id, email string) error {
	if id == "" {
		return apperror.Validation("Comment ID is required")
	}
	comment, err := uc.comments.Get(ctx, id)
	if err != nil {
		return lookup(err, "Comment")
	}
	if email == "" || comment.UserEmail != email {
		return apperror.Forbidden("You can only delete your own comments")
	}

	if err := uc.comments.Delete(ctx, comment); err != nil {
		return apperror.Upstream("delete comment", err)
	}
	return uc.refreshCount(ctx, comment.PostID)
}

// refreshCount rewrites the post's commentCount from the cardinality of its
// comment set. A post deleted in the meantime is left alone.
func (uc *commentUseCase) refreshCount(ctx context.Context, postID string) error {
	post, err := uc.posts.Get(ctx, postID)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return apperror.Upstream("get post", err)
	}
	count, err := uc.comments.Count(ctx, postID)
	if err != nil {
		return apperror.Upstream("count comments", err)
	}
	post.CommentCount = count
	if err := uc.posts.Update(ctx, post); err != nil {
		return apperror.Upstream("update comment count", err)
	}
	return nil
}
