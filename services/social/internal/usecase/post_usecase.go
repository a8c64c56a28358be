package usecase

import (
	"context"
	"fmt"
	"time"

	"chronofeed/pkg/apperror"
	"chronofeed/pkg/logger"
	"chronofeed/pkg/metrics"
	"chronofeed/pkg/queue"
	"chronofeed/pkg/text"
	"chronofeed/services/social/internal/entity"
	"chronofeed/services/social/internal/repo/persistent"

	"github.com/google/uuid"
)

type PostUseCase interface {
	CreateTextPost(ctx context.Context, email, content string) (*entity.Post, error)
	CreateImagePost(ctx context.Context, email string, upload entity.Upload, caption string) (*entity.Post, error)
	GetPost(ctx context.Context, id, viewerEmail string) (*entity.Post, error)
	ListUserPosts(ctx context.Context, username, viewerEmail string, page, limit int) (*entity.FeedPage, error)
	UpdatePost(ctx context.Context, id, email string, patch entity.PostPatch) (*entity.Post, error)
	DeletePost(ctx context.Context, id, email string) error
}

type postUseCase struct {
	posts     persistent.PostRepository
	comments  persistent.CommentRepository
	profiles  persistent.ProfileRepository
	blobs     BlobStorage
	publisher queue.Publisher
	limits    Limits
	assembler *feedAssembler
	logger    *logger.Logger
}

func NewPostUseCase(
	posts persistent.PostRepository,
	comments persistent.CommentRepository,
	profiles persistent.ProfileRepository,
	blobs BlobStorage,
	publisher queue.Publisher,
	limits Limits,
	logger *logger.Logger,
) PostUseCase {
	return &postUseCase{
		posts:     posts,
		comments:  comments,
		profiles:  profiles,
		blobs:     blobs,
		publisher: publisher,
		limits:    limits,
		assembler: &feedAssembler{
			posts:    posts,
			comments: comments,
			profiles: profiles,
		},
		logger: logger,
	}
}

func (uc *postUseCase) author(ctx context.Context, email string) (*entity.UserProfile, error) {
	if email == "" {
		return nil, apperror.Unauthorized("Unauthorized")
	}
	profile, err := uc.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, lookup(err, "profile")
	}
	return profile, nil
}

func (uc *postUseCase) CreateTextPost(ctx context.Context, email, content string) (*entity.Post, error) {
	content = text.Sanitize(content)
	if n := text.Length(content); n == 0 || n > maxTextLength {
		return nil, apperror.Validationf("content must be 1-%d characters", maxTextLength)
	}

	profile, err := uc.author(ctx, email)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	post := &entity.Post{
		ID:        newID("text", now),
		Type:      entity.PostTypeText,
		Username:  profile.Username,
		UserEmail: profile.Email,
		PostDate:  now,
		Content:   content,
	}
	if err := uc.posts.Create(ctx, post); err != nil {
		return nil, apperror.Upstream("create post", err)
	}

	uc.created(ctx, post, content)
	return post, nil
}

func (uc *postUseCase) CreateImagePost(ctx context.Context, email string, upload entity.Upload, caption string) (*entity.Post, error) {
	if len(upload.Data) == 0 {
		return nil, apperror.Validation("No file provided")
	}
	if int64(len(upload.Data)) > uc.limits.UploadMaxBytes {
		return nil, apperror.Validationf("file exceeds %d bytes", uc.limits.UploadMaxBytes)
	}
	caption = text.Sanitize(caption)
	if text.Length(caption) > maxCaptionLength {
		return nil, apperror.Validationf("caption must be at most %d characters", maxCaptionLength)
	}

	profile, err := uc.author(ctx, email)
	if err != nil {
		return nil, err
	}

	img, err := processImage(upload.Data, uc.limits.ImageMaxDimension)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("posts/%s/%s%s", profile.Username, uuid.NewString(), img.Ext)
	url, err := uc.blobs.Upload(ctx, key, img.Data, img.ContentType)
	if err != nil {
		return nil, apperror.Upstream("upload image", err)
	}

	now := time.Now().UTC()
	post := &entity.Post{
		ID:          newID("image", now),
		Type:        entity.PostTypeImage,
		Username:    profile.Username,
		UserEmail:   profile.Email,
		PostDate:    now,
		URL:         url,
		Caption:     caption,
		CaptureDate: img.CaptureDate,
		BlobKey:     key,
	}
	if err := uc.posts.Create(ctx, post); err != nil {
		if delErr := uc.blobs.Delete(ctx, key); delErr != nil {
			uc.logger.Warn("Failed to delete orphaned blob %s: %v", key, delErr)
		}
		return nil, apperror.Upstream("create post", err)
	}

	uc.created(ctx, post, caption)
	return post, nil
}

// created records metrics and publishes the post and mention events.
func (uc *postUseCase) created(ctx context.Context, post *entity.Post, body string) {
	metrics.PostsCreated.WithLabelValues(string(post.Type)).Inc()
	uc.logger.Info("Post created: id=%s, user=%s, type=%s", post.ID, post.Username, post.Type)

	publish(ctx, uc.publisher, uc.logger, queue.PostCreated, map[string]string{
		"postId":   post.ID,
		"username": post.Username,
		"type":     string(post.Type),
	})
	notifyMentions(ctx, uc.profiles, uc.publisher, uc.logger, body, post.Username, map[string]string{
		"postId": post.ID,
	})
}

func (uc *postUseCase) GetPost(ctx context.Context, id, viewerEmail string) (*entity.Post, error) {
	if id == "" {
		return nil, apperror.Validation("Post ID is required")
	}
	post, err := uc.posts.Get(ctx, id)
	if err != nil {
		return nil, lookup(err, "Post")
	}
	if !post.VisibleTo(viewerEmail) {
		return nil, apperror.NotFound("Post")
	}

	count, err := uc.comments.Count(ctx, id)
	if err != nil {
		return nil, apperror.Upstream("count comments", err)
	}
	post.CommentCount = count
	return post, nil
}

func (uc *postUseCase) ListUserPosts(ctx context.Context, username, viewerEmail string, page, limit int) (*entity.FeedPage, error) {
	if username == "" {
		return nil, apperror.Validation("username is required")
	}
	profile, err := uc.profiles.GetByUsername(ctx, normalizeUsername(username))
	if err != nil {
		return nil, lookup(err, "User")
	}

	return uc.assembler.assemble(ctx, assembleRequest{
		kind:    "user",
		postIDs: uc.assembler.fromUsers([]string{profile.Username}),
		page:    page,
		limit:   limit,
		visible: func(p *entity.Post) bool { return p.VisibleTo(viewerEmail) },
	})
}

// owned loads a post and checks that email owns it.
func (uc *postUseCase) owned(ctx context.Context, id, email string) (*entity.Post, error) {
	if id == "" {
		return nil, apperror.Validation("Post ID is required")
	}
	post, err := uc.posts.Get(ctx, id)
	if err != nil {
		return nil, lookup(err, "Post")
	}
	if !post.OwnedBy(email) {
		return nil, apperror.Forbidden("You can only modify your own posts")
	}
	return post, nil
}

func (uc *postUseCase) UpdatePost(ctx context.Context, id, email string, patch entity.PostPatch) (*entity.Post, error) {
	if patch.Empty() {
		return nil, apperror.Validation("Nothing to update")
	}
	post, err := uc.owned(ctx, id, email)
	if err != nil {
		return nil, err
	}

	if patch.Caption != nil {
		if post.Type != entity.PostTypeImage {
			return nil, apperror.Validation("Only image posts have a caption")
		}
		caption := text.Sanitize(*patch.Caption)
		if text.Length(caption) > maxCaptionLength {
			return nil, apperror.Validationf("caption must be at most %d characters", maxCaptionLength)
		}
		post.Caption = caption
	}
	if patch.Content != nil {
		if post.Type != entity.PostTypeText {
			return nil, apperror.Validation("Only text posts have content")
		}
		content := text.Sanitize(*patch.Content)
		if n := text.Length(content); n == 0 || n > maxTextLength {
			return nil, apperror.Validationf("content must be 1-%d characters", maxTextLength)
		}
		post.Content = content
	}
	if patch.Hidden != nil {
		post.Hidden = *patch.Hidden
	}

	count, err := uc.comments.Count(ctx, id)
	if err != nil {
		return nil, apperror.Upstream("count comments", err)
	}
	post.CommentCount = count

	if err := uc.posts.Update(ctx, post); err != nil {
		return nil, apperror.Upstream("update post", err)
	}
	return post, nil
}

func (uc *postUseCase) DeletePost(ctx context.Context, id, email string) error {
	post, err := uc.owned(ctx, id, email)
	if err != nil {
		return err
	}

	if post.BlobKey != "" {
		if err := uc.blobs.Delete(ctx, post.BlobKey); err != nil {
			return apperror.Upstream("delete image", err)
		}
	}
	if err := uc.comments.DeleteAllForPost(ctx, id); err != nil {
		return apperror.Upstream("delete comments", err)
	}
	if err := uc.posts.Delete(ctx, post); err != nil {
		return apperror.Upstream("delete post", err)
	}

	uc.logger.Info("Post deleted: id=%s, user=%s", id, post.Username)
	return nil
}

// notifyMentions publishes user.mentioned for every mentioned username that
// exists and is not the author.
func notifyMentions(
	ctx context.Context,
	profiles persistent.ProfileRepository,
	pub queue.Publisher,
	log *logger.Logger,
	body, author string,
	extra map[string]string,
) {
	names := text.Mentions(body)
	if len(names) == 0 {
		return
	}
	found, err := profiles.GetManyByUsername(ctx, names)
	if err != nil {
		log.Warn("Failed to resolve mentions: %v", err)
		return
	}
	for _, p := range found {
		if p == nil || p.Username == author {
			continue
		}
		data := map[string]string{
			"mentioned":      p.Username,
			"mentionedEmail": p.Email,
			"author":         author,
		}
		for k, v := range extra {
			data[k] = v
		}
		publish(ctx, pub, log, queue.UserMentioned, data)
	}
}
