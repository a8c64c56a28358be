package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chronofeed/pkg/apperror"
	"chronofeed/pkg/logger"
	"chronofeed/pkg/metrics"
	"chronofeed/pkg/pagination"
	"chronofeed/pkg/queue"
	"chronofeed/services/social/internal/entity"
	"chronofeed/services/social/internal/repo/persistent"
)

// maxNotifications is how many inbox entries are kept per user.
const maxNotifications = 100

// LivePublisher pushes a stored notification to the recipient's open
// connections.
type LivePublisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// NotificationTopic is the live channel of one recipient.
func NotificationTopic(email string) string {
	return "notifications:" + email
}

type NotificationUseCase interface {
	// HandleEvent turns a follow, comment or mention event into an inbox
	// entry for the affected user. Errors wrapping queue.ErrDrop mark
	// events that must not be retried.
	HandleEvent(ctx context.Context, event queue.Event) error
	ListNotifications(ctx context.Context, email string, page, limit int) (*entity.NotificationPage, error)
}

type notificationUseCase struct {
	notifications persistent.NotificationRepository
	profiles      persistent.ProfileRepository
	live          LivePublisher
	logger        *logger.Logger
}

// NewNotificationUseCase builds the inbox use case. live may be nil when no
// pub/sub backend is available.
func NewNotificationUseCase(
	notifications persistent.NotificationRepository,
	profiles persistent.ProfileRepository,
	live LivePublisher,
	logger *logger.Logger,
) NotificationUseCase {
	return &notificationUseCase{
		notifications: notifications,
		profiles:      profiles,
		live:          live,
		logger:        logger,
	}
}

func (uc *notificationUseCase) HandleEvent(ctx context.Context, event queue.Event) error {
	n, recipient, err := notificationFor(event)
	if err != nil {
		uc.logger.Warn("[NOTIFICATION] Dropping %s event: %v", event.Type, err)
		return fmt.Errorf("%v: %w", err, queue.ErrDrop)
	}
	if n == nil {
		return nil
	}

	profile, err := uc.profiles.GetByEmail(ctx, recipient)
	if isNotFound(err) {
		uc.logger.Info("[NOTIFICATION] Recipient %s has no profile, skipping %s", recipient, event.Type)
		return nil
	}
	if err != nil {
		return apperror.Upstream("get recipient", err)
	}
	if profile.Username == n.Actor {
		return nil
	}

	n.CreatedAt = event.OccurredAt.UTC()
	if event.OccurredAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n.ID = newID("notification", n.CreatedAt)

	if err := uc.notifications.Add(ctx, recipient, n); err != nil {
		return apperror.Upstream("store notification", err)
	}
	if err := uc.notifications.Trim(ctx, recipient, maxNotifications); err != nil {
		uc.logger.Warn("[NOTIFICATION] Failed to trim inbox of %s: %v", recipient, err)
	}

	uc.push(ctx, recipient, n)

	metrics.NotificationsStored.WithLabelValues(string(n.Type)).Inc()
	uc.logger.Debug("[NOTIFICATION] Stored %s notification for %s from %s", n.Type, profile.Username, n.Actor)
	return nil
}

func (uc *notificationUseCase) push(ctx context.Context, recipient string, n *entity.Notification) {
	if uc.live == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		uc.logger.Warn("[NOTIFICATION] Failed to encode notification %s: %v", n.ID, err)
		return
	}
	if err := uc.live.Publish(ctx, NotificationTopic(recipient), payload); err != nil {
		uc.logger.Warn("[NOTIFICATION] Failed to push notification to %s: %v", recipient, err)
	}
}

// notificationFor maps an event to an unsaved notification and its
// recipient's email. Events that never notify anyone yield nil.
func notificationFor(event queue.Event) (*entity.Notification, string, error) {
	d := event.Data
	var (
		n         *entity.Notification
		recipient string
	)
	switch event.Type {
	case queue.UserFollowed:
		recipient = d["targetEmail"]
		n = &entity.Notification{
			Type:    entity.NotificationFollow,
			Actor:   d["follower"],
			Message: fmt.Sprintf("%s started following you", d["follower"]),
		}
	case queue.CommentCreated:
		recipient = d["ownerEmail"]
		n = &entity.Notification{
			Type:      entity.NotificationComment,
			Actor:     d["commenter"],
			PostID:    d["postId"],
			CommentID: d["commentId"],
			Message:   fmt.Sprintf("%s commented on your post", d["commenter"]),
		}
	case queue.UserMentioned:
		recipient = d["mentionedEmail"]
		where := "a post"
		if d["commentId"] != "" {
			where = "a comment"
		}
		n = &entity.Notification{
			Type:      entity.NotificationMention,
			Actor:     d["author"],
			PostID:    d["postId"],
			CommentID: d["commentId"],
			Message:   fmt.Sprintf("%s mentioned you in %s", d["author"], where),
		}
	case queue.PostCreated:
		return nil, "", nil
	default:
		return nil, "", fmt.Errorf("unknown event type %q", event.Type)
	}

	if recipient == "" || n.Actor == "" {
		return nil, "", fmt.Errorf("event is missing its recipient or actor")
	}
	return n, recipient, nil
}

func (uc *notificationUseCase) ListNotifications(ctx context.Context, email string, page, limit int) (*entity.NotificationPage, error) {
	if email == "" {
		return nil, apperror.Unauthorized("Authentication required")
	}

	total, err := uc.notifications.Count(ctx, email)
	if err != nil {
		return nil, apperror.Upstream("count notifications", err)
	}
	meta := pagination.New(int(total), page, limit)
	start, end := meta.Bounds()

	items, err := uc.notifications.List(ctx, email, start, end-start)
	if err != nil {
		return nil, apperror.Upstream("list notifications", err)
	}
	return &entity.NotificationPage{Notifications: items, Pagination: meta}, nil
}
