package entity

import (
	"time"

	"chronofeed/pkg/pagination"
)

type NotificationType string

const (
	NotificationFollow  NotificationType = "follow"
	NotificationComment NotificationType = "comment"
	NotificationMention NotificationType = "mention"
)

// Notification is one inbox entry. Actor is the username that caused it.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Actor     string           `json:"actor"`
	PostID    string           `json:"postId,omitempty"`
	CommentID string           `json:"commentId,omitempty"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"createdAt"`
}

type NotificationPage struct {
	Notifications []*Notification `json:"notifications"`
	Pagination    pagination.Meta `json:"pagination"`
}
