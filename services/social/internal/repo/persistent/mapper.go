package persistent

import (
	"time"

	"chronofeed/services/social/internal/entity"
	"chronofeed/services/social/internal/model"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime tolerates a missing or malformed timestamp as the zero time.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func ToPostEntity(m *model.PostRecord) *entity.Post {
	if m == nil {
		return nil
	}

	post := &entity.Post{
		ID:           m.ID,
		Type:         entity.PostType(m.Type),
		Username:     m.Username,
		UserEmail:    m.UserEmail,
		PostDate:     parseTime(m.PostDate),
		Hidden:       m.Hidden,
		CommentCount: m.CommentCount,
		URL:          m.URL,
		Caption:      m.Caption,
		Content:      m.Content,
		BlobKey:      m.BlobKey,
	}
	if m.CaptureDate != nil {
		if t := parseTime(*m.CaptureDate); !t.IsZero() {
			post.CaptureDate = &t
		}
	}
	return post
}

func ToPostRecord(e *entity.Post) *model.PostRecord {
	if e == nil {
		return nil
	}

	rec := &model.PostRecord{
		ID:           e.ID,
		Type:         string(e.Type),
		Username:     e.Username,
		UserEmail:    e.UserEmail,
		PostDate:     formatTime(e.PostDate),
		Hidden:       e.Hidden,
		CommentCount: e.CommentCount,
		URL:          e.URL,
		Caption:      e.Caption,
		Content:      e.Content,
		BlobKey:      e.BlobKey,
	}
	if e.CaptureDate != nil {
		s := formatTime(*e.CaptureDate)
		rec.CaptureDate = &s
	}
	return rec
}

func ToProfileEntity(m *model.ProfileRecord) *entity.UserProfile {
	if m == nil {
		return nil
	}
	return &entity.UserProfile{
		Email:          m.Email,
		Username:       m.Username,
		DisplayName:    m.DisplayName,
		Bio:            m.Bio,
		ProfilePicture: m.ProfilePicture,
		AvatarKey:      m.AvatarKey,
		CreatedAt:      parseTime(m.CreatedAt),
	}
}

func ToProfileRecord(e *entity.UserProfile) *model.ProfileRecord {
	if e == nil {
		return nil
	}
	return &model.ProfileRecord{
		Email:          e.Email,
		Username:       e.Username,
		DisplayName:    e.DisplayName,
		Bio:            e.Bio,
		ProfilePicture: e.ProfilePicture,
		AvatarKey:      e.AvatarKey,
		CreatedAt:      formatTime(e.CreatedAt),
	}
}

func ToSettingsEntity(m *model.SettingsRecord) *entity.UserSettings {
	if m == nil {
		return nil
	}
	return &entity.UserSettings{
		Theme:              entity.Theme(m.Theme),
		EmailNotifications: m.EmailNotifications,
	}
}

func ToSettingsRecord(e *entity.UserSettings) *model.SettingsRecord {
	if e == nil {
		return nil
	}
	return &model.SettingsRecord{
		Theme:              string(e.Theme),
		EmailNotifications: e.EmailNotifications,
	}
}

func ToCommentEntity(m *model.CommentRecord) *entity.Comment {
	if m == nil {
		return nil
	}
	return &entity.Comment{
		ID:        m.ID,
		PostID:    m.PostID,
		Username:  m.Username,
		UserEmail: m.UserEmail,
		Content:   m.Content,
		CreatedAt: parseTime(m.CreatedAt),
	}
}

func ToCommentRecord(e *entity.Comment) *model.CommentRecord {
	if e == nil {
		return nil
	}
	return &model.CommentRecord{
		ID:        e.ID,
		PostID:    e.PostID,
		Username:  e.Username,
		UserEmail: e.UserEmail,
		Content:   e.Content,
		CreatedAt: formatTime(e.CreatedAt),
	}
}

func ToNotificationEntity(m *model.NotificationRecord) *entity.Notification {
	if m == nil {
		return nil
	}
	return &entity.Notification{
		ID:        m.ID,
		Type:      entity.NotificationType(m.Type),
		Actor:     m.Actor,
		PostID:    m.PostID,
		CommentID: m.CommentID,
		Message:   m.Message,
		CreatedAt: parseTime(m.CreatedAt),
	}
}

func ToNotificationRecord(e *entity.Notification) *model.NotificationRecord {
	if e == nil {
		return nil
	}
	return &model.NotificationRecord{
		ID:        e.ID,
		Type:      string(e.Type),
		Actor:     e.Actor,
		PostID:    e.PostID,
		CommentID: e.CommentID,
		Message:   e.Message,
		CreatedAt: formatTime(e.CreatedAt),
	}
}
