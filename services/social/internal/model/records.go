// Package model holds the JSON records persisted in the key-value store.
package model

type PostRecord struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Username     string  `json:"username"`
	UserEmail    string  `json:"userEmail"`
	PostDate     string  `json:"postDate"`
	Hidden       bool    `json:"hidden"`
	CommentCount int64   `json:"commentCount"`
	URL          string  `json:"url,omitempty"`
	Caption      string  `json:"caption,omitempty"`
	CaptureDate  *string `json:"captureDate"`
	Content      string  `json:"content,omitempty"`
	BlobKey      string  `json:"blobKey,omitempty"`
}

type ProfileRecord struct {
	Email          string `json:"email"`
	Username       string `json:"username"`
	DisplayName    string `json:"displayName"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	AvatarKey      string `json:"avatarKey,omitempty"`
	CreatedAt      string `json:"createdAt"`
}

type SettingsRecord struct {
	Theme              string `json:"theme"`
	EmailNotifications bool   `json:"emailNotifications"`
}

type CommentRecord struct {
	ID        string `json:"id"`
	PostID    string `json:"postId"`
	Username  string `json:"username"`
	UserEmail string `json:"userEmail"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

type NotificationRecord struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Actor     string `json:"actor"`
	PostID    string `json:"postId,omitempty"`
	CommentID string `json:"commentId,omitempty"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}
