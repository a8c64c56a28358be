package entity

import "time"

type PostType string

const (
	PostTypeImage PostType = "image"
	PostTypeText  PostType = "text"
)

// Post is either an image post (URL, Caption, CaptureDate) or a text post
// (Content), selected by Type.
type Post struct {
	ID           string     `json:"id"`
	Type         PostType   `json:"type"`
	Username     string     `json:"username"`
	UserEmail    string     `json:"userEmail"`
	PostDate     time.Time  `json:"postDate"`
	Hidden       bool       `json:"hidden"`
	CommentCount int64      `json:"commentCount"`
	URL          string     `json:"url,omitempty"`
	Caption      string     `json:"caption,omitempty"`
	CaptureDate  *time.Time `json:"captureDate,omitempty"`
	Content      string     `json:"content,omitempty"`

	// BlobKey locates the image in blob storage.
	BlobKey string `json:"-"`
}

func (p *Post) OwnedBy(email string) bool {
	return email != "" && p.UserEmail == email
}

// VisibleTo reports whether viewerEmail may see the post at all.
func (p *Post) VisibleTo(viewerEmail string) bool {
	return !p.Hidden || p.OwnedBy(viewerEmail)
}

// PostPatch carries the owner-editable fields; nil means unchanged.
type PostPatch struct {
	Hidden  *bool   `json:"hidden,omitempty"`
	Caption *string `json:"caption,omitempty"`
	Content *string `json:"content,omitempty"`
}

func (p PostPatch) Empty() bool {
	return p.Hidden == nil && p.Caption == nil && p.Content == nil
}

// Upload is an image file received from a client.
type Upload struct {
	Filename string
	Data     []byte
}
