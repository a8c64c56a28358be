package entity

import (
	"time"

	"chronofeed/pkg/pagination"
)

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	Username  string    `json:"username"`
	UserEmail string    `json:"userEmail"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type FeedItem struct {
	Post
	Author *Author `json:"author,omitempty"`
}

type FeedPage struct {
	Posts      []FeedItem      `json:"posts"`
	Pagination pagination.Meta `json:"pagination"`
}
