package feed

import (
	"time"

	"github.com/70ki8suda/my-new-gear/internal/items"
	"github.com/70ki8suda/my-new-gear/internal/posts"
	"github.com/70ki8suda/my-new-gear/internal/users"
)

type AuthorSummary struct {
	ID        uint    `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

type ItemSummary struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	ImageURL *string `json:"image_url"`
}

type TagSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// FeedEntry is the display-ready view of one post within a feed page. It is
// computed fresh per request and never persisted; its identity is PostID.
type FeedEntry struct {
	PostID       uint          `json:"post_id"`
	Content      string        `json:"content"`
	CreatedAt    time.Time     `json:"created_at"`
	Author       AuthorSummary `json:"author"`
	Item         ItemSummary   `json:"item"`
	LikeCount    int64         `json:"like_count"`
	CommentCount int64         `json:"comment_count"`
	Tags         []TagSummary  `json:"tags"`
}

// newFeedEntry validates an enriched row. A false return is a skip signal:
// rows with a vanished author or item, or without content, are filtered out
// of the feed instead of failing the page.
func newFeedEntry(p posts.Post, author users.User, item items.Item, imageURL *string, likeCount, commentCount int64, tags []posts.Tag) (FeedEntry, bool) {
	if p.ID == 0 || p.Content == "" || author.ID == 0 || item.ID == 0 {
		return FeedEntry{}, false
	}
	tagSummaries := make([]TagSummary, 0, len(tags))
	for _, t := range tags {
		tagSummaries = append(tagSummaries, TagSummary{ID: t.ID, Name: t.Name})
	}
	return FeedEntry{
		PostID:    p.ID,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		Author: AuthorSummary{
			ID:        author.ID,
			Username:  author.Username,
			AvatarURL: author.AvatarURL,
		},
		Item: ItemSummary{
			ID:       item.ID,
			Name:     item.Name,
			ImageURL: imageURL,
		},
		LikeCount:    likeCount,
		CommentCount: commentCount,
		Tags:         tagSummaries,
	}, true
}
