package relationships

import "time"

// Follow is a user-to-user edge; existence is the whole payload.
type Follow struct {
	UserID     uint
	FolloweeID uint
	CreatedAt  time.Time
}

// TagFollow is a user-to-tag edge.
type TagFollow struct {
	UserID    uint
	TagID     uint
	CreatedAt time.Time
}
