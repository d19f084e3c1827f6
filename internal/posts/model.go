package posts

import "time"

type Post struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint
	ItemID    uint
	Content   string `gorm:"size:280"`
	CreatedAt time.Time
	UpdatedAt *time.Time
}

type Tag struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

type PostTag struct {
	PostID    uint
	TagID     uint
	CreatedAt time.Time
}

type Like struct {
	ID        uint `gorm:"primaryKey"`
	PostID    uint
	UserID    uint
	CreatedAt time.Time
}

type Comment struct {
	ID        uint `gorm:"primaryKey"`
	PostID    uint
	UserID    uint
	Content   string
	CreatedAt time.Time
}
