package items

import "time"

// Item is a piece of gear a user posts about.
type Item struct {
	ID             uint `gorm:"primaryKey"`
	UserID         uint
	Name           string
	DefaultPhotoID *uint
	CreatedAt      time.Time
}

// Photo stores either an absolute URL or an object-storage key in Key.
type Photo struct {
	ID        uint `gorm:"primaryKey"`
	ItemID    uint
	Key       string
	CreatedAt time.Time
}
