package users

import "time"

type User struct {
	ID        uint `gorm:"primaryKey"`
	Username  string
	AvatarURL *string
	CreatedAt time.Time
}
