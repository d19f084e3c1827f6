package migrate

import (
	"gorm.io/gorm"

	"github.com/70ki8suda/my-new-gear/internal/items"
	"github.com/70ki8suda/my-new-gear/internal/posts"
	"github.com/70ki8suda/my-new-gear/internal/relationships"
	"github.com/70ki8suda/my-new-gear/internal/users"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&items.Item{},
		&items.Photo{},
		&posts.Post{},
		&posts.Tag{},
		&posts.PostTag{},
		&posts.Like{},
		&posts.Comment{},
		&relationships.Follow{},
		&relationships.TagFollow{},
	)
}
