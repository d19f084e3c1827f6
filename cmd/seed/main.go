package main

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/70ki8suda/my-new-gear/configs"
	"github.com/70ki8suda/my-new-gear/internal/items"
	"github.com/70ki8suda/my-new-gear/internal/migrate"
	"github.com/70ki8suda/my-new-gear/internal/posts"
	"github.com/70ki8suda/my-new-gear/internal/relationships"
	"github.com/70ki8suda/my-new-gear/internal/users"
	"github.com/70ki8suda/my-new-gear/pkg/db"
)

const (
	numUsers          = 50
	itemsPerUser      = 3
	postsPerUser      = 10
	followsPerUser    = 8
	tagFollowsPerUser = 4
)

var tagVocab = []string{
	"guitar", "bass", "pedal", "synth", "drums", "amp",
	"camera", "lens", "keyboard", "microphone", "vinyl", "modular",
}

func main() {
	gofakeit.Seed(time.Now().UnixNano())

	cfg := configs.LoadConfig()
	conn := db.NewDb(cfg)

	if err := migrate.AutoMigrateAll(conn.DB); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	tags := seedTags(conn.DB)
	userRows := seedUsers(conn.DB)
	itemRows := seedItems(conn.DB, userRows)
	seedFollows(conn.DB, userRows)
	seedTagFollows(conn.DB, userRows, tags)
	postRows := seedPosts(conn.DB, userRows, itemRows, tags)
	seedEngagement(conn.DB, userRows, postRows)

	log.Infof("seeded %d users, %d items, %d posts", len(userRows), len(itemRows), len(postRows))
}

func seedTags(db *gorm.DB) []posts.Tag {
	out := make([]posts.Tag, 0, len(tagVocab))
	for _, name := range tagVocab {
		t := posts.Tag{Name: name}
		if err := db.Create(&t).Error; err != nil {
			log.Fatalf("create tag: %v", err)
		}
		out = append(out, t)
	}
	return out
}

func seedUsers(db *gorm.DB) []users.User {
	out := make([]users.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		avatar := gofakeit.ImageURL(128, 128)
		u := users.User{
			Username:  gofakeit.Username(),
			AvatarURL: &avatar,
			CreatedAt: pastTime(),
		}
		if err := db.Create(&u).Error; err != nil {
			log.Fatalf("create user: %v", err)
		}
		out = append(out, u)
	}
	return out
}

func seedItems(db *gorm.DB, userRows []users.User) []items.Item {
	out := make([]items.Item, 0, len(userRows)*itemsPerUser)
	for _, u := range userRows {
		for i := 0; i < itemsPerUser; i++ {
			it := items.Item{
				UserID:    u.ID,
				Name:      gofakeit.ProductName(),
				CreatedAt: pastTime(),
			}
			if err := db.Create(&it).Error; err != nil {
				log.Fatalf("create item: %v", err)
			}
			photo := items.Photo{
				ItemID:    it.ID,
				Key:       "photos/" + gofakeit.UUID() + ".jpg",
				CreatedAt: it.CreatedAt,
			}
			if err := db.Create(&photo).Error; err != nil {
				log.Fatalf("create photo: %v", err)
			}
			it.DefaultPhotoID = &photo.ID
			if err := db.Save(&it).Error; err != nil {
				log.Fatalf("set default photo: %v", err)
			}
			out = append(out, it)
		}
	}
	return out
}

func seedFollows(db *gorm.DB, userRows []users.User) {
	for _, u := range userRows {
		seen := map[uint]struct{}{u.ID: {}}
		for i := 0; i < followsPerUser; i++ {
			target := userRows[gofakeit.Number(0, len(userRows)-1)]
			if _, dup := seen[target.ID]; dup {
				continue
			}
			seen[target.ID] = struct{}{}
			f := relationships.Follow{UserID: u.ID, FolloweeID: target.ID, CreatedAt: pastTime()}
			if err := db.Create(&f).Error; err != nil {
				log.Fatalf("create follow: %v", err)
			}
		}
	}
}

func seedTagFollows(db *gorm.DB, userRows []users.User, tags []posts.Tag) {
	for _, u := range userRows {
		seen := map[uint]struct{}{}
		for i := 0; i < tagFollowsPerUser; i++ {
			tag := tags[gofakeit.Number(0, len(tags)-1)]
			if _, dup := seen[tag.ID]; dup {
				continue
			}
			seen[tag.ID] = struct{}{}
			tf := relationships.TagFollow{UserID: u.ID, TagID: tag.ID, CreatedAt: pastTime()}
			if err := db.Create(&tf).Error; err != nil {
				log.Fatalf("create tag follow: %v", err)
			}
		}
	}
}

func seedPosts(db *gorm.DB, userRows []users.User, itemRows []items.Item, tags []posts.Tag) []posts.Post {
	itemsByUser := make(map[uint][]items.Item, len(userRows))
	for _, it := range itemRows {
		itemsByUser[it.UserID] = append(itemsByUser[it.UserID], it)
	}

	out := make([]posts.Post, 0, len(userRows)*postsPerUser)
	for _, u := range userRows {
		owned := itemsByUser[u.ID]
		if len(owned) == 0 {
			continue
		}
		for i := 0; i < postsPerUser; i++ {
			item := owned[gofakeit.Number(0, len(owned)-1)]
			p := posts.Post{
				UserID:    u.ID,
				ItemID:    item.ID,
				Content:   gofakeit.Sentence(gofakeit.Number(5, 20)),
				CreatedAt: pastTime(),
			}
			if err := db.Create(&p).Error; err != nil {
				log.Fatalf("create post: %v", err)
			}
			for _, tag := range pickTags(tags) {
				pt := posts.PostTag{PostID: p.ID, TagID: tag.ID, CreatedAt: p.CreatedAt}
				if err := db.Create(&pt).Error; err != nil {
					log.Fatalf("create post tag: %v", err)
				}
			}
			out = append(out, p)
		}
	}
	return out
}

func seedEngagement(db *gorm.DB, userRows []users.User, postRows []posts.Post) {
	for _, p := range postRows {
		for i := 0; i < gofakeit.Number(0, 6); i++ {
			u := userRows[gofakeit.Number(0, len(userRows)-1)]
			l := posts.Like{PostID: p.ID, UserID: u.ID, CreatedAt: pastTime()}
			if err := db.Create(&l).Error; err != nil {
				log.Fatalf("create like: %v", err)
			}
		}
		for i := 0; i < gofakeit.Number(0, 3); i++ {
			u := userRows[gofakeit.Number(0, len(userRows)-1)]
			c := posts.Comment{
				PostID:    p.ID,
				UserID:    u.ID,
				Content:   gofakeit.Sentence(gofakeit.Number(3, 12)),
				CreatedAt: pastTime(),
			}
			if err := db.Create(&c).Error; err != nil {
				log.Fatalf("create comment: %v", err)
			}
		}
	}
}

func pickTags(tags []posts.Tag) []posts.Tag {
	n := gofakeit.Number(0, 3)
	seen := map[uint]struct{}{}
	out := make([]posts.Tag, 0, n)
	for len(out) < n {
		tag := tags[gofakeit.Number(0, len(tags)-1)]
		if _, dup := seen[tag.ID]; dup {
			continue
		}
		seen[tag.ID] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func pastTime() time.Time {
	return time.Now().Add(-time.Duration(gofakeit.Number(1, 60*24*30)) * time.Minute)
}
