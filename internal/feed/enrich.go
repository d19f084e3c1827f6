package feed

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/70ki8suda/my-new-gear/internal/items"
	"github.com/70ki8suda/my-new-gear/internal/posts"
	"github.com/70ki8suda/my-new-gear/internal/users"
)

// enrich turns candidate post ids into display-ready entries. Input order is
// preserved; ids that no longer resolve to a valid post are dropped. All
// related data is batch-fetched by id set, never per row.
func (s *service) enrich(ctx context.Context, postIDs []uint) ([]FeedEntry, error) {
	if len(postIDs) == 0 {
		return []FeedEntry{}, nil
	}

	postsByID, err := s.posts.ByIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}

	authorIDs := make([]uint, 0, len(postsByID))
	itemIDs := make([]uint, 0, len(postsByID))
	seenAuthor := make(map[uint]struct{}, len(postsByID))
	seenItem := make(map[uint]struct{}, len(postsByID))
	for _, id := range postIDs {
		p, ok := postsByID[id]
		if !ok {
			continue
		}
		if _, dup := seenAuthor[p.UserID]; !dup {
			seenAuthor[p.UserID] = struct{}{}
			authorIDs = append(authorIDs, p.UserID)
		}
		if _, dup := seenItem[p.ItemID]; !dup {
			seenItem[p.ItemID] = struct{}{}
			itemIDs = append(itemIDs, p.ItemID)
		}
	}

	var (
		authorsByID   map[uint]users.User
		itemsByID     map[uint]items.Item
		photosByID    map[uint]items.Photo
		likeCounts    map[uint]int64
		commentCounts map[uint]int64
		tagsByPost    map[uint][]posts.Tag
	)

	// Independent read-only lookups; joined before assembly.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		authorsByID, err = s.users.ByIDs(gctx, authorIDs)
		if err != nil {
			return fmt.Errorf("fetch authors: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		itemsByID, err = s.items.ByIDs(gctx, itemIDs)
		if err != nil {
			return fmt.Errorf("fetch items: %w", err)
		}
		photoIDs := make([]uint, 0, len(itemsByID))
		for _, it := range itemsByID {
			if it.DefaultPhotoID != nil {
				photoIDs = append(photoIDs, *it.DefaultPhotoID)
			}
		}
		photosByID, err = s.items.PhotosByIDs(gctx, photoIDs)
		if err != nil {
			return fmt.Errorf("fetch photos: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		likeCounts, err = s.posts.LikeCounts(gctx, postIDs)
		if err != nil {
			return fmt.Errorf("fetch like counts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		commentCounts, err = s.posts.CommentCounts(gctx, postIDs)
		if err != nil {
			return fmt.Errorf("fetch comment counts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tagsByPost, err = s.posts.TagsByPostIDs(gctx, postIDs)
		if err != nil {
			return fmt.Errorf("fetch post tags: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]FeedEntry, 0, len(postIDs))
	for _, id := range postIDs {
		p, ok := postsByID[id]
		if !ok {
			continue
		}
		item := itemsByID[p.ItemID]
		entry, ok := newFeedEntry(
			p,
			authorsByID[p.UserID],
			item,
			s.resolveImage(ctx, item, photosByID),
			likeCounts[p.ID],
			commentCounts[p.ID],
			tagsByPost[p.ID],
		)
		if !ok {
			log.WithField("post_id", p.ID).Debug("dropping feed entry that failed validation")
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// resolveImage follows item -> default photo -> URL. Any gap in that chain
// yields a nil URL, never an error.
func (s *service) resolveImage(ctx context.Context, item items.Item, photosByID map[uint]items.Photo) *string {
	if item.DefaultPhotoID == nil {
		return nil
	}
	photo, ok := photosByID[*item.DefaultPhotoID]
	if !ok {
		return nil
	}
	url, err := s.images.ImageURL(ctx, photo.Key)
	if err != nil {
		log.WithError(err).WithField("photo_id", photo.ID).Warn("image url resolution failed")
		return nil
	}
	return &url
}
