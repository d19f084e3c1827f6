package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/70ki8suda/my-new-gear/internal/items"
	"github.com/70ki8suda/my-new-gear/internal/metrics"
	"github.com/70ki8suda/my-new-gear/internal/posts"
	"github.com/70ki8suda/my-new-gear/internal/users"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// DefaultMergeWindow is how many entries each source is over-fetched for
	// before dedup/sort/pagination. Pages past the window are approximated;
	// see configs.Config.MergeWindow.
	DefaultMergeWindow = 100
)

// Collaborator interfaces are declared here, on the consumer side, so the
// service is testable with in-memory fakes. The gorm repositories satisfy
// them.

type RelationshipReader interface {
	FollowedUserIDs(ctx context.Context, userID uint) ([]uint, error)
	FollowedTagIDs(ctx context.Context, userID uint) ([]uint, error)
}

type PostReader interface {
	IDsByAuthors(ctx context.Context, authorIDs []uint, limit, offset int) ([]uint, error)
	IDsByTags(ctx context.Context, tagIDs []uint, limit, offset int) ([]uint, error)
	ByIDs(ctx context.Context, ids []uint) (map[uint]posts.Post, error)
	LikeCounts(ctx context.Context, postIDs []uint) (map[uint]int64, error)
	CommentCounts(ctx context.Context, postIDs []uint) (map[uint]int64, error)
	TagsByPostIDs(ctx context.Context, postIDs []uint) (map[uint][]posts.Tag, error)
}

type UserReader interface {
	ByIDs(ctx context.Context, ids []uint) (map[uint]users.User, error)
}

type ItemReader interface {
	ByIDs(ctx context.Context, ids []uint) (map[uint]items.Item, error)
	PhotosByIDs(ctx context.Context, ids []uint) (map[uint]items.Photo, error)
}

type Service interface {
	// CombinedFeed merges the followed-users and followed-tags feeds into one
	// deduplicated, reverse-chronological page.
	CombinedFeed(ctx context.Context, viewerID uint, limit, offset int) ([]FeedEntry, error)
	// UsersFeed returns posts authored by users the viewer follows.
	UsersFeed(ctx context.Context, viewerID uint, limit, offset int) ([]FeedEntry, error)
	// TagsFeed returns posts carrying tags the viewer follows.
	TagsFeed(ctx context.Context, viewerID uint, limit, offset int) ([]FeedEntry, error)
	// PageBounds clamps a requested limit/offset to the configured page
	// limits. Handlers use it so the page they echo back matches what the
	// feed methods actually apply.
	PageBounds(limit, offset int) (int, int)
}

type service struct {
	rels   RelationshipReader
	posts  PostReader
	users  UserReader
	items  ItemReader
	images items.ImageResolver

	cache    *Cache
	window   int
	defLimit int
	maxLimit int
}

type Option func(*service)

func WithMergeWindow(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.window = n
		}
	}
}

func WithCache(c *Cache) Option {
	return func(s *service) { s.cache = c }
}

// WithPageLimits overrides the default and maximum page sizes.
func WithPageLimits(def, max int) Option {
	return func(s *service) {
		if def > 0 {
			s.defLimit = def
		}
		if max > 0 {
			s.maxLimit = max
		}
	}
}

func NewService(rels RelationshipReader, postReader PostReader, userReader UserReader, itemReader ItemReader, images items.ImageResolver, opts ...Option) Service {
	s := &service{
		rels:     rels,
		posts:    postReader,
		users:    userReader,
		items:    itemReader,
		images:   images,
		window:   DefaultMergeWindow,
		defLimit: DefaultLimit,
		maxLimit: MaxLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) UsersFeed(ctx context.Context, viewerID uint, limit, offset int) ([]FeedEntry, error) {
	limit, offset = s.PageBounds(limit, offset)
	defer observe("following", time.Now())
	return s.usersFeed(ctx, viewerID, limit, offset)
}

func (s *service) usersFeed(ctx context.Context, viewerID uint, limit, offset int) ([]FeedEntry, error) {
	followed, err := s.rels.FollowedUserIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("fetch followed user ids: %w", err)
	}
	if len(followed) == 0 {
		return []FeedEntry{}, nil
	}

	ids, err := s.posts.IDsByAuthors(ctx, followed, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("fetch post ids by authors: %w", err)
	}
	return s.enrich(ctx, ids)
}

func (s *service) TagsFeed(ctx context.Context, viewerID uint, limit, offset int) ([]FeedEntry, error) {
	limit, offset = s.PageBounds(limit, offset)
	defer observe("tags", time.Now())
	return s.tagsFeed(ctx, viewerID, limit, offset)
}

func (s *service) tagsFeed(ctx context.Context, viewerID uint, limit, offset int) ([]FeedEntry, error) {
	followed, err := s.rels.FollowedTagIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("fetch followed tag ids: %w", err)
	}
	if len(followed) == 0 {
		return []FeedEntry{}, nil
	}

	ids, err := s.posts.IDsByTags(ctx, followed, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("fetch post ids by tags: %w", err)
	}
	return s.enrich(ctx, ids)
}

func (s *service) CombinedFeed(ctx context.Context, viewerID uint, limit, offset int) ([]FeedEntry, error) {
	limit, offset = s.PageBounds(limit, offset)
	defer observe("combined", time.Now())

	if s.cache != nil {
		if page, ok := s.cache.GetPage(ctx, viewerID, limit, offset); ok {
			metrics.CacheHits.Inc()
			return page, nil
		}
		metrics.CacheMisses.Inc()
	}

	// Both sources are over-fetched from offset 0 with the merge window so
	// dedup and the re-sort below have enough candidates even when the
	// sources overlap heavily.
	var byUsers, byTags []FeedEntry
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byUsers, err = s.usersFeed(gctx, viewerID, s.window, 0)
		return err
	})
	g.Go(func() error {
		var err error
		byTags, err = s.tagsFeed(gctx, viewerID, s.window, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := mergeEntries(byUsers, byTags)
	page := paginate(merged, limit, offset)

	if s.cache != nil {
		s.cache.SetPage(ctx, viewerID, limit, offset, page)
	}
	return page, nil
}

// mergeEntries concatenates the source lists, drops duplicate post ids
// keeping the first occurrence (the users source is passed first), and sorts
// by creation time descending. The stable sort keeps first-seen order for
// equal timestamps.
func mergeEntries(lists ...[]FeedEntry) []FeedEntry {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	seen := make(map[uint]struct{}, total)
	merged := make([]FeedEntry, 0, total)
	for _, l := range lists {
		for _, e := range l {
			if _, dup := seen[e.PostID]; dup {
				continue
			}
			seen[e.PostID] = struct{}{}
			merged = append(merged, e)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged
}

// paginate slices [offset, offset+limit) out of entries. Offsets past the end
// yield an empty page, never an error.
func paginate(entries []FeedEntry, limit, offset int) []FeedEntry {
	if offset >= len(entries) {
		return []FeedEntry{}
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end]
}

func (s *service) PageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = s.defLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func observe(kind string, start time.Time) {
	metrics.FeedRequests.WithLabelValues(kind).Inc()
	metrics.FeedDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
