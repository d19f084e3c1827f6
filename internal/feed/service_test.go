package feed

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/70ki8suda/my-new-gear/internal/items"
	"github.com/70ki8suda/my-new-gear/internal/posts"
	"github.com/70ki8suda/my-new-gear/internal/users"
)

// fakeStore implements every collaborator interface in memory so the service
// can be exercised without a database.
type fakeStore struct {
	mu sync.Mutex

	users   map[uint]users.User
	items   map[uint]items.Item
	photos  map[uint]items.Photo
	posts   map[uint]posts.Post
	tags    map[uint][]posts.Tag
	likes   map[uint]int64
	comment map[uint]int64

	follows    map[uint][]uint
	tagFollows map[uint][]uint

	// ghostIDs are prepended to candidate id results without backing posts,
	// simulating a post deleted between candidate lookup and enrichment.
	ghostIDs []uint

	calls map[string]int
	fail  map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      map[uint]users.User{},
		items:      map[uint]items.Item{},
		photos:     map[uint]items.Photo{},
		posts:      map[uint]posts.Post{},
		tags:       map[uint][]posts.Tag{},
		likes:      map[uint]int64{},
		comment:    map[uint]int64{},
		follows:    map[uint][]uint{},
		tagFollows: map[uint][]uint{},
		calls:      map[string]int{},
		fail:       map[string]error{},
	}
}

func (f *fakeStore) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.fail[name]
}

func (f *fakeStore) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeStore) FollowedUserIDs(_ context.Context, userID uint) ([]uint, error) {
	if err := f.record("FollowedUserIDs"); err != nil {
		return nil, err
	}
	return f.follows[userID], nil
}

func (f *fakeStore) FollowedTagIDs(_ context.Context, userID uint) ([]uint, error) {
	if err := f.record("FollowedTagIDs"); err != nil {
		return nil, err
	}
	return f.tagFollows[userID], nil
}

func (f *fakeStore) IDsByAuthors(_ context.Context, authorIDs []uint, limit, offset int) ([]uint, error) {
	if err := f.record("IDsByAuthors"); err != nil {
		return nil, err
	}
	authors := toSet(authorIDs)
	var matched []posts.Post
	for _, p := range f.posts {
		if _, ok := authors[p.UserID]; ok {
			matched = append(matched, p)
		}
	}
	return append(append([]uint{}, f.ghostIDs...), sortPage(matched, limit, offset)...), nil
}

func (f *fakeStore) IDsByTags(_ context.Context, tagIDs []uint, limit, offset int) ([]uint, error) {
	if err := f.record("IDsByTags"); err != nil {
		return nil, err
	}
	wanted := toSet(tagIDs)
	var matched []posts.Post
	for id, p := range f.posts {
		for _, t := range f.tags[id] {
			if _, ok := wanted[t.ID]; ok {
				matched = append(matched, p)
				break
			}
		}
	}
	return sortPage(matched, limit, offset), nil
}

func (f *fakeStore) ByIDs(_ context.Context, ids []uint) (map[uint]posts.Post, error) {
	if err := f.record("PostsByIDs"); err != nil {
		return nil, err
	}
	out := map[uint]posts.Post{}
	for _, id := range ids {
		if p, ok := f.posts[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeStore) LikeCounts(_ context.Context, postIDs []uint) (map[uint]int64, error) {
	if err := f.record("LikeCounts"); err != nil {
		return nil, err
	}
	out := map[uint]int64{}
	for _, id := range postIDs {
		out[id] = f.likes[id]
	}
	return out, nil
}

func (f *fakeStore) CommentCounts(_ context.Context, postIDs []uint) (map[uint]int64, error) {
	if err := f.record("CommentCounts"); err != nil {
		return nil, err
	}
	out := map[uint]int64{}
	for _, id := range postIDs {
		out[id] = f.comment[id]
	}
	return out, nil
}

func (f *fakeStore) TagsByPostIDs(_ context.Context, postIDs []uint) (map[uint][]posts.Tag, error) {
	if err := f.record("TagsByPostIDs"); err != nil {
		return nil, err
	}
	out := map[uint][]posts.Tag{}
	for _, id := range postIDs {
		if tags, ok := f.tags[id]; ok {
			out[id] = tags
		}
	}
	return out, nil
}

type fakeUserReader struct{ *fakeStore }

func (f fakeUserReader) ByIDs(_ context.Context, ids []uint) (map[uint]users.User, error) {
	if err := f.record("UsersByIDs"); err != nil {
		return nil, err
	}
	out := map[uint]users.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type fakeItemReader struct{ *fakeStore }

func (f fakeItemReader) ByIDs(_ context.Context, ids []uint) (map[uint]items.Item, error) {
	if err := f.record("ItemsByIDs"); err != nil {
		return nil, err
	}
	out := map[uint]items.Item{}
	for _, id := range ids {
		if it, ok := f.items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func (f fakeItemReader) PhotosByIDs(_ context.Context, ids []uint) (map[uint]items.Photo, error) {
	if err := f.record("PhotosByIDs"); err != nil {
		return nil, err
	}
	out := map[uint]items.Photo{}
	for _, id := range ids {
		if p, ok := f.photos[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func toSet(ids []uint) map[uint]struct{} {
	out := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func sortPage(matched []posts.Post, limit, offset int) []uint {
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	ids := make([]uint, 0, len(matched))
	for _, p := range matched {
		ids = append(ids, p.ID)
	}
	if offset >= len(ids) {
		return nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	return ids[offset:end]
}

func newTestService(store *fakeStore, opts ...Option) Service {
	return NewService(
		store,
		store,
		fakeUserReader{store},
		fakeItemReader{store},
		items.NewStaticResolver("https://img.test"),
		opts...,
	)
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(n int) time.Time { return baseTime.Add(time.Duration(n) * time.Hour) }

func (f *fakeStore) addUser(id uint, name string) {
	f.users[id] = users.User{ID: id, Username: name, CreatedAt: baseTime}
}

func (f *fakeStore) addItem(id, ownerID uint, name string) {
	f.items[id] = items.Item{ID: id, UserID: ownerID, Name: name, CreatedAt: baseTime}
}

func (f *fakeStore) addPost(id, authorID, itemID uint, createdAt time.Time, tags ...posts.Tag) {
	f.posts[id] = posts.Post{
		ID:        id,
		UserID:    authorID,
		ItemID:    itemID,
		Content:   "post content",
		CreatedAt: createdAt,
	}
	if len(tags) > 0 {
		f.tags[id] = tags
	}
}

// overlapFixture builds the shared dataset: viewer 1 follows alice=2 and
// bob=3 and the synth tag; stranger carol=4 posts last, tagged synth.
func overlapFixture() *fakeStore {
	store := newFakeStore()
	store.addUser(2, "alice")
	store.addUser(3, "bob")
	store.addUser(4, "carol")
	store.addItem(20, 2, "Jazzmaster")
	store.addItem(30, 3, "Moog Grandmother")
	store.addItem(40, 4, "SP-404")

	tagT := posts.Tag{ID: 1, Name: "synth"}
	store.addPost(101, 2, 20, at(3))
	store.addPost(102, 2, 20, at(1))
	store.addPost(103, 3, 30, at(2))
	store.addPost(104, 4, 40, at(4), tagT)

	store.follows[1] = []uint{2, 3}
	store.tagFollows[1] = []uint{1}
	return store
}

func postIDs(entries []FeedEntry) []uint {
	out := make([]uint, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.PostID)
	}
	return out
}

func TestUsersFeedShortCircuitsOnEmptyFollowSet(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	entries, err := svc.UsersFeed(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)

	assert.Equal(t, 1, store.callCount("FollowedUserIDs"))
	assert.Equal(t, 0, store.callCount("IDsByAuthors"), "no post query after empty follow set")
	assert.Equal(t, 0, store.callCount("PostsByIDs"))
}

func TestTagsFeedShortCircuitsOnEmptyFollowSet(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	entries, err := svc.TagsFeed(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 0, store.callCount("IDsByTags"))
}

func TestCombinedFeedMergesSourcesInReverseChronologicalOrder(t *testing.T) {
	store := overlapFixture()
	svc := newTestService(store)

	entries, err := svc.CombinedFeed(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{104, 101, 103, 102}, postIDs(entries))
	assert.Equal(t, "carol", entries[0].Author.Username)

	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].CreatedAt.After(entries[i-1].CreatedAt),
			"entries must be ordered by created_at descending")
	}
}

func TestCombinedFeedDeduplicatesOverlappingSources(t *testing.T) {
	store := overlapFixture()
	// Alice's t=3 post also carries the followed tag, so it surfaces from
	// both sources.
	store.tags[101] = []posts.Tag{{ID: 1, Name: "synth"}}
	svc := newTestService(store)

	entries, err := svc.CombinedFeed(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{104, 101, 103, 102}, postIDs(entries))
}

func TestCombinedFeedIdempotent(t *testing.T) {
	store := overlapFixture()
	svc := newTestService(store)

	first, err := svc.CombinedFeed(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	second, err := svc.CombinedFeed(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCombinedFeedPaginationSliceLaw(t *testing.T) {
	store := newFakeStore()
	store.addUser(2, "alice")
	store.addItem(20, 2, "Jazzmaster")
	for i := 1; i <= 10; i++ {
		store.addPost(uint(100+i), 2, 20, at(i))
	}
	store.follows[1] = []uint{2}
	svc := newTestService(store)

	ctx := context.Background()
	pageOne, err := svc.CombinedFeed(ctx, 1, 3, 0)
	require.NoError(t, err)
	pageTwo, err := svc.CombinedFeed(ctx, 1, 3, 3)
	require.NoError(t, err)
	wide, err := svc.CombinedFeed(ctx, 1, 6, 0)
	require.NoError(t, err)

	assert.Equal(t, postIDs(wide), append(postIDs(pageOne), postIDs(pageTwo)...))
}

func TestCombinedFeedOffsetPastEndYieldsEmptyPage(t *testing.T) {
	store := overlapFixture()
	svc := newTestService(store)

	entries, err := svc.CombinedFeed(context.Background(), 1, 10, 500)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestEnrichmentDropsPostsWithMissingAuthor(t *testing.T) {
	store := overlapFixture()
	delete(store.users, 3) // bob vanished

	svc := newTestService(store)
	entries, err := svc.CombinedFeed(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{104, 101, 102}, postIDs(entries))
}

func TestEnrichmentDropsUnresolvablePostIDs(t *testing.T) {
	store := overlapFixture()
	store.ghostIDs = []uint{999}
	svc := newTestService(store)

	entries, err := svc.CombinedFeed(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{104, 101, 103, 102}, postIDs(entries))
}

func TestEnrichmentAttachesCountsTagsAndImage(t *testing.T) {
	store := overlapFixture()
	photoID := uint(7)
	item := store.items[40]
	item.DefaultPhotoID = &photoID
	store.items[40] = item
	store.photos[photoID] = items.Photo{ID: photoID, ItemID: 40, Key: "photos/sp404.jpg"}
	store.likes[104] = 5
	store.comment[104] = 2

	svc := newTestService(store)
	entries, err := svc.CombinedFeed(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	top := entries[0]
	require.Equal(t, uint(104), top.PostID)
	assert.Equal(t, int64(5), top.LikeCount)
	assert.Equal(t, int64(2), top.CommentCount)
	assert.Equal(t, []TagSummary{{ID: 1, Name: "synth"}}, top.Tags)
	require.NotNil(t, top.Item.ImageURL)
	assert.Equal(t, "https://img.test/photos/sp404.jpg", *top.Item.ImageURL)

	// No default photo set: image stays null, entry stays present.
	assert.Nil(t, entries[1].Item.ImageURL)
	assert.Equal(t, []TagSummary{}, entries[1].Tags)
}

func TestUpstreamFailureFailsWholeRequest(t *testing.T) {
	boom := errors.New("connection refused")

	for _, step := range []string{
		"FollowedUserIDs", "IDsByAuthors", "PostsByIDs",
		"UsersByIDs", "ItemsByIDs", "LikeCounts", "CommentCounts", "TagsByPostIDs",
	} {
		t.Run(step, func(t *testing.T) {
			store := overlapFixture()
			store.fail[step] = boom
			svc := newTestService(store)

			_, err := svc.CombinedFeed(context.Background(), 1, 10, 0)
			require.Error(t, err)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestCombinedFeedUsesConfiguredMergeWindow(t *testing.T) {
	store := newFakeStore()
	store.addUser(2, "alice")
	store.addItem(20, 2, "Jazzmaster")
	for i := 1; i <= 30; i++ {
		store.addPost(uint(100+i), 2, 20, at(i))
	}
	store.follows[1] = []uint{2}

	svc := newTestService(store, WithMergeWindow(5))
	entries, err := svc.CombinedFeed(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	// The window caps candidates before pagination; pages past it are gaps.
	assert.Len(t, entries, 5)
}

func TestFeedsUseConfiguredPageLimits(t *testing.T) {
	store := newFakeStore()
	store.addUser(2, "alice")
	store.addItem(20, 2, "Jazzmaster")
	for i := 1; i <= 30; i++ {
		store.addPost(uint(100+i), 2, 20, at(i))
	}
	store.follows[1] = []uint{2}

	svc := newTestService(store, WithPageLimits(5, 8))

	entries, err := svc.UsersFeed(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 5, "zero limit falls back to the configured default")

	entries, err = svc.CombinedFeed(context.Background(), 1, 50, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 8, "requested limit capped at the configured maximum")
}

func TestSourceFeedsHonorLimitAndOffset(t *testing.T) {
	store := overlapFixture()
	svc := newTestService(store)

	entries, err := svc.UsersFeed(context.Background(), 1, 1, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	// Users feed ordering: 101 (t=3), 103 (t=2), 102 (t=1); offset 1 -> 103.
	assert.Equal(t, uint(103), entries[0].PostID)

	tagged, err := svc.TagsFeed(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{104}, postIDs(tagged))
}
