package posts

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// IDsByAuthors returns post ids authored by any of the given users,
	// newest first. Pagination happens in the query, not in memory.
	IDsByAuthors(ctx context.Context, authorIDs []uint, limit, offset int) ([]uint, error)
	// IDsByTags returns post ids carrying any of the given tags, newest first.
	IDsByTags(ctx context.Context, tagIDs []uint, limit, offset int) ([]uint, error)
	ByIDs(ctx context.Context, ids []uint) (map[uint]Post, error)
	LikeCounts(ctx context.Context, postIDs []uint) (map[uint]int64, error)
	CommentCounts(ctx context.Context, postIDs []uint) (map[uint]int64, error)
	TagsByPostIDs(ctx context.Context, postIDs []uint) (map[uint][]Tag, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) IDsByAuthors(ctx context.Context, authorIDs []uint, limit, offset int) ([]uint, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&Post{}).
		Where("user_id IN ?", authorIDs).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) IDsByTags(ctx context.Context, tagIDs []uint, limit, offset int) ([]uint, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	// A post carrying several followed tags must surface once, hence the GROUP BY.
	err := r.db.WithContext(ctx).
		Model(&Post{}).
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Where("post_tags.tag_id IN ?", tagIDs).
		Group("posts.id").
		Order("posts.created_at DESC, posts.id DESC").
		Limit(limit).
		Offset(offset).
		Pluck("posts.id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) ByIDs(ctx context.Context, ids []uint) (map[uint]Post, error) {
	out := make(map[uint]Post, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []Post
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

type countRow struct {
	PostID uint
	Count  int64
}

func (r *repository) LikeCounts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	return r.countByPost(ctx, &Like{}, postIDs)
}

func (r *repository) CommentCounts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	return r.countByPost(ctx, &Comment{}, postIDs)
}

func (r *repository) countByPost(ctx context.Context, model any, postIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []countRow
	err := r.db.WithContext(ctx).
		Model(model).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PostID] = row.Count
	}
	return out, nil
}

type postTagRow struct {
	PostID uint
	ID     uint
	Name   string
}

func (r *repository) TagsByPostIDs(ctx context.Context, postIDs []uint) (map[uint][]Tag, error) {
	out := make(map[uint][]Tag, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []postTagRow
	err := r.db.WithContext(ctx).
		Model(&Tag{}).
		Select("post_tags.post_id, tags.id, tags.name").
		Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
		Where("post_tags.post_id IN ?", postIDs).
		Order("post_tags.post_id, tags.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PostID] = append(out[row.PostID], Tag{ID: row.ID, Name: row.Name})
	}
	return out, nil
}
