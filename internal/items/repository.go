package items

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	ByIDs(ctx context.Context, ids []uint) (map[uint]Item, error)
	PhotosByIDs(ctx context.Context, ids []uint) (map[uint]Photo, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ByIDs(ctx context.Context, ids []uint) (map[uint]Item, error) {
	out := make(map[uint]Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []Item
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, it := range rows {
		out[it.ID] = it
	}
	return out, nil
}

func (r *repository) PhotosByIDs(ctx context.Context, ids []uint) (map[uint]Photo, error) {
	out := make(map[uint]Photo, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []Photo
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}
