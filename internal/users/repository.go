package users

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	ByIDs(ctx context.Context, ids []uint) (map[uint]User, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ByIDs(ctx context.Context, ids []uint) (map[uint]User, error) {
	out := make(map[uint]User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, u := range rows {
		out[u.ID] = u
	}
	return out, nil
}
