package relationships

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FollowedUserIDs(ctx context.Context, userID uint) ([]uint, error)
	FollowedTagIDs(ctx context.Context, userID uint) ([]uint, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FollowedUserIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&Follow{}).
		Where("user_id = ?", userID).
		Pluck("followee_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) FollowedTagIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&TagFollow{}).
		Where("user_id = ?", userID).
		Pluck("tag_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
