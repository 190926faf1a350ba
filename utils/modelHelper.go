package utils

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/shop_backend/config"
	"gorm.io/gorm"
)

// FetchModel loads a record by primary key, preloading the given associations.
func FetchModel[T any](ctx context.Context, id int, preloads ...string) (*T, error) {
	var model T
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	for _, preload := range preloads {
		dbCtx = dbCtx.Preload(preload)
	}
	if err := dbCtx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &model, nil
}

// ValidateResourceId checks the id exists; returns ErrorRecordNotFound if not.
func ValidateResourceId[T any](ctx context.Context, id interface{}) error {
	count, err := ResourceCountWhere[T](ctx, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}
	return nil
}

// ResourceCountWhere counts records matching the condition.
func ResourceCountWhere[T any](ctx context.Context, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&model).Where(condition, value...).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
