package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/shop_backend/config"
	"bitbucket.org/mmdatafocus/shop_backend/utils"
)

type Category struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:100;not null;unique" json:"name" binding:"required"`
	Description string    `gorm:"size:500;default:null" json:"description"`
	Products    []Product `gorm:"foreignKey:CategoryId" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCategory struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func CreateCategory(ctx context.Context, input *NewCategory) (*Category, error) {
	db := config.GetDB()

	var count int64
	if err := db.WithContext(ctx).Model(&Category{}).Where("name = ?", input.Name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &utils.ValidationError{Message: "duplicate category name"}
	}

	category := Category{
		Name:        input.Name,
		Description: input.Description,
	}
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func GetCategory(ctx context.Context, id int) (*Category, error) {
	category, err := utils.FetchModel[Category](ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, &utils.NotFoundError{Resource: "category", Id: id}
		}
		return nil, err
	}
	return category, nil
}

func GetCategories(ctx context.Context, skip int, limit int) ([]*Category, error) {
	db := config.GetDB()
	skip, limit = utils.ClampPage(skip, limit)

	var results []*Category
	if err := db.WithContext(ctx).Order("name").Offset(skip).Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func UpdateCategory(ctx context.Context, id int, input *NewCategory) (*Category, error) {
	db := config.GetDB()

	category, err := GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := db.WithContext(ctx).Model(&Category{}).
		Where("name = ? AND NOT id = ?", input.Name, id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &utils.ValidationError{Message: "duplicate category name"}
	}

	if err := db.WithContext(ctx).Model(category).
		Updates(map[string]interface{}{
			"Name":        input.Name,
			"Description": input.Description,
		}).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func DeleteCategory(ctx context.Context, id int) (*Category, error) {
	db := config.GetDB()

	category, err := GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	// Do not delete while products reference this category.
	var count int64
	if err := db.WithContext(ctx).Model(&Product{}).
		Where("category_id = ?", category.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &utils.BusinessRuleError{Message: "category is used by products"}
	}

	if err := db.WithContext(ctx).Delete(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}
