package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/shop_backend/config"
	"bitbucket.org/mmdatafocus/shop_backend/utils"
	"gorm.io/gorm"
)

type Admin struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Username  string    `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	Email     string    `gorm:"size:100;not null;unique" json:"email" binding:"required,email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAdmin struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func CreateAdmin(ctx context.Context, input *NewAdmin) (*Admin, error) {
	db := config.GetDB()

	var count int64
	if err := db.WithContext(ctx).Model(&Admin{}).
		Where("username = ? OR email = ?", input.Username, input.Email).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &utils.ValidationError{Message: "username or email already taken"}
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	admin := Admin{
		Username: input.Username,
		Email:    input.Email,
		Password: hashed,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// AuthenticateAdmin verifies credentials and returns the admin on success.
func AuthenticateAdmin(ctx context.Context, username string, password string) (*Admin, error) {
	db := config.GetDB()

	var admin Admin
	if err := db.WithContext(ctx).Where("username = ?", username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &utils.AuthorizationError{Message: "invalid credentials"}
		}
		return nil, err
	}
	if err := utils.ComparePassword(admin.Password, password); err != nil {
		return nil, &utils.AuthorizationError{Message: "invalid credentials"}
	}
	return &admin, nil
}
