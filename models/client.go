package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/shop_backend/config"
	"bitbucket.org/mmdatafocus/shop_backend/utils"
	"gorm.io/gorm"
)

type Client struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Username    string    `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	Email       string    `gorm:"size:100;not null;unique" json:"email" binding:"required,email"`
	PhoneNumber string    `gorm:"size:20" json:"phone_number"`
	Password    string    `gorm:"size:255;not null" json:"-"`
	Bills       []Bill    `gorm:"foreignKey:ClientId" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewClient struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Password    string `json:"password" binding:"required,min=8"`
}

func CreateClient(ctx context.Context, input *NewClient) (*Client, error) {
	db := config.GetDB()

	phone, err := utils.NormalizePhone(input.PhoneNumber, "MM")
	if err != nil {
		return nil, err
	}

	var count int64
	if err := db.WithContext(ctx).Model(&Client{}).
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

	client := Client{
		Username:    input.Username,
		Email:       input.Email,
		PhoneNumber: phone,
		Password:    hashed,
	}
	if err := db.WithContext(ctx).Create(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// AuthenticateClient verifies credentials and returns the client on success.
func AuthenticateClient(ctx context.Context, username string, password string) (*Client, error) {
	db := config.GetDB()

	var client Client
	if err := db.WithContext(ctx).Where("username = ?", username).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &utils.AuthorizationError{Message: "invalid credentials"}
		}
		return nil, err
	}
	if err := utils.ComparePassword(client.Password, password); err != nil {
		return nil, &utils.AuthorizationError{Message: "invalid credentials"}
	}
	return &client, nil
}

func GetClient(ctx context.Context, id int) (*Client, error) {
	client, err := utils.FetchModel[Client](ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, &utils.NotFoundError{Resource: "client", Id: id}
		}
		return nil, err
	}
	return client, nil
}
