// seed-admin creates or updates the backoffice admin user.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	SEED_ADMIN_USERNAME=... SEED_ADMIN_EMAIL=... SEED_ADMIN_PASSWORD=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/shop_backend/config"
	"bitbucket.org/mmdatafocus/shop_backend/models"
	"bitbucket.org/mmdatafocus/shop_backend/utils"
	"gorm.io/gorm"
)

func envOr(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	username := envOr("SEED_ADMIN_USERNAME", "shopAdmin")
	email := envOr("SEED_ADMIN_EMAIL", "admin@shop.local")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if len(password) < 8 {
		fmt.Fprintln(os.Stderr, "SEED_ADMIN_PASSWORD must be set and at least 8 characters")
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	if err := db.WithContext(ctx).AutoMigrate(&models.Admin{}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate admins table: %v\n", err)
		os.Exit(1)
	}

	var existing models.Admin
	err := db.WithContext(ctx).Model(&models.Admin{}).Where("username = ?", username).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup admin: %v\n", err)
			os.Exit(1)
		}
		admin, err := models.CreateAdmin(ctx, &models.NewAdmin{
			Username: username,
			Email:    email,
			Password: password,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created admin user: username=%q id=%d\n", admin.Username, admin.ID)
		return
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	if err := db.WithContext(ctx).Model(&models.Admin{}).Where("username = ?", username).Updates(map[string]any{
		"password": hashed,
		"email":    email,
	}).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Updated admin user: username=%q id=%d\n", username, existing.ID)
}
