package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/shop_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockAlert is one open alert per product (unique product_id). A new breach
// refreshes the snapshot; a mutation that lifts stock back above the threshold
// clears the row.
type StockAlert struct {
	ID                int       `gorm:"primary_key" json:"id"`
	ProductId         int       `gorm:"uniqueIndex;not null" json:"product_id"`
	StockLevel        int       `gorm:"not null" json:"stock_level"`
	MinimumStockLevel int       `gorm:"not null" json:"minimum_stock_level"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CheckAndRecordStockAlert must run after every stock-decreasing mutation,
// inside the same transaction, so the alert state never disagrees with the
// committed stock level.
func CheckAndRecordStockAlert(tx *gorm.DB, product *Product) error {
	if product.QuantityInStock <= product.MinimumStockLevel {
		alert := StockAlert{
			ProductId:         product.ID,
			StockLevel:        product.QuantityInStock,
			MinimumStockLevel: product.MinimumStockLevel,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"stock_level", "minimum_stock_level", "updated_at"}),
		}).Create(&alert).Error
	}

	// stock recovered; close the open alert if any
	return tx.Where("product_id = ?", product.ID).Delete(&StockAlert{}).Error
}

// StockPercentage is a read-model value for alert displays, rounded to 2
// decimal places. Zero when the threshold itself is zero.
func StockPercentage(quantityInStock int, minimumStockLevel int) decimal.Decimal {
	if minimumStockLevel <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(quantityInStock)).
		Div(decimal.NewFromInt(int64(minimumStockLevel))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

func GetStockAlerts(ctx context.Context) ([]*StockAlert, error) {
	db := config.GetDB()

	var results []*StockAlert
	if err := db.WithContext(ctx).Order("updated_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
