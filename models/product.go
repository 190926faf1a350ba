package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/shop_backend/config"
	"bitbucket.org/mmdatafocus/shop_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID                int             `gorm:"primary_key" json:"id"`
	CategoryId        int             `gorm:"index;not null" json:"category_id" binding:"required"`
	AdminId           int             `gorm:"index;not null" json:"admin_id"`
	Name              string          `gorm:"size:200;index;not null" json:"name" binding:"required"`
	Description       string          `gorm:"size:1000;default:null" json:"description"`
	Price             decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	QuantityInStock   int             `gorm:"not null;default:0" json:"quantity_in_stock"`
	MinimumStockLevel int             `gorm:"not null;default:10" json:"minimum_stock_level"`
	ImageUrl          string          `gorm:"size:500;default:null" json:"image_url"`
	IsActive          *bool           `gorm:"not null;default:true" json:"is_active"`
	Category          *Category       `gorm:"foreignKey:CategoryId" json:"-"`
	StockAlerts       []StockAlert    `gorm:"foreignKey:ProductId;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	CategoryId        int             `json:"category_id" binding:"required"`
	Name              string          `json:"name" binding:"required"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price" binding:"required,gt=0"`
	QuantityInStock   int             `json:"quantity_in_stock" binding:"gte=0"`
	MinimumStockLevel *int            `json:"minimum_stock_level" binding:"omitempty,gte=0"`
	ImageUrl          string          `json:"image_url"`
	IsActive          *bool           `json:"is_active"`
}

// UpdateProductInput carries partial updates; nil fields are left untouched.
type UpdateProductInput struct {
	CategoryId        *int             `json:"category_id"`
	Name              *string          `json:"name"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price" binding:"omitempty,gt=0"`
	MinimumStockLevel *int             `json:"minimum_stock_level" binding:"omitempty,gte=0"`
	ImageUrl          *string          `json:"image_url"`
	IsActive          *bool            `json:"is_active"`
}

type ProductWithCategory struct {
	Product
	CategoryName string `json:"category_name"`
}

type ProductStockStatus struct {
	Id                int             `json:"id"`
	Name              string          `json:"name"`
	QuantityInStock   int             `json:"quantity_in_stock"`
	MinimumStockLevel int             `json:"minimum_stock_level"`
	IsLowStock        bool            `json:"is_low_stock"`
	StockPercentage   decimal.Decimal `json:"stock_percentage"`
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	db := config.GetDB()

	adminId, err := utils.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	// exists category
	if err := utils.ValidateResourceId[Category](ctx, input.CategoryId); err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, &utils.NotFoundError{Resource: "category", Id: input.CategoryId}
		}
		return nil, err
	}

	if input.Price.IsNegative() {
		return nil, &utils.ValidationError{Message: "price cannot be negative"}
	}

	minimumStockLevel := 10
	if input.MinimumStockLevel != nil {
		minimumStockLevel = *input.MinimumStockLevel
	}
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	product := Product{
		CategoryId:        input.CategoryId,
		AdminId:           adminId,
		Name:              input.Name,
		Description:       input.Description,
		Price:             input.Price.Round(2),
		QuantityInStock:   input.QuantityInStock,
		MinimumStockLevel: minimumStockLevel,
		ImageUrl:          input.ImageUrl,
		IsActive:          &isActive,
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	// a product can be created already below its reorder threshold
	if err := CheckAndRecordStockAlert(tx.WithContext(ctx), &product); err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func GetProduct(ctx context.Context, id int) (*ProductWithCategory, error) {
	product, err := utils.FetchModel[Product](ctx, id, "Category")
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, &utils.NotFoundError{Resource: "product", Id: id}
		}
		return nil, err
	}
	return withCategoryName(product), nil
}

func GetProducts(ctx context.Context, categoryId *int, isActive *bool, skip int, limit int) ([]*ProductWithCategory, error) {
	db := config.GetDB()
	skip, limit = utils.ClampPage(skip, limit)

	dbCtx := db.WithContext(ctx).Preload("Category")
	if categoryId != nil && *categoryId > 0 {
		dbCtx = dbCtx.Where("category_id = ?", *categoryId)
	}
	if isActive != nil {
		dbCtx = dbCtx.Where("is_active = ?", *isActive)
	}

	var products []*Product
	if err := dbCtx.Order("name").Offset(skip).Limit(limit).Find(&products).Error; err != nil {
		return nil, err
	}

	results := make([]*ProductWithCategory, 0, len(products))
	for _, product := range products {
		results = append(results, withCategoryName(product))
	}
	return results, nil
}

// GetLowStockProducts lists products at or below their reorder threshold.
func GetLowStockProducts(ctx context.Context) ([]*ProductStockStatus, error) {
	db := config.GetDB()

	if _, err := utils.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	var products []*Product
	if err := db.WithContext(ctx).
		Where("quantity_in_stock <= minimum_stock_level").
		Order("name").Find(&products).Error; err != nil {
		return nil, err
	}

	results := make([]*ProductStockStatus, 0, len(products))
	for _, product := range products {
		results = append(results, &ProductStockStatus{
			Id:                product.ID,
			Name:              product.Name,
			QuantityInStock:   product.QuantityInStock,
			MinimumStockLevel: product.MinimumStockLevel,
			IsLowStock:        true,
			StockPercentage:   StockPercentage(product.QuantityInStock, product.MinimumStockLevel),
		})
	}
	return results, nil
}

func UpdateProduct(ctx context.Context, id int, input *UpdateProductInput) (*Product, error) {
	db := config.GetDB()

	if _, err := utils.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, &utils.NotFoundError{Resource: "product", Id: id}
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.CategoryId != nil && *input.CategoryId != product.CategoryId {
		if err := utils.ValidateResourceId[Category](ctx, *input.CategoryId); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return nil, &utils.NotFoundError{Resource: "category", Id: *input.CategoryId}
			}
			return nil, err
		}
		updates["CategoryId"] = *input.CategoryId
	}
	if input.Name != nil {
		updates["Name"] = *input.Name
	}
	if input.Description != nil {
		updates["Description"] = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, &utils.ValidationError{Message: "price cannot be negative"}
		}
		updates["Price"] = input.Price.Round(2)
	}
	if input.MinimumStockLevel != nil {
		updates["MinimumStockLevel"] = *input.MinimumStockLevel
	}
	if input.ImageUrl != nil {
		updates["ImageUrl"] = *input.ImageUrl
	}
	if input.IsActive != nil {
		updates["IsActive"] = *input.IsActive
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if len(updates) > 0 {
		if err := tx.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	// threshold may have moved; re-evaluate the alert
	if err := CheckAndRecordStockAlert(tx.WithContext(ctx), product); err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return product, nil
}

// SetProductStock sets the absolute available quantity (admin stock adjustment).
// Serialized per product so concurrent adjustments cannot interleave with the
// alert re-evaluation.
func SetProductStock(ctx context.Context, id int, quantity int) (*Product, error) {
	db := config.GetDB()

	if _, err := utils.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, &utils.BusinessRuleError{Message: "quantity cannot be negative"}
	}

	lock, err := utils.ProductLock(ctx, id, "product.go", "SetProductStock")
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release(ctx) }()

	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, &utils.NotFoundError{Resource: "product", Id: id}
		}
		return nil, err
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.WithContext(ctx).Model(product).
		UpdateColumn("quantity_in_stock", quantity).Error; err != nil {
		return nil, err
	}
	product.QuantityInStock = quantity
	if err := CheckAndRecordStockAlert(tx.WithContext(ctx), product); err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return product, nil
}

func DeleteProduct(ctx context.Context, id int) (*Product, error) {
	db := config.GetDB()

	if _, err := utils.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, &utils.NotFoundError{Resource: "product", Id: id}
		}
		return nil, err
	}

	// Do not delete while bill items reference this product; historic bills
	// keep their denormalized snapshot but the row itself must stay.
	var count int64
	if err := db.WithContext(ctx).Model(&BillItem{}).
		Where("product_id = ?", product.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &utils.BusinessRuleError{Message: "product is referenced by existing bills"}
	}

	// alerts go with the product
	if err := db.WithContext(ctx).Select("StockAlerts").Delete(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// ReserveStock is the stock ledger's check-and-decrement. It runs inside the
// caller's transaction; the decrement is provisional until that transaction
// commits.
//
// The decrement is a single conditional UPDATE checked by rows-affected, so two
// concurrent checkouts can never jointly oversell a product regardless of
// isolation level.
func ReserveStock(tx *gorm.DB, ctx context.Context, productId int, quantity int) (*Product, error) {
	if quantity <= 0 {
		return nil, &utils.ValidationError{Message: "quantity must be positive"}
	}

	var product Product
	if err := tx.WithContext(ctx).First(&product, productId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &utils.NotFoundError{Resource: "product", Id: productId}
		}
		return nil, err
	}
	if product.IsActive == nil || !*product.IsActive {
		return nil, &utils.BusinessRuleError{Message: fmt.Sprintf("product '%s' is not available", product.Name)}
	}

	res := tx.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND quantity_in_stock >= ?", productId, quantity).
		UpdateColumn("quantity_in_stock", gorm.Expr("quantity_in_stock - ?", quantity))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// the earlier read may be stale; report what is available right now
		var available int
		if err := tx.WithContext(ctx).Model(&Product{}).
			Where("id = ?", productId).Select("quantity_in_stock").Scan(&available).Error; err != nil {
			return nil, err
		}
		return nil, &utils.InsufficientStockError{
			ProductId:   product.ID,
			ProductName: product.Name,
			Available:   available,
		}
	}

	// The initial read was unlocked, so a write committed between it and the
	// decrement would make "read value - quantity" wrong. The UPDATE locked the
	// row; re-read so the alert check downstream sees the real quantity.
	var remaining int
	if err := tx.WithContext(ctx).Model(&Product{}).
		Where("id = ?", productId).Select("quantity_in_stock").Scan(&remaining).Error; err != nil {
		return nil, err
	}
	product.QuantityInStock = remaining
	return &product, nil
}

func withCategoryName(product *Product) *ProductWithCategory {
	result := &ProductWithCategory{Product: *product}
	if product.Category != nil {
		result.CategoryName = product.Category.Name
	}
	return result
}
