package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/shop_backend/config"
	"bitbucket.org/mmdatafocus/shop_backend/utils"
	gosqlmysql "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Bill struct {
	ID               int             `gorm:"primary_key" json:"id"`
	BillNumber       string          `gorm:"size:50;not null;uniqueIndex" json:"bill_number"`
	ClientId         int             `gorm:"index;not null" json:"client_id"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"total_amount"`
	TotalPaid        decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"total_paid"`
	TotalRemaining   decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"total_remaining"`
	Status           BillStatus      `gorm:"type:enum('not_paid','partially_paid','paid');default:'not_paid'" json:"status"`
	NotificationSent *bool           `gorm:"not null;default:false" json:"notification_sent"`
	Client           *Client         `gorm:"foreignKey:ClientId" json:"-"`
	Items            []BillItem      `gorm:"foreignKey:BillId;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// BillItem snapshots product name and unit price at bill time, so later
// catalog edits never change a committed bill.
type BillItem struct {
	ID          int             `gorm:"primary_key" json:"id"`
	BillId      int             `gorm:"index;not null" json:"bill_id"`
	ProductId   int             `gorm:"index;not null" json:"product_id"`
	ProductName string          `gorm:"size:200;not null" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewBill struct {
	Items []NewBillItem `json:"items" binding:"required,min=1,dive"`
}

type NewBillItem struct {
	ProductId int `json:"product_id" binding:"required"`
	Quantity  int `json:"quantity" binding:"required,gt=0"`
}

type BillWithClient struct {
	Bill
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	ClientPhone string `json:"client_phone"`
}

type BillSummary struct {
	TotalBills   int64           `json:"total_bills"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	TotalPending decimal.Decimal `json:"total_pending"`
	PaidBills    int64           `json:"paid_bills"`
	UnpaidBills  int64           `json:"unpaid_bills"`
}

const billSummaryCacheKey = "billSummary"

// CreateBill runs the whole checkout as one transaction: allocate a bill
// number, create the header, then per line reserve stock, snapshot the price,
// and re-evaluate the product's stock alert. Any line failure rolls the whole
// thing back; no stock decrement from an earlier line survives.
//
// A duplicate bill_number (possible only if the series table was tampered
// with) is retried a couple of times before surfacing as an integrity error.
func CreateBill(ctx context.Context, input *NewBill) (*Bill, error) {
	clientId, err := utils.RequireClient(ctx)
	if err != nil {
		return nil, err
	}

	var bill *Bill
	for attempt := 1; ; attempt++ {
		bill, err = createBillOnce(ctx, clientId, input)
		if err == nil {
			break
		}
		if isDuplicateEntry(err) && attempt < 3 {
			continue
		}
		if isDuplicateEntry(err) {
			return nil, &utils.IntegrityError{Err: err}
		}
		return nil, err
	}

	// summary aggregates changed
	_ = config.DeleteRedisKey(billSummaryCacheKey)

	return bill, nil
}

func createBillOnce(ctx context.Context, clientId int, input *NewBill) (*Bill, error) {
	db := config.GetDB()

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	billNumber, err := NextBillNumber(tx, ctx, time.Now())
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	notificationSent := false
	bill := Bill{
		BillNumber:       billNumber,
		ClientId:         clientId,
		TotalAmount:      decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalRemaining:   decimal.Zero,
		Status:           BillStatusNotPaid,
		NotificationSent: &notificationSent,
	}
	if err := tx.WithContext(ctx).Create(&bill).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	totalAmount := decimal.Zero
	billItems := make([]BillItem, 0, len(input.Items))

	// lines are processed and persisted in the order supplied by the caller
	for _, item := range input.Items {
		product, err := ReserveStock(tx, ctx, item.ProductId, item.Quantity)
		if err != nil {
			tx.Rollback()
			return nil, err
		}

		subtotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		totalAmount = totalAmount.Add(subtotal)

		billItem := BillItem{
			BillId:      bill.ID,
			ProductId:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    item.Quantity,
			Subtotal:    subtotal,
		}
		if err := tx.WithContext(ctx).Create(&billItem).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		billItems = append(billItems, billItem)

		if err := CheckAndRecordStockAlert(tx.WithContext(ctx), product); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.WithContext(ctx).Model(&bill).
		Updates(map[string]interface{}{
			"TotalAmount":    totalAmount,
			"TotalRemaining": totalAmount,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	bill.TotalAmount = totalAmount
	bill.TotalRemaining = totalAmount
	bill.Items = billItems
	return &bill, nil
}

// GetBill enforces the access rule: a client may only read their own bill, an
// admin may read any.
func GetBill(ctx context.Context, id int) (*Bill, error) {
	db := config.GetDB()

	var bill Bill
	if err := db.WithContext(ctx).Preload("Items").First(&bill, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &utils.NotFoundError{Resource: "bill", Id: id}
		}
		return nil, err
	}

	role, _ := utils.GetUserRoleFromContext(ctx)
	if role != utils.RoleAdmin {
		clientId, err := utils.RequireClient(ctx)
		if err != nil {
			return nil, err
		}
		if bill.ClientId != clientId {
			return nil, &utils.AuthorizationError{Message: "you do not have access to this bill"}
		}
	}
	return &bill, nil
}

func GetMyBills(ctx context.Context, skip int, limit int) ([]*Bill, error) {
	db := config.GetDB()

	clientId, err := utils.RequireClient(ctx)
	if err != nil {
		return nil, err
	}
	skip, limit = utils.ClampPage(skip, limit)

	var results []*Bill
	if err := db.WithContext(ctx).Preload("Items").
		Where("client_id = ?", clientId).
		Order("created_at DESC").Offset(skip).Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func GetAllBills(ctx context.Context, statusFilter *string, skip int, limit int) ([]*BillWithClient, error) {
	db := config.GetDB()

	if _, err := utils.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	skip, limit = utils.ClampPage(skip, limit)

	dbCtx := db.WithContext(ctx).Preload("Items").Preload("Client")
	if statusFilter != nil && *statusFilter != "" {
		status := BillStatus(*statusFilter)
		if !status.IsValid() {
			return nil, &utils.ValidationError{Message: "invalid status filter"}
		}
		dbCtx = dbCtx.Where("status = ?", status)
	}

	var bills []*Bill
	if err := dbCtx.Order("created_at DESC").Offset(skip).Limit(limit).Find(&bills).Error; err != nil {
		return nil, err
	}

	results := make([]*BillWithClient, 0, len(bills))
	for _, bill := range bills {
		withClient := &BillWithClient{Bill: *bill}
		if bill.Client != nil {
			withClient.ClientName = bill.Client.Username
			withClient.ClientEmail = bill.Client.Email
			withClient.ClientPhone = bill.Client.PhoneNumber
		}
		results = append(results, withClient)
	}
	return results, nil
}

func GetBillSummary(ctx context.Context) (*BillSummary, error) {
	db := config.GetDB()

	if _, err := utils.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	var summary BillSummary
	exists, err := config.GetRedisObject(billSummaryCacheKey, &summary)
	if err == nil && exists {
		return &summary, nil
	}

	if err := db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total_bills,
			COALESCE(SUM(total_amount), 0) AS total_revenue,
			COALESCE(SUM(total_paid), 0) AS total_paid,
			COALESCE(SUM(total_remaining), 0) AS total_pending,
			COALESCE(SUM(CASE WHEN status = 'paid' THEN 1 ELSE 0 END), 0) AS paid_bills,
			COALESCE(SUM(CASE WHEN status = 'not_paid' THEN 1 ELSE 0 END), 0) AS unpaid_bills
		FROM bills
	`).Scan(&summary).Error; err != nil {
		return nil, err
	}

	if err := config.SetRedisObject(billSummaryCacheKey, &summary, 30*time.Second); err != nil {
		config.LogError(config.GetLogger(), "bill.go", "GetBillSummary", "cache write failed", nil, err)
	}
	return &summary, nil
}

// MarkBillNotified flips notification_sent after the trigger fired. Outside
// the bill transaction on purpose; a failure here never invalidates the bill.
func MarkBillNotified(ctx context.Context, billId int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&Bill{}).
		Where("id = ?", billId).
		UpdateColumn("notification_sent", true).Error
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *gosqlmysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
