package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/shop_backend/config"
	"bitbucket.org/mmdatafocus/shop_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NotificationDispatcher retries bill-created notifications that did not go
// out on the first, post-commit attempt. Bills with notification_sent = false
// are the queue; there is no separate outbox table to drift from the bills.
type NotificationDispatcher struct {
	DB     *gorm.DB
	Logger *logrus.Logger

	BatchSize    int
	PollInterval time.Duration
}

func NewNotificationDispatcher(db *gorm.DB, logger *logrus.Logger) *NotificationDispatcher {
	return &NotificationDispatcher{
		DB:           db,
		Logger:       logger,
		BatchSize:    20,
		PollInterval: time.Minute,
	}
}

// NotifyBillCreated fires the notification trigger for a committed bill.
// Best effort: failures are logged and retried by the dispatcher, never
// surfaced to the checkout caller.
func NotifyBillCreated(ctx context.Context, bill *models.Bill) {
	logger := config.GetLogger()

	client, err := models.GetClient(ctx, bill.ClientId)
	if err != nil {
		config.LogError(logger, "billNotification.go", "NotifyBillCreated", "load client", bill.ID, err)
		return
	}

	msg := config.BillNotificationMessage{
		BillId:      bill.ID,
		BillNumber:  bill.BillNumber,
		ClientId:    client.ID,
		ClientName:  client.Username,
		ClientEmail: client.Email,
		TotalAmount: bill.TotalAmount.StringFixed(2),
		CreatedAt:   bill.CreatedAt,
	}
	if _, err := config.PublishBillNotification(ctx, msg); err != nil {
		config.LogError(logger, "billNotification.go", "NotifyBillCreated", "publish", bill.ID, err)
		return
	}

	if err := models.MarkBillNotified(ctx, bill.ID); err != nil {
		config.LogError(logger, "billNotification.go", "NotifyBillCreated", "mark notified", bill.ID, err)
	}
}

func (d *NotificationDispatcher) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.dispatchOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.PollInterval):
		}
	}
}

func (d *NotificationDispatcher) dispatchOnce(ctx context.Context) {
	db := d.DB
	if db == nil {
		db = config.GetDB()
	}
	if db == nil {
		return
	}

	var pending []*models.Bill
	if err := db.WithContext(ctx).
		Where("notification_sent = ?", false).
		Order("id ASC").
		Limit(d.BatchSize).
		Find(&pending).Error; err != nil {
		config.LogError(d.Logger, "billNotification.go", "dispatchOnce", "query pending", nil, err)
		return
	}

	for _, bill := range pending {
		NotifyBillCreated(ctx, bill)
	}
}
