package models

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BillNumberSeries holds one counter row per calendar day. The row is locked
// FOR UPDATE inside the bill-creation transaction, so concurrent checkouts
// serialize on the counter and the formatted number stays globally unique
// (bills.bill_number additionally carries a unique index).
type BillNumberSeries struct {
	DateKey string `gorm:"primaryKey;size:8" json:"date_key"`
	NextNo  int    `gorm:"not null;default:0" json:"next_no"`
}

// NextBillNumber allocates the next BILL-YYYYMMDD-NNNN for the given day.
// Must run inside the caller's transaction; the allocation rolls back with it.
func NextBillNumber(tx *gorm.DB, ctx context.Context, now time.Time) (string, error) {
	dateKey := now.UTC().Format("20060102")

	// ensure the day's row exists; races here are harmless, the row lock
	// below is what serializes
	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&BillNumberSeries{DateKey: dateKey}).Error; err != nil {
		return "", err
	}

	var series BillNumberSeries
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("date_key = ?", dateKey).
		First(&series).Error; err != nil {
		return "", err
	}

	series.NextNo++
	if err := tx.WithContext(ctx).Model(&BillNumberSeries{}).
		Where("date_key = ?", dateKey).
		UpdateColumn("next_no", series.NextNo).Error; err != nil {
		return "", err
	}

	return FormatBillNumber(dateKey, series.NextNo), nil
}

func FormatBillNumber(dateKey string, sequence int) string {
	return fmt.Sprintf("BILL-%s-%04d", dateKey, sequence)
}
