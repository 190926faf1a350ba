package models_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/shop_backend/models"
	"github.com/DATA-DOG/go-sqlmock"
)

func TestStockPercentage(t *testing.T) {
	cases := []struct {
		name     string
		stock    int
		minimum  int
		expected string
	}{
		{"above threshold", 25, 10, "250"},
		{"at threshold", 10, 10, "100"},
		{"below threshold", 7, 10, "70"},
		{"empty stock", 0, 10, "0"},
		{"rounded", 1, 3, "33.33"},
		{"zero threshold", 5, 0, "0"},
		{"negative threshold", 5, -1, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := models.StockPercentage(tc.stock, tc.minimum)
			if got.String() != tc.expected {
				t.Fatalf("StockPercentage(%d, %d) = %s, want %s", tc.stock, tc.minimum, got.String(), tc.expected)
			}
		})
	}
}

func alertProduct(stock int, minimum int) *models.Product {
	return &models.Product{ID: 7, QuantityInStock: stock, MinimumStockLevel: minimum}
}

// A breach upserts the product's single open alert row, refreshing the
// snapshot rather than accumulating history.
func TestCheckAndRecordStockAlert_BreachUpsertsOpenAlert(t *testing.T) {
	gdb, mock, closeDB := openMockDB(t)
	defer closeDB()

	mock.ExpectExec("INSERT INTO `stock_alerts`(.|\n)*ON DUPLICATE KEY UPDATE `stock_level`=VALUES\\(`stock_level`\\),`minimum_stock_level`=VALUES\\(`minimum_stock_level`\\),`updated_at`=VALUES\\(`updated_at`\\)").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := models.CheckAndRecordStockAlert(gdb, alertProduct(3, 4)); err != nil {
		t.Fatalf("CheckAndRecordStockAlert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCheckAndRecordStockAlert_BreachAtThreshold(t *testing.T) {
	gdb, mock, closeDB := openMockDB(t)
	defer closeDB()

	// qty == minimum still counts as a breach
	mock.ExpectExec("INSERT INTO `stock_alerts`(.|\n)*ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := models.CheckAndRecordStockAlert(gdb, alertProduct(4, 4)); err != nil {
		t.Fatalf("CheckAndRecordStockAlert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// Recovery above the threshold closes the open alert.
func TestCheckAndRecordStockAlert_RecoveryClearsAlert(t *testing.T) {
	gdb, mock, closeDB := openMockDB(t)
	defer closeDB()

	mock.ExpectExec("DELETE FROM `stock_alerts` WHERE product_id = \\?").
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := models.CheckAndRecordStockAlert(gdb, alertProduct(5, 4)); err != nil {
		t.Fatalf("CheckAndRecordStockAlert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBillStatusIsValid(t *testing.T) {
	for _, s := range []models.BillStatus{models.BillStatusNotPaid, models.BillStatusPartiallyPaid, models.BillStatusPaid} {
		if !s.IsValid() {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	for _, s := range []models.BillStatus{"", "cancelled", "PAID"} {
		if s.IsValid() {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}
