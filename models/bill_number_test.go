package models_test

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/shop_backend/models"
	"github.com/DATA-DOG/go-sqlmock"
)

func TestFormatBillNumber(t *testing.T) {
	cases := []struct {
		dateKey  string
		sequence int
		expected string
	}{
		{"20260830", 1, "BILL-20260830-0001"},
		{"20260830", 42, "BILL-20260830-0042"},
		{"20261231", 9999, "BILL-20261231-9999"},
		{"20261231", 10000, "BILL-20261231-10000"},
	}
	for _, tc := range cases {
		if got := models.FormatBillNumber(tc.dateKey, tc.sequence); got != tc.expected {
			t.Fatalf("FormatBillNumber(%q, %d) = %q, want %q", tc.dateKey, tc.sequence, got, tc.expected)
		}
	}
}

func TestNextBillNumber_LocksAndIncrementsDayCounter(t *testing.T) {
	gdb, mock, closeDB := openMockDB(t)
	defer closeDB()

	now := time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC)

	mock.ExpectExec("INSERT INTO `bill_number_series`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT \\* FROM `bill_number_series` WHERE date_key = \\?(.|\n)*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"date_key", "next_no"}).AddRow("20260830", 41))
	mock.ExpectExec("UPDATE `bill_number_series` SET `next_no`=\\? WHERE date_key = \\?").
		WithArgs(42, "20260830").
		WillReturnResult(sqlmock.NewResult(0, 1))

	number, err := models.NextBillNumber(gdb, context.Background(), now)
	if err != nil {
		t.Fatalf("NextBillNumber: %v", err)
	}
	if number != "BILL-20260830-0042" {
		t.Fatalf("expected BILL-20260830-0042, got %q", number)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
