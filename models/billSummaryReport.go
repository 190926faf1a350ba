package models

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportBillSummaryXLSX renders the admin summary as a spreadsheet.
func ExportBillSummaryXLSX(ctx context.Context) ([]byte, error) {
	summary, err := GetBillSummary(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Bill Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Total bills", summary.TotalBills},
		{"Total revenue", summary.TotalRevenue.StringFixed(2)},
		{"Total paid", summary.TotalPaid.StringFixed(2)},
		{"Total pending", summary.TotalPending.StringFixed(2)},
		{"Paid bills", summary.PaidBills},
		{"Unpaid bills", summary.UnpaidBills},
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
