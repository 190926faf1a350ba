package models

// BillStatus tracks payment progress on a committed bill.
// Bills are created as not_paid; the partial-payment workflow has no mutation
// path here, the remaining values exist for the schema and admin filters.
type BillStatus string

const (
	BillStatusNotPaid       BillStatus = "not_paid"
	BillStatusPartiallyPaid BillStatus = "partially_paid"
	BillStatusPaid          BillStatus = "paid"
)

func (s BillStatus) IsValid() bool {
	switch s {
	case BillStatusNotPaid, BillStatusPartiallyPaid, BillStatusPaid:
		return true
	}
	return false
}
