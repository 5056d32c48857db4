package models

import "time"

// BillStatus filters bills by payment state
type BillStatus string

const (
	BillStatusUnpaid BillStatus = "unpaid"
	BillStatusPaid   BillStatus = "paid"
)

// Bill represents one purchase event attributed to one user.
// UserID is a loose owner key: depending on when the bill was recorded it
// may hold a user id, a tag id, or a ChatOps channel id.
type Bill struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	BillDate    time.Time `db:"bill_date" json:"bill_date"`
	TotalAmount int64     `db:"total_amount" json:"total_amount"` // VND; negative represents a pre-payment credit
	IsPaid      bool      `db:"is_paid" json:"is_paid"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// BillItem is one line item of a bill. Items are owned by their bill and
// fully replaced whenever the bill is edited.
type BillItem struct {
	ID             string    `db:"id" json:"id"`
	BillID         string    `db:"bill_id" json:"bill_id"`
	ItemName       string    `db:"item_name" json:"item_name"`
	Quantity       int       `db:"quantity" json:"quantity"`
	UnitPrice      int64     `db:"unit_price" json:"unit_price"`
	DiscountAmount int64     `db:"discount_amount" json:"discount_amount"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Amount returns the line total for this item
func (i *BillItem) Amount() int64 {
	return int64(i.Quantity)*i.UnitPrice - i.DiscountAmount
}

// DetailedBill is a bill together with its items and, when the owner key
// resolved to a known user, the owning user record.
type DetailedBill struct {
	Bill
	Items []*BillItem `json:"bill_items"`
	Owner *User       `json:"users"`
}

// SettleResult reports the outcome of a settle-all action
type SettleResult struct {
	BillsMarked   int    `json:"bills_marked"`
	AmountCleared int64  `json:"amount_cleared"`
	RepliedToPost string `json:"replied_to_post,omitempty"` // post id the thank-you reply was attached to, empty if none
}
