package repository

import (
	"context"
	"fmt"
	"time"

	"drinktab/database"
	"drinktab/models"
)

// BillRepository implements the service.BillRepository interface
type BillRepository struct {
	q queryable
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *database.DB) *BillRepository {
	return &BillRepository{q: db.Pool}
}

// newBillRepositoryWithTx creates a new bill repository with a transaction
func newBillRepositoryWithTx(tx queryable) *BillRepository {
	return &BillRepository{q: tx}
}

// GetAllDetailed returns all bills with their items and owner, newest first.
// The owner join is loose: bills.user_id historically holds a user id, a
// tag id or a ChatOps channel id.
func (r *BillRepository) GetAllDetailed(ctx context.Context) ([]*models.DetailedBill, error) {
	query := `
		SELECT
			b.id, b.user_id, b.bill_date, b.total_amount, b.is_paid, b.created_at,
			u.id, u.tag_id, u.chatops_channel_id, u.user_name, u.role, u.email,
			u.avatar_url, u.last_post_id, u.created_at, u.updated_at
		FROM bills b
		LEFT JOIN users u ON b.user_id IN (u.id, u.tag_id, u.chatops_channel_id)
		ORDER BY b.bill_date DESC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get bills: %w", err)
	}
	defer rows.Close()

	var bills []*models.DetailedBill
	byID := make(map[string]*models.DetailedBill)
	for rows.Next() {
		var b models.DetailedBill
		// Every owner column is NULL when the loose key matches no user
		var ownerID, tagID, channelID, userName, email *string
		var role *int
		var avatarURL, lastPostID *string
		var createdAt, updatedAt *time.Time
		err := rows.Scan(
			&b.ID, &b.UserID, &b.BillDate, &b.TotalAmount, &b.IsPaid, &b.CreatedAt,
			&ownerID, &tagID, &channelID, &userName, &role,
			&email, &avatarURL, &lastPostID, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		if ownerID != nil {
			b.Owner = &models.User{
				ID:               *ownerID,
				TagID:            *tagID,
				ChatOpsChannelID: *channelID,
				UserName:         *userName,
				Role:             models.Role(*role),
				Email:            *email,
				AvatarURL:        avatarURL,
				LastPostID:       lastPostID,
				CreatedAt:        *createdAt,
				UpdatedAt:        *updatedAt,
			}
		}
		bills = append(bills, &b)
		byID[b.ID] = &b
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}

	if len(bills) == 0 {
		return bills, nil
	}

	itemRows, err := r.q.Query(ctx, `
		SELECT id, bill_id, item_name, quantity, unit_price, discount_amount, created_at
		FROM bill_items
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get bill items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item models.BillItem
		err := itemRows.Scan(
			&item.ID, &item.BillID, &item.ItemName, &item.Quantity,
			&item.UnitPrice, &item.DiscountAmount, &item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill item: %w", err)
		}
		if bill, ok := byID[item.BillID]; ok {
			bill.Items = append(bill.Items, &item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bill items: %w", err)
	}

	return bills, nil
}

// GetByOwnerKeys returns all bills whose owner key matches any of keys
func (r *BillRepository) GetByOwnerKeys(ctx context.Context, keys []string) ([]*models.Bill, error) {
	query := `
		SELECT id, user_id, bill_date, total_amount, is_paid, created_at
		FROM bills
		WHERE user_id = ANY($1)
		ORDER BY bill_date DESC
	`
	return r.queryBills(ctx, query, keys)
}

// GetUnpaidByOwnerKeys returns unpaid bills for the owner, with no date
// restriction: outstanding debt is always visible regardless of age.
func (r *BillRepository) GetUnpaidByOwnerKeys(ctx context.Context, keys []string) ([]*models.Bill, error) {
	query := `
		SELECT id, user_id, bill_date, total_amount, is_paid, created_at
		FROM bills
		WHERE user_id = ANY($1) AND is_paid = FALSE
		ORDER BY bill_date DESC
	`
	return r.queryBills(ctx, query, keys)
}

func (r *BillRepository) queryBills(ctx context.Context, query string, args ...any) ([]*models.Bill, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get bills: %w", err)
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		var b models.Bill
		err := rows.Scan(&b.ID, &b.UserID, &b.BillDate, &b.TotalAmount, &b.IsPaid, &b.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}

	return bills, nil
}

// Upsert saves a bill and fully replaces its item list. Items are never
// diffed individually.
func (r *BillRepository) Upsert(ctx context.Context, bill *models.Bill, items []*models.BillItem) error {
	query := `
		INSERT INTO bills (id, user_id, bill_date, total_amount, is_paid)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET user_id = EXCLUDED.user_id,
		    bill_date = EXCLUDED.bill_date,
		    total_amount = EXCLUDED.total_amount,
		    is_paid = EXCLUDED.is_paid
	`

	if _, err := r.q.Exec(ctx, query, bill.ID, bill.UserID, bill.BillDate, bill.TotalAmount, bill.IsPaid); err != nil {
		return fmt.Errorf("failed to upsert bill %s: %w", bill.ID, err)
	}

	if _, err := r.q.Exec(ctx, `DELETE FROM bill_items WHERE bill_id = $1`, bill.ID); err != nil {
		return fmt.Errorf("failed to clear items for bill %s: %w", bill.ID, err)
	}

	for _, item := range items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO bill_items (id, bill_id, item_name, quantity, unit_price, discount_amount)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, item.ID, item.BillID, item.ItemName, item.Quantity, item.UnitPrice, item.DiscountAmount)
		if err != nil {
			return fmt.Errorf("failed to insert item %s: %w", item.ID, err)
		}
	}

	return nil
}

// Delete removes a bill; its items go with it via the cascade
func (r *BillRepository) Delete(ctx context.Context, billID string) error {
	result, err := r.q.Exec(ctx, `DELETE FROM bills WHERE id = $1`, billID)
	if err != nil {
		return fmt.Errorf("failed to delete bill %s: %w", billID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("bill %s not found", billID)
	}

	return nil
}

// MarkAllPaidByOwnerKeys marks every unpaid bill for the owner as paid
func (r *BillRepository) MarkAllPaidByOwnerKeys(ctx context.Context, keys []string) (int64, error) {
	query := `UPDATE bills SET is_paid = TRUE WHERE user_id = ANY($1) AND is_paid = FALSE`

	result, err := r.q.Exec(ctx, query, keys)
	if err != nil {
		return 0, fmt.Errorf("failed to mark bills paid: %w", err)
	}

	return result.RowsAffected(), nil
}
