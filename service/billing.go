package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"drinktab/events"
	"drinktab/models"

	"github.com/google/uuid"
)

// BillFilter selects bills for one owner by status and, for paid history,
// by calendar month.
type BillFilter struct {
	OwnerKeys []string
	Status    models.BillStatus
	Month     time.Month // paid history only
	Year      int        // paid history only
}

// FilterBills selects the bills matching the filter. Unpaid debt is never
// date-restricted: all outstanding bills stay visible regardless of age.
// Paid history is browsed one calendar month at a time.
func FilterBills(bills []*models.Bill, filter BillFilter) []*models.Bill {
	var matched []*models.Bill
	for _, b := range bills {
		if len(filter.OwnerKeys) > 0 && !containsKey(filter.OwnerKeys, b.UserID) {
			continue
		}
		if filter.Status == models.BillStatusPaid {
			if !b.IsPaid {
				continue
			}
			if b.BillDate.Year() != filter.Year || b.BillDate.Month() != filter.Month {
				continue
			}
		} else if b.IsPaid {
			continue
		}
		matched = append(matched, b)
	}
	return matched
}

// ComputeTotal sums the bill amounts. Over the unpaid set this is the
// current debt, which may be negative when credits outweigh purchases.
func ComputeTotal(bills []*models.Bill) int64 {
	var total int64
	for _, b := range bills {
		total += b.TotalAmount
	}
	return total
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// status phrases the admin search matches against, pre-normalized
const (
	searchPhrasePaid   = "da thu thanh toan"
	searchPhraseUnpaid = "chua thu thanh toan"
)

// SearchDetailed filters bills for the admin search box. A bill matches if
// the normalized query appears in its formatted or raw date, id, amount,
// status phrase, any item name, or the owner's display name.
func SearchDetailed(bills []*models.DetailedBill, query string) []*models.DetailedBill {
	q := Normalize(query)
	if q == "" {
		return bills
	}

	var matched []*models.DetailedBill
	for _, b := range bills {
		if billMatches(b, q) {
			matched = append(matched, b)
		}
	}
	return matched
}

func billMatches(b *models.DetailedBill, q string) bool {
	status := searchPhraseUnpaid
	if b.IsPaid {
		status = searchPhrasePaid
	}

	if strings.Contains(b.BillDate.Format("02/01/2006"), q) ||
		strings.Contains(Normalize(b.BillDate.Format(time.RFC3339)), q) ||
		strings.Contains(Normalize(b.ID), q) ||
		strings.Contains(strconv.FormatInt(b.TotalAmount, 10), q) ||
		strings.Contains(status, q) {
		return true
	}
	for _, item := range b.Items {
		if strings.Contains(Normalize(item.ItemName), q) {
			return true
		}
	}
	return b.Owner != nil && strings.Contains(Normalize(b.Owner.UserName), q)
}

// SaveBillInput is an admin bill write. Items fully replace the bill's
// existing item list.
type SaveBillInput struct {
	ID       string // empty for a new bill
	UserID   string
	BillDate time.Time
	IsPaid   bool
	Items    []SaveBillItemInput
}

// SaveBillItemInput is one line item of a bill write
type SaveBillItemInput struct {
	ItemName       string
	Quantity       int
	UnitPrice      int64
	DiscountAmount int64
}

type billingService struct {
	uowFactory UnitOfWorkFactory
	resolver   *Resolver
}

// NewBillingService creates a new billing service
func NewBillingService(uowFactory UnitOfWorkFactory, resolver *Resolver) BillingService {
	return &billingService{
		uowFactory: uowFactory,
		resolver:   resolver,
	}
}

// ListBills returns every bill with items and owner (admin view)
func (s *billingService) ListBills(ctx context.Context) ([]*models.DetailedBill, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bills, err := uow.BillRepository().GetAllDetailed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bills: %w", err)
	}
	return bills, nil
}

// BillsFor returns the filtered bills for an identifier
func (s *billingService) BillsFor(ctx context.Context, identifier string, filter BillFilter) ([]*models.Bill, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	keys, err := s.ownerKeys(ctx, uow, identifier)
	if err != nil {
		return nil, err
	}

	bills, err := uow.BillRepository().GetByOwnerKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to get bills: %w", err)
	}

	filter.OwnerKeys = keys
	return FilterBills(bills, filter), nil
}

// DebtFor returns the outstanding unpaid total for an identifier
func (s *billingService) DebtFor(ctx context.Context, identifier string) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	keys, err := s.ownerKeys(ctx, uow, identifier)
	if err != nil {
		return 0, err
	}

	unpaid, err := uow.BillRepository().GetUnpaidByOwnerKeys(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("failed to get unpaid bills: %w", err)
	}
	return ComputeTotal(unpaid), nil
}

// ownerKeys resolves an identifier to the user's owner keys, degrading to
// the literal identifier when no user matches.
func (s *billingService) ownerKeys(ctx context.Context, uow UnitOfWork, identifier string) ([]string, error) {
	users, err := uow.UserRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	if target := s.resolver.Resolve(identifier, users); target != nil {
		return target.OwnerKeys(), nil
	}
	return []string{identifier}, nil
}

// SaveBill validates and upserts a bill with its items
func (s *billingService) SaveBill(ctx context.Context, input *SaveBillInput) (string, error) {
	if err := validateSaveBill(input); err != nil {
		return "", err
	}

	billID := input.ID
	if billID == "" {
		billID = uuid.NewString()
	}

	bill := &models.Bill{
		ID:       billID,
		UserID:   input.UserID,
		BillDate: input.BillDate,
		IsPaid:   input.IsPaid,
	}

	items := make([]*models.BillItem, 0, len(input.Items))
	for _, in := range input.Items {
		item := &models.BillItem{
			ID:             uuid.NewString(),
			BillID:         billID,
			ItemName:       strings.TrimSpace(in.ItemName),
			Quantity:       in.Quantity,
			UnitPrice:      in.UnitPrice,
			DiscountAmount: in.DiscountAmount,
		}
		// The stored total is computed once at save time; readers trust it
		bill.TotalAmount += item.Amount()
		items = append(items, item)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.BillRepository().Upsert(ctx, bill, items); err != nil {
		return "", fmt.Errorf("failed to save bill: %w", err)
	}

	uow.EventBus().Publish(events.BillChangedEvent{BillID: billID, OwnerID: bill.UserID})

	if err := uow.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return billID, nil
}

func validateSaveBill(input *SaveBillInput) error {
	if input.UserID == "" {
		return fmt.Errorf("%w: bill owner is required", ErrValidation)
	}
	if input.BillDate.IsZero() {
		return fmt.Errorf("%w: bill date is required", ErrValidation)
	}
	if len(input.Items) == 0 {
		return fmt.Errorf("%w: a bill needs at least one item", ErrValidation)
	}
	for i, item := range input.Items {
		if strings.TrimSpace(item.ItemName) == "" {
			return fmt.Errorf("%w: item %d has an empty name", ErrValidation, i+1)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %q has a non-positive quantity", ErrValidation, item.ItemName)
		}
		if item.UnitPrice < 0 || item.DiscountAmount < 0 {
			return fmt.Errorf("%w: item %q has a negative price or discount", ErrValidation, item.ItemName)
		}
	}
	return nil
}

// DeleteBill removes a bill and its items
func (s *billingService) DeleteBill(ctx context.Context, billID string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.BillRepository().Delete(ctx, billID); err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}

	uow.EventBus().Publish(events.BillChangedEvent{BillID: billID, Deleted: true})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
