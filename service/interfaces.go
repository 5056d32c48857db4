package service

import (
	"context"

	"drinktab/events"
	"drinktab/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetAll returns all users ordered by display name
	GetAll(ctx context.Context) ([]*models.User, error)

	// GetByID retrieves a user by their opaque id, nil when not found
	GetByID(ctx context.Context, id string) (*models.User, error)

	// Create inserts a new user record
	Create(ctx context.Context, user *models.User) error

	// Update edits a user record. Never writes last_post_id: the open
	// reminder thread is owned by the debt notification flow.
	Update(ctx context.Context, user *models.User) error

	// Delete removes a user record
	Delete(ctx context.Context, id string) error

	// SetLastPostID sets or clears the open reminder thread id
	SetLastPostID(ctx context.Context, userID string, postID *string) error
}

// BillRepository defines the interface for bill data access
type BillRepository interface {
	// GetAllDetailed returns all bills with items and resolved owners,
	// newest bill date first
	GetAllDetailed(ctx context.Context) ([]*models.DetailedBill, error)

	// GetByOwnerKeys returns all bills whose owner key matches any of keys
	GetByOwnerKeys(ctx context.Context, keys []string) ([]*models.Bill, error)

	// GetUnpaidByOwnerKeys returns unpaid bills for the owner, any date
	GetUnpaidByOwnerKeys(ctx context.Context, keys []string) ([]*models.Bill, error)

	// Upsert saves a bill and fully replaces its item list
	Upsert(ctx context.Context, bill *models.Bill, items []*models.BillItem) error

	// Delete removes a bill and its items
	Delete(ctx context.Context, billID string) error

	// MarkAllPaidByOwnerKeys marks every unpaid bill for the owner as paid,
	// returning the number of bills updated
	MarkAllPaidByOwnerKeys(ctx context.Context, keys []string) (int64, error)
}

// Messenger defines the interface for the external ChatOps platform
type Messenger interface {
	// CreatePost posts a top-level message to a channel, returning the post id
	CreatePost(ctx context.Context, channelID, message string) (string, error)

	// ReplyToPost posts a reply inside the thread rooted at rootID
	ReplyToPost(ctx context.Context, channelID, message, rootID string) (string, error)

	// AutocompleteUsers searches platform users by name (add-user flow)
	AutocompleteUsers(ctx context.Context, name string) ([]*models.ChatOpsUser, error)

	// FindChannelForUser finds the channel addressing a platform user
	FindChannelForUser(ctx context.Context, userID string) (string, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UserService defines the interface for user management operations
type UserService interface {
	// ListUsers returns all users
	ListUsers(ctx context.Context) ([]*models.User, error)

	// ResolveUser maps a raw identifier to a user, nil when nothing matches
	ResolveUser(ctx context.Context, identifier string) (*models.User, error)

	// SuggestUsers returns ranked candidates for an interactive picker
	SuggestUsers(ctx context.Context, query string, limit int) ([]*models.User, error)

	// CreateUser creates a new user, assigning an id when absent
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)

	// UpdateUser edits an existing user (everything except the thread id)
	UpdateUser(ctx context.Context, user *models.User) error

	// DeleteUser removes a user
	DeleteUser(ctx context.Context, id string) error
}

// BillingService defines the interface for bill reads and admin writes
type BillingService interface {
	// ListBills returns every bill with items and owner (admin view)
	ListBills(ctx context.Context) ([]*models.DetailedBill, error)

	// BillsFor returns the filtered bills for an identifier. An identifier
	// that resolves to no user degrades to a literal owner key.
	BillsFor(ctx context.Context, identifier string, filter BillFilter) ([]*models.Bill, error)

	// DebtFor returns the outstanding unpaid total for an identifier
	DebtFor(ctx context.Context, identifier string) (int64, error)

	// SaveBill validates and upserts a bill with its items, recomputing the
	// total, and returns the bill id
	SaveBill(ctx context.Context, input *SaveBillInput) (string, error)

	// DeleteBill removes a bill and its items
	DeleteBill(ctx context.Context, billID string) error
}

// ReminderService defines the interface for the debt notification workflow
type ReminderService interface {
	// SendReminder posts a debt reminder for the user's current unpaid
	// total and opens a thread if none is open
	SendReminder(ctx context.Context, userID string) (postID string, err error)

	// Settle marks all the user's unpaid bills paid, acknowledges into the
	// open thread when one exists, and closes it
	Settle(ctx context.Context, userID string) (*models.SettleResult, error)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	BillRepository() BillRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
