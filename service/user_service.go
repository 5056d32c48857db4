package service

import (
	"context"
	"fmt"
	"strings"

	"drinktab/events"
	"drinktab/models"

	"github.com/google/uuid"
)

type userService struct {
	uowFactory UnitOfWorkFactory
	resolver   *Resolver
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, resolver *Resolver) UserService {
	return &userService{
		uowFactory: uowFactory,
		resolver:   resolver,
	}
}

// ListUsers returns all users
func (s *userService) ListUsers(ctx context.Context) ([]*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	users, err := uow.UserRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

// ResolveUser maps a raw identifier to a user, nil when nothing matches
func (s *userService) ResolveUser(ctx context.Context, identifier string) (*models.User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(identifier, users), nil
}

// SuggestUsers returns ranked candidates for an interactive picker
func (s *userService) SuggestUsers(ctx context.Context, query string, limit int) ([]*models.User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolver.Suggest(query, users, limit), nil
}

// CreateUser creates a new user, assigning an id when absent
func (s *userService) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if err := validateUser(user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	uow.EventBus().Publish(events.UserChangedEvent{UserID: user.ID})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// UpdateUser edits an existing user. The open reminder thread id is not
// part of the editable surface and is left untouched.
func (s *userService) UpdateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if err := validateUser(user); err != nil {
		return err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	uow.EventBus().Publish(events.UserChangedEvent{UserID: user.ID})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteUser removes a user
func (s *userService) DeleteUser(ctx context.Context, id string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	uow.EventBus().Publish(events.UserChangedEvent{UserID: id, Deleted: true})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func validateUser(user *models.User) error {
	if strings.TrimSpace(user.UserName) == "" {
		return fmt.Errorf("%w: user name is required", ErrValidation)
	}
	if strings.TrimSpace(user.TagID) == "" {
		return fmt.Errorf("%w: tag id is required", ErrValidation)
	}
	return nil
}
