package service

import (
	"context"
	"fmt"

	"drinktab/events"
	"drinktab/models"

	log "github.com/sirupsen/logrus"
)

type reminderService struct {
	uowFactory       UnitOfWorkFactory
	messenger        Messenger
	resolver         *Resolver
	eventBus         *events.Bus
	defaultChannelID string
}

// NewReminderService creates a new reminder service
func NewReminderService(uowFactory UnitOfWorkFactory, messenger Messenger, resolver *Resolver, eventBus *events.Bus, defaultChannelID string) ReminderService {
	return &reminderService{
		uowFactory:       uowFactory,
		messenger:        messenger,
		resolver:         resolver,
		eventBus:         eventBus,
		defaultChannelID: defaultChannelID,
	}
}

// SendReminder posts a debt reminder for the user's current unpaid total.
// The first successful reminder opens a thread by persisting the returned
// post id; later reminders reuse the channel without touching the thread id.
// Sends are at-least-once: a double click produces a duplicate post.
func (s *reminderService) SendReminder(ctx context.Context, userID string) (string, error) {
	user, debt, _, err := s.loadDebt(ctx, userID)
	if err != nil {
		return "", err
	}
	if debt <= 0 {
		return "", ErrNoOutstandingDebt
	}

	message := fmt.Sprintf("@%s ơi, bạn đang nợ tiền nước %s. Thanh toán giúp mình nhé! 🍻",
		s.resolver.StripTagSuffix(user.TagID), FormatVND(debt))

	postID, err := s.messenger.CreatePost(ctx, s.channelFor(user), message)
	if err != nil {
		return "", fmt.Errorf("failed to post reminder: %w", err)
	}

	newThread := user.LastPostID == nil
	if newThread {
		if err := s.setLastPostID(ctx, user.ID, &postID); err != nil {
			// The post went out but the thread id was lost: the next settle
			// cannot reply into this thread. Surface it.
			return "", fmt.Errorf("reminder posted but failed to persist thread id: %w", err)
		}
	}

	s.eventBus.Emit(ctx, events.ReminderSentEvent{
		UserID:     user.ID,
		PostID:     postID,
		DebtAmount: debt,
		NewThread:  newThread,
	})

	return postID, nil
}

// Settle marks every unpaid bill owned by the user as paid in one bulk
// update, then, if a reminder thread is open, posts exactly one thank-you
// reply into it and clears the thread id. Settlement is not rolled back by
// a failed reply; the acknowledgement is best-effort.
func (s *reminderService) Settle(ctx context.Context, userID string) (*models.SettleResult, error) {
	user, outstanding, unpaidCount, err := s.loadDebt(ctx, userID)
	if err != nil {
		return nil, err
	}

	openThread := user.LastPostID
	result := &models.SettleResult{AmountCleared: outstanding}

	if unpaidCount > 0 {
		uow := s.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return nil, fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		marked, err := uow.BillRepository().MarkAllPaidByOwnerKeys(ctx, user.OwnerKeys())
		if err != nil {
			return nil, fmt.Errorf("failed to mark bills paid: %w", err)
		}
		result.BillsMarked = int(marked)

		uow.EventBus().Publish(events.BillsSettledEvent{
			UserID:        user.ID,
			BillsMarked:   result.BillsMarked,
			AmountCleared: outstanding,
		})

		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
	}

	if openThread == nil {
		return result, nil
	}

	message := fmt.Sprintf("Đã nhận đủ %s từ @%s. Cảm ơn nhé! 🎉",
		FormatVND(outstanding), s.resolver.StripTagSuffix(user.TagID))

	if _, err := s.messenger.ReplyToPost(ctx, s.channelFor(user), message, *openThread); err != nil {
		// Debt is cleared either way; a missing acknowledgement beats an
		// unsettled bill held hostage by a flaky messaging call.
		log.WithFields(log.Fields{
			"userID": user.ID,
			"postID": *openThread,
		}).WithError(err).Warn("Failed to post settlement acknowledgement")
	} else {
		result.RepliedToPost = *openThread
	}

	if err := s.setLastPostID(ctx, user.ID, nil); err != nil {
		return nil, fmt.Errorf("failed to close reminder thread: %w", err)
	}

	return result, nil
}

// loadDebt fetches the user with their unpaid bill count and total
func (s *reminderService) loadDebt(ctx context.Context, userID string) (*models.User, int64, int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, 0, 0, ErrUserNotFound
	}

	unpaid, err := uow.BillRepository().GetUnpaidByOwnerKeys(ctx, user.OwnerKeys())
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to get unpaid bills: %w", err)
	}

	return user, ComputeTotal(unpaid), len(unpaid), nil
}

func (s *reminderService) setLastPostID(ctx context.Context, userID string, postID *string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().SetLastPostID(ctx, userID, postID); err != nil {
		return err
	}

	uow.EventBus().Publish(events.UserChangedEvent{UserID: userID})

	return uow.Commit()
}

func (s *reminderService) channelFor(user *models.User) string {
	if user.ChatOpsChannelID != "" {
		return user.ChatOpsChannelID
	}
	return s.defaultChannelID
}
