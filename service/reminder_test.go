package service

import (
	"context"
	"errors"
	"testing"

	"drinktab/events"
	"drinktab/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type reminderFixture struct {
	uow       *MockUnitOfWork
	userRepo  *MockUserRepository
	billRepo  *MockBillRepository
	messenger *MockMessenger
	publisher *RecordingPublisher
	svc       ReminderService
}

func newReminderFixture(t *testing.T) *reminderFixture {
	t.Helper()

	f := &reminderFixture{
		userRepo:  new(MockUserRepository),
		billRepo:  new(MockBillRepository),
		messenger: new(MockMessenger),
		publisher: &RecordingPublisher{},
		uow:       new(MockUnitOfWork),
	}
	f.uow.SetRepositories(f.userRepo, f.billRepo, f.publisher)

	mockFactory := new(MockUnitOfWorkFactory)
	mockFactory.On("Create").Return(f.uow)

	f.svc = NewReminderService(mockFactory, f.messenger, NewResolver("-runsystem.net"), events.NewBus(), "ch_default")
	return f
}

func strPtr(s string) *string {
	return &s
}

func TestSendReminder(t *testing.T) {
	ctx := context.Background()

	t.Run("first reminder opens a thread", func(t *testing.T) {
		f := newReminderFixture(t)
		khoa := &models.User{ID: "u-1", TagID: "khoa-runsystem.net", ChatOpsChannelID: "ch_abc"}

		f.uow.On("Begin", ctx).Return(nil)
		f.uow.On("Rollback").Return(nil)
		f.uow.On("Commit").Return(nil)
		f.userRepo.On("GetByID", ctx, "u-1").Return(khoa, nil)
		f.billRepo.On("GetUnpaidByOwnerKeys", ctx, khoa.OwnerKeys()).Return([]*models.Bill{{TotalAmount: 45000}}, nil)
		f.messenger.On("CreatePost", ctx, "ch_abc",
			"@khoa ơi, bạn đang nợ tiền nước 45.000₫. Thanh toán giúp mình nhé! 🍻").Return("msg123", nil)
		f.userRepo.On("SetLastPostID", ctx, "u-1", mock.MatchedBy(func(p *string) bool {
			return p != nil && *p == "msg123"
		})).Return(nil)

		postID, err := f.svc.SendReminder(ctx, "u-1")

		require.NoError(t, err)
		assert.Equal(t, "msg123", postID)
		f.userRepo.AssertExpectations(t)
		f.messenger.AssertExpectations(t)
	})

	t.Run("repeat reminder leaves the thread id alone", func(t *testing.T) {
		f := newReminderFixture(t)
		khoa := &models.User{ID: "u-1", TagID: "khoa-runsystem.net", ChatOpsChannelID: "ch_abc", LastPostID: strPtr("msg123")}

		f.uow.On("Begin", ctx).Return(nil)
		f.uow.On("Rollback").Return(nil)
		f.userRepo.On("GetByID", ctx, "u-1").Return(khoa, nil)
		f.billRepo.On("GetUnpaidByOwnerKeys", ctx, khoa.OwnerKeys()).Return([]*models.Bill{{TotalAmount: 30000}}, nil)
		f.messenger.On("CreatePost", ctx, "ch_abc", mock.Anything).Return("msg456", nil)

		postID, err := f.svc.SendReminder(ctx, "u-1")

		require.NoError(t, err)
		assert.Equal(t, "msg456", postID)
		f.userRepo.AssertNotCalled(t, "SetLastPostID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no outstanding debt refuses to post", func(t *testing.T) {
		f := newReminderFixture(t)
		khoa := &models.User{ID: "u-1", TagID: "khoa-runsystem.net"}

		f.uow.On("Begin", ctx).Return(nil)
		f.uow.On("Rollback").Return(nil)
		f.userRepo.On("GetByID", ctx, "u-1").Return(khoa, nil)
		f.billRepo.On("GetUnpaidByOwnerKeys", ctx, khoa.OwnerKeys()).Return([]*models.Bill{}, nil)

		_, err := f.svc.SendReminder(ctx, "u-1")

		assert.ErrorIs(t, err, ErrNoOutstandingDebt)
		f.messenger.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("negative balance counts as no debt", func(t *testing.T) {
		f := newReminderFixture(t)
		khoa := &models.User{ID: "u-1", TagID: "khoa-runsystem.net"}

		f.uow.On("Begin", ctx).Return(nil)
		f.uow.On("Rollback").Return(nil)
		f.userRepo.On("GetByID", ctx, "u-1").Return(khoa, nil)
		f.billRepo.On("GetUnpaidByOwnerKeys", ctx, khoa.OwnerKeys()).Return([]*models.Bill{{TotalAmount: -5000}}, nil)

		_, err := f.svc.SendReminder(ctx, "u-1")

		assert.ErrorIs(t, err, ErrNoOutstandingDebt)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newReminderFixture(t)

		f.uow.On("Begin", ctx).Return(nil)
		f.uow.On("Rollback").Return(nil)
		f.userRepo.On("GetByID", ctx, "ghost").Return(nil, nil)

		_, err := f.svc.SendReminder(ctx, "ghost")

		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("falls back to the default channel", func(t *testing.T) {
		f := newReminderFixture(t)
		khoa := &models.User{ID: "u-1", TagID: "khoa-runsystem.net"}

		f.uow.On("Begin", ctx).Return(nil)
		f.uow.On("Rollback").Return(nil)
		f.uow.On("Commit").Return(nil)
		f.userRepo.On("GetByID", ctx, "u-1").Return(khoa, nil)
		f.billRepo.On("GetUnpaidByOwnerKeys", ctx, khoa.OwnerKeys()).Return([]*models.Bill{{TotalAmount: 10000}}, nil)
		f.messenger.On("CreatePost", ctx, "ch_default", mock.Anything).Return("msg789", nil)
		f.userRepo.On("SetLastPostID", ctx, "u-1", mock.Anything).Return(nil)

		_, err := f.svc.SendReminder(ctx, "u-1")

		require.NoError(t, err)
		f.messenger.AssertExpectations(t)
	})

	t.Run("post failure leaves the thread closed", func(t *testing.T) {
		f := newReminderFixture(t)
		khoa := &models.User{ID: "u-1", TagID: "khoa-runsystem.net", ChatOpsChannelID: "ch_abc"}

		f.uow.On("Begin", ctx).Return(nil)
		f.uow.On("Rollback").Return(nil)
		f.userRepo.On("GetByID", ctx, "u-1").Return(khoa, nil)
		f.billRepo.On("GetUnpaidByOwnerKeys", ctx, khoa.OwnerKeys()).Return([]*models.Bill{{TotalAmount: 10000}}, nil)
		f.messenger.On("CreatePost", ctx, "ch_abc", mock.Anything).Return("", errors.New("chatops down"))

		_, err := f.svc.SendReminder(ctx, "u-1")

		require.Error(t, err)
		f.userRepo.AssertNotCalled(t, "SetLastPostID", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSettle(t *testing.T) {
	ctx := context.Background()

	t.Run("settles and replies into the open thread", func(t *testing.T) {
		f := newReminderFixture(t)
		khoa := &models.User{ID: "u-1", TagID: "khoa-runsystem.net", ChatOpsChannelID: "ch_abc", LastPostID: strPtr("msg123")}

		f.uow.On("Begin", ctx).Return(nil)
		f.uow.On("Rollback").Return(nil)
		f.uow.On("Commit").Return(nil)
		f.userRepo.On("GetByID", ctx, "u-1").Return(khoa, nil)
		f.billRepo.On("GetUnpaidByOwnerKeys", ctx, khoa.OwnerKeys()).Return([]*models.Bill{
			{TotalAmount: 30000},
			{TotalAmount: 15000},
		}, nil)
		f.billRepo.On("MarkAllPaidByOwnerKeys", ctx, khoa.OwnerKeys()).Return(int64(2), nil)
		f.messenger.On("ReplyToPost", ctx, "ch_abc",
			"Đã nhận đủ 45.000₫ từ @khoa. Cảm ơn nhé! 🎉", "msg123").Return("reply1", nil)
		f.userRepo.On("SetLastPostID", ctx, "u-1", (*string)(nil)).Return(nil)

		result, err := f.svc.Settle(ctx, "u-1")

		require.NoError(t, err)
		assert.Equal(t, 2, result.BillsMarked)
		assert.Equal(t, int64(45000), result.AmountCleared)
		assert.Equal(t, "msg123", result.RepliedToPost)
		f.messenger.AssertNumberOfCalls(t, "ReplyToPost", 1)
		f.userRepo.AssertExpectations(t)

		require.Len(t, f.publisher.Events, 2)
		settled := f.publisher.Events[0].(events.BillsSettledEvent)
		assert.Equal(t, 2, settled.BillsMarked)
		assert.Equal(t, int64(45000), settled.AmountCleared)
	})

	t.Run("no thread means no message", func(t *testing.T) {
		f := newReminderFixture(t)
		khoa := &models.User{ID: "u-1", TagID: "khoa-runsystem.net"}

		f.uow.On("Begin", ctx).Return(nil)
		f.uow.On("Rollback").Return(nil)
		f.uow.On("Commit").Return(nil)
		f.userRepo.On("GetByID", ctx, "u-1").Return(khoa, nil)
		f.billRepo.On("GetUnpaidByOwnerKeys", ctx, khoa.OwnerKeys()).Return([]*models.Bill{{TotalAmount: 10000}}, nil)
		f.billRepo.On("MarkAllPaidByOwnerKeys", ctx, khoa.OwnerKeys()).Return(int64(1), nil)

		result, err := f.svc.Settle(ctx, "u-1")

		require.NoError(t, err)
		assert.Equal(t, 1, result.BillsMarked)
		assert.Empty(t, result.RepliedToPost)
		f.messenger.AssertNotCalled(t, "ReplyToPost", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.userRepo.AssertNotCalled(t, "SetLastPostID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("nothing unpaid but a stale thread still gets closed", func(t *testing.T) {
		f := newReminderFixture(t)
		khoa := &models.User{ID: "u-1", TagID: "khoa-runsystem.net", ChatOpsChannelID: "ch_abc", LastPostID: strPtr("msg123")}

		f.uow.On("Begin", ctx).Return(nil)
		f.uow.On("Rollback").Return(nil)
		f.uow.On("Commit").Return(nil)
		f.userRepo.On("GetByID", ctx, "u-1").Return(khoa, nil)
		f.billRepo.On("GetUnpaidByOwnerKeys", ctx, khoa.OwnerKeys()).Return([]*models.Bill{}, nil)
		f.messenger.On("ReplyToPost", ctx, "ch_abc", mock.Anything, "msg123").Return("reply1", nil)
		f.userRepo.On("SetLastPostID", ctx, "u-1", (*string)(nil)).Return(nil)

		result, err := f.svc.Settle(ctx, "u-1")

		require.NoError(t, err)
		assert.Equal(t, 0, result.BillsMarked)
		f.billRepo.AssertNotCalled(t, "MarkAllPaidByOwnerKeys", mock.Anything, mock.Anything)
		f.userRepo.AssertExpectations(t)
	})

	t.Run("failed reply still clears the thread", func(t *testing.T) {
		f := newReminderFixture(t)
		khoa := &models.User{ID: "u-1", TagID: "khoa-runsystem.net", ChatOpsChannelID: "ch_abc", LastPostID: strPtr("msg123")}

		f.uow.On("Begin", ctx).Return(nil)
		f.uow.On("Rollback").Return(nil)
		f.uow.On("Commit").Return(nil)
		f.userRepo.On("GetByID", ctx, "u-1").Return(khoa, nil)
		f.billRepo.On("GetUnpaidByOwnerKeys", ctx, khoa.OwnerKeys()).Return([]*models.Bill{{TotalAmount: 10000}}, nil)
		f.billRepo.On("MarkAllPaidByOwnerKeys", ctx, khoa.OwnerKeys()).Return(int64(1), nil)
		f.messenger.On("ReplyToPost", ctx, "ch_abc", mock.Anything, "msg123").Return("", errors.New("chatops down"))
		f.userRepo.On("SetLastPostID", ctx, "u-1", (*string)(nil)).Return(nil)

		result, err := f.svc.Settle(ctx, "u-1")

		require.NoError(t, err)
		assert.Equal(t, 1, result.BillsMarked)
		assert.Empty(t, result.RepliedToPost)
		f.userRepo.AssertExpectations(t)
	})
}
