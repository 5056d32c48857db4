package web

import (
	"errors"
	"strconv"
	"time"

	"drinktab/chatops"
	"drinktab/models"
	"drinktab/service"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

const defaultSuggestLimit = 10

// Handlers exposes the reconciliation core over HTTP for the web frontend
type Handlers struct {
	users     service.UserService
	billing   service.BillingService
	reminders service.ReminderService
	messenger service.Messenger
}

// NewHandlers creates the HTTP handlers
func NewHandlers(users service.UserService, billing service.BillingService, reminders service.ReminderService, messenger service.Messenger) *Handlers {
	return &Handlers{
		users:     users,
		billing:   billing,
		reminders: reminders,
		messenger: messenger,
	}
}

func respondError(c *fiber.Ctx, err error) error {
	var apiErr *chatops.APIError

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrNoOutstandingDebt):
		status = fiber.StatusBadRequest
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrBillNotFound):
		status = fiber.StatusNotFound
	case errors.As(err, &apiErr):
		status = fiber.StatusBadGateway
	}

	if status == fiber.StatusInternalServerError || status == fiber.StatusBadGateway {
		log.WithError(err).Error("Request failed")
	}

	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// ListUsers returns all users
func (h *Handlers) ListUsers(c *fiber.Ctx) error {
	users, err := h.users.ListUsers(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// SuggestUsers returns ranked user candidates for a picker
func (h *Handlers) SuggestUsers(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultSuggestLimit)))
	users, err := h.users.SuggestUsers(c.Context(), c.Query("q"), limit)
	if err != nil {
		return respondError(c, err)
	}
	if users == nil {
		users = []*models.User{}
	}
	return c.JSON(users)
}

// ResolveUser maps a raw identifier to a user record
func (h *Handlers) ResolveUser(c *fiber.Ctx) error {
	user, err := h.users.ResolveUser(c.Context(), c.Params("identifier"))
	if err != nil {
		return respondError(c, err)
	}
	if user == nil {
		return respondError(c, service.ErrUserNotFound)
	}
	return c.JSON(user)
}

type userPayload struct {
	TagID            string  `json:"tag_id"`
	ChatOpsChannelID string  `json:"chatops_channel_id"`
	UserName         string  `json:"user_name"`
	Role             int     `json:"role"`
	Email            string  `json:"email"`
	AvatarURL        *string `json:"avatar_url"`
}

// CreateUser creates a new user
func (h *Handlers) CreateUser(c *fiber.Ctx) error {
	var payload userPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	user, err := h.users.CreateUser(c.Context(), &models.User{
		TagID:            payload.TagID,
		ChatOpsChannelID: payload.ChatOpsChannelID,
		UserName:         payload.UserName,
		Role:             models.Role(payload.Role),
		Email:            payload.Email,
		AvatarURL:        payload.AvatarURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// UpdateUser edits an existing user
func (h *Handlers) UpdateUser(c *fiber.Ctx) error {
	var payload userPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	err := h.users.UpdateUser(c.Context(), &models.User{
		ID:               c.Params("id"),
		TagID:            payload.TagID,
		ChatOpsChannelID: payload.ChatOpsChannelID,
		UserName:         payload.UserName,
		Role:             models.Role(payload.Role),
		Email:            payload.Email,
		AvatarURL:        payload.AvatarURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteUser removes a user
func (h *Handlers) DeleteUser(c *fiber.Ctx) error {
	if err := h.users.DeleteUser(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListBills returns every bill with items and owner (admin view), optionally
// narrowed by the admin search box
func (h *Handlers) ListBills(c *fiber.Ctx) error {
	bills, err := h.billing.ListBills(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	if q := c.Query("q"); q != "" {
		bills = service.SearchDetailed(bills, q)
	}
	if bills == nil {
		bills = []*models.DetailedBill{}
	}
	return c.JSON(bills)
}

// BillsForOwner returns the filtered bills for an identifier
func (h *Handlers) BillsForOwner(c *fiber.Ctx) error {
	now := time.Now()
	month, _ := strconv.Atoi(c.Query("month", strconv.Itoa(int(now.Month()))))
	year, _ := strconv.Atoi(c.Query("year", strconv.Itoa(now.Year())))

	status := models.BillStatusUnpaid
	if c.Query("status") == string(models.BillStatusPaid) {
		status = models.BillStatusPaid
	}

	bills, err := h.billing.BillsFor(c.Context(), c.Query("owner"), service.BillFilter{
		Status: status,
		Month:  time.Month(month),
		Year:   year,
	})
	if err != nil {
		return respondError(c, err)
	}
	if bills == nil {
		bills = []*models.Bill{}
	}
	return c.JSON(bills)
}

// Debt returns the outstanding unpaid total for an identifier
func (h *Handlers) Debt(c *fiber.Ctx) error {
	total, err := h.billing.DebtFor(c.Context(), c.Params("identifier"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"total_debt": total})
}

type billItemPayload struct {
	ItemName       string `json:"item_name"`
	Quantity       int    `json:"quantity"`
	UnitPrice      int64  `json:"unit_price"`
	DiscountAmount int64  `json:"discount_amount"`
}

type billPayload struct {
	ID       string            `json:"id"`
	UserID   string            `json:"user_id"`
	BillDate time.Time         `json:"bill_date"`
	IsPaid   bool              `json:"is_paid"`
	Items    []billItemPayload `json:"items"`
}

// SaveBill validates and upserts a bill with its items
func (h *Handlers) SaveBill(c *fiber.Ctx) error {
	var payload billPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	input := &service.SaveBillInput{
		ID:       payload.ID,
		UserID:   payload.UserID,
		BillDate: payload.BillDate,
		IsPaid:   payload.IsPaid,
	}
	for _, item := range payload.Items {
		input.Items = append(input.Items, service.SaveBillItemInput{
			ItemName:       item.ItemName,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			DiscountAmount: item.DiscountAmount,
		})
	}

	billID, err := h.billing.SaveBill(c.Context(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"id": billID})
}

// DeleteBill removes a bill and its items
func (h *Handlers) DeleteBill(c *fiber.Ctx) error {
	if err := h.billing.DeleteBill(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SendReminder posts a debt reminder for a user
func (h *Handlers) SendReminder(c *fiber.Ctx) error {
	postID, err := h.reminders.SendReminder(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"post_id": postID})
}

// Settle marks all of a user's unpaid bills paid and acknowledges the thread
func (h *Handlers) Settle(c *fiber.Ctx) error {
	result, err := h.reminders.Settle(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// ChatOpsUsers searches platform users by name for the add-user flow
func (h *Handlers) ChatOpsUsers(c *fiber.Ctx) error {
	users, err := h.messenger.AutocompleteUsers(c.Context(), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	if users == nil {
		users = []*models.ChatOpsUser{}
	}
	return c.JSON(users)
}

// ChatOpsChannel looks up the channel addressing a platform user. The
// add-user flow calls this after autocomplete to prefill
// chatops_channel_id; an empty id means no channel was found.
func (h *Handlers) ChatOpsChannel(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
	}

	channelID, err := h.messenger.FindChannelForUser(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"channel_id": channelID})
}
