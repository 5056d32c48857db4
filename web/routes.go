package web

import (
	"drinktab/events"
	"drinktab/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp builds the Fiber application serving the reconciliation API
func NewApp(users service.UserService, billing service.BillingService, reminders service.ReminderService, messenger service.Messenger, bus *events.Bus) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "drinktab",
	})

	app.Use(recover.New())
	app.Use(cors.New())

	h := NewHandlers(users, billing, reminders, messenger)
	feed := newChangeFeed(bus)

	api := app.Group("/api")

	api.Get("/users", h.ListUsers)
	api.Get("/users/suggest", h.SuggestUsers)
	api.Post("/users", h.CreateUser)
	api.Put("/users/:id", h.UpdateUser)
	api.Delete("/users/:id", h.DeleteUser)
	api.Post("/users/:id/remind", h.SendReminder)
	api.Post("/users/:id/settle", h.Settle)

	api.Get("/resolve/:identifier", h.ResolveUser)
	api.Get("/debt/:identifier", h.Debt)

	api.Get("/bills", h.BillsForOwner)
	api.Get("/admin/bills", h.ListBills)
	api.Post("/bills", h.SaveBill)
	api.Delete("/bills/:id", h.DeleteBill)

	api.Get("/chatops/users", h.ChatOpsUsers)
	api.Get("/chatops/channel", h.ChatOpsChannel)

	api.Get("/events", feed.Stream)

	return app
}
