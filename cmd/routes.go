package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"rentease/internal/models"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	authMiddleware := standardMiddleware.Append(app.authenticate)
	ownerMiddleware := authMiddleware.Append(app.requireKind(models.PrincipalOwner))
	renterMiddleware := authMiddleware.Append(app.requireKind(models.PrincipalRenter))

	mux := pat.New()

	// Owners
	mux.Post("/owners/register", standardMiddleware.ThenFunc(app.ownerAuthHandler.Register))
	mux.Post("/owners/login", standardMiddleware.ThenFunc(app.ownerAuthHandler.Login))
	mux.Get("/owners/current-user", ownerMiddleware.ThenFunc(app.ownerAuthHandler.CurrentUser))
	mux.Del("/owners/:ownerId", ownerMiddleware.ThenFunc(app.ownerAuthHandler.DeleteByID))

	// Renters
	mux.Post("/api/renters/register", standardMiddleware.ThenFunc(app.renterAuthHandler.Register))
	mux.Post("/api/renters/login", standardMiddleware.ThenFunc(app.renterAuthHandler.Login))
	mux.Get("/api/renters/current-user", renterMiddleware.ThenFunc(app.renterAuthHandler.CurrentUser))
	mux.Patch("/api/renters/update-name", renterMiddleware.ThenFunc(app.renterAuthHandler.UpdateName))
	mux.Del("/api/renters/delete", renterMiddleware.ThenFunc(app.renterAuthHandler.DeleteSelf))

	// Sessions
	mux.Post("/auth/refresh", standardMiddleware.ThenFunc(app.ownerAuthHandler.Refresh))
	mux.Post("/auth/logout", authMiddleware.ThenFunc(app.ownerAuthHandler.Logout))

	// Rooms
	mux.Post("/rooms", ownerMiddleware.ThenFunc(app.roomHandler.CreateRoom))
	mux.Get("/rooms", standardMiddleware.ThenFunc(app.roomHandler.GetRooms))
	mux.Get("/rooms/owner/:ownerId/unavailable", standardMiddleware.ThenFunc(app.roomHandler.GetUnavailableRooms))
	mux.Get("/rooms/owner/:ownerId/room-stats", ownerMiddleware.ThenFunc(app.roomHandler.GetRoomStats))
	mux.Get("/rooms/owner/:ownerId", standardMiddleware.ThenFunc(app.roomHandler.GetRoomsByOwner))
	mux.Get("/rooms/:roomId", standardMiddleware.ThenFunc(app.roomHandler.GetRoomByID))
	mux.Put("/rooms/:roomId", ownerMiddleware.ThenFunc(app.roomHandler.UpdateRoom))
	mux.Patch("/rooms/:roomId/status", ownerMiddleware.ThenFunc(app.roomHandler.UpdateRoomStatus))
	mux.Del("/rooms/:roomId", ownerMiddleware.ThenFunc(app.roomHandler.DeleteRoom))

	// Rented units
	mux.Post("/rented_units/initiate-payment", renterMiddleware.ThenFunc(app.rentedUnitHandler.InitiatePayment))
	mux.Post("/rented_units", renterMiddleware.ThenFunc(app.rentedUnitHandler.CreateRentedUnit))
	mux.Get("/rented_units", authMiddleware.ThenFunc(app.rentedUnitHandler.GetRentedUnits))
	mux.Get("/rented_units/renter/:renterId", authMiddleware.ThenFunc(app.rentedUnitHandler.GetRentedUnitsByRenter))
	mux.Get("/rented_units/room/:roomId", authMiddleware.ThenFunc(app.rentedUnitHandler.GetRentedUnitsByRoom))
	mux.Get("/rented_units/:id", authMiddleware.ThenFunc(app.rentedUnitHandler.GetRentedUnitByID))
	mux.Del("/rented_units/:id", authMiddleware.ThenFunc(app.rentedUnitHandler.DeleteRentedUnit))

	// Payment reminders
	mux.Post("/payment_reminders", ownerMiddleware.ThenFunc(app.paymentReminderHandler.CreateReminder))
	mux.Get("/payment_reminders", authMiddleware.ThenFunc(app.paymentReminderHandler.GetReminders))
	mux.Get("/payment_reminders/renter/:renterId", authMiddleware.ThenFunc(app.paymentReminderHandler.GetRemindersByRenter))
	mux.Get("/payment_reminders/owner/:ownerId", authMiddleware.ThenFunc(app.paymentReminderHandler.GetRemindersByOwner))
	mux.Get("/payment_reminders/room/:roomId", authMiddleware.ThenFunc(app.paymentReminderHandler.GetRemindersByRoom))
	mux.Get("/payment_reminders/:id", authMiddleware.ThenFunc(app.paymentReminderHandler.GetReminderByID))
	mux.Patch("/payment_reminders/:id/approval", ownerMiddleware.ThenFunc(app.paymentReminderHandler.DecideReminder))
	mux.Del("/payment_reminders/:id", ownerMiddleware.ThenFunc(app.paymentReminderHandler.DeleteReminder))

	// Payments
	mux.Post("/payments/intent/attach/:id", authMiddleware.ThenFunc(app.paymentHandler.AttachIntent))
	mux.Post("/payments/intent", authMiddleware.ThenFunc(app.paymentHandler.CreateIntent))
	mux.Get("/payments/intent/:id", authMiddleware.ThenFunc(app.paymentHandler.RetrieveIntent))
	mux.Post("/payments/method", authMiddleware.ThenFunc(app.paymentHandler.CreateMethod))
	mux.Post("/payments/save", authMiddleware.ThenFunc(app.paymentHandler.SavePayment))
	mux.Get("/payments/by-intent-id/:paymentIntentId", authMiddleware.ThenFunc(app.paymentHandler.GetByIntentID))
	mux.Post("/payments/webhook", standardMiddleware.ThenFunc(app.paymentHandler.Webhook))

	// Devices
	mux.Post("/devices", authMiddleware.ThenFunc(app.deviceHandler.RegisterDevice))

	// Notifications
	wsMiddleware := alice.New(app.recoverPanic, app.logRequest, app.authenticate)
	mux.Get("/ws", wsMiddleware.ThenFunc(app.WebSocketHandler))

	return mux
}
