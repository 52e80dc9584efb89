package router

import (
	"github.com/labstack/echo/v4"

	"github.com/screenbook/movie-reservation/internal/handler"
	"github.com/screenbook/movie-reservation/internal/middleware"
)

// RegisterBooking registers the authenticated hold / confirm / cancel flow
// and the caller's reservation views. Any authenticated account may book;
// the rate limiter guards the two mutating endpoints so a single client
// cannot hammer the hold index or the confirm path.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("", middleware.JWTAuth(jwtSecret), middleware.RequireRole("USER", "ADMIN"))

	g.POST("/showtimes/:id/holds", b.PlaceHold, limiter)
	g.POST("/reservations/:id/confirm", b.Confirm, limiter)

	g.GET("/reservations", b.ListMyReservations)
	g.GET("/reservations/:id", b.GetReservation)
	g.DELETE("/reservations/:id", b.CancelReservation)
}
