package router

import (
	"github.com/labstack/echo/v4"

	"github.com/screenbook/movie-reservation/internal/handler"
)

// RegisterPublic registers the unauthenticated browse endpoints. The cache
// middleware is attached per route so catalog reads can be served from
// Redis while seat availability always hits the live stores. Availability
// reflects holds that expire by the second; caching it would show seats as
// taken after the hold is gone.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, b *handler.BookingHandler, cached echo.MiddlewareFunc) {
	e.GET("/movies", p.ListMovies, cached)
	e.GET("/showtimes", p.SearchShowtimes, cached)
	e.GET("/showtimes/:id", p.GetShowtime, cached)

	// Never cached.
	e.GET("/showtimes/:id/seats", b.GetSeatAvailability)
}
