package router

import (
	"github.com/labstack/echo/v4"

	"github.com/screenbook/movie-reservation/internal/handler"
	"github.com/screenbook/movie-reservation/internal/middleware"
)

// RegisterAdmin registers catalog management behind the ADMIN role. Every
// route in the group runs JWTAuth first, then the role check.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/admin", middleware.JWTAuth(jwtSecret), middleware.RequireRole("ADMIN"))

	g.POST("/movies", h.CreateMovie)
	g.GET("/movies", h.ListMovies)
	g.GET("/movies/:id", h.GetMovie)
	g.PUT("/movies/:id", h.UpdateMovie)
	g.DELETE("/movies/:id", h.DeleteMovie)

	g.POST("/auditoriums", h.CreateAuditorium)
	g.GET("/auditoriums", h.ListAuditoriums)
	g.GET("/auditoriums/:id", h.GetAuditorium)
	g.PUT("/auditoriums/:id", h.UpdateAuditorium)
	g.DELETE("/auditoriums/:id", h.DeleteAuditorium)

	g.POST("/auditoriums/:id/seats", h.CreateSeatGrid)
	g.GET("/auditoriums/:id/seats", h.ListSeats)

	g.POST("/showtimes", h.CreateShowtime)
	g.GET("/showtimes", h.ListShowtimes)
	g.GET("/showtimes/:id", h.GetShowtime)
	g.PUT("/showtimes/:id", h.UpdateShowtime)
	g.DELETE("/showtimes/:id", h.DeleteShowtime)
	g.GET("/showtimes/:id/reservations", h.ListShowtimeReservations)
}
