// Public browsing endpoints. These routes require no authentication and
// return only catalog data; seat availability has its own uncached handler.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/screenbook/movie-reservation/internal/repository"
)

// PublicHandler aggregates repositories for the unauthenticated catalog.
type PublicHandler struct {
	Movies      *repository.MovieRepo
	Auditoriums *repository.AuditoriumRepo
	Showtimes   *repository.ShowtimeRepo
}

func NewPublicHandler(m *repository.MovieRepo, a *repository.AuditoriumRepo, st *repository.ShowtimeRepo) *PublicHandler {
	return &PublicHandler{Movies: m, Auditoriums: a, Showtimes: st}
}

// publicMovie carries only the fields safe for anonymous consumption.
type publicMovie struct {
	ID              uint64  `json:"id"`
	Title           string  `json:"title"`
	Description     *string `json:"description,omitempty"`
	DurationMinutes uint32  `json:"duration_minutes"`
}

// publicShowtimeDetail is the single-showtime view with its movie and room.
type publicShowtimeDetail struct {
	ID         uint64          `json:"id"`
	StartsAt   time.Time       `json:"starts_at"`
	EndsAt     time.Time       `json:"ends_at"`
	BasePrice  decimal.Decimal `json:"base_price"`
	Movie      publicMovie     `json:"movie"`
	Auditorium struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
	} `json:"auditorium"`
}

// ListMovies handles GET /movies.
func (h *PublicHandler) ListMovies(c echo.Context) error {
	movies, err := h.Movies.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]publicMovie, 0, len(movies))
	for _, m := range movies {
		out = append(out, publicMovie{
			ID: m.ID, Title: m.Title, Description: m.Description, DurationMinutes: m.DurationMinutes,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// SearchShowtimes handles GET /showtimes.
// Filters: title (substring), movie_id, date (YYYY-MM-DD),
// time ("upcoming" default, "active", "any"); page/page_size paginate.
func (h *PublicHandler) SearchShowtimes(c echo.Context) error {
	title := strings.TrimSpace(c.QueryParam("title"))
	timeFilter := strings.ToLower(strings.TrimSpace(c.QueryParam("time")))
	if timeFilter == "" {
		timeFilter = "upcoming"
	}

	var movieID uint64
	if raw := strings.TrimSpace(c.QueryParam("movie_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie_id"})
		}
		movieID = id
	}

	var date time.Time
	if raw := strings.TrimSpace(c.QueryParam("date")); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
		}
		date = d
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	ps, _ := strconv.Atoi(c.QueryParam("page_size"))
	if ps < 1 {
		ps = 20
	}
	if ps > 100 {
		ps = 100
	}

	q := repository.ShowtimeSearchQuery{
		Title:      title,
		MovieID:    movieID,
		Date:       date,
		TimeFilter: timeFilter,
		Page:       page,
		PageSize:   ps,
	}
	items, total, err := h.Showtimes.SearchUpcoming(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"total":     total,
		"page":      page,
		"page_size": ps,
	})
}

// GetShowtime handles GET /showtimes/:id, joining the movie and auditorium
// so a client can render the booking page from one request.
func (h *PublicHandler) GetShowtime(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	s, err := h.Showtimes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	resp := publicShowtimeDetail{ID: s.ID, StartsAt: s.StartsAt, EndsAt: s.EndsAt, BasePrice: s.BasePrice}
	if m, err := h.Movies.GetByID(ctx, s.MovieID); err == nil {
		resp.Movie = publicMovie{
			ID: m.ID, Title: m.Title, Description: m.Description, DurationMinutes: m.DurationMinutes,
		}
	}
	if a, err := h.Auditoriums.GetByID(ctx, s.AuditoriumID); err == nil {
		resp.Auditorium.ID = a.ID
		resp.Auditorium.Name = a.Name
	}
	return c.JSON(http.StatusOK, resp)
}
