package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/screenbook/movie-reservation/internal/model"
	"github.com/screenbook/movie-reservation/internal/repository"
)

type showtimeResponse struct {
	ID           uint64          `json:"id"`
	MovieID      uint64          `json:"movie_id"`
	AuditoriumID uint64          `json:"auditorium_id"`
	StartsAt     time.Time       `json:"starts_at"`
	EndsAt       time.Time       `json:"ends_at"`
	BasePrice    decimal.Decimal `json:"base_price"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func toShowtimeResponse(s *model.Showtime) showtimeResponse {
	return showtimeResponse{
		ID:           s.ID,
		MovieID:      s.MovieID,
		AuditoriumID: s.AuditoriumID,
		StartsAt:     s.StartsAt,
		EndsAt:       s.EndsAt,
		BasePrice:    s.BasePrice,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func toShowtimeResponses(in []model.Showtime) []showtimeResponse {
	out := make([]showtimeResponse, 0, len(in))
	for i := range in {
		out = append(out, toShowtimeResponse(&in[i]))
	}
	return out
}

// parseRFC3339 parses a trimmed RFC3339 timestamp into UTC.
func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// CreateShowtime handles POST /admin/showtimes. Scheduling is rejected when
// the interval would overlap another showtime in the same auditorium.
func (h *AdminHandler) CreateShowtime(c echo.Context) error {
	var body struct {
		MovieID      uint64          `json:"movie_id" validate:"required,gt=0"`
		AuditoriumID uint64          `json:"auditorium_id" validate:"required,gt=0"`
		StartsAt     string          `json:"starts_at" validate:"required"`
		EndsAt       string          `json:"ends_at" validate:"required"`
		BasePrice    decimal.Decimal `json:"base_price"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	startsAt, err := parseRFC3339(body.StartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid starts_at format"})
	}
	endsAt, err := parseRFC3339(body.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ends_at format"})
	}
	if !endsAt.After(startsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}
	if body.BasePrice.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "base_price cannot be negative"})
	}

	ctx := c.Request().Context()
	if _, err := h.Movies.GetByID(ctx, body.MovieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if _, err := h.Auditoriums.GetByID(ctx, body.AuditoriumID); err != nil {
		if errors.Is(err, repository.ErrAuditoriumNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "auditorium not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	overlaps, err := h.Showtimes.FindOverlapping(ctx, body.AuditoriumID, startsAt, endsAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check existing showtimes"})
	}
	if len(overlaps) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":    "showtime overlaps with an existing showtime",
			"overlaps": toShowtimeResponses(overlaps),
		})
	}

	s := &model.Showtime{
		MovieID:      body.MovieID,
		AuditoriumID: body.AuditoriumID,
		StartsAt:     startsAt,
		EndsAt:       endsAt,
		BasePrice:    body.BasePrice,
	}
	if err := h.Showtimes.Create(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create showtime"})
	}
	return c.JSON(http.StatusCreated, toShowtimeResponse(s))
}

// ListShowtimes handles GET /admin/showtimes, optionally filtered by movie_id.
func (h *AdminHandler) ListShowtimes(c echo.Context) error {
	ctx := c.Request().Context()
	if raw := strings.TrimSpace(c.QueryParam("movie_id")); raw != "" {
		movieID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || movieID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie_id"})
		}
		items, err := h.Showtimes.ListByMovie(ctx, movieID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		return c.JSON(http.StatusOK, echo.Map{"items": toShowtimeResponses(items)})
	}
	items, err := h.Showtimes.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toShowtimeResponses(items)})
}

// GetShowtime handles GET /admin/showtimes/:id.
func (h *AdminHandler) GetShowtime(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	s, err := h.Showtimes.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toShowtimeResponse(s))
}

// UpdateShowtime handles PUT /admin/showtimes/:id. All fields are optional;
// the auditorium cannot be changed. Rescheduling re-runs the overlap check
// against every other showtime in the room.
func (h *AdminHandler) UpdateShowtime(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	cur, err := h.Showtimes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load showtime"})
	}

	var body struct {
		MovieID   *uint64          `json:"movie_id"`
		StartsAt  *string          `json:"starts_at"`
		EndsAt    *string          `json:"ends_at"`
		BasePrice *decimal.Decimal `json:"base_price"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	upd := *cur
	timesChanged := false
	if body.MovieID != nil {
		if *body.MovieID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie_id"})
		}
		if _, err := h.Movies.GetByID(ctx, *body.MovieID); err != nil {
			if errors.Is(err, repository.ErrMovieNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		upd.MovieID = *body.MovieID
	}
	if body.StartsAt != nil {
		t, err := parseRFC3339(*body.StartsAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid starts_at format"})
		}
		upd.StartsAt = t
		timesChanged = true
	}
	if body.EndsAt != nil {
		t, err := parseRFC3339(*body.EndsAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ends_at format"})
		}
		upd.EndsAt = t
		timesChanged = true
	}
	if body.BasePrice != nil {
		if body.BasePrice.IsNegative() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "base_price cannot be negative"})
		}
		upd.BasePrice = *body.BasePrice
	}
	if !upd.EndsAt.After(upd.StartsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}
	if timesChanged {
		overlaps, err := h.Showtimes.FindOverlappingExcluding(ctx, upd.AuditoriumID, upd.ID, upd.StartsAt, upd.EndsAt)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check existing showtimes"})
		}
		if len(overlaps) > 0 {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":    "showtime overlaps with an existing showtime",
				"overlaps": toShowtimeResponses(overlaps),
			})
		}
	}

	if err := h.Showtimes.Update(ctx, &upd); err != nil {
		switch {
		case errors.Is(err, repository.ErrShowtimeNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		case errors.Is(err, repository.ErrNoChange):
			return c.JSON(http.StatusConflict, echo.Map{"error": "showtime already has these parameters"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	fresh, err := h.Showtimes.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load showtime"})
	}
	return c.JSON(http.StatusOK, toShowtimeResponse(fresh))
}

// DeleteShowtime handles DELETE /admin/showtimes/:id. Showtimes that have
// reservations cannot be deleted.
func (h *AdminHandler) DeleteShowtime(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Showtimes.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrShowtimeNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "cannot delete showtime with reservations"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// ListShowtimeReservations handles GET /admin/showtimes/:id/reservations.
func (h *AdminHandler) ListShowtimeReservations(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Showtimes.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	details, err := h.Resv.ListByShowtime(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": details,
		"count": len(details),
	})
}
