package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/screenbook/movie-reservation/internal/model"
	"github.com/screenbook/movie-reservation/internal/repository"
)

type auditoriumReq struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type auditoriumResponse struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toAuditoriumResponse(a *model.Auditorium) auditoriumResponse {
	return auditoriumResponse{ID: a.ID, Name: a.Name, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt}
}

// CreateAuditorium handles POST /admin/auditoriums.
func (h *AdminHandler) CreateAuditorium(c echo.Context) error {
	var req auditoriumReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	a := &model.Auditorium{Name: strings.TrimSpace(req.Name)}
	if err := h.Auditoriums.Create(c.Request().Context(), a); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "auditorium name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create auditorium"})
	}
	return c.JSON(http.StatusCreated, toAuditoriumResponse(a))
}

// ListAuditoriums handles GET /admin/auditoriums.
func (h *AdminHandler) ListAuditoriums(c echo.Context) error {
	items, err := h.Auditoriums.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]auditoriumResponse, 0, len(items))
	for i := range items {
		out = append(out, toAuditoriumResponse(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetAuditorium handles GET /admin/auditoriums/:id.
func (h *AdminHandler) GetAuditorium(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	a, err := h.Auditoriums.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrAuditoriumNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "auditorium not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toAuditoriumResponse(a))
}

// UpdateAuditorium handles PUT /admin/auditoriums/:id.
func (h *AdminHandler) UpdateAuditorium(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req auditoriumReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Auditoriums.UpdateName(c.Request().Context(), id, strings.TrimSpace(req.Name)); err != nil {
		switch {
		case errors.Is(err, repository.ErrAuditoriumNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "auditorium not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "auditorium name already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	fresh, err := h.Auditoriums.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toAuditoriumResponse(fresh))
}

// DeleteAuditorium handles DELETE /admin/auditoriums/:id. Refused while
// any showtime still uses the room.
func (h *AdminHandler) DeleteAuditorium(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Auditoriums.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrAuditoriumNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "auditorium not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "auditorium has scheduled showtimes"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
