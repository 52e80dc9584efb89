package handler

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/screenbook/movie-reservation/internal/model"
	"github.com/screenbook/movie-reservation/internal/repository"
)

type seatGridReq struct {
	Rows          int             `json:"rows" validate:"required,gt=0,max=100"`
	SeatsPerRow   int             `json:"seats_per_row" validate:"required,gt=0,max=100"`
	SeatType      string          `json:"seat_type" validate:"omitempty,oneof=standard premium accessible"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
}

type seatResponse struct {
	ID            uint64          `json:"id"`
	RowLabel      string          `json:"row_label"`
	SeatNumber    uint32          `json:"seat_number"`
	SeatType      string          `json:"seat_type"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
}

// CreateSeatGrid handles POST /admin/auditoriums/:id/seats. It replaces the
// auditorium's layout with a rows x seats_per_row grid, labelling rows
// A, B, C and so on. Replacing is refused once showtimes exist for the room.
func (h *AdminHandler) CreateSeatGrid(c echo.Context) error {
	auditoriumID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req seatGridReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	seatType := strings.TrimSpace(req.SeatType)
	if seatType == "" {
		seatType = "standard"
	}
	if req.PriceModifier.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_modifier cannot be negative"})
	}

	ctx := c.Request().Context()
	if _, err := h.Auditoriums.GetByID(ctx, auditoriumID); err != nil {
		if errors.Is(err, repository.ErrAuditoriumNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "auditorium not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	seats := make([]model.Seat, 0, req.Rows*req.SeatsPerRow)
	for row := 0; row < req.Rows; row++ {
		label := indexToRowLabel(row)
		for n := 1; n <= req.SeatsPerRow; n++ {
			seats = append(seats, model.Seat{
				AuditoriumID:  auditoriumID,
				RowLabel:      label,
				SeatNumber:    uint32(n),
				SeatType:      seatType,
				PriceModifier: req.PriceModifier,
			})
		}
	}
	if err := h.Seats.ReplaceGrid(ctx, auditoriumID, seats); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "auditorium already has showtimes"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create seats"})
	}

	created, err := h.Seats.ListByAuditorium(ctx, auditoriumID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items := make([]seatResponse, 0, len(created))
	for _, s := range created {
		items = append(items, seatResponse{
			ID: s.ID, RowLabel: s.RowLabel, SeatNumber: s.SeatNumber,
			SeatType: s.SeatType, PriceModifier: s.PriceModifier,
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"auditorium_id": auditoriumID,
		"count":         len(items),
		"items":         items,
	})
}

// ListSeats handles GET /admin/auditoriums/:id/seats. Besides the flat list
// it returns a per-row layout for grid rendering.
func (h *AdminHandler) ListSeats(c echo.Context) error {
	auditoriumID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Auditoriums.GetByID(ctx, auditoriumID); err != nil {
		if errors.Is(err, repository.ErrAuditoriumNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "auditorium not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	seats, err := h.Seats.ListByAuditorium(ctx, auditoriumID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	items := make([]seatResponse, 0, len(seats))
	rowsMap := make(map[string][]uint32)
	for _, s := range seats {
		items = append(items, seatResponse{
			ID: s.ID, RowLabel: s.RowLabel, SeatNumber: s.SeatNumber,
			SeatType: s.SeatType, PriceModifier: s.PriceModifier,
		})
		lbl := normalizeRowLabel(s.RowLabel)
		rowsMap[lbl] = append(rowsMap[lbl], s.SeatNumber)
	}

	rowOrder := make([]string, 0, len(rowsMap))
	for lbl := range rowsMap {
		rowOrder = append(rowOrder, lbl)
	}
	sort.Slice(rowOrder, func(i, j int) bool {
		ii, okI := rowLabelToIndex(rowOrder[i])
		jj, okJ := rowLabelToIndex(rowOrder[j])
		if !okI || !okJ {
			return rowOrder[i] < rowOrder[j]
		}
		return ii < jj
	})
	type rowOut struct {
		RowLabel string   `json:"row_label"`
		Numbers  []uint32 `json:"numbers"`
	}
	layout := make([]rowOut, 0, len(rowOrder))
	for _, lbl := range rowOrder {
		nums := rowsMap[lbl]
		sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
		layout = append(layout, rowOut{RowLabel: lbl, Numbers: nums})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"auditorium_id": auditoriumID,
		"count":         len(items),
		"items":         items,
		"layout":        layout,
	})
}
