package repository

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ShowtimeSearchQuery defines filters & pagination for browsing showtimes.
type ShowtimeSearchQuery struct {
	Title      string    // substring match on the movie title
	MovieID    uint64    // exact movie filter, 0 means any
	Date       time.Time // calendar day filter, zero means any
	TimeFilter string    // upcoming (default), active, any
	Page       int
	PageSize   int
}

// PublicShowtimeRow is one row of the public showtime listing.
type PublicShowtimeRow struct {
	ID             uint64          `json:"id"`
	MovieID        uint64          `json:"movie_id"`
	MovieTitle     string          `json:"movie_title"`
	AuditoriumID   uint64          `json:"auditorium_id"`
	AuditoriumName string          `json:"auditorium_name"`
	StartsAt       time.Time       `json:"starts_at"`
	EndsAt         time.Time       `json:"ends_at"`
	BasePrice      decimal.Decimal `json:"base_price"`
}

// SearchUpcoming returns showtimes matching the query plus the total number
// of matches for pagination. By default only showtimes that have not yet
// started are listed.
func (r *ShowtimeRepo) SearchUpcoming(ctx context.Context, q ShowtimeSearchQuery) ([]PublicShowtimeRow, int64, error) {
	where := []string{}
	args := []any{}

	switch strings.ToLower(q.TimeFilter) {
	case "any":
	case "active":
		where = append(where, "st.ends_at >= UTC_TIMESTAMP()")
	default:
		where = append(where, "st.starts_at >= UTC_TIMESTAMP()")
	}

	if q.Title != "" {
		where = append(where, "LOWER(m.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Title)+"%")
	}
	if q.MovieID != 0 {
		where = append(where, "st.movie_id = ?")
		args = append(args, q.MovieID)
	}
	if !q.Date.IsZero() {
		day := q.Date.UTC().Truncate(24 * time.Hour)
		where = append(where, "st.starts_at >= ? AND st.starts_at < ?")
		args = append(args, day, day.Add(24*time.Hour))
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*)
		FROM showtimes st
		JOIN movies m      ON m.id = st.movie_id
		JOIN auditoriums a ON a.id = st.auditorium_id
		WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT
			st.id,
			st.movie_id,
			m.title AS movie_title,
			st.auditorium_id,
			a.name  AS auditorium_name,
			st.starts_at,
			st.ends_at,
			st.base_price
		FROM showtimes st
		JOIN movies m      ON m.id = st.movie_id
		JOIN auditoriums a ON a.id = st.auditorium_id
		WHERE ` + cond + `
		ORDER BY st.starts_at ASC
		LIMIT ? OFFSET ?`

	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]PublicShowtimeRow, 0, limit)
	for rows.Next() {
		var d PublicShowtimeRow
		if err := rows.Scan(
			&d.ID,
			&d.MovieID,
			&d.MovieTitle,
			&d.AuditoriumID,
			&d.AuditoriumName,
			&d.StartsAt,
			&d.EndsAt,
			&d.BasePrice,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
