package queue

// BookingConfirmedEvent is published when a reservation is successfully confirmed.
// It contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type BookingConfirmedEvent struct {
	EventID        string   `json:"event_id"`
	ReservationID  uint64   `json:"reservation_id"`
	UserID         *uint64  `json:"user_id,omitempty"`
	ShowtimeID     uint64   `json:"showtime_id"`
	MovieTitle     string   `json:"movie_title"`
	AuditoriumID   uint64   `json:"auditorium_id"`
	AuditoriumName string   `json:"auditorium_name"`
	StartsAt       string   `json:"starts_at"`
	EndsAt         string   `json:"ends_at"`
	SeatLabels     []string `json:"seats"`
	TotalPrice     string   `json:"total_price"`
	ConfirmedAt    string   `json:"confirmed_at"`
}
