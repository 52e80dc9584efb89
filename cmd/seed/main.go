// Command seed fills an empty database with a pair of accounts, a small
// movie catalog, one seated auditorium and two showtimes so the API can be
// exercised right after startup. Running it again is safe: every step
// checks for existing rows first.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/screenbook/movie-reservation/internal/config"
	"github.com/screenbook/movie-reservation/internal/database"
	"github.com/screenbook/movie-reservation/internal/model"
	"github.com/screenbook/movie-reservation/internal/repository"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.DBName); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := repository.NewUserRepo(db)
	movies := repository.NewMovieRepo(db)
	auditoriums := repository.NewAuditoriumRepo(db)
	seats := repository.NewSeatRepo(db)
	showtimes := repository.NewShowtimeRepo(db)

	seedUser(ctx, users, cfg.BcryptCost, "admin@screenbook.dev", envOr("SEED_ADMIN_PASSWORD", "Admin1234"), "Screenbook Admin", "ADMIN")
	seedUser(ctx, users, cfg.BcryptCost, "demo@screenbook.dev", envOr("SEED_DEMO_PASSWORD", "Demo1234"), "Demo User", "USER")

	m1 := seedMovie(ctx, movies, "The Long Night", "A detective follows a repeating radio signal across a sleepless city.", 128)
	m2 := seedMovie(ctx, movies, "Orbit Garden", "Two botanists keep a station greenhouse alive after contact with Earth is lost.", 102)

	aud := seedAuditorium(ctx, auditoriums, seats, "Auditorium 1", 5, 8)

	// Tomorrow 18:00 UTC and a second screening three hours later.
	evening := time.Now().UTC().Truncate(24 * time.Hour).Add(42 * time.Hour)
	seedShowtime(ctx, showtimes, m1, aud, evening, 128, "12.50")
	seedShowtime(ctx, showtimes, m2, aud, evening.Add(3*time.Hour), 102, "10.00")

	log.Println("seed complete")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func seedUser(ctx context.Context, users *repository.UserRepo, cost int, email, password, fullName, role string) {
	id, err := users.Create(ctx, email, password, fullName, role, cost)
	if errors.Is(err, repository.ErrEmailExists) {
		log.Printf("user %s already exists", email)
		return
	}
	if err != nil {
		log.Fatalf("create user %s: %v", email, err)
	}
	log.Printf("created %s user %s (id=%d)", role, email, id)
}

func seedMovie(ctx context.Context, movies *repository.MovieRepo, title, description string, durationMin uint32) uint64 {
	existing, err := movies.ListAll(ctx)
	if err != nil {
		log.Fatalf("list movies: %v", err)
	}
	for _, m := range existing {
		if m.Title == title {
			return m.ID
		}
	}
	m := &model.Movie{Title: title, Description: &description, DurationMinutes: durationMin}
	if err := movies.Create(ctx, m); err != nil {
		log.Fatalf("create movie %q: %v", title, err)
	}
	log.Printf("created movie %q (id=%d)", title, m.ID)
	return m.ID
}

// seedAuditorium creates the room and its seat grid in one go. Rows are
// labelled A upward; the first two seats of row A are accessible and the
// back row is premium with a small surcharge.
func seedAuditorium(ctx context.Context, auditoriums *repository.AuditoriumRepo, seats *repository.SeatRepo, name string, rows, perRow int) uint64 {
	existing, err := auditoriums.ListAll(ctx)
	if err != nil {
		log.Fatalf("list auditoriums: %v", err)
	}
	for _, a := range existing {
		if a.Name == name {
			return a.ID
		}
	}

	a := &model.Auditorium{Name: name}
	if err := auditoriums.Create(ctx, a); err != nil {
		log.Fatalf("create auditorium %q: %v", name, err)
	}

	premium := decimal.RequireFromString("3.00")
	grid := make([]model.Seat, 0, rows*perRow)
	for r := 0; r < rows; r++ {
		label := string(rune('A' + r))
		for n := 1; n <= perRow; n++ {
			seat := model.Seat{
				AuditoriumID:  a.ID,
				RowLabel:      label,
				SeatNumber:    uint32(n),
				SeatType:      "standard",
				PriceModifier: decimal.Zero,
			}
			if r == 0 && n <= 2 {
				seat.SeatType = "accessible"
			}
			if r == rows-1 {
				seat.SeatType = "premium"
				seat.PriceModifier = premium
			}
			grid = append(grid, seat)
		}
	}
	if err := seats.CreateBulk(ctx, grid); err != nil {
		log.Fatalf("create seats for %q: %v", name, err)
	}
	log.Printf("created auditorium %q (id=%d) with %d seats", name, a.ID, len(grid))
	return a.ID
}

func seedShowtime(ctx context.Context, showtimes *repository.ShowtimeRepo, movieID, auditoriumID uint64, start time.Time, durationMin int, basePrice string) {
	end := start.Add(time.Duration(durationMin) * time.Minute)

	overlapping, err := showtimes.FindOverlapping(ctx, auditoriumID, start, end)
	if err != nil {
		log.Fatalf("check showtime overlap: %v", err)
	}
	if len(overlapping) > 0 {
		log.Printf("showtime at %s already scheduled", start.Format(time.RFC3339))
		return
	}

	s := &model.Showtime{
		MovieID:      movieID,
		AuditoriumID: auditoriumID,
		StartsAt:     start,
		EndsAt:       end,
		BasePrice:    decimal.RequireFromString(basePrice),
	}
	if err := showtimes.Create(ctx, s); err != nil {
		log.Fatalf("create showtime: %v", err)
	}
	log.Printf("created showtime %d at %s", s.ID, start.Format(time.RFC3339))
}
