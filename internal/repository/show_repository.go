// Package repository contains data access logic for shows, bookings and
// the per-show seat occupancy map. This file covers shows and the
// occupancy map. Timestamps are stored and compared in UTC; the MySQL
// DSN uses parseTime=true so DATETIME columns scan into time.Time.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction

	"github.com/quickshow/movie-ticket-booking/internal/model"
)

// ShowRepo manages persistence for shows and their occupancy maps.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *ShowRepo) DB() *sql.DB {
	return r.db
}

const showColumns = `id, title, starts_at, base_price_cents, premium_price_cents, gold_price_cents, silver_price_cents, created_at`

func scanShow(row interface{ Scan(...any) error }, s *model.Show) error {
	return row.Scan(
		&s.ID,
		&s.Title,
		&s.StartsAt,
		&s.BasePriceCents,
		&s.PremiumPriceCents,
		&s.GoldPriceCents,
		&s.SilverPriceCents,
		&s.CreatedAt,
	)
}

// Create inserts a new show and assigns the generated ID back to the
// struct.  Section prices may be zero, in which case seats in that
// section fall back to the base price at booking time.
func (r *ShowRepo) Create(ctx context.Context, s *model.Show) error {
	const q = `INSERT INTO shows (title, starts_at, base_price_cents, premium_price_cents, gold_price_cents, silver_price_cents)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		s.Title, s.StartsAt.UTC(), s.BasePriceCents,
		s.PremiumPriceCents, s.GoldPriceCents, s.SilverPriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT ` + showColumns + ` FROM shows WHERE id = ?`
	return scanShow(r.db.QueryRowContext(ctx, sel, s.ID), s)
}

// GetByID loads a single show.  It returns ErrShowNotFound when the id
// does not resolve; callers must not conflate that with an empty or
// fully occupied show.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	const q = `SELECT ` + showColumns + ` FROM shows WHERE id = ?`
	var s model.Show
	if err := scanShow(r.db.QueryRowContext(ctx, q, id), &s); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListUpcoming returns all shows that have not started yet, soonest
// first.  Used by the public browse endpoints.
func (r *ShowRepo) ListUpcoming(ctx context.Context) ([]model.Show, error) {
	const q = `SELECT ` + showColumns + ` FROM shows WHERE starts_at >= UTC_TIMESTAMP() ORDER BY starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Show
	for rows.Next() {
		var s model.Show
		if err := scanShow(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// OccupiedSeats returns the seat labels currently present in the
// show's occupancy map, sorted for stable responses.  Callers that
// care about freshness must run the expiry reclaimer for the show
// first, in the same request, otherwise seats held by an already
// expired booking will show up as taken.
func (r *ShowRepo) OccupiedSeats(ctx context.Context, showID uint64) ([]string, error) {
	const q = `SELECT seat_label FROM occupied_seats WHERE show_id = ? ORDER BY seat_label`
	rows, err := r.db.QueryContext(ctx, q, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := []string{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		seats = append(seats, label)
	}
	return seats, rows.Err()
}

// Delete removes a show together with its unpaid bookings and their
// occupancy rows.  A show with at least one paid booking cannot be
// deleted; ErrConflict is returned and nothing changes.  The whole
// operation runs in one transaction so a failure leaves no
// half-deleted state behind.
func (r *ShowRepo) Delete(ctx context.Context, showID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var exists uint64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM shows WHERE id = ? FOR UPDATE`, showID).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return ErrShowNotFound
		}
		return err
	}

	var paid int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE show_id = ? AND is_paid = 1`, showID).Scan(&paid); err != nil {
		return err
	}
	if paid > 0 {
		return ErrConflict
	}

	// Unpaid bookings, their seats and the occupancy rows all cascade
	// from the show row.
	if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE show_id = ?`, showID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM occupied_seats WHERE show_id = ?`, showID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM shows WHERE id = ?`, showID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
