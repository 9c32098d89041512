package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/quickshow/movie-ticket-booking/internal/model"
)

// MySQL error numbers the booking repository translates into sentinel
// errors.  1062 is ER_DUP_ENTRY, 1452 is ER_NO_REFERENCED_ROW_2.
const (
	mysqlErrDupEntry = 1062
	mysqlErrNoRefRow = 1452
)

// BookingRepo manages persistence for bookings, their seat sets and
// the coupled occupancy rows.  Every mutating method is a single
// transaction: a booking without occupancy, or occupancy without a
// booking, are both forbidden terminal states.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// DB exposes the underlying sql.DB.
func (r *BookingRepo) DB() *sql.DB {
	return r.db
}

// CreateWithSeats persists a new unpaid booking and claims its seats
// in the show's occupancy map as one atomic unit.  The PRIMARY KEY on
// occupied_seats (show_id, seat_label) is the compare-and-set: if any
// requested seat was claimed since the caller's availability check,
// the insert fails, the whole transaction rolls back and
// ErrSeatsUnavailable is returned with nothing persisted.  Concurrent
// reservations for disjoint seat sets on the same show do not block
// each other.  On success the generated booking ID is written back to b.
func (r *BookingRepo) CreateWithSeats(ctx context.Context, b *model.Booking) error {
	if len(b.Seats) == 0 {
		return errors.New("booking has no seats")
	}
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

	var reservedUntil any
	if b.ReservedUntil != nil {
		reservedUntil = b.ReservedUntil.UTC()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (user_id, show_id, amount_cents, is_paid, payment_link, reserved_until)
		 VALUES (?, ?, ?, 0, '', ?)`,
		b.UserID, b.ShowID, b.AmountCents, reservedUntil)
	if err != nil {
		return translateMySQLError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	// Seat set of the booking, in request order.
	seatQ := `INSERT INTO booking_seats (booking_id, seat_label) VALUES ` +
		strings.TrimSuffix(strings.Repeat("(?, ?),", len(b.Seats)), ",")
	seatArgs := make([]any, 0, len(b.Seats)*2)
	for _, label := range b.Seats {
		seatArgs = append(seatArgs, b.ID, label)
	}
	if _, err := tx.ExecContext(ctx, seatQ, seatArgs...); err != nil {
		return translateMySQLError(err)
	}

	// Occupancy claim.  A duplicate key here means another booking won
	// the race for at least one seat.
	occQ := `INSERT INTO occupied_seats (show_id, seat_label, user_id) VALUES ` +
		strings.TrimSuffix(strings.Repeat("(?, ?, ?),", len(b.Seats)), ",")
	occArgs := make([]any, 0, len(b.Seats)*3)
	for _, label := range b.Seats {
		occArgs = append(occArgs, b.ShowID, label, b.UserID)
	}
	if _, err := tx.ExecContext(ctx, occQ, occArgs...); err != nil {
		return translateMySQLError(err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// translateMySQLError maps driver errors that represent domain
// conditions onto the repository sentinels.
func translateMySQLError(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlErrDupEntry:
			return ErrSeatsUnavailable
		case mysqlErrNoRefRow:
			return ErrShowNotFound
		}
	}
	return err
}

// Cancel deletes an unpaid booking and frees its seats.  It is the
// rollback path for reservations whose checkout-session creation
// failed after the booking was persisted.  Cancelling a booking that
// no longer exists is a no-op; a booking that meanwhile became paid is
// left untouched.
func (r *BookingRepo) Cancel(ctx context.Context, bookingID uint64) error {
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

	var showID uint64
	var isPaid bool
	err = tx.QueryRowContext(ctx,
		`SELECT show_id, is_paid FROM bookings WHERE id = ? FOR UPDATE`, bookingID).
		Scan(&showID, &isPaid)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	if isPaid {
		return nil
	}
	if err := deleteBookingTx(ctx, tx, bookingID, showID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// deleteBookingTx removes one booking's occupancy rows and then the
// booking itself (booking_seats cascade from the booking row).  Must
// run inside a transaction that holds the booking row lock.
func deleteBookingTx(ctx context.Context, tx *sql.Tx, bookingID, showID uint64) error {
	const freeSeats = `DELETE os FROM occupied_seats os
	                   JOIN booking_seats bs ON bs.seat_label = os.seat_label
	                   WHERE bs.booking_id = ? AND os.show_id = ?`
	if _, err := tx.ExecContext(ctx, freeSeats, bookingID, showID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, bookingID)
	return err
}

// SetPaymentLink stores the external checkout URL on a booking.
func (r *BookingRepo) SetPaymentLink(ctx context.Context, bookingID uint64, link string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET payment_link = ? WHERE id = ?`, link, bookingID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// MarkPaid performs the idempotent unpaid→paid transition and clears
// the payment link in the same statement.  It returns true when this
// call performed the transition, false when the booking was already
// paid, and ErrBookingNotFound when the booking no longer exists
// (typically reclaimed before the payment confirmation arrived).  The
// guarded UPDATE means two racing confirmation paths can both call
// MarkPaid safely: exactly one observes true.
func (r *BookingRepo) MarkPaid(ctx context.Context, bookingID uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET is_paid = 1, payment_link = '' WHERE id = ? AND is_paid = 0`, bookingID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE id = ?`, bookingID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, ErrBookingNotFound
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

const bookingColumns = `id, user_id, show_id, amount_cents, is_paid, payment_link, reserved_until, created_at`

func scanBooking(row interface{ Scan(...any) error }, b *model.Booking) error {
	var reservedUntil sql.NullTime
	if err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.ShowID,
		&b.AmountCents,
		&b.Paid,
		&b.PaymentLink,
		&reservedUntil,
		&b.CreatedAt,
	); err != nil {
		return err
	}
	if reservedUntil.Valid {
		t := reservedUntil.Time
		b.ReservedUntil = &t
	}
	return nil
}

// GetByID loads a booking together with its seat set.
func (r *BookingRepo) GetByID(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	var b model.Booking
	if err := scanBooking(r.db.QueryRowContext(ctx, q, bookingID), &b); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	seats, err := r.seatsFor(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	b.Seats = seats
	return &b, nil
}

func (r *BookingRepo) seatsFor(ctx context.Context, bookingID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_label FROM booking_seats WHERE booking_id = ? ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		seats = append(seats, label)
	}
	return seats, rows.Err()
}

// ListByUser returns all bookings of a user, newest first, each with
// its seat set.  Callers wanting live data should run the user-scoped
// expiry reclaimer first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		var b model.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		seats, err := r.seatsFor(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Seats = seats
	}
	return out, nil
}

// ReclaimExpiredByShow deletes every unpaid booking of the show whose
// deadline has passed and frees their seats.  It returns the number of
// bookings reclaimed.  The operation is idempotent: a concurrent
// reclaim of the same booking simply finds it gone and reclaims
// nothing.
func (r *BookingRepo) ReclaimExpiredByShow(ctx context.Context, showID uint64, now time.Time) (int, error) {
	return r.reclaimWhere(ctx, `show_id = ?`, showID, now)
}

// ReclaimExpiredByUser is the user-scoped variant used before listing
// a user's bookings.
func (r *BookingRepo) ReclaimExpiredByUser(ctx context.Context, userID uint64, now time.Time) (int, error) {
	return r.reclaimWhere(ctx, `user_id = ?`, userID, now)
}

func (r *BookingRepo) reclaimWhere(ctx context.Context, scope string, scopeID uint64, now time.Time) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the expired rows so a racing payment confirmation either
	// lands before this (booking paid, not selected) or waits and then
	// finds the booking gone.
	q := `SELECT id, show_id FROM bookings
	      WHERE ` + scope + ` AND is_paid = 0 AND reserved_until IS NOT NULL AND reserved_until <= ?
	      FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, scopeID, now.UTC())
	if err != nil {
		return 0, err
	}
	type expired struct{ id, showID uint64 }
	var victims []expired
	for rows.Next() {
		var e expired
		if err := rows.Scan(&e.id, &e.showID); err != nil {
			rows.Close()
			return 0, err
		}
		victims = append(victims, e)
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	if len(victims) == 0 {
		return 0, nil
	}
	for _, v := range victims {
		if err := deleteBookingTx(ctx, tx, v.id, v.showID); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return len(victims), nil
}

// ReclaimBooking is the scheduled-task entry point: it reclaims one
// booking iff it still exists, is unpaid and its deadline has passed.
// It re-checks paid status under the row lock, so a booking paid at
// 9:59 into a 10:00 window is never reclaimed even when the deferred
// task fires at 10:00 sharp.  Returns true when the booking was
// reclaimed, false for every no-op case.
func (r *BookingRepo) ReclaimBooking(ctx context.Context, bookingID uint64, now time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var showID uint64
	err = tx.QueryRowContext(ctx,
		`SELECT show_id FROM bookings
		 WHERE id = ? AND is_paid = 0 AND reserved_until IS NOT NULL AND reserved_until <= ?
		 FOR UPDATE`,
		bookingID, now.UTC()).Scan(&showID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := deleteBookingTx(ctx, tx, bookingID, showID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}
