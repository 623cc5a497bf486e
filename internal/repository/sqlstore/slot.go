package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/happypaws/happypaws/internal/model"
	"github.com/happypaws/happypaws/internal/repository"
)

func (r *slotRepository) Create(ctx context.Context, slot *model.BookingSlot) (int64, error) {
	query := r.db.Rebind(`
		INSERT INTO booking_slots (
			date, time, duration_minutes, capacity,
			booked_count, is_available, price, notes, created_at
		) VALUES (?, ?, ?, ?, 0, TRUE, ?, ?, ?)
		RETURNING id
	`)
	slot.BookedCount = 0
	slot.IsAvailable = true
	slot.CreatedAt = time.Now().UTC()

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		slot.Date,
		slot.Time,
		slot.DurationMinutes,
		slot.Capacity,
		slot.Price,
		slot.Notes,
		slot.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create slot: %w", err)
	}
	slot.ID = id
	return id, nil
}

func (r *slotRepository) Get(ctx context.Context, id int64) (*model.BookingSlot, error) {
	query := r.db.Rebind(`
		SELECT id, date, time, duration_minutes, capacity,
		       booked_count, is_available, price, notes, created_at
		FROM booking_slots
		WHERE id = ?
	`)
	var slot model.BookingSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	return &slot, nil
}

func (r *slotRepository) List(ctx context.Context) ([]*model.BookingSlot, error) {
	query := `
		SELECT id, date, time, duration_minutes, capacity,
		       booked_count, is_available, price, notes, created_at
		FROM booking_slots
	`
	var slots []*model.BookingSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

func (r *slotRepository) ListByDate(ctx context.Context, date string) ([]*model.BookingSlot, error) {
	query := r.db.Rebind(`
		SELECT id, date, time, duration_minutes, capacity,
		       booked_count, is_available, price, notes, created_at
		FROM booking_slots
		WHERE date = ?
	`)
	var slots []*model.BookingSlot
	if err := r.db.SelectContext(ctx, &slots, query, date); err != nil {
		return nil, fmt.Errorf("failed to list slots for date: %w", err)
	}
	return slots, nil
}

func (r *slotRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.GetContext(ctx, &count, tx.Rebind("SELECT COUNT(*) FROM bookings WHERE slot_id = ?"), id); err != nil {
		return fmt.Errorf("failed to count slot bookings: %w", err)
	}
	if count > 0 {
		return repository.ErrSlotHasBookings
	}

	result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM booking_slots WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit()
}

// CreateBooking performs the availability re-check, the booking insert and
// the capacity increment as one atomic unit. The guarded UPDATE is what
// keeps two concurrent requests from both taking the last space.
func (r *slotRepository) CreateBooking(ctx context.Context, booking *model.Booking) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var slot model.BookingSlot
	err = tx.GetContext(ctx, &slot, tx.Rebind(`
		SELECT id, date, time, duration_minutes, capacity,
		       booked_count, is_available, price, notes, created_at
		FROM booking_slots
		WHERE id = ?
	`), booking.SlotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrSlotUnavailable
		}
		return 0, fmt.Errorf("failed to read slot: %w", err)
	}
	if !slot.IsAvailable || slot.BookedCount >= slot.Capacity {
		return 0, repository.ErrSlotUnavailable
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE booking_slots
		SET booked_count = booked_count + 1
		WHERE id = ? AND is_available = TRUE AND booked_count < capacity
	`), booking.SlotID)
	if err != nil {
		return 0, fmt.Errorf("failed to increment booked count: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return 0, repository.ErrSlotUnavailable
	}

	booking.Status = model.BookingStatusPending
	booking.CreatedAt = time.Now().UTC()
	var id int64
	err = tx.QueryRowContext(ctx, tx.Rebind(`
		INSERT INTO bookings (
			slot_id, customer_name, customer_email, customer_phone,
			dog_name, dog_info, service_type, message, status,
			ip_address, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`),
		booking.SlotID,
		booking.CustomerName,
		booking.CustomerEmail,
		booking.CustomerPhone,
		booking.DogName,
		booking.DogInfo,
		booking.ServiceType,
		booking.Message,
		booking.Status,
		booking.IPAddress,
		booking.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create booking: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE booking_slots
		SET is_available = FALSE
		WHERE id = ? AND booked_count >= capacity
	`), booking.SlotID)
	if err != nil {
		return 0, fmt.Errorf("failed to update slot availability: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit booking: %w", err)
	}
	booking.ID = id
	return id, nil
}

func (r *slotRepository) ListBookings(ctx context.Context) ([]*model.BookingDetail, error) {
	query := `
		SELECT b.id, b.slot_id, b.customer_name, b.customer_email,
		       b.customer_phone, b.dog_name, b.dog_info, b.service_type,
		       b.message, b.status, b.ip_address, b.created_at,
		       bs.date, bs.time, bs.duration_minutes
		FROM bookings b
		JOIN booking_slots bs ON b.slot_id = bs.id
		ORDER BY b.created_at DESC
	`
	var bookings []*model.BookingDetail
	if err := r.db.SelectContext(ctx, &bookings, query); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (r *slotRepository) UpdateBookingStatus(ctx context.Context, id int64, status model.BookingStatus) error {
	query := r.db.Rebind("UPDATE bookings SET status = ? WHERE id = ?")
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *slotRepository) CountPendingBookings(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM bookings WHERE status = 'pending'"); err != nil {
		return 0, fmt.Errorf("failed to count pending bookings: %w", err)
	}
	return count, nil
}
