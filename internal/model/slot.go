package model

import "time"

// BookingSlot is an admin-defined bookable time window. Date and Time keep
// the form-facing formats (DD/MM/YYYY and HH:MM); ordering and past-date
// filtering parse them rather than trusting string comparison.
type BookingSlot struct {
	ID              int64     `db:"id" json:"id"`
	Date            string    `db:"date" json:"date"`
	Time            string    `db:"time" json:"time"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Capacity        int       `db:"capacity" json:"capacity"`
	BookedCount     int       `db:"booked_count" json:"booked_count"`
	IsAvailable     bool      `db:"is_available" json:"is_available"`
	Price           string    `db:"price" json:"price"`
	Notes           string    `db:"notes" json:"notes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// SpacesLeft reports remaining capacity for the public slot list.
func (s *BookingSlot) SpacesLeft() int {
	return s.Capacity - s.BookedCount
}

// StartTime parses Date and Time into a wall-clock instant.
func (s *BookingSlot) StartTime() (time.Time, error) {
	return time.ParseInLocation("02/01/2006 15:04", s.Date+" "+s.Time, time.UTC)
}

type CreateSlotRequest struct {
	Date            string `json:"date" binding:"required,slotdate"`
	Time            string `json:"time" binding:"required,slottime"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=1"`
	Capacity        int    `json:"capacity" binding:"omitempty,min=1"`
	Price           string `json:"price"`
	Notes           string `json:"notes"`
}

// SlotView is the public representation, including derived availability.
type SlotView struct {
	BookingSlot
	SpacesLeft int `json:"spaces_left"`
}
