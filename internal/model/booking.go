package model

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ValidBookingStatus reports whether s is one of the admin-settable states.
func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

type Booking struct {
	ID            int64         `db:"id" json:"id"`
	SlotID        int64         `db:"slot_id" json:"slot_id"`
	CustomerName  string        `db:"customer_name" json:"customer_name"`
	CustomerEmail string        `db:"customer_email" json:"customer_email"`
	CustomerPhone string        `db:"customer_phone" json:"customer_phone"`
	DogName       string        `db:"dog_name" json:"dog_name"`
	DogInfo       string        `db:"dog_info" json:"dog_info"`
	ServiceType   string        `db:"service_type" json:"service_type"`
	Message       string        `db:"message" json:"message"`
	Status        BookingStatus `db:"status" json:"status"`
	IPAddress     string        `db:"ip_address" json:"ip_address"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// BookingDetail joins the owning slot's schedule onto the booking for the
// admin list.
type BookingDetail struct {
	Booking
	BookingDate     string `db:"date" json:"booking_date"`
	BookingTime     string `db:"time" json:"booking_time"`
	DurationMinutes int    `db:"duration_minutes" json:"duration_minutes"`
}

type CreateBookingRequest struct {
	SlotID        int64  `json:"slot_id" binding:"required"`
	CustomerName  string `json:"name" binding:"required"`
	CustomerEmail string `json:"email" binding:"required,email"`
	CustomerPhone string `json:"phone"`
	Location      string `json:"location" binding:"required"`
	NumDogs       int    `json:"num_dogs"`
	Breeds        []string `json:"breeds" binding:"required,min=1"`
	ServiceType   string `json:"service_type"`
	Message       string `json:"message"`
}

type UpdateBookingStatusRequest struct {
	Status BookingStatus `json:"status" binding:"required"`
}
