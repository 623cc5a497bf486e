package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/happypaws/happypaws/internal/model"
	"github.com/happypaws/happypaws/internal/repository"
	apperrors "github.com/happypaws/happypaws/pkg/errors"
)

const (
	// BufferDuration is the walking/travel gap required after every slot.
	// A slot occupies [start, start+duration+buffer) for conflict checks.
	BufferDuration = time.Hour

	DefaultDurationMinutes = 60
	DefaultCapacity        = 1

	dateLayout = "02/01/2006"
	timeLayout = "15:04"
)

type Service struct {
	repo repository.SlotRepository
}

func NewService(repo repository.SlotRepository) *Service {
	return &Service{repo: repo}
}

// CreateSlot validates the schedule against every existing slot on the same
// date before inserting. Two slots conflict when one starts before the
// other's buffer window ends; back-to-back slots separated by exactly the
// buffer are allowed.
func (s *Service) CreateSlot(ctx context.Context, req *model.CreateSlotRequest) (*model.BookingSlot, error) {
	date := strings.TrimSpace(req.Date)
	startOfDay, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return nil, apperrors.BadRequest("invalid date format, expected DD/MM/YYYY", err)
	}
	clock := strings.TrimSpace(req.Time)
	if _, err := time.Parse(timeLayout, clock); err != nil {
		return nil, apperrors.BadRequest("invalid time format, expected HH:MM", err)
	}
	if startOfDay.Before(today()) {
		return nil, apperrors.BadRequest("cannot create a slot in the past", nil)
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = DefaultDurationMinutes
	}
	capacity := req.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	slot := &model.BookingSlot{
		Date:            date,
		Time:            clock,
		DurationMinutes: duration,
		Capacity:        capacity,
		IsAvailable:     true,
		Price:           strings.TrimSpace(req.Price),
		Notes:           strings.TrimSpace(req.Notes),
		CreatedAt:       time.Now().UTC(),
	}

	existing, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, apperrors.Internal("failed to check existing slots", err)
	}
	if clash := findConflict(slot, existing); clash != nil {
		msg := fmt.Sprintf(
			"slot conflicts with existing slot at %s (%d min + %d min buffer)",
			clash.Time, clash.DurationMinutes, int(BufferDuration.Minutes()),
		)
		return nil, apperrors.Conflict(msg, nil)
	}

	id, err := s.repo.Create(ctx, slot)
	if err != nil {
		return nil, apperrors.Internal("failed to create slot", err)
	}
	slot.ID = id

	log.Info().
		Int64("slot_id", id).
		Str("date", slot.Date).
		Str("time", slot.Time).
		Int("duration_minutes", slot.DurationMinutes).
		Msg("booking slot created")

	return slot, nil
}

// findConflict returns the first existing slot whose occupied window
// overlaps the candidate's. Both comparisons are strict so that a slot
// starting exactly when another's buffer ends is accepted.
func findConflict(candidate *model.BookingSlot, existing []*model.BookingSlot) *model.BookingSlot {
	newStart, err := candidate.StartTime()
	if err != nil {
		return nil
	}
	newEnd := newStart.Add(time.Duration(candidate.DurationMinutes)*time.Minute + BufferDuration)

	for _, other := range existing {
		start, err := other.StartTime()
		if err != nil {
			log.Warn().Int64("slot_id", other.ID).Str("date", other.Date).Str("time", other.Time).
				Msg("skipping slot with unparseable schedule in conflict check")
			continue
		}
		end := start.Add(time.Duration(other.DurationMinutes)*time.Minute + BufferDuration)
		if newStart.Before(end) && start.Before(newEnd) {
			return other
		}
	}
	return nil
}

// ListAvailableSlots returns upcoming slots with spaces left, soonest
// first. Dates are parsed for ordering; string comparison on DD/MM/YYYY
// would sort across months incorrectly.
func (s *Service) ListAvailableSlots(ctx context.Context) ([]*model.SlotView, error) {
	slots, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list slots", err)
	}

	cutoff := today()
	views := make([]*model.SlotView, 0, len(slots))
	for _, slot := range slots {
		if !slot.IsAvailable || slot.SpacesLeft() <= 0 {
			continue
		}
		start, err := slot.StartTime()
		if err != nil {
			continue
		}
		if start.Before(cutoff) {
			continue
		}
		views = append(views, &model.SlotView{BookingSlot: *slot, SpacesLeft: slot.SpacesLeft()})
	}
	sortSlotViews(views)
	return views, nil
}

// ListAllSlots returns every slot for the admin view, soonest first,
// including past, full and disabled slots.
func (s *Service) ListAllSlots(ctx context.Context) ([]*model.SlotView, error) {
	slots, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list slots", err)
	}
	views := make([]*model.SlotView, 0, len(slots))
	for _, slot := range slots {
		views = append(views, &model.SlotView{BookingSlot: *slot, SpacesLeft: slot.SpacesLeft()})
	}
	sortSlotViews(views)
	return views, nil
}

func sortSlotViews(views []*model.SlotView) {
	sort.SliceStable(views, func(i, j int) bool {
		a, errA := views[i].StartTime()
		b, errB := views[j].StartTime()
		if errA != nil || errB != nil {
			return errA == nil
		}
		return a.Before(b)
	})
}

// DeleteSlot refuses to delete a slot that has bookings in any status.
func (s *Service) DeleteSlot(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrSlotHasBookings):
		return apperrors.Conflict("cannot delete a slot with existing bookings", err)
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("slot not found", err)
	default:
		return apperrors.Internal("failed to delete slot", err)
	}
}

// CreateBooking books a space on a slot. The capacity check and increment
// run atomically in the repository so concurrent requests for the last
// space cannot both succeed.
func (s *Service) CreateBooking(ctx context.Context, req *model.CreateBookingRequest, ip string) (*model.Booking, error) {
	booking := &model.Booking{
		SlotID:        req.SlotID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		DogName:       strings.Join(req.Breeds, ", "),
		DogInfo:       dogInfo(req),
		ServiceType:   strings.TrimSpace(req.ServiceType),
		Message:       strings.TrimSpace(req.Message),
		Status:        model.BookingStatusPending,
		IPAddress:     ip,
		CreatedAt:     time.Now().UTC(),
	}

	id, err := s.repo.CreateBooking(ctx, booking)
	switch {
	case err == nil:
		booking.ID = id
	case errors.Is(err, repository.ErrSlotUnavailable):
		return nil, apperrors.Unavailable("this slot is no longer available", err)
	default:
		return nil, apperrors.Internal("failed to create booking", err)
	}

	log.Info().
		Int64("booking_id", booking.ID).
		Int64("slot_id", booking.SlotID).
		Str("customer", booking.CustomerName).
		Msg("booking created")

	return booking, nil
}

func dogInfo(req *model.CreateBookingRequest) string {
	parts := make([]string, 0, 3)
	if req.NumDogs > 0 {
		parts = append(parts, fmt.Sprintf("%d dog(s)", req.NumDogs))
	}
	if len(req.Breeds) > 0 {
		parts = append(parts, "breeds: "+strings.Join(req.Breeds, ", "))
	}
	if loc := strings.TrimSpace(req.Location); loc != "" {
		parts = append(parts, "location: "+loc)
	}
	return strings.Join(parts, "; ")
}

// ListBookings returns all bookings with their slot schedule, for admin.
func (s *Service) ListBookings(ctx context.Context) ([]*model.BookingDetail, error) {
	bookings, err := s.repo.ListBookings(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list bookings", err)
	}
	return bookings, nil
}

func (s *Service) UpdateBookingStatus(ctx context.Context, id int64, status model.BookingStatus) error {
	if !model.ValidBookingStatus(status) {
		return apperrors.BadRequest(fmt.Sprintf("invalid booking status %q", status), nil)
	}
	err := s.repo.UpdateBookingStatus(ctx, id, status)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("booking not found", err)
	default:
		return apperrors.Internal("failed to update booking status", err)
	}
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
