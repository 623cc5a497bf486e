package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happypaws/happypaws/internal/model"
	"github.com/happypaws/happypaws/internal/repository"
	apperrors "github.com/happypaws/happypaws/pkg/errors"
)

type fakeSlotRepo struct {
	slots    map[int64]*model.BookingSlot
	bookings map[int64]*model.Booking
	nextSlot int64
	nextBook int64
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{
		slots:    make(map[int64]*model.BookingSlot),
		bookings: make(map[int64]*model.Booking),
	}
}

func (f *fakeSlotRepo) Create(_ context.Context, slot *model.BookingSlot) (int64, error) {
	f.nextSlot++
	cp := *slot
	cp.ID = f.nextSlot
	f.slots[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeSlotRepo) Get(_ context.Context, id int64) (*model.BookingSlot, error) {
	slot, ok := f.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *slot
	return &cp, nil
}

func (f *fakeSlotRepo) List(_ context.Context) ([]*model.BookingSlot, error) {
	out := make([]*model.BookingSlot, 0, len(f.slots))
	for _, s := range f.slots {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeSlotRepo) ListByDate(_ context.Context, date string) ([]*model.BookingSlot, error) {
	var out []*model.BookingSlot
	for _, s := range f.slots {
		if s.Date == date {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSlotRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.slots[id]; !ok {
		return repository.ErrNotFound
	}
	for _, b := range f.bookings {
		if b.SlotID == id {
			return repository.ErrSlotHasBookings
		}
	}
	delete(f.slots, id)
	return nil
}

func (f *fakeSlotRepo) CreateBooking(_ context.Context, booking *model.Booking) (int64, error) {
	slot, ok := f.slots[booking.SlotID]
	if !ok || !slot.IsAvailable || slot.BookedCount >= slot.Capacity {
		return 0, repository.ErrSlotUnavailable
	}
	slot.BookedCount++
	if slot.BookedCount >= slot.Capacity {
		slot.IsAvailable = false
	}
	f.nextBook++
	cp := *booking
	cp.ID = f.nextBook
	f.bookings[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeSlotRepo) ListBookings(_ context.Context) ([]*model.BookingDetail, error) {
	var out []*model.BookingDetail
	for _, b := range f.bookings {
		slot := f.slots[b.SlotID]
		detail := &model.BookingDetail{Booking: *b}
		if slot != nil {
			detail.BookingDate = slot.Date
			detail.BookingTime = slot.Time
			detail.DurationMinutes = slot.DurationMinutes
		}
		out = append(out, detail)
	}
	return out, nil
}

func (f *fakeSlotRepo) UpdateBookingStatus(_ context.Context, id int64, status model.BookingStatus) error {
	b, ok := f.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Status = status
	return nil
}

func (f *fakeSlotRepo) CountPendingBookings(_ context.Context) (int, error) {
	n := 0
	for _, b := range f.bookings {
		if b.Status == model.BookingStatusPending {
			n++
		}
	}
	return n, nil
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("02/01/2006")
}

func mustCreateSlot(t *testing.T, svc *Service, date, clock string, duration int) *model.BookingSlot {
	t.Helper()
	slot, err := svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		Date:            date,
		Time:            clock,
		DurationMinutes: duration,
		Capacity:        1,
	})
	require.NoError(t, err)
	return slot
}

func TestCreateSlotRejectsOverlapWithinBuffer(t *testing.T) {
	svc := NewService(newFakeSlotRepo())
	date := futureDate(7)

	mustCreateSlot(t, svc, date, "10:00", 60)

	// 10:00 + 60min walk + 60min buffer occupies until 12:00; 11:30 clashes.
	_, err := svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		Date: date, Time: "11:30", DurationMinutes: 60,
	})
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	assert.Contains(t, appErr.Message, "10:00")
}

func TestCreateSlotAcceptsExactBufferBoundary(t *testing.T) {
	svc := NewService(newFakeSlotRepo())
	date := futureDate(7)

	mustCreateSlot(t, svc, date, "10:00", 60)

	// Buffer window ends at exactly 12:00, so 12:00 is allowed.
	slot, err := svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		Date: date, Time: "12:00", DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, "12:00", slot.Time)
}

func TestCreateSlotRejectsEarlierOverlappingSlot(t *testing.T) {
	svc := NewService(newFakeSlotRepo())
	date := futureDate(7)

	mustCreateSlot(t, svc, date, "12:00", 60)

	// A new 11:30 walk would still be inside its own buffer at 12:00.
	_, err := svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		Date: date, Time: "11:30", DurationMinutes: 60,
	})
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestCreateSlotAllowsSameTimeDifferentDates(t *testing.T) {
	svc := NewService(newFakeSlotRepo())

	mustCreateSlot(t, svc, futureDate(7), "10:00", 60)
	slot, err := svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		Date: futureDate(8), Time: "10:00", DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.NotZero(t, slot.ID)
}

func TestCreateSlotDefaults(t *testing.T) {
	svc := NewService(newFakeSlotRepo())

	slot := mustCreateSlot(t, svc, futureDate(3), "09:00", 0)
	assert.Equal(t, DefaultDurationMinutes, slot.DurationMinutes)
	assert.Equal(t, DefaultCapacity, slot.Capacity)
	assert.True(t, slot.IsAvailable)
}

func TestCreateSlotRejectsBadInput(t *testing.T) {
	svc := NewService(newFakeSlotRepo())

	_, err := svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		Date: "2026-03-15", Time: "10:00",
	})
	require.Error(t, err)

	_, err = svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		Date: futureDate(3), Time: "25:99",
	})
	require.Error(t, err)

	_, err = svc.CreateSlot(context.Background(), &model.CreateSlotRequest{
		Date: "01/01/2020", Time: "10:00",
	})
	require.Error(t, err)
}

func TestDeleteSlotRefusedWhileBooked(t *testing.T) {
	repo := newFakeSlotRepo()
	svc := NewService(repo)
	slot := mustCreateSlot(t, svc, futureDate(5), "10:00", 60)

	_, err := svc.CreateBooking(context.Background(), &model.CreateBookingRequest{
		SlotID:        slot.ID,
		CustomerName:  "Sam",
		CustomerEmail: "sam@example.com",
		Location:      "Didsbury",
		Breeds:        []string{"Beagle"},
	}, "203.0.113.9")
	require.NoError(t, err)

	err = svc.DeleteSlot(context.Background(), slot.ID)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)

	// Slot must survive the refused delete.
	_, err = repo.Get(context.Background(), slot.ID)
	require.NoError(t, err)
}

func TestDeleteSlotWithoutBookings(t *testing.T) {
	repo := newFakeSlotRepo()
	svc := NewService(repo)
	slot := mustCreateSlot(t, svc, futureDate(5), "10:00", 60)

	require.NoError(t, svc.DeleteSlot(context.Background(), slot.ID))

	_, err := repo.Get(context.Background(), slot.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateBookingFillsSlot(t *testing.T) {
	repo := newFakeSlotRepo()
	svc := NewService(repo)
	slot := mustCreateSlot(t, svc, futureDate(5), "10:00", 60)

	booking, err := svc.CreateBooking(context.Background(), &model.CreateBookingRequest{
		SlotID:        slot.ID,
		CustomerName:  "Sam",
		CustomerEmail: "sam@example.com",
		Location:      "Didsbury",
		NumDogs:       2,
		Breeds:        []string{"Beagle", "Collie"},
	}, "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, booking.Status)
	assert.Contains(t, booking.DogInfo, "2 dog(s)")

	stored, err := repo.Get(context.Background(), slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.BookedCount)
	assert.False(t, stored.IsAvailable)

	// Capacity exhausted: the next attempt is refused.
	_, err = svc.CreateBooking(context.Background(), &model.CreateBookingRequest{
		SlotID:        slot.ID,
		CustomerName:  "Alex",
		CustomerEmail: "alex@example.com",
		Location:      "Chorlton",
		Breeds:        []string{"Pug"},
	}, "203.0.113.10")
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrUnavailable, appErr.Code)
}

func TestListAvailableSlotsFiltersAndSorts(t *testing.T) {
	repo := newFakeSlotRepo()
	svc := NewService(repo)

	later := mustCreateSlot(t, svc, futureDate(10), "09:00", 60)
	sooner := mustCreateSlot(t, svc, futureDate(2), "14:00", 60)

	// Seed a past slot and a full slot directly; CreateSlot would refuse both.
	repo.nextSlot++
	repo.slots[repo.nextSlot] = &model.BookingSlot{
		ID: repo.nextSlot, Date: "01/01/2020", Time: "10:00",
		DurationMinutes: 60, Capacity: 1, IsAvailable: true,
	}
	repo.nextSlot++
	repo.slots[repo.nextSlot] = &model.BookingSlot{
		ID: repo.nextSlot, Date: futureDate(4), Time: "10:00",
		DurationMinutes: 60, Capacity: 2, BookedCount: 2, IsAvailable: false,
	}

	views, err := svc.ListAvailableSlots(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, sooner.ID, views[0].ID)
	assert.Equal(t, later.ID, views[1].ID)
	assert.Equal(t, 1, views[0].SpacesLeft)
}

func TestListAvailableSlotsSortsAcrossMonths(t *testing.T) {
	repo := newFakeSlotRepo()
	svc := NewService(repo)

	// 01/10 sorts before 25/09 as a string; parsed ordering must win.
	repo.slots[1] = &model.BookingSlot{
		ID: 1, Date: "01/10/2099", Time: "10:00",
		DurationMinutes: 60, Capacity: 1, IsAvailable: true,
	}
	repo.slots[2] = &model.BookingSlot{
		ID: 2, Date: "25/09/2099", Time: "10:00",
		DurationMinutes: 60, Capacity: 1, IsAvailable: true,
	}

	views, err := svc.ListAvailableSlots(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, int64(2), views[0].ID)
	assert.Equal(t, int64(1), views[1].ID)
}

func TestUpdateBookingStatusValidation(t *testing.T) {
	repo := newFakeSlotRepo()
	svc := NewService(repo)
	slot := mustCreateSlot(t, svc, futureDate(5), "10:00", 60)

	booking, err := svc.CreateBooking(context.Background(), &model.CreateBookingRequest{
		SlotID:        slot.ID,
		CustomerName:  "Sam",
		CustomerEmail: "sam@example.com",
		Location:      "Didsbury",
		Breeds:        []string{"Beagle"},
	}, "")
	require.NoError(t, err)

	require.Error(t, svc.UpdateBookingStatus(context.Background(), booking.ID, "archived"))
	require.NoError(t, svc.UpdateBookingStatus(context.Background(), booking.ID, model.BookingStatusConfirmed))
	require.Error(t, svc.UpdateBookingStatus(context.Background(), booking.ID+99, model.BookingStatusConfirmed))
}
