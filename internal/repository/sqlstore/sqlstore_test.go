package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/happypaws/happypaws/internal/model"
	"github.com/happypaws/happypaws/internal/repository"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func newSlot(date, clock string, capacity int) *model.BookingSlot {
	return &model.BookingSlot{
		Date:            date,
		Time:            clock,
		DurationMinutes: 60,
		Capacity:        capacity,
		IsAvailable:     true,
		CreatedAt:       time.Now().UTC(),
	}
}

func newBooking(slotID int64) *model.Booking {
	return &model.Booking{
		SlotID:        slotID,
		CustomerName:  "Sam",
		CustomerEmail: "sam@example.com",
		DogName:       "Beagle",
		Status:        model.BookingStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestMigrateSeedsDefaults(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	settings := NewSettingRepository(db)
	value, err := settings.Get(ctx, "maintenance_mode")
	require.NoError(t, err)
	assert.Equal(t, "false", value)

	content := NewContentRepository(db)
	areas, err := content.ListServiceAreas(ctx)
	require.NoError(t, err)
	assert.Len(t, areas, 6)

	sections, err := content.ListHomepageSections(ctx)
	require.NoError(t, err)
	assert.Len(t, sections, 10)

	services, err := content.ListSection(ctx, "services")
	require.NoError(t, err)
	assert.Len(t, services, 4)

	// Running migrations again must not duplicate seeds.
	require.NoError(t, Migrate(ctx, db))
	areas, err = content.ListServiceAreas(ctx)
	require.NoError(t, err)
	assert.Len(t, areas, 6)
}

func TestCreateBookingEnforcesCapacity(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewSlotRepository(db)

	slot := newSlot("25/12/2099", "10:00", 2)
	id, err := repo.Create(ctx, slot)
	require.NoError(t, err)

	_, err = repo.CreateBooking(ctx, newBooking(id))
	require.NoError(t, err)
	mid, err := repo.CreateBooking(ctx, newBooking(id))
	require.NoError(t, err)
	assert.NotZero(t, mid)

	// Slot is now full and flagged unavailable.
	stored, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.BookedCount)
	assert.False(t, stored.IsAvailable)

	_, err = repo.CreateBooking(ctx, newBooking(id))
	assert.ErrorIs(t, err, repository.ErrSlotUnavailable)

	// The refused attempt wrote nothing.
	bookings, err := repo.ListBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
}

func TestCreateBookingMissingSlot(t *testing.T) {
	db := testDB(t)
	repo := NewSlotRepository(db)

	_, err := repo.CreateBooking(context.Background(), newBooking(999))
	assert.ErrorIs(t, err, repository.ErrSlotUnavailable)
}

func TestDeleteSlotRefusesWithBookings(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewSlotRepository(db)

	id, err := repo.Create(ctx, newSlot("25/12/2099", "10:00", 1))
	require.NoError(t, err)
	_, err = repo.CreateBooking(ctx, newBooking(id))
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Delete(ctx, id), repository.ErrSlotHasBookings)

	empty, err := repo.Create(ctx, newSlot("26/12/2099", "10:00", 1))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, empty))
	assert.ErrorIs(t, repo.Delete(ctx, empty), repository.ErrNotFound)
}

func TestListBookingsJoinsSlotSchedule(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewSlotRepository(db)

	id, err := repo.Create(ctx, newSlot("25/12/2099", "14:30", 1))
	require.NoError(t, err)
	_, err = repo.CreateBooking(ctx, newBooking(id))
	require.NoError(t, err)

	bookings, err := repo.ListBookings(ctx)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "25/12/2099", bookings[0].BookingDate)
	assert.Equal(t, "14:30", bookings[0].BookingTime)
	assert.Equal(t, 60, bookings[0].DurationMinutes)
}

func TestChatMessagesCursorAndActivity(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewChatRepository(db)

	chatID, err := repo.Create(ctx, &model.Chat{SID: "sid-1"})
	require.NoError(t, err)
	created, err := repo.Get(ctx, chatID)
	require.NoError(t, err)

	later := time.Now().UTC().Add(time.Minute)
	var ids []int64
	for _, body := range []string{"one", "two", "three"} {
		id, err := repo.AddMessage(ctx, &model.ChatMessage{
			ChatID:    chatID,
			Sender:    model.SenderUser,
			Message:   body,
			CreatedAt: later,
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.True(t, ids[0] < ids[1] && ids[1] < ids[2])

	msgs, err := repo.MessagesAfter(ctx, chatID, ids[0])
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "two", msgs[0].Message)

	// AddMessage bumped last_activity to the message timestamp.
	chat, err := repo.Get(ctx, chatID)
	require.NoError(t, err)
	assert.True(t, chat.LastActivity.After(created.LastActivity))
}

func TestLatestOpenBySIDPicksNewest(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewChatRepository(db)

	now := time.Now().UTC()
	first, err := repo.Create(ctx, &model.Chat{SID: "s", Status: model.ChatStatusOpen, CreatedAt: now, LastActivity: now})
	require.NoError(t, err)
	second, err := repo.Create(ctx, &model.Chat{SID: "s", Status: model.ChatStatusOpen, CreatedAt: now, LastActivity: now})
	require.NoError(t, err)

	chat, err := repo.LatestOpenBySID(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, second, chat.ID)

	require.NoError(t, repo.UpdateStatus(ctx, second, model.ChatStatusClosed))
	chat, err = repo.LatestOpenBySID(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, first, chat.ID)

	require.NoError(t, repo.CloseAll(ctx))
	_, err = repo.LatestOpenBySID(ctx, "s")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSettingUpsert(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewSettingRepository(db)

	require.NoError(t, repo.Set(ctx, "chat_autopilot", "true"))
	require.NoError(t, repo.Set(ctx, "chat_autopilot", "false"))

	value, err := repo.Get(ctx, "chat_autopilot")
	require.NoError(t, err)
	assert.Equal(t, "false", value)

	missing, err := repo.Get(ctx, "does_not_exist")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestNotificationsMarkSeen(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewNotificationRepository(db)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &model.AdminNotification{
			Type:      model.NotificationNewChat,
			ChatID:    int64(i + 1),
			Payload:   "{}",
			CreatedAt: time.Now().UTC(),
		}))
	}

	unseen, err := repo.NextUnseen(ctx, 2)
	require.NoError(t, err)
	require.Len(t, unseen, 2)

	require.NoError(t, repo.MarkSeen(ctx, []int64{unseen[0].ID, unseen[1].ID}))

	remaining, err := repo.NextUnseen(ctx, 20)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, int64(3), remaining[0].ChatID)
}

func TestIPTrackingUpsertAndBlock(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewIPRepository(db)

	require.NoError(t, repo.RecordVisit(ctx, "203.0.113.7", "curl/8"))
	require.NoError(t, repo.RecordVisit(ctx, "203.0.113.7", "curl/8"))

	records, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].VisitCount)

	blocked, err := repo.IsBlocked(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, repo.SetBlocked(ctx, "203.0.113.7", true))
	blocked, err = repo.IsBlocked(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestContentUpsertBySectionKey(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewContentRepository(db)

	item := &model.SiteContent{Section: "services", Key: "group-walks", Title: "Group Walks", Price: "£16/hour"}
	require.NoError(t, repo.Upsert(ctx, item))

	services, err := repo.ListSection(ctx, "services")
	require.NoError(t, err)
	// Seeded rows plus the upsert replacing the seeded group-walks entry.
	assert.Len(t, services, 4)
	for _, row := range services {
		if row.Key == "group-walks" {
			assert.Equal(t, "£16/hour", row.Price)
		}
	}
}
