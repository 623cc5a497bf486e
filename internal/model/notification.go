package model

import "time"

type NotificationType string

const (
	NotificationNewChat        NotificationType = "new_chat"
	NotificationNewUserMessage NotificationType = "new_user_message"
)

// AdminNotification alerts staff to visitor activity that needs a human,
// surfaced by the dashboard's polling loop.
type AdminNotification struct {
	ID        int64            `db:"id" json:"id"`
	Type      NotificationType `db:"type" json:"type"`
	ChatID    int64            `db:"chat_id" json:"chat_id"`
	MessageID *int64           `db:"message_id" json:"message_id"`
	Payload   string           `db:"payload" json:"payload"`
	Seen      bool             `db:"seen" json:"seen"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// NotificationPayload is the JSON stored in AdminNotification.Payload.
type NotificationPayload struct {
	Excerpt string `json:"excerpt"`
	SID     string `json:"sid,omitempty"`
	Name    string `json:"name,omitempty"`
}

// DashboardStats are the counters on the admin landing page.
type DashboardStats struct {
	OpenChats       int `json:"open_chats"`
	NewEnquiries    int `json:"new_enquiries"`
	PendingBookings int `json:"pending_bookings"`
	ActiveVisitors  int `json:"active_visitors"`
}
