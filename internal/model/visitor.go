package model

import "time"

// Event is a single page-view or interaction reported by the tracking
// snippet. Admin paths are never recorded.
type Event struct {
	ID        int64     `db:"id" json:"id"`
	SID       string    `db:"sid" json:"sid"`
	Path      string    `db:"path" json:"path"`
	Referrer  string    `db:"referrer" json:"referrer"`
	Event     string    `db:"event" json:"event"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	IP        string    `db:"ip" json:"ip"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type TrackRequest struct {
	SID      string `json:"sid"`
	Path     string `json:"path"`
	Referrer string `json:"referrer"`
	Event    string `json:"event"`
}

// Visitor aggregates a session's events for the admin view.
type Visitor struct {
	SID       string    `db:"sid" json:"sid"`
	IP        string    `db:"ip" json:"ip"`
	FirstSeen time.Time `db:"first_seen" json:"first_seen"`
	LastSeen  time.Time `db:"last_seen" json:"last_seen"`
	PageCount int       `db:"page_count" json:"page_count"`
	Summary   string    `db:"summary" json:"summary"`
}

type VisitorStats struct {
	TotalVisitors      int     `json:"total_visitors"`
	ReturningVisitors  int     `json:"returning_visitors"`
	AvgPagesPerVisitor float64 `json:"avg_pages_per_visitor"`
}

// IPRecord tracks per-address visit counts and the block flag.
type IPRecord struct {
	ID         int64     `db:"id" json:"id"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	VisitCount int       `db:"visit_count" json:"visit_count"`
	IsBlocked  bool      `db:"is_blocked" json:"is_blocked"`
	Country    string    `db:"country" json:"country"`
	City       string    `db:"city" json:"city"`
	FirstVisit time.Time `db:"first_visit" json:"first_visit"`
	LastVisit  time.Time `db:"last_visit" json:"last_visit"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
}

// VisitorInsight caches the per-session activity summary.
type VisitorInsight struct {
	SID     string `db:"sid" json:"sid"`
	Summary string `db:"summary" json:"summary"`
}
