package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// schema is written once with a PRIMARYKEY placeholder so the same DDL
// serves both engines.
const schema = `
CREATE TABLE IF NOT EXISTS enquiries (
	id PRIMARYKEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	dog TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'new',
	ip TEXT NOT NULL DEFAULT '',
	sid TEXT NOT NULL DEFAULT '',
	visit_summary TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id PRIMARYKEY,
	sid TEXT NOT NULL DEFAULT '',
	path TEXT NOT NULL DEFAULT '',
	referrer TEXT NOT NULL DEFAULT '',
	event TEXT NOT NULL DEFAULT 'view',
	user_agent TEXT NOT NULL DEFAULT '',
	ip TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS visitor_insights (
	sid TEXT PRIMARY KEY,
	summary TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS chats (
	id PRIMARYKEY,
	sid TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'open',
	ip TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	last_activity TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id PRIMARYKEY,
	chat_id BIGINT NOT NULL,
	sender TEXT NOT NULL,
	message TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS admin_notifications (
	id PRIMARYKEY,
	type TEXT NOT NULL,
	chat_id BIGINT NOT NULL DEFAULT 0,
	message_id BIGINT,
	payload TEXT NOT NULL DEFAULT '',
	seen BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS booking_slots (
	id PRIMARYKEY,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	duration_minutes INTEGER NOT NULL DEFAULT 60,
	capacity INTEGER NOT NULL DEFAULT 1,
	booked_count INTEGER NOT NULL DEFAULT 0,
	is_available BOOLEAN NOT NULL DEFAULT TRUE,
	price TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
	id PRIMARYKEY,
	slot_id BIGINT NOT NULL REFERENCES booking_slots(id),
	customer_name TEXT NOT NULL,
	customer_email TEXT NOT NULL,
	customer_phone TEXT NOT NULL DEFAULT '',
	dog_name TEXT NOT NULL,
	dog_info TEXT NOT NULL DEFAULT '',
	service_type TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	ip_address TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS site_content (
	id PRIMARYKEY,
	section TEXT NOT NULL,
	key TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	price TEXT NOT NULL DEFAULT '',
	sort_order INTEGER NOT NULL DEFAULT 0,
	UNIQUE(section, key)
);

CREATE TABLE IF NOT EXISTS service_areas (
	id PRIMARYKEY,
	name TEXT NOT NULL,
	sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS homepage_sections (
	id PRIMARYKEY,
	section_key TEXT UNIQUE NOT NULL,
	title TEXT NOT NULL,
	enabled BOOLEAN NOT NULL DEFAULT TRUE,
	sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS site_settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS ip_tracking (
	id PRIMARYKEY,
	ip_address TEXT UNIQUE NOT NULL,
	visit_count INTEGER NOT NULL DEFAULT 1,
	is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
	country TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	first_visit TIMESTAMP NOT NULL,
	last_visit TIMESTAMP NOT NULL,
	user_agent TEXT NOT NULL DEFAULT ''
);
`

// Migrate creates all tables and seeds default content on first run.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == "postgres" {
		pk = "BIGSERIAL PRIMARY KEY"
	}
	ddl := strings.ReplaceAll(schema, "PRIMARYKEY", pk)
	for _, stmt := range strings.Split(ddl, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return seed(ctx, db)
}

func seed(ctx context.Context, db *sqlx.DB) error {
	if err := seedSettings(ctx, db); err != nil {
		return err
	}
	if err := seedServiceAreas(ctx, db); err != nil {
		return err
	}
	if err := seedHomepageSections(ctx, db); err != nil {
		return err
	}
	return seedContent(ctx, db)
}

func seedSettings(ctx context.Context, db *sqlx.DB) error {
	defaults := map[string]string{
		"maintenance_mode": "false",
		"chat_autopilot":   "false",
	}
	for key, value := range defaults {
		q := db.Rebind(`INSERT INTO site_settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`)
		if _, err := db.ExecContext(ctx, q, key, value); err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", key, err)
		}
	}
	return nil
}

func seedServiceAreas(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM service_areas"); err != nil {
		return fmt.Errorf("failed to count service areas: %w", err)
	}
	if count > 0 {
		return nil
	}
	areas := []string{
		"Downtown",
		"Riverside Park District",
		"Northside Neighborhood",
		"Central Commons",
		"West End",
		"East Hills",
	}
	q := db.Rebind("INSERT INTO service_areas (name, sort_order) VALUES (?, ?)")
	for i, name := range areas {
		if _, err := db.ExecContext(ctx, q, name, i+1); err != nil {
			return fmt.Errorf("failed to seed service area: %w", err)
		}
	}
	return nil
}

func seedHomepageSections(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM homepage_sections"); err != nil {
		return fmt.Errorf("failed to count homepage sections: %w", err)
	}
	if count > 0 {
		return nil
	}
	sections := []struct {
		key   string
		title string
	}{
		{"features", "Key Features"},
		{"services", "Services & Pricing"},
		{"meet-andy", "Meet Andy"},
		{"service-areas", "Service Areas"},
		{"how-it-works", "Book a Walk in 3 Simple Steps"},
		{"photo-strip", "GPS Tracking & Photo Updates"},
		{"enquiry", "Get in Touch"},
		{"testimonials", "Testimonials"},
		{"gallery", "Gallery"},
		{"cta", "Final Call to Action"},
	}
	q := db.Rebind("INSERT INTO homepage_sections (section_key, title, enabled, sort_order) VALUES (?, ?, TRUE, ?)")
	for i, s := range sections {
		if _, err := db.ExecContext(ctx, q, s.key, s.title, i+1); err != nil {
			return fmt.Errorf("failed to seed homepage section: %w", err)
		}
	}
	return nil
}

func seedContent(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM site_content WHERE section='services'"); err != nil {
		return fmt.Errorf("failed to count site content: %w", err)
	}
	if count > 0 {
		return nil
	}
	services := []struct {
		key, title, price, content string
	}{
		{"group-walks", "Group Walks", "From £14/hour", "Professional small group walks for socialization, stimulation and exercise in safe dog-friendly areas."},
		{"solo-walks", "Solo Walks", "£15–£20", "One-on-one focused walks perfect for anxious, reactive or senior dogs needing tailored pacing."},
		{"dog-daycare", "Dog Day Care", "£30/day", "A full adventure day with social play, 2 group walks and supervised downtime. Pickup & drop-off included."},
		{"puppy-senior", "Puppy & Senior Care", "£14/visit", "Gentle, age-appropriate visits with toilet breaks, light exercise, socialisation or medication support."},
	}
	q := db.Rebind("INSERT INTO site_content (section, key, title, price, content, sort_order) VALUES ('services', ?, ?, ?, ?, ?)")
	for i, s := range services {
		if _, err := db.ExecContext(ctx, q, s.key, s.title, s.price, s.content, i+1); err != nil {
			return fmt.Errorf("failed to seed service content: %w", err)
		}
	}
	contact := []struct{ key, content string }{
		{"profile_title", "Friendly, Reliable, Local"},
		{"phone", "07595 289669"},
		{"email", "hello@happypawswalking.com"},
	}
	cq := db.Rebind("INSERT INTO site_content (section, key, content, sort_order) VALUES ('contact', ?, ?, ?)")
	for i, c := range contact {
		if _, err := db.ExecContext(ctx, cq, c.key, c.content, i+1); err != nil {
			return fmt.Errorf("failed to seed contact content: %w", err)
		}
	}
	return nil
}
