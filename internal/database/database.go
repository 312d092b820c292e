package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"clinicbook/internal/cache"
)

// DB wraps sql.DB for the booking engine.
type DB struct {
	*sql.DB

	cache    cache.Cache
	cacheTTL time.Duration
}

// NewDB opens the database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{DB: db}, nil
}

// UseCache configures the read-through cache for roster reads. Store writes
// that touch cached entities invalidate matching keys as part of the write.
func (db *DB) UseCache(c cache.Cache, ttl time.Duration) {
	db.cache = c
	db.cacheTTL = ttl
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS doctors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			department TEXT NOT NULL,
			contact TEXT,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS availability_rules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			doctor_id INTEGER NOT NULL,
			day_of_week INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			slot_duration INTEGER NOT NULL DEFAULT 30,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			FOREIGN KEY (doctor_id) REFERENCES doctors(id)
		)`,

		`CREATE TABLE IF NOT EXISTS blocked_dates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			doctor_id INTEGER NOT NULL,
			blocked_date TEXT NOT NULL,
			reason TEXT,
			UNIQUE(doctor_id, blocked_date),
			FOREIGN KEY (doctor_id) REFERENCES doctors(id)
		)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			patient_name TEXT NOT NULL,
			patient_email TEXT,
			patient_phone TEXT NOT NULL,
			doctor_id INTEGER NOT NULL,
			appointment_date TEXT NOT NULL,
			appointment_time TEXT NOT NULL,
			is_followup BOOLEAN NOT NULL DEFAULT 0,
			notes TEXT,
			status TEXT NOT NULL DEFAULT 'confirmed',
			booking_reference TEXT UNIQUE NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (doctor_id) REFERENCES doctors(id)
		)`,

		// One non-cancelled booking per slot. The insert racing against a
		// concurrent insert loses here, not in application code.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_slot
			ON bookings(doctor_id, appointment_date, appointment_time)
			WHERE status != 'cancelled'`,

		// At most one active rule per doctor per weekday.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_rules_active_day
			ON availability_rules(doctor_id, day_of_week)
			WHERE is_active = 1`,

		`CREATE INDEX IF NOT EXISTS idx_doctors_active ON doctors(is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_rules_doctor_day ON availability_rules(doctor_id, day_of_week, is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_blocked_doctor_date ON blocked_dates(doctor_id, blocked_date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_doctor_date ON bookings(doctor_id, appointment_date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

func (db *DB) readCache(ctx context.Context, key string, out any) bool {
	if db.cache == nil || db.cacheTTL <= 0 {
		return false
	}
	return db.cache.Get(ctx, key, out)
}

func (db *DB) writeCache(ctx context.Context, key string, val any) {
	if db.cache == nil || db.cacheTTL <= 0 {
		return
	}
	db.cache.Set(ctx, key, val, db.cacheTTL)
}

func (db *DB) invalidateCache(ctx context.Context, pattern string) {
	if db.cache == nil {
		return
	}
	db.cache.Invalidate(ctx, pattern)
}
