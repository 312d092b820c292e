package database

import (
	"context"
	"database/sql"

	"clinicbook/internal/metrics"
	"clinicbook/internal/models"
)

const doctorsCacheKey = "doctors:active"

// ListActiveDoctors returns the active roster ordered by name. Reads go
// through the configured cache; writes to the roster invalidate it.
func (db *DB) ListActiveDoctors(ctx context.Context) ([]models.Doctor, error) {
	var cached []models.Doctor
	if db.readCache(ctx, doctorsCacheKey, &cached) {
		metrics.IncCacheHit("doctors")
		return cached, nil
	}
	metrics.IncCacheMiss("doctors")

	rows, err := db.QueryContext(ctx, `
		SELECT id, name, department, COALESCE(contact, ''), is_active, created_at
		FROM doctors
		WHERE is_active = 1
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []models.Doctor
	for rows.Next() {
		var d models.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Department, &d.Contact, &d.IsActive, &d.CreatedAt); err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	db.writeCache(ctx, doctorsCacheKey, doctors)
	return doctors, nil
}

// GetDoctor returns a doctor by id, active or not. Returns (nil, nil) when
// the id is unknown; bookings keep only a weak reference to their doctor, so
// listing history must tolerate a missing one.
func (db *DB) GetDoctor(ctx context.Context, id int64) (*models.Doctor, error) {
	var d models.Doctor
	err := db.QueryRowContext(ctx, `
		SELECT id, name, department, COALESCE(contact, ''), is_active, created_at
		FROM doctors
		WHERE id = ?`, id,
	).Scan(&d.ID, &d.Name, &d.Department, &d.Contact, &d.IsActive, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDoctor inserts a doctor and returns its id.
func (db *DB) CreateDoctor(ctx context.Context, name, department, contact string) (int64, error) {
	res, err := db.ExecContext(ctx,
		"INSERT INTO doctors (name, department, contact) VALUES (?, ?, ?)",
		name, department, contact,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	db.invalidateCache(ctx, "doctors:*")
	return id, nil
}

// UpdateDoctor updates roster fields for a doctor. Setting isActive=false is
// the only supported way to retire a doctor; rows are never deleted.
// Returns false when the id is unknown.
func (db *DB) UpdateDoctor(ctx context.Context, id int64, name, department, contact string, isActive bool) (bool, error) {
	res, err := db.ExecContext(ctx,
		"UPDATE doctors SET name = ?, department = ?, contact = ?, is_active = ? WHERE id = ?",
		name, department, contact, isActive, id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	db.invalidateCache(ctx, "doctors:*")
	return n > 0, nil
}

// CountDoctors returns the total roster size including inactive doctors.
func (db *DB) CountDoctors(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM doctors").Scan(&count)
	return count, err
}
