package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"timeclock/internal/domain"
	"timeclock/pkg/platform/sentinel"
)

// PostgresTimeLogStore persists logs in the time_logs table.
type PostgresTimeLogStore struct {
	db *sql.DB
}

func NewPostgresTimeLogStore(db *sql.DB) *PostgresTimeLogStore {
	return &PostgresTimeLogStore{db: db}
}

func (s *PostgresTimeLogStore) Insert(ctx context.Context, log domain.TimeLog) error {
	var lat, lng sql.NullFloat64
	if log.Location != nil {
		lat = sql.NullFloat64{Float64: log.Location.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: log.Location.Lng, Valid: true}
	}
	var distance sql.NullFloat64
	if log.DistanceToStore != nil {
		distance = sql.NullFloat64{Float64: *log.DistanceToStore, Valid: true}
	}
	var allowed sql.NullBool
	if log.LocationAllowed != nil {
		allowed = sql.NullBool{Bool: *log.LocationAllowed, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO time_logs (
			id, user_id, user_full_name, user_photo_url,
			store_id, store_name, type, timestamp,
			has_incident, incident_detail,
			identity_score, uniform_ok, uniform_details,
			lat, lng, distance_to_store, location_allowed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		log.ID, log.UserID, log.UserFullName, log.UserPhotoURL,
		log.StoreID, log.StoreName, string(log.Type), log.Timestamp,
		log.HasIncident, log.IncidentDetail,
		log.IdentityScore, log.UniformOK, log.UniformDetails,
		lat, lng, distance, allowed,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert time log: %w", err)
	}
	return nil
}

func (s *PostgresTimeLogStore) List(ctx context.Context) ([]domain.TimeLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, user_full_name, user_photo_url,
		       store_id, store_name, type, timestamp,
		       has_incident, incident_detail,
		       identity_score, uniform_ok, uniform_details,
		       lat, lng, distance_to_store, location_allowed
		FROM time_logs
		ORDER BY timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("list time logs: %w", err)
	}
	defer rows.Close()

	var out []domain.TimeLog
	for rows.Next() {
		var (
			log      domain.TimeLog
			typ      string
			lat, lng sql.NullFloat64
			distance sql.NullFloat64
			allowed  sql.NullBool
		)
		if err := rows.Scan(
			&log.ID, &log.UserID, &log.UserFullName, &log.UserPhotoURL,
			&log.StoreID, &log.StoreName, &typ, &log.Timestamp,
			&log.HasIncident, &log.IncidentDetail,
			&log.IdentityScore, &log.UniformOK, &log.UniformDetails,
			&lat, &lng, &distance, &allowed,
		); err != nil {
			return nil, fmt.Errorf("scan time log: %w", err)
		}
		log.Type = domain.ClockType(typ)
		if lat.Valid && lng.Valid {
			log.Location = &domain.Position{Lat: lat.Float64, Lng: lng.Float64}
		}
		if distance.Valid {
			d := distance.Float64
			log.DistanceToStore = &d
		}
		if allowed.Valid {
			a := allowed.Bool
			log.LocationAllowed = &a
		}
		out = append(out, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time logs: %w", err)
	}
	return out, nil
}

// isUniqueViolation matches Postgres error code 23505 without binding to a
// specific driver error type.
func isUniqueViolation(err error) bool {
	type coder interface{ SQLState() string }
	var c coder
	if errors.As(err, &c) {
		return c.SQLState() == "23505"
	}
	return false
}
