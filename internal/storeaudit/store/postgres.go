package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"timeclock/internal/domain"
	"timeclock/pkg/platform/sentinel"
)

// PostgresAuditStore persists audits in the audits table. Answers and photo
// URLs are jsonb; issue and recommendation lists are text[].
type PostgresAuditStore struct {
	db *sql.DB
}

func NewPostgresAuditStore(db *sql.DB) *PostgresAuditStore {
	return &PostgresAuditStore{db: db}
}

func (s *PostgresAuditStore) Insert(ctx context.Context, record domain.AuditRecord) error {
	answers, err := json.Marshal(record.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	photos, err := json.Marshal(record.PhotoURLs)
	if err != nil {
		return fmt.Errorf("marshal photo urls: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audits (id, store_id, store_name, user_id, answers, photos, score, summary, critical_issues, recommendations, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		record.ID, record.StoreID, record.StoreName, record.AuditorID,
		answers, photos, record.Score, record.Summary,
		pq.Array(record.CriticalIssues), pq.Array(record.Recommendations),
		record.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

func (s *PostgresAuditStore) List(ctx context.Context) ([]domain.AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, store_name, user_id, answers, photos, score, summary, critical_issues, recommendations, created_at
		FROM audits
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditRecord
	for rows.Next() {
		var (
			record          domain.AuditRecord
			answers, photos []byte
		)
		if err := rows.Scan(
			&record.ID, &record.StoreID, &record.StoreName, &record.AuditorID,
			&answers, &photos, &record.Score, &record.Summary,
			pq.Array(&record.CriticalIssues), pq.Array(&record.Recommendations),
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		if err := json.Unmarshal(answers, &record.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
		if err := json.Unmarshal(photos, &record.PhotoURLs); err != nil {
			return nil, fmt.Errorf("unmarshal photo urls: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audits: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	type coder interface{ SQLState() string }
	var c coder
	if errors.As(err, &c) {
		return c.SQLState() == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
