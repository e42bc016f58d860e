package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"timeclock/internal/domain"
	"timeclock/pkg/platform/sentinel"
)

// PostgresUserStore persists profiles in the users table. Assigned store ids
// live in a text[] column.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) Insert(ctx context.Context, user domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, full_name, role, job_title, photo_url, required_uniform, assigned_store_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.Username, user.Password, user.FullName, string(user.Role),
		user.JobTitle, user.PhotoURL, user.RequiredUniform, pq.Array(user.AssignedStores),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) Update(ctx context.Context, user domain.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password = $2, full_name = $3, role = $4, job_title = $5,
		    photo_url = $6, required_uniform = $7, assigned_store_ids = $8
		WHERE username = $1`,
		user.Username, user.Password, user.FullName, string(user.Role),
		user.JobTitle, user.PhotoURL, user.RequiredUniform, pq.Array(user.AssignedStores),
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresUserStore) Delete(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresUserStore) Get(ctx context.Context, username string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT username, password, full_name, role, job_title, photo_url, required_uniform, assigned_store_ids
		FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (s *PostgresUserStore) List(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, full_name, role, job_title, photo_url, required_uniform, assigned_store_ids
		FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		user domain.User
		role string
	)
	err := row.Scan(&user.Username, &user.Password, &user.FullName, &role,
		&user.JobTitle, &user.PhotoURL, &user.RequiredUniform, pq.Array(&user.AssignedStores))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, sentinel.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	user.Role = domain.Role(role)
	return user, nil
}

// PostgresStoreStore persists store records in the stores table.
type PostgresStoreStore struct {
	db *sql.DB
}

func NewPostgresStoreStore(db *sql.DB) *PostgresStoreStore {
	return &PostgresStoreStore{db: db}
}

func (s *PostgresStoreStore) Insert(ctx context.Context, store domain.Store) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stores (id, name, address, lat, lng)
		VALUES ($1, $2, $3, $4, $5)`,
		store.ID, store.Name, store.Address, store.Lat, store.Lng,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert store: %w", err)
	}
	return nil
}

func (s *PostgresStoreStore) Update(ctx context.Context, store domain.Store) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE stores SET name = $2, address = $3, lat = $4, lng = $5
		WHERE id = $1`,
		store.ID, store.Name, store.Address, store.Lat, store.Lng,
	)
	if err != nil {
		return fmt.Errorf("update store: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresStoreStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM stores WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete store: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresStoreStore) Get(ctx context.Context, id string) (domain.Store, error) {
	var store domain.Store
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, address, lat, lng FROM stores WHERE id = $1`, id).
		Scan(&store.ID, &store.Name, &store.Address, &store.Lat, &store.Lng)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Store{}, sentinel.ErrNotFound
		}
		return domain.Store{}, fmt.Errorf("get store: %w", err)
	}
	return store, nil
}

func (s *PostgresStoreStore) List(ctx context.Context) ([]domain.Store, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, address, lat, lng FROM stores ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	var out []domain.Store
	for rows.Next() {
		var store domain.Store
		if err := rows.Scan(&store.ID, &store.Name, &store.Address, &store.Lat, &store.Lng); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		out = append(out, store)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stores: %w", err)
	}
	return out, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
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
