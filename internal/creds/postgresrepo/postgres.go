// Package postgresrepo implements the credential repository on PostgreSQL
// for mediator deployments where several mediators share one user base.
// Migrations are embedded and applied with goose on open.
package postgresrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/remotehelp/internal/common"
	"github.com/dmitrijs2005/remotehelp/internal/creds"
	"github.com/dmitrijs2005/remotehelp/internal/creds/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// DBTX is the subset of database/sql used by this repository. Both *sql.DB
// and *sql.Tx satisfy it, as does sqlmock in tests.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repository struct {
	db DBTX
}

func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// Open connects with the pgx stdlib driver, applies the embedded
// migrations, and returns the repository plus the handle to close.
func Open(ctx context.Context, dsn string) (*Repository, *sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.UpContext(ctx, db, "."); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migration error: %w", err)
	}

	return NewRepository(db), db, nil
}

func (r *Repository) Get(ctx context.Context, username string) (*creds.Record, error) {
	query :=
		`SELECT kind, salt, hash, created_at FROM credentials
		 WHERE username = $1
		 `

	rec := &creds.Record{Username: username}
	var kind int16
	var salt []byte
	var createdAt time.Time

	err := r.db.QueryRowContext(ctx, query, username).Scan(&kind, &salt, &rec.Hash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	rec.Kind = creds.Kind(kind)
	rec.Salt = salt
	rec.CreatedAt = createdAt
	return rec, nil
}

func (r *Repository) Put(ctx context.Context, rec *creds.Record) error {
	query :=
		`INSERT INTO credentials (username, kind, salt, hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (username)
		 DO UPDATE SET kind = $2, salt = $3, hash = $4
		 `

	_, err := r.db.ExecContext(ctx, query,
		rec.Username, int16(rec.Kind), rec.Salt, rec.Hash, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *Repository) Delete(ctx context.Context, username string) error {
	query :=
		`DELETE FROM credentials
		 WHERE username = $1
		 `

	res, err := r.db.ExecContext(ctx, query, username)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}
