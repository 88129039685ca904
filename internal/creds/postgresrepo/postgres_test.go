package postgresrepo

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/remotehelp/internal/common"
	"github.com/dmitrijs2005/remotehelp/internal/creds"
)

func newRepoWithMock(t *testing.T) (*Repository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewRepository(db), mock, db
}

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+kind,\s*salt,\s*hash,\s*created_at\s+FROM\s+credentials\s+WHERE\s+username\s*=\s*\$1\s*$`

	created := time.Now()
	rows := sqlmock.NewRows([]string{"kind", "salt", "hash", "created_at"}).
		AddRow(int16(creds.KindSalted), []byte("salt"), []byte("hash"), created)
	mock.ExpectQuery(q).WithArgs("alice").WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Username != "alice" || got.Kind != creds.KindSalted || string(got.Salt) != "salt" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+kind,\s*salt,\s*hash,\s*created_at\s+FROM\s+credentials`

	mock.ExpectQuery(q).WithArgs("nobody").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "nobody")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestPut_Upsert(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+credentials\s*\(username,\s*kind,\s*salt,\s*hash,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*ON\s+CONFLICT\s*\(username\)\s*DO\s+UPDATE\s+SET\s+kind\s*=\s*\$2,\s*salt\s*=\s*\$3,\s*hash\s*=\s*\$4\s*$`

	rec := &creds.Record{
		Username:  "bob",
		Kind:      creds.KindSalted,
		Salt:      []byte("salt"),
		Hash:      []byte("hash"),
		CreatedAt: time.Now(),
	}

	mock.ExpectExec(q).
		WithArgs(rec.Username, int16(rec.Kind), rec.Salt, rec.Hash, rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Put(context.Background(), rec); err != nil {
		t.Fatalf("Put error: %v", err)
	}
}

func TestPut_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+credentials`).
		WillReturnError(errors.New("db down"))

	err := repo.Put(context.Background(), creds.NewLegacyRecord("bob", "pw"))
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+credentials\s+WHERE\s+username\s*=\s*\$1\s*$`

	mock.ExpectExec(q).WithArgs("carol").WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Delete(context.Background(), "carol"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}

	mock.ExpectExec(q).WithArgs("carol").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Delete(context.Background(), "carol"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}
