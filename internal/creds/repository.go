package creds

import "context"

// Repository persists credential records. Put is an upsert and must be
// durable before it returns, so a crash right after a successful create or
// password change never loses the update. Get returns common.ErrorNotFound
// for unknown usernames.
type Repository interface {
	Get(ctx context.Context, username string) (*Record, error)
	Put(ctx context.Context, record *Record) error
	Delete(ctx context.Context, username string) error
}
