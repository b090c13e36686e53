package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/mattn/go-sqlite3"
)

type (
	SQLite struct {
		db *sql.DB
	}
)

func openUsersDatabase(ctx context.Context, dir string) (*sql.DB, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("unable to create directory %v to store users, cause %w", dir, err)
	}
	file := filepath.Join(dir, "users.db")
	connstr := fmt.Sprintf("file:%v?_writable_schema=false&_journal=wal&_busy_timeout=5000&mode=rwc", file)
	conn, err := sql.Open("sqlite3", connstr)
	if err != nil {
		return nil, fmt.Errorf("unable to open %v, cause %v", file, err)
	}
	err = conn.PingContext(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to ping users database %v, cause %v", file, err)
	}
	return conn, nil
}

// OpenSQLite opens (or creates) the users database kept under dir.
func OpenSQLite(ctx context.Context, dir string) (*SQLite, error) {
	conn, err := openUsersDatabase(ctx, dir)
	if err != nil {
		return nil, err
	}
	s := &SQLite{db: conn}
	err = s.init(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to init users database at %v, cause %v", dir, err)
	}
	return s, nil
}

func (s *SQLite) Create(ctx context.Context, rec Record) (Record, error) {
	_, err := s.db.ExecContext(ctx, `insert into users(id, id_hash64, profile, password_hash) values (?, ?, ?, ?)`,
		rec.ID, idHash(rec.ID), string(rec.Profile), rec.PasswordHash)
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return Record{}, Duplicate{ID: rec.ID}
	} else if err != nil {
		return Record{}, fmt.Errorf("unable to store user %v, cause %w", rec.ID, err)
	}
	return rec, nil
}

func (s *SQLite) Find(ctx context.Context, id string) (Record, error) {
	var rec Record
	var profile string
	err := s.db.QueryRowContext(ctx, `select id, profile, password_hash from users where id_hash64 = ? and id = ?`, idHash(id), id).
		Scan(&rec.ID, &profile, &rec.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, NotFound{ID: id}
	} else if err != nil {
		return Record{}, fmt.Errorf("unable to load user %v, cause %w", id, err)
	}
	rec.Profile = []byte(profile)
	return rec, nil
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id_hash64 = ? and id = ?`, idHash(id), id)
	if err != nil {
		return fmt.Errorf("unable to delete user %v, cause %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to delete user %v, cause %w", id, err)
	}
	if n == 0 {
		return NotFound{ID: id}
	}
	return nil
}

func (s *SQLite) init(ctx context.Context) error {
	for _, cmd := range []string{
		`create table if not exists users(
			user_id integer not null primary key autoincrement,
			id text not null unique,
			id_hash64 integer not null,
			profile blob not null,
			password_hash text not null
		)`,
		`create index if not exists idx_users_id_hash64
			on users(id_hash64)
		`,
	} {
		_, err := s.db.ExecContext(ctx, cmd)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func idHash(id string) int64 {
	return int64(xxhash.Sum64String(id))
}
