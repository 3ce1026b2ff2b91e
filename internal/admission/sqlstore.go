package admission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "modernc.org/sqlite"
)

// Backends accepted by OpenSQL.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// SQLStore shares admission records between processes through SQLite (same
// host) or PostgreSQL.
type SQLStore struct {
	db        *sql.DB
	admitSQL  string
	lookupSQL string
}

func OpenSQL(ctx context.Context, backend, dsn string) (*SQLStore, error) {
	var (
		driver      string
		placeholder func(int) string
	)
	switch backend {
	case BackendSQLite:
		driver = "sqlite"
		placeholder = func(int) string { return "?" }
		if !strings.Contains(dsn, "busy_timeout") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_pragma=busy_timeout(5000)"
		}
	case BackendPostgres:
		driver = "pgx"
		placeholder = func(n int) string { return fmt.Sprintf("$%d", n) }
	default:
		return nil, fmt.Errorf("unknown admission backend %q", backend)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if backend == BackendSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &SQLStore{
		db: db,
		admitSQL: fmt.Sprintf(`
INSERT INTO admissions (client, last_ns) VALUES (%s, %s)
ON CONFLICT (client) DO UPDATE SET last_ns = excluded.last_ns
WHERE admissions.last_ns <= %s
RETURNING last_ns;`, placeholder(1), placeholder(2), placeholder(3)),
		lookupSQL: fmt.Sprintf(`SELECT last_ns FROM admissions WHERE client = %s;`, placeholder(1)),
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS admissions (
  client TEXT PRIMARY KEY,
  last_ns BIGINT NOT NULL
);`)
	return err
}

// Admit is a single upsert that only overwrites records older than the
// window, so concurrent callers cannot both be admitted.
func (s *SQLStore) Admit(ctx context.Context, client string, now time.Time, window time.Duration) (time.Time, bool, error) {
	var stored int64
	err := s.db.QueryRowContext(ctx, s.admitSQL, client, now.UnixNano(), now.Add(-window).UnixNano()).Scan(&stored)
	if err == nil {
		return time.Unix(0, stored), true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, err
	}

	if err := s.db.QueryRowContext(ctx, s.lookupSQL, client).Scan(&stored); err != nil {
		return time.Time{}, false, fmt.Errorf("lookup %s: %w", client, err)
	}
	return time.Unix(0, stored), false, nil
}

func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
