package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect identifies the SQL flavour the connection speaks. Repositories
// use it to pick dialect-specific statements (upserts differ between
// MySQL and SQLite).
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite3"
)

// OpenMySQL connects to MySQL and verifies the connection.
func OpenMySQL(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens (creating if needed) a SQLite database at the given
// path.  Pass ":memory:" for an in-memory database, which is what the
// tests use.  The connection pool is capped at a single connection so
// that an in-memory database is not silently duplicated per connection.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_loc=UTC&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// mysqlSchema and sqliteSchema create the two application tables. The
// statements are idempotent so Migrate can run on every startup.
// shows.title carries a binary collation on MySQL because title
// uniqueness is case-sensitive; SQLite compares TEXT byte-wise already.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS shows (
        id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        title      VARCHAR(255) COLLATE utf8mb4_bin NOT NULL,
        created_at DATETIME NOT NULL,
        watched    TINYINT(1) NOT NULL DEFAULT 0,
        rating     TINYINT NULL,
        watched_at DATETIME NULL,
        UNIQUE KEY uq_shows_title (title)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS watches (
        id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        username   VARCHAR(64) NOT NULL,
        show_id    BIGINT UNSIGNED NOT NULL,
        rating     TINYINT NOT NULL,
        watched_at DATETIME NOT NULL,
        UNIQUE KEY uq_watches_user_show (username, show_id),
        KEY idx_watches_show (show_id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS shows (
        id         INTEGER PRIMARY KEY AUTOINCREMENT,
        title      TEXT NOT NULL UNIQUE,
        created_at DATETIME NOT NULL,
        watched    INTEGER NOT NULL DEFAULT 0,
        rating     INTEGER NULL,
        watched_at DATETIME NULL
    )`,
	`CREATE TABLE IF NOT EXISTS watches (
        id         INTEGER PRIMARY KEY AUTOINCREMENT,
        username   TEXT NOT NULL,
        show_id    INTEGER NOT NULL,
        rating     INTEGER NOT NULL,
        watched_at DATETIME NOT NULL,
        UNIQUE (username, show_id)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_watches_show ON watches (show_id)`,
}

// Migrate creates the schema for the given dialect if it does not exist.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	stmts := sqliteSchema
	if dialect == DialectMySQL {
		stmts = mysqlSchema
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// demoTitles are inserted by Seed when the store is empty.
var demoTitles = []string{
	"Breaking Bad",
	"The Wire",
	"Mad Men",
	"The Sopranos",
	"Game of Thrones",
}

// Seed inserts the demo shows when the shows table is empty. It is a
// no-op on a populated database so repeated startups with seeding
// enabled do not duplicate rows.
func Seed(ctx context.Context, db *sql.DB) error {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shows`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, title := range demoTitles {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO shows (title, created_at) VALUES (?, ?)`, title, now,
		); err != nil {
			return err
		}
	}
	return nil
}
