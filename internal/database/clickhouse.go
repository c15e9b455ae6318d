// Package database provides an optional ClickHouse sink for analyzed
// record batches.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"

	"github.com/armash/log-analyzer/internal/types"
)

const logsSchemaSQL = `
CREATE TABLE IF NOT EXISTS logs (
    Timestamp DateTime,
    Level     String,
    Service   String,
    Host      String,
    Message   String
) ENGINE = MergeTree()
ORDER BY (Service, Timestamp);
`

const insertSQL = `INSERT INTO logs (Timestamp, Level, Service, Host, Message) VALUES (?, ?, ?, ?, ?)`

// Connect opens a ClickHouse connection pool. Credentials and database
// come from CLICKHOUSE_USER, CLICKHOUSE_PASSWORD and CLICKHOUSE_DB; the
// connection is pinged a few times before giving up so a freshly started
// server has time to come up.
func Connect(host string) (*sql.DB, error) {
	if host == "" {
		host = "localhost"
	}
	dsn := fmt.Sprintf("clickhouse://%s:%s@%s:9000/%s?dial_timeout=%s",
		os.Getenv("CLICKHOUSE_USER"),
		os.Getenv("CLICKHOUSE_PASSWORD"),
		host,
		os.Getenv("CLICKHOUSE_DB"),
		"10s",
	)
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(20)
	db.SetConnMaxLifetime(time.Hour)

	for i := 0; i < 5; i++ {
		if err = db.Ping(); err == nil {
			return db, nil
		}
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("ping clickhouse after retries: %w", err)
}

// EnsureSchema creates the logs table if it does not exist.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(logsSchemaSQL); err != nil {
		return fmt.Errorf("init logs schema: %w", err)
	}
	return nil
}

// InsertRecords writes a record batch inside one transaction.
func InsertRecords(ctx context.Context, db *sql.DB, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Timestamp, r.Level, r.Service, r.Host, r.Message); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}
