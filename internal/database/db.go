package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
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

// schema is the idempotent startup DDL.  The events table primary key is
// what enforces the event store's optimistic concurrency check.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		aggregate_id   VARCHAR(64)  NOT NULL,
		aggregate_type VARCHAR(32)  NOT NULL,
		version        INT          NOT NULL,
		kind           VARCHAR(64)  NOT NULL,
		payload        JSON         NOT NULL,
		causation_id   VARCHAR(128) NOT NULL,
		created_at     DATETIME     NOT NULL,
		PRIMARY KEY (aggregate_id, aggregate_type, version)
	)`,
	`CREATE TABLE IF NOT EXISTS order_process (
		order_id                    VARCHAR(64) NOT NULL,
		conference_id               VARCHAR(64) NOT NULL,
		reservation_id              VARCHAR(64) NOT NULL,
		state                       VARCHAR(48) NOT NULL,
		reservation_auto_expiration DATETIME    NOT NULL,
		expires_at                  DATETIME    NULL,
		completed                   TINYINT(1)  NOT NULL DEFAULT 0,
		version                     INT         NOT NULL,
		PRIMARY KEY (order_id),
		KEY idx_order_process_due (completed, expires_at)
	)`,
	`CREATE TABLE IF NOT EXISTS conferences (
		id               VARCHAR(64)  NOT NULL,
		slug             VARCHAR(128) NOT NULL,
		name             VARCHAR(255) NOT NULL,
		description      TEXT         NOT NULL,
		location         VARCHAR(255) NOT NULL,
		owner_name       VARCHAR(255) NOT NULL,
		owner_email      VARCHAR(255) NOT NULL,
		access_code_hash VARCHAR(128) NOT NULL,
		published        TINYINT(1)   NOT NULL DEFAULT 0,
		created_at       TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at       TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_conferences_slug (slug)
	)`,
	`CREATE TABLE IF NOT EXISTS seat_types (
		conference_id VARCHAR(64)  NOT NULL,
		name          VARCHAR(128) NOT NULL,
		description   TEXT         NOT NULL,
		quantity      INT          NOT NULL,
		price_cents   BIGINT       NOT NULL,
		created_at    TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (conference_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS draft_orders (
		order_id               VARCHAR(64)  NOT NULL,
		conference_id          VARCHAR(64)  NOT NULL,
		state                  VARCHAR(32)  NOT NULL,
		requested              JSON         NOT NULL,
		reserved               JSON         NULL,
		registrant_email       VARCHAR(255) NULL,
		total_cents            BIGINT       NOT NULL DEFAULT 0,
		is_free_of_charge      TINYINT(1)   NOT NULL DEFAULT 1,
		reservation_expiration DATETIME     NULL,
		last_version           INT          NOT NULL,
		PRIMARY KEY (order_id)
	)`,
	`CREATE TABLE IF NOT EXISTS conference_seats_view (
		conference_id VARCHAR(64)  NOT NULL,
		seat_type     VARCHAR(128) NOT NULL,
		remaining     INT          NOT NULL DEFAULT 0,
		PRIMARY KEY (conference_id, seat_type)
	)`,
	`CREATE TABLE IF NOT EXISTS conference_seats_progress (
		conference_id VARCHAR(64) NOT NULL,
		last_version  INT         NOT NULL,
		PRIMARY KEY (conference_id)
	)`,
}

// EnsureSchema creates the service tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, ddl := range schema {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("database: ensure schema: %w", err)
		}
	}
	return nil
}
