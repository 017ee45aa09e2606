package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema contains the DDL for the four tables the service owns. The
// statements are idempotent so they run on every startup.
//
// Two uniqueness keys back the duplicate-entry invariants at the
// storage layer instead of leaving them to in-request checks:
//   - wishlist_items enforces one entry per (user_id, book_id);
//   - loans enforces one ACTIVE loan per (user_id, book_id) through a
//     functional key part that maps returned loans to NULL, so any
//     number of returned loans for the same pair may coexist.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id         VARCHAR(64)  NOT NULL,
		popularity INT          NOT NULL DEFAULT 0,
		stock      INT          NOT NULL DEFAULT 1,
		created_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS users (
		id           VARCHAR(128) NOT NULL,
		email        VARCHAR(255) NOT NULL,
		display_name VARCHAR(255) NOT NULL,
		is_admin     TINYINT(1)   NOT NULL DEFAULT 0,
		created_at   DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS loans (
		id            CHAR(36)     NOT NULL,
		user_id       VARCHAR(128) NOT NULL,
		book_id       VARCHAR(64)  NOT NULL,
		borrowed_date DATETIME     NOT NULL,
		due_date      DATETIME     NOT NULL,
		returned_date DATETIME     NULL,
		status        VARCHAR(16)  NOT NULL DEFAULT 'active',
		PRIMARY KEY (id),
		KEY idx_loans_user (user_id),
		KEY idx_loans_book (book_id),
		UNIQUE KEY uniq_active_loan (user_id, book_id, ((IF(status = 'active', 1, NULL))))
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS wishlist_items (
		id                    CHAR(36)     NOT NULL,
		user_id               VARCHAR(128) NOT NULL,
		book_id               VARCHAR(64)  NOT NULL,
		added_date            DATETIME     NOT NULL,
		notify_when_available TINYINT(1)   NOT NULL DEFAULT 1,
		PRIMARY KEY (id),
		KEY idx_wishlist_user (user_id),
		UNIQUE KEY uniq_wishlist_entry (user_id, book_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the application tables when they do not exist
// yet. It is called once during startup before the HTTP server begins
// accepting requests.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
