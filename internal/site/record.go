// internal/site/record.go
//
// `site` table row model and query helpers.
//
// Context
// -------
// A Record identifies the storefront a request is addressed to.  Rows are
// read by host on first use and cached (see cache.go).  Suspended or
// deleted sites are excluded at SQL level.
//
// Schema reference
//
//	CREATE TABLE site (
//	    id            INT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
//	    host          VARCHAR(256)  NOT NULL UNIQUE,
//	    name          VARCHAR(255)  NOT NULL,
//	    locale        VARCHAR(16)   NOT NULL DEFAULT 'en_US',
//	    suspended_at  TIMESTAMP NULL,
//	    deleted_at    TIMESTAMP NULL,
//	    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
//	    updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
//	);
//
// Notes
// -----
//   - Column list matches the fields in Record; update both together.
//   - Nullable timestamps are *time.Time; callers must nil-check before use.
//   - Oxford commas, two spaces after periods.
package site

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Record mirrors one row in the `site` table.
type Record struct {
	ID          uint64     `db:"id"           json:"id"`
	Host        string     `db:"host"         json:"host"`
	Name        string     `db:"name"         json:"name"`
	Locale      string     `db:"locale"       json:"locale"`
	SuspendedAt *time.Time `db:"suspended_at" json:"-"`
	DeletedAt   *time.Time `db:"deleted_at"   json:"-"`
	CreatedAt   time.Time  `db:"created_at"   json:"-"`
	UpdatedAt   time.Time  `db:"updated_at"   json:"-"`
}

const columns = `id, host, name, locale, suspended_at, deleted_at, created_at, updated_at`

// AllActive returns every site that is neither suspended nor deleted.
// Used at boot to log the active-site count.
func AllActive(ctx context.Context, db *sqlx.DB) ([]Record, error) {
	q := `
        SELECT ` + columns + `
        FROM   site
        WHERE  suspended_at IS NULL
          AND  deleted_at   IS NULL`
	var rows []Record
	if err := db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

// ByHost fetches a single site row that is not suspended or deleted.
func ByHost(ctx context.Context, db *sqlx.DB, host string) (*Record, error) {
	q := `
        SELECT ` + columns + `
        FROM   site
        WHERE  host = ?
          AND  suspended_at IS NULL
          AND  deleted_at   IS NULL
        LIMIT  1`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, host); err != nil {
		return nil, err
	}
	return &rec, nil
}

// StripPort removes any ":port" suffix from a Host header value.
func StripPort(h string) string {
	if i := strings.IndexByte(h, ':'); i != -1 {
		return h[:i]
	}
	return h
}
