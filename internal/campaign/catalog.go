// internal/campaign/catalog.go
//
// SQL-backed campaign catalog.
//
// Context
// -------
// Campaign rows live in the `discount_sale` table of the shop database and
// are managed elsewhere.  SQLCatalog runs a single read-only SELECT per
// refresh; the Store turns the result into an immutable snapshot.
//
// Schema reference
//
//	CREATE TABLE discount_sale (
//	    id              INT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
//	    sale_key        VARCHAR(64)  NOT NULL UNIQUE,
//	    name            VARCHAR(255) NOT NULL,
//	    start_date      TIMESTAMP NULL,
//	    end_date        TIMESTAMP NULL,
//	    customer_email  VARCHAR(254) NULL,
//	    deleted_at      TIMESTAMP NULL
//	);
//
// Notes
// -----
//   - Column list matches the fields in Campaign; update both together.
//   - Errors are returned verbatim so the Store can log them.

package campaign

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// SQLCatalog reads campaigns through sqlx.
type SQLCatalog struct {
	DB *sqlx.DB
}

// Campaigns returns every non-deleted campaign ordered by start date, then
// key, so activation output is stable across refreshes.
func (c *SQLCatalog) Campaigns(ctx context.Context) ([]Campaign, error) {
	const q = `
        SELECT sale_key, name, start_date, end_date, customer_email
        FROM   discount_sale
        WHERE  deleted_at IS NULL
        ORDER  BY start_date, sale_key`
	var rows []Campaign
	if err := c.DB.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}
