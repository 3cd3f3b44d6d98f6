package listing

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Listing is a read-only view of a business listing. This core never
// mutates listings; the full listing model lives outside it.
type Listing struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	SellerID    uuid.UUID      `db:"seller_id" json:"seller_id"`
	Title       string         `db:"title" json:"title"`
	Status      string         `db:"status" json:"status"`
	AskingPrice sql.NullInt64  `db:"asking_price" json:"asking_price,omitempty"`
	Region      sql.NullString `db:"region" json:"region,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}
