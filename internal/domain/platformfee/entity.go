package platformfee

import (
	"time"

	"github.com/google/uuid"
)

// Fee is one platform-cut record from a contract settlement. Append-only,
// never updated; it does not move wallet balance.
type Fee struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ContractID uuid.UUID `db:"contract_id" json:"contract_id"`
	Amount     int64     `db:"amount" json:"amount"`
	Percent    float64   `db:"percent" json:"percent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Stats aggregates the fee log over an optional date range
type Stats struct {
	Total  int64       `json:"total"`
	Count  int64       `json:"count"`
	ByDate []DateTotal `json:"by_date"`
}

// DateTotal is one day's slice of the fee log
type DateTotal struct {
	Date  string `db:"date" json:"date"`
	Total int64  `db:"total" json:"total"`
	Count int64  `db:"count" json:"count"`
}
