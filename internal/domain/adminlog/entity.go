package adminlog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action is one append-only audit entry for a moderator operation.
// Details is schema-free at this boundary; consumers narrow it before
// acting on it.
type Action struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	AdminID    uuid.UUID       `db:"admin_id" json:"admin_id"`
	Action     string          `db:"action" json:"action"`
	TargetID   uuid.NullUUID   `db:"target_id" json:"target_id,omitempty"`
	TargetType *string         `db:"target_type" json:"target_type,omitempty"`
	Details    json.RawMessage `db:"details" json:"details,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// Filter narrows audit log listings
type Filter struct {
	AdminID *uuid.UUID
	Action  *string
	Limit   int
	Offset  int
}
