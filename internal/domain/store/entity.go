package store

import (
	"time"

	"github.com/google/uuid"
)

// ItemType categorizes store items
type ItemType string

const (
	ItemTypeProfileBoost   ItemType = "profile_boost"
	ItemTypeJobHighlight   ItemType = "job_highlight"
	ItemTypeProjectFeature ItemType = "project_feature"
	ItemTypeBadge          ItemType = "badge"
)

// EntitlementStatus represents the lifecycle of a grant. Cancelled is
// defined for forward compatibility; no operation currently produces it.
type EntitlementStatus string

const (
	EntitlementActive    EntitlementStatus = "active"
	EntitlementExpired   EntitlementStatus = "expired"
	EntitlementCancelled EntitlementStatus = "cancelled"
)

// Item is a coin-priced entitlement definition. DurationDays nil means
// the grant is permanent.
type Item struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	Price        int64     `db:"price" json:"price"`
	Type         ItemType  `db:"type" json:"type"`
	DurationDays *int      `db:"duration_days" json:"duration_days,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Entitlement is a per-user grant of a store item
type Entitlement struct {
	ID        uuid.UUID         `db:"id" json:"id"`
	UserID    uuid.UUID         `db:"user_id" json:"user_id"`
	ItemID    uuid.UUID         `db:"item_id" json:"item_id"`
	StartsAt  time.Time         `db:"starts_at" json:"starts_at"`
	EndsAt    *time.Time        `db:"ends_at" json:"ends_at,omitempty"`
	Status    EntitlementStatus `db:"status" json:"status"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}

// EntitlementFilter narrows entitlement listings
type EntitlementFilter struct {
	ItemType ItemType
	Status   EntitlementStatus
}
