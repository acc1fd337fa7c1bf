package adminlog

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Service struct {
	repo *Repository
}

// NewService creates admin log service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Log appends an audit entry. A failed audit write never fails the admin
// operation it describes; the error is logged and swallowed.
func (s *Service) Log(ctx context.Context, adminID uuid.UUID, action string, targetID uuid.UUID, targetType string, details map[string]interface{}) {
	entry := &Action{
		ID:      uuid.New(),
		AdminID: adminID,
		Action:  action,
	}
	if targetID != uuid.Nil {
		entry.TargetID = uuid.NullUUID{UUID: targetID, Valid: true}
	}
	if targetType != "" {
		entry.TargetType = &targetType
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			log.Warn().Err(err).Str("action", action).Msg("audit details not serializable")
		} else {
			entry.Details = raw
		}
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		log.Error().Err(err).
			Str("admin_id", adminID.String()).
			Str("action", action).
			Msg("audit log write failed")
	}
}

// List returns a filtered page of the audit trail
func (s *Service) List(ctx context.Context, filter Filter) ([]*Action, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}
