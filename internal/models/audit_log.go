package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records who did what to which record. Written for every
// approval, fund transfer, manual adjustment and escalation-flag change.
type AuditLog struct {
	ID         uuid.UUID `json:"id"`
	ActorID    uuid.UUID `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	Action     string    `json:"action"`
	TargetID   uuid.UUID `json:"target_id"`
	TargetType string    `json:"target_type"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
