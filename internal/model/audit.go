package model

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionClaim   AuditAction = "claim"
	AuditActionUnclaim AuditAction = "unclaim"
	AuditActionAssign  AuditAction = "admin_assign"
)

// AuditEntry неизменяемая запись в журнале действий со слотами
type AuditEntry struct {
	ID       int64       `json:"id"`
	LoggedAt time.Time   `json:"logged_at"`
	Action   AuditAction `json:"action"`
	Actor    string      `json:"actor"` // email участника или администратора
	SlotID   uuid.UUID   `json:"slot_id"`
	SlotInfo string      `json:"slot_info"` // "врач, время, дата" на момент записи
}
