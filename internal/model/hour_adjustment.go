package model

import (
	"time"

	"github.com/google/uuid"
)

// HourAdjustment ручная корректировка часов (+/-) с причиной.
// Записи не изменяются, только добавляются и удаляются.
type HourAdjustment struct {
	ID           uuid.UUID `json:"id"`
	StudentEmail string    `json:"student_email"`
	DeltaHours   float64   `json:"delta_hours"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
}
