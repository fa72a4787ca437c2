package model

import (
	"time"

	"github.com/google/uuid"
)

// ArchivedSlot снимок подтверждённого слота в постоянной истории.
// Пара (StudentEmail, SourceSlotID) уникальна: повторный снапшот
// не создаёт дубликат, обновляется только CapturedAt.
type ArchivedSlot struct {
	ID            uuid.UUID  `json:"id"`
	StudentEmail  string     `json:"student_email"`
	StudentName   string     `json:"student_name"`
	PhysName      string     `json:"phys_name"`
	PhysSpecialty string     `json:"phys_specialty"`
	Date          *time.Time `json:"date"`
	TimeStart     string     `json:"time_start"`
	TimeEnd       string     `json:"time_end"`
	Location      string     `json:"location"`
	Notes         string     `json:"notes"`
	Season        string     `json:"season"` // например "2025-09"
	SourceSlotID  uuid.UUID  `json:"source_slot_id"`
	CapturedAt    time.Time  `json:"captured_at"`
}
