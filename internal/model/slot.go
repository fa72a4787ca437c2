package model

import (
	"time"

	"github.com/google/uuid"
)

// Slot один доступный приём у врача.
// Пустой StudentEmail означает что слот свободен.
type Slot struct {
	ID            uuid.UUID  `json:"id"`
	PhysName      string     `json:"phys_name"`
	PhysSpecialty string     `json:"phys_specialty"`
	Date          *time.Time `json:"date"`
	TimeStart     string     `json:"time_start"` // "9:00 AM"
	TimeEnd       string     `json:"time_end"`   // "11:30 AM"
	Location      string     `json:"location"`
	Notes         string     `json:"notes"`
	StudentEmail  string     `json:"student_email"`
	StudentName   string     `json:"student_name"`
	CreatedAt     time.Time  `json:"created_at"`
}

// IsOpen свободен ли слот
func (s *Slot) IsOpen() bool {
	return s.StudentEmail == ""
}
