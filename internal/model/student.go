package model

import (
	"regexp"
	"strings"
	"time"
)

// Student участник матчинга. Email уникален (без учёта регистра).
type Student struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	GroupLabel   string     `json:"group"`  // например "2025-2027"
	School       string     `json:"school"`
	IsLyte       bool       `json:"is_lyte"`
	IsArchived   bool       `json:"is_archived"`
	ArchivedAt   *time.Time `json:"archived_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DisplayName имя для отображения в слотах
func (s *Student) DisplayName() string {
	parts := make([]string, 0, 2)
	if s.FirstName != "" {
		parts = append(parts, s.FirstName)
	}
	if s.LastName != "" {
		parts = append(parts, s.LastName)
	}
	return strings.Join(parts, " ")
}

// Activated аккаунт активирован, если заполнено имя
func (s *Student) Activated() bool {
	return s.FirstName != "" && s.LastName != ""
}

// Поддерживает "2025-2027" и "2025 – 2027"
var groupYearsRe = regexp.MustCompile(`(\d{4})\s*[-–]\s*(\d{4})`)

// ParseGroupYears извлекает годы начала и выпуска из названия группы
func ParseGroupYears(group string) (startYear, endYear int, ok bool) {
	m := groupYearsRe.FindStringSubmatch(group)
	if m == nil {
		return 0, 0, false
	}
	startYear = atoi4(m[1])
	endYear = atoi4(m[2])
	return startYear, endYear, true
}

func atoi4(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
