package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/apolloyim/the-match/internal/timeutil"
)

// AnalyticsService сводки по часам для админки. Только чтение.
type AnalyticsService struct {
	slots    SlotStore
	students StudentStore
}

func NewAnalyticsService(slots SlotStore, students StudentStore) *AnalyticsService {
	return &AnalyticsService{slots: slots, students: students}
}

// StudentHours часы одного студента по текущим слотам
type StudentHours struct {
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	School string  `json:"school"`
	IsLyte bool    `json:"is_lyte"`
	Hours  float64 `json:"hours"`
}

// SchoolHours суммарные часы школы
type SchoolHours struct {
	School string  `json:"school"`
	Hours  float64 `json:"hours"`
}

// HoursReport сводка по активным и архивным студентам
type HoursReport struct {
	Active   []StudentHours `json:"active"`
	Archived []StudentHours `json:"archived"`
	BySchool []SchoolHours  `json:"by_school"`
}

// BuildHoursReport считает часы текущих слотов по студентам и школам.
// lyteOnly оставляет только LYTE-студентов.
func (s *AnalyticsService) BuildHoursReport(ctx context.Context, lyteOnly bool) (*HoursReport, error) {
	students, err := s.students.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	slots, err := s.slots.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	hoursByEmail := make(map[string]float64)
	for _, slot := range slots {
		if slot.StudentEmail == "" {
			continue
		}
		hoursByEmail[slot.StudentEmail] += timeutil.SlotHours(slot.TimeStart, slot.TimeEnd)
	}

	var active, archived []StudentHours
	for _, st := range students {
		if lyteOnly && !st.IsLyte {
			continue
		}

		row := StudentHours{
			Name:   st.DisplayName(),
			Email:  st.Email,
			School: st.School,
			IsLyte: st.IsLyte,
			Hours:  timeutil.Round2(hoursByEmail[st.Email]),
		}
		if row.Name == "" {
			row.Name = st.Email
		}

		if st.IsArchived {
			archived = append(archived, row)
		} else {
			active = append(active, row)
		}
	}

	sortByHours(active)
	sortByHours(archived)

	schoolTotals := make(map[string]float64)
	for _, row := range active {
		key := row.School
		if key == "" {
			key = "(No school)"
		}
		schoolTotals[key] += row.Hours
	}

	bySchool := make([]SchoolHours, 0, len(schoolTotals))
	for school, hours := range schoolTotals {
		bySchool = append(bySchool, SchoolHours{School: school, Hours: timeutil.Round2(hours)})
	}
	sort.Slice(bySchool, func(i, j int) bool {
		if bySchool[i].Hours != bySchool[j].Hours {
			return bySchool[i].Hours > bySchool[j].Hours
		}
		return bySchool[i].School < bySchool[j].School
	})

	return &HoursReport{Active: active, Archived: archived, BySchool: bySchool}, nil
}

func sortByHours(rows []StudentHours) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Hours != rows[j].Hours {
			return rows[i].Hours > rows[j].Hours
		}
		return rows[i].Email < rows[j].Email
	})
}
