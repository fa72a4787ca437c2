package timeutil

import (
	"math"
	"strconv"
	"strings"
)

// ParseTimeToMinutes разбирает время вида "9:00 AM", "09:30 am", "14:05"
// в минуты с полуночи. Без суффикса время считается 24-часовым.
// Возвращает ok = false для любого нераспознанного значения.
func ParseTimeToMinutes(t string) (int, bool) {
	s := strings.ToLower(strings.Join(strings.Fields(t), ""))
	if s == "" {
		return 0, false
	}

	meridiem := ""
	switch {
	case strings.HasSuffix(s, "am"):
		meridiem = "am"
		s = strings.TrimSuffix(s, "am")
	case strings.HasSuffix(s, "pm"):
		meridiem = "pm"
		s = strings.TrimSuffix(s, "pm")
	}

	parts := strings.Split(s, ":")
	if len(parts) > 2 {
		return 0, false
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	m := 0
	if len(parts) == 2 {
		m, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, false
		}
	}

	// 12-часовая шкала: 12 AM -> 0, PM добавляет 12 кроме 12 PM
	switch meridiem {
	case "am":
		if h == 12 {
			h = 0
		}
	case "pm":
		if h != 12 {
			h += 12
		}
	}

	return h*60 + m, true
}

// SlotHours длительность слота в часах с округлением до 2 знаков.
// Грязные данные не ошибка: нераспознанная граница даёт 0 часов,
// потому что результат идёт в агрегаты по часам.
func SlotHours(timeStart, timeEnd string) float64 {
	start, okStart := ParseTimeToMinutes(timeStart)
	end, okEnd := ParseTimeToMinutes(timeEnd)
	if !okStart || !okEnd {
		return 0
	}
	diff := end - start
	if diff < 0 {
		diff = 0
	}
	return Round2(float64(diff) / 60)
}

// Round2 округление до двух знаков, как в отчётах по часам
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
