package model

// Phase фаза матчинга, задаётся администратором
type Phase int

const (
	PhaseViewOnly  Phase = 0 // просмотр без выбора
	PhasePCPOnly   Phase = 1 // только Primary Care слоты
	PhaseLimited   Phase = 2 // максимум 2 слота
	PhaseUnlimited Phase = 3 // без ограничений
)

// Control единственная управляющая запись (id = 1)
type Control struct {
	Phase                Phase `json:"phase"`
	MaxSlots             int   `json:"max_slots"` // зарезервировано, в фазе 3 не применяется
	MatchingLocked       bool  `json:"matching_locked"`
	ConfirmationsEnabled bool  `json:"confirmations_enabled"`
}

// PCPOnly производный флаг вместо хранимого legacy-поля
func (c *Control) PCPOnly() bool {
	return c.Phase == PhasePCPOnly
}

// PhaseName возвращает название фазы для админки
func PhaseName(p Phase) string {
	switch p {
	case PhaseViewOnly:
		return "Phase 0: View Only"
	case PhasePCPOnly:
		return "Phase 1: PCP Only"
	case PhaseLimited:
		return "Phase 2: Select up to 2"
	case PhaseUnlimited:
		return "Phase 3: Unlimited"
	default:
		return "Phase ?"
	}
}
