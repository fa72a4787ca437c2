package model

import "strings"

// Специальности, доступные в фазе 1
var allowedPCP = map[string]struct{}{
	"Family Medicine (PCP)": {},
	"Primary Care":          {},
}

// IsPCPSlot проверяет относится ли слот к Primary Care
func IsPCPSlot(slot *Slot) bool {
	if slot == nil {
		return false
	}
	_, ok := allowedPCP[strings.TrimSpace(slot.PhysSpecialty)]
	return ok
}

// ClaimPolicy правила выбора слотов, выведенные из Control.
// Cap = 0 означает отсутствие числового лимита.
type ClaimPolicy struct {
	Phase Phase
	Cap   int
}

// PolicyFor чистая функция Control -> ClaimPolicy.
// Числовой MaxSlots в фазе 3 намеренно игнорируется.
func PolicyFor(ctrl *Control) ClaimPolicy {
	if ctrl == nil {
		return ClaimPolicy{Phase: PhaseViewOnly}
	}
	if ctrl.Phase == PhaseLimited {
		return ClaimPolicy{Phase: ctrl.Phase, Cap: 2}
	}
	return ClaimPolicy{Phase: ctrl.Phase}
}

// CanClaim можно ли взять этот слот в текущей фазе
func (p ClaimPolicy) CanClaim(slot *Slot) bool {
	switch p.Phase {
	case PhaseViewOnly:
		return false
	case PhasePCPOnly:
		return IsPCPSlot(slot)
	default:
		return true
	}
}
