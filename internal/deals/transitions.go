package deals

import (
	"Portfolio/internal/apierr"
	"Portfolio/internal/constants"
)

// transitions - допустимые переходы статуса сделки. closed и cancelled терминальные.
var transitions = map[string][]string{
	constants.DEAL_STATUS_OPEN:        {constants.DEAL_STATUS_IN_PROGRESS, constants.DEAL_STATUS_CLOSED, constants.DEAL_STATUS_CANCELLED},
	constants.DEAL_STATUS_IN_PROGRESS: {constants.DEAL_STATUS_CLOSED, constants.DEAL_STATUS_CANCELLED},
	constants.DEAL_STATUS_CLOSED:      {},
	constants.DEAL_STATUS_CANCELLED:   {},
}

// CanTransition сообщает, разрешен ли переход from -> to.
// Повтор текущего статуса разрешен всегда (обновление заметок).
func CanTransition(from, to string) bool {
	if from == to {
		_, known := transitions[from]
		return known
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal сообщает, что из статуса нет переходов.
func IsTerminal(status string) bool {
	next, known := transitions[status]
	return known && len(next) == 0
}

func validateStatus(status string) error {
	if !constants.IsValidDealStatus(status) {
		return apierr.Validation("unknown deal status %q (allowed: open, in-progress, closed, cancelled)", status)
	}
	return nil
}
