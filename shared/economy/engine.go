// Package economy implements the per-turn action economy transitions.
// It is pure data transformation: no persistence, no broadcast, no clocks.
// Callers persist the returned value and emit events themselves.
package economy

import (
	"fmt"

	"mythweaver-server/shared/models"
)

// Fresh returns an economy with all flags unused and an empty log.
// It is the state every combatant starts their turn with.
func Fresh() models.ActionEconomy {
	return models.ActionEconomy{}
}

// Spend consumes the given category and returns the resulting economy.
// Non-free categories may be consumed at most once per reset cycle:
// if the matching used-flag is already set, models.ErrCategoryUsed is
// returned and the input economy is left untouched. The free category
// never flips a flag and never fails.
func Spend(econ models.ActionEconomy, category models.ActionCategory) (models.ActionEconomy, error) {
	if !category.IsValid() {
		return econ, fmt.Errorf("%w: unknown action category %q", models.ErrInvalidInput, category)
	}

	switch category {
	case models.CategoryFree:
		// Unlimited, no flag to flip.
	case models.CategoryAction:
		if econ.UsedAction {
			return econ, models.ErrCategoryUsed
		}
		econ.UsedAction = true
	case models.CategoryBonusAction:
		if econ.UsedBonusAction {
			return econ, models.ErrCategoryUsed
		}
		econ.UsedBonusAction = true
	case models.CategoryReaction:
		if econ.UsedReaction {
			return econ, models.ErrCategoryUsed
		}
		econ.UsedReaction = true
	case models.CategoryMovement:
		if econ.UsedMovement {
			return econ, models.ErrCategoryUsed
		}
		econ.UsedMovement = true
	}

	return econ, nil
}

// WithAction appends a taken-action record to the log and returns the
// resulting economy. The log is an audit trail for the combat journal;
// it is never consulted by Spend. The caller appends after a successful
// transition, for every category including free.
func WithAction(econ models.ActionEconomy, action models.TakenAction) models.ActionEconomy {
	log := make([]models.TakenAction, len(econ.Log), len(econ.Log)+1)
	copy(log, econ.Log)
	econ.Log = append(log, action)
	return econ
}

// Reset discards all spent flags and the log, regardless of prior state.
// Invoked exactly when a combatant's turn begins, including the very
// first turn when combat starts.
func Reset(models.ActionEconomy) models.ActionEconomy {
	return Fresh()
}
