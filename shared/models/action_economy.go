package models

import "time"

// ActionCategory определяет тип тратимого ресурса хода.
type ActionCategory string

const (
	CategoryAction      ActionCategory = "action"
	CategoryBonusAction ActionCategory = "bonus_action"
	CategoryReaction    ActionCategory = "reaction"
	CategoryMovement    ActionCategory = "movement"
	CategoryFree        ActionCategory = "free" // Не ограничено, флаги не трогает
)

// IsValid проверяет, что категория — одна из известных.
func (c ActionCategory) IsValid() bool {
	switch c {
	case CategoryAction, CategoryBonusAction, CategoryReaction, CategoryMovement, CategoryFree:
		return true
	}
	return false
}

// TakenAction — запись в журнале действий комбатанта за ход.
// Журнал append-only и служит только для отображения, не для проверок.
type TakenAction struct {
	ActionID string         `json:"action_id"`
	Name     string         `json:"name"`
	Category ActionCategory `json:"category"`
	Detail   string         `json:"detail,omitempty"`
	TakenAt  time.Time      `json:"taken_at"`
}

// ActionEconomy — счетчик ресурсов хода комбатанта.
// Каждый не-free ресурс тратится не более одного раза до сброса;
// сброс происходит в момент начала хода комбатанта.
type ActionEconomy struct {
	UsedAction      bool          `json:"used_action"`
	UsedBonusAction bool          `json:"used_bonus_action"`
	UsedReaction    bool          `json:"used_reaction"`
	UsedMovement    bool          `json:"used_movement"`
	Log             []TakenAction `json:"log,omitempty"`
}
