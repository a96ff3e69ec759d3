package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceKind определяет происхождение комбатанта.
// Совпадает с типом ENUM 'combatant_source_kind' в БД.
type SourceKind string

const (
	SourceCharacter SourceKind = "character" // Персонаж игрока
	SourceTemplate  SourceKind = "template"  // Шаблон врага/NPC
)

// CombatantSource — тегированный источник комбатанта: ровно одна ссылка,
// либо на персонажа, либо на шаблон врага. Тип выводится из Kind,
// а не хранится избыточно рядом с двумя опциональными ссылками.
type CombatantSource struct {
	Kind  SourceKind `json:"kind"`
	RefID uuid.UUID  `json:"ref_id"`
}

// IsCharacter сообщает, стоит ли за комбатантом персонаж игрока.
func (s CombatantSource) IsCharacter() bool { return s.Kind == SourceCharacter }

// Combatant — участник активного боя в сессии.
// Удаление всегда мягкое (is_active=false), чтобы история боя оставалась доступной.
type Combatant struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	SessionID  uuid.UUID       `json:"session_id" db:"session_id"`
	Source     CombatantSource `json:"source" db:"-"`
	Name       string          `json:"name" db:"name"`
	CurrentHP  int             `json:"current_hp" db:"current_hp"`
	MaxHP      int             `json:"max_hp" db:"max_hp"`
	ArmorClass int             `json:"armor_class" db:"armor_class"`
	Initiative int             `json:"initiative" db:"initiative"` // Ключ сортировки порядка ходов, больше — раньше
	Statuses   []string        `json:"statuses" db:"statuses"`
	IsActive   bool            `json:"is_active" db:"is_active"`
	ShowHP     bool            `json:"show_hp" db:"show_hp"` // Показывать ли HP игрокам
	Economy    ActionEconomy   `json:"economy" db:"-"`
	Version    int             `json:"version" db:"version"` // Счетчик оптимистичных блокировок
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// CombatantUpdate содержит частичные изменения комбатанта (nil = поле не трогаем).
// Поля Statuses, Initiative, IsActive и ShowHP может менять только ГМ.
type CombatantUpdate struct {
	Name       *string  `json:"name,omitempty"`
	CurrentHP  *int     `json:"current_hp,omitempty"`
	MaxHP      *int     `json:"max_hp,omitempty"`
	ArmorClass *int     `json:"armor_class,omitempty"`
	Initiative *int     `json:"initiative,omitempty"`
	Statuses   []string `json:"statuses,omitempty"`
	IsActive   *bool    `json:"is_active,omitempty"`
	ShowHP     *bool    `json:"show_hp,omitempty"`
}

// TouchesGMOnlyFields сообщает, затрагивает ли обновление поля,
// зарезервированные за ГМ (состояние энкаунтера целиком).
func (u CombatantUpdate) TouchesGMOnlyFields() bool {
	return u.Statuses != nil || u.Initiative != nil || u.IsActive != nil || u.ShowHP != nil
}

// ApplyTo накладывает непустые поля обновления на комбатанта (shallow merge).
func (u CombatantUpdate) ApplyTo(c *Combatant) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.CurrentHP != nil {
		c.CurrentHP = *u.CurrentHP
	}
	if u.MaxHP != nil {
		c.MaxHP = *u.MaxHP
	}
	if u.ArmorClass != nil {
		c.ArmorClass = *u.ArmorClass
	}
	if u.Initiative != nil {
		c.Initiative = *u.Initiative
	}
	if u.Statuses != nil {
		c.Statuses = u.Statuses
	}
	if u.IsActive != nil {
		c.IsActive = *u.IsActive
	}
	if u.ShowHP != nil {
		c.ShowHP = *u.ShowHP
	}
}
