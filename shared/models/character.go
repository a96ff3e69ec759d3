package models

import "github.com/google/uuid"

// SpellSlot — ячейки заклинаний одного уровня.
type SpellSlot struct {
	Level int `json:"level"`
	Max   int `json:"max"`
	Used  int `json:"used"`
}

// CharacterStats — срез боевых характеристик персонажа, который ядро сессии
// читает и пишет через Persistence Gateway. Полная модель персонажа
// принадлежит CRUD-слою и сюда не входит.
type CharacterStats struct {
	CharacterID uuid.UUID   `json:"character_id" db:"id"`
	OwnerID     uuid.UUID   `json:"owner_id" db:"owner_id"`
	Name        string      `json:"name" db:"name"`
	CurrentHP   int         `json:"current_hp" db:"current_hp"`
	MaxHP       int         `json:"max_hp" db:"max_hp"`
	ArmorClass  int         `json:"armor_class" db:"armor_class"`
	SpellSlots  []SpellSlot `json:"spell_slots" db:"-"` // jsonb-колонка spell_slots, nil для не-заклинателей
}

// EnemyTemplate — шаблон врага/NPC с дефолтными боевыми параметрами.
type EnemyTemplate struct {
	ID         uuid.UUID `json:"id" db:"id"`
	WorldID    uuid.UUID `json:"world_id" db:"world_id"`
	Name       string    `json:"name" db:"name"`
	MaxHP      int       `json:"max_hp" db:"max_hp"`
	ArmorClass int       `json:"armor_class" db:"armor_class"`
}
