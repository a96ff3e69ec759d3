package interfaces

import (
	"context"

	"mythweaver-server/shared/models"

	"github.com/google/uuid"
)

// CharacterStatsRepository — узкий срез таблицы персонажей, который
// читает/пишет ядро сессии: текущие HP, AC и ячейки заклинаний.
// Остальная модель персонажа принадлежит CRUD-слою приложения.
type CharacterStatsRepository interface {
	// GetStats reads the combat stats snapshot of a character.
	// Returns models.ErrCharacterNotFound when absent.
	GetStats(ctx context.Context, characterID uuid.UUID) (*models.CharacterStats, error)

	// SaveStats writes back current HP and spell slot usage.
	SaveStats(ctx context.Context, stats *models.CharacterStats) error
}

// EnemyTemplateRepository — чтение шаблонов врагов/NPC.
type EnemyTemplateRepository interface {
	// GetByID reads a template's default combat values.
	// Returns models.ErrTemplateNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*models.EnemyTemplate, error)
}

// WorldMembershipRepository — проверка принадлежности пользователя миру.
// Это источник истины для авторизации всех операций оркестратора.
type WorldMembershipRepository interface {
	// GetRole returns the user's role in the world.
	// Returns models.ErrForbidden when the user is not a member.
	GetRole(ctx context.Context, worldID, userID uuid.UUID) (models.WorldRole, error)
}
