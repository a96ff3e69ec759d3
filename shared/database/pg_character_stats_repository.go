package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mythweaver-server/shared/interfaces"
	"mythweaver-server/shared/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	getCharacterStatsQuery = `
        SELECT id, owner_id, name, current_hp, max_hp, armor_class, spell_slots
        FROM characters
        WHERE id = $1
    `
	saveCharacterStatsQuery = `
        UPDATE characters
        SET current_hp = $2, spell_slots = $3, updated_at = NOW()
        WHERE id = $1
    `
)

// Compile-time check to ensure pgCharacterStatsRepository implements CharacterStatsRepository
var _ interfaces.CharacterStatsRepository = (*pgCharacterStatsRepository)(nil)

type pgCharacterStatsRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgCharacterStatsRepository создает новый экземпляр репозитория характеристик персонажей.
func NewPgCharacterStatsRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.CharacterStatsRepository {
	return &pgCharacterStatsRepository{
		db:     db,
		logger: logger.Named("PgCharacterStatsRepo"),
	}
}

func (r *pgCharacterStatsRepository) GetStats(ctx context.Context, characterID uuid.UUID) (*models.CharacterStats, error) {
	var stats models.CharacterStats
	var slotsJSON []byte
	err := r.db.QueryRow(ctx, getCharacterStatsQuery, characterID).Scan(
		&stats.CharacterID, &stats.OwnerID, &stats.Name, &stats.CurrentHP, &stats.MaxHP, &stats.ArmorClass, &slotsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrCharacterNotFound
		}
		r.logger.Error("Failed to get character stats", zap.Error(err), zap.String("characterID", characterID.String()))
		return nil, fmt.Errorf("get character stats: %w", err)
	}
	if len(slotsJSON) > 0 {
		if err := json.Unmarshal(slotsJSON, &stats.SpellSlots); err != nil {
			return nil, fmt.Errorf("unmarshal spell slots: %w", err)
		}
	}
	return &stats, nil
}

func (r *pgCharacterStatsRepository) SaveStats(ctx context.Context, stats *models.CharacterStats) error {
	slotsJSON, err := json.Marshal(stats.SpellSlots)
	if err != nil {
		return fmt.Errorf("marshal spell slots: %w", err)
	}
	tag, err := r.db.Exec(ctx, saveCharacterStatsQuery, stats.CharacterID, stats.CurrentHP, slotsJSON)
	if err != nil {
		r.logger.Error("Failed to save character stats", zap.Error(err), zap.String("characterID", stats.CharacterID.String()))
		return fmt.Errorf("save character stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrCharacterNotFound
	}
	return nil
}
