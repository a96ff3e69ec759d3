package database

import (
	"context"
	"fmt"

	"mythweaver-server/shared/interfaces"
	"mythweaver-server/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	insertDiceRollQuery = `
        INSERT INTO dice_rolls
            (id, session_id, roller_id, roller_name, notation, rolls, modifier, total, created_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
    `
	listRecentDiceRollsQuery = `
        SELECT id, session_id, roller_id, roller_name, notation, rolls, modifier, total, created_at
        FROM (
            SELECT id, session_id, roller_id, roller_name, notation, rolls, modifier, total, created_at
            FROM dice_rolls
            WHERE session_id = $1
            ORDER BY created_at DESC
            LIMIT $2
        ) recent
        ORDER BY created_at ASC
    `
)

// Compile-time check to ensure pgDiceRollRepository implements DiceRollRepository
var _ interfaces.DiceRollRepository = (*pgDiceRollRepository)(nil)

type pgDiceRollRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgDiceRollRepository создает новый экземпляр репозитория бросков.
func NewPgDiceRollRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.DiceRollRepository {
	return &pgDiceRollRepository{
		db:     db,
		logger: logger.Named("PgDiceRollRepo"),
	}
}

func (r *pgDiceRollRepository) Append(ctx context.Context, roll *models.DiceRoll) error {
	_, err := r.db.Exec(ctx, insertDiceRollQuery,
		roll.ID, roll.SessionID, roll.RollerID, roll.RollerName, roll.Notation, roll.Rolls, roll.Modifier, roll.Total,
	)
	if err != nil {
		r.logger.Error("Failed to append dice roll", zap.Error(err), zap.String("sessionID", roll.SessionID.String()))
		return fmt.Errorf("append dice roll: %w", err)
	}
	return nil
}

func (r *pgDiceRollRepository) ListRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.DiceRoll, error) {
	rolls := make([]models.DiceRoll, 0)
	err := pgxscan.Select(ctx, r.db, &rolls, listRecentDiceRollsQuery, sessionID, limit)
	if err != nil {
		r.logger.Error("Failed to list dice rolls", zap.Error(err), zap.String("sessionID", sessionID.String()))
		return nil, fmt.Errorf("list dice rolls: %w", err)
	}
	return rolls, nil
}
