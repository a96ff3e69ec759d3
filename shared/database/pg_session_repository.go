package database

import (
	"context"
	"errors"
	"fmt"

	"mythweaver-server/shared/interfaces"
	"mythweaver-server/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	gameSessionFields = `id, world_id, name, is_active, combat_active, current_turn_id, round, location, started_at, ended_at, updated_at`

	insertGameSessionQuery = `
        INSERT INTO game_sessions
            (id, world_id, name, is_active, combat_active, current_turn_id, round, location, started_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
    `
	getGameSessionByIDQuery = `
        SELECT ` + gameSessionFields + `
        FROM game_sessions
        WHERE id = $1
    `
	updateGameSessionQuery = `
        UPDATE game_sessions SET
            name = $2,
            is_active = $3,
            combat_active = $4,
            current_turn_id = $5,
            round = $6,
            location = $7,
            ended_at = $8,
            updated_at = NOW()
            -- world_id and started_at never change
        WHERE id = $1
    `
	deactivateSessionsForWorldQuery = `
        UPDATE game_sessions SET
            is_active = FALSE,
            ended_at = NOW(),
            updated_at = NOW()
        WHERE world_id = $1 AND is_active
    `
)

// Compile-time check to ensure pgSessionRepository implements SessionRepository
var _ interfaces.SessionRepository = (*pgSessionRepository)(nil)

type pgSessionRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgSessionRepository создает новый экземпляр репозитория сессий.
func NewPgSessionRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.SessionRepository {
	return &pgSessionRepository{
		db:     db,
		logger: logger.Named("PgSessionRepo"),
	}
}

func (r *pgSessionRepository) Create(ctx context.Context, s *models.GameSession) error {
	_, err := r.db.Exec(ctx, insertGameSessionQuery,
		s.ID, s.WorldID, s.Name, s.IsActive, s.CombatActive, s.CurrentTurnID, s.Round, s.Location,
	)
	if err != nil {
		r.logger.Error("Failed to insert game session", zap.Error(err), zap.String("sessionID", s.ID.String()))
		return fmt.Errorf("insert game session: %w", err)
	}
	r.logger.Debug("Game session created", zap.String("sessionID", s.ID.String()), zap.String("worldID", s.WorldID.String()))
	return nil
}

func (r *pgSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GameSession, error) {
	var s models.GameSession
	err := pgxscan.Get(ctx, r.db, &s, getGameSessionByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSessionNotFound
		}
		r.logger.Error("Failed to get game session", zap.Error(err), zap.String("sessionID", id.String()))
		return nil, fmt.Errorf("get game session: %w", err)
	}
	return &s, nil
}

func (r *pgSessionRepository) Update(ctx context.Context, s *models.GameSession) error {
	tag, err := r.db.Exec(ctx, updateGameSessionQuery,
		s.ID, s.Name, s.IsActive, s.CombatActive, s.CurrentTurnID, s.Round, s.Location, s.EndedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update game session", zap.Error(err), zap.String("sessionID", s.ID.String()))
		return fmt.Errorf("update game session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

func (r *pgSessionRepository) DeactivateForWorld(ctx context.Context, worldID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, deactivateSessionsForWorldQuery, worldID)
	if err != nil {
		r.logger.Error("Failed to deactivate world sessions", zap.Error(err), zap.String("worldID", worldID.String()))
		return fmt.Errorf("deactivate world sessions: %w", err)
	}
	if tag.RowsAffected() > 0 {
		r.logger.Info("Deactivated previous active sessions", zap.String("worldID", worldID.String()), zap.Int64("count", tag.RowsAffected()))
	}
	return nil
}
