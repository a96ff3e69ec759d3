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
	participantFields = `id, session_id, user_id, character_id, name, is_online, joined_at, left_at`

	insertParticipantQuery = `
        INSERT INTO session_participants
            (id, session_id, user_id, character_id, name, is_online, joined_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, NOW())
    `
	getParticipantBySessionAndUserQuery = `
        SELECT ` + participantFields + `
        FROM session_participants
        WHERE session_id = $1 AND user_id = $2
    `
	updateParticipantQuery = `
        UPDATE session_participants SET
            character_id = $2,
            name = $3,
            is_online = $4,
            left_at = $5
        WHERE id = $1
    `
	listParticipantsBySessionQuery = `
        SELECT ` + participantFields + `
        FROM session_participants
        WHERE session_id = $1 AND ($2 = FALSE OR is_online)
        ORDER BY joined_at ASC
    `
)

// Compile-time check to ensure pgParticipantRepository implements ParticipantRepository
var _ interfaces.ParticipantRepository = (*pgParticipantRepository)(nil)

type pgParticipantRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgParticipantRepository создает новый экземпляр репозитория участников.
func NewPgParticipantRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ParticipantRepository {
	return &pgParticipantRepository{
		db:     db,
		logger: logger.Named("PgParticipantRepo"),
	}
}

func (r *pgParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	_, err := r.db.Exec(ctx, insertParticipantQuery,
		p.ID, p.SessionID, p.UserID, p.CharacterID, p.Name, p.IsOnline,
	)
	if err != nil {
		r.logger.Error("Failed to insert participant", zap.Error(err), zap.String("userID", p.UserID.String()))
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (r *pgParticipantRepository) GetBySessionAndUser(ctx context.Context, sessionID, userID uuid.UUID) (*models.Participant, error) {
	var p models.Participant
	err := pgxscan.Get(ctx, r.db, &p, getParticipantBySessionAndUserQuery, sessionID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get participant", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return &p, nil
}

func (r *pgParticipantRepository) Update(ctx context.Context, p *models.Participant) error {
	tag, err := r.db.Exec(ctx, updateParticipantQuery,
		p.ID, p.CharacterID, p.Name, p.IsOnline, p.LeftAt,
	)
	if err != nil {
		r.logger.Error("Failed to update participant", zap.Error(err), zap.String("participantID", p.ID.String()))
		return fmt.Errorf("update participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgParticipantRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, onlineOnly bool) ([]models.Participant, error) {
	participants := make([]models.Participant, 0)
	err := pgxscan.Select(ctx, r.db, &participants, listParticipantsBySessionQuery, sessionID, onlineOnly)
	if err != nil {
		r.logger.Error("Failed to list participants", zap.Error(err), zap.String("sessionID", sessionID.String()))
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return participants, nil
}
