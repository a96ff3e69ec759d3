package database

import (
	"context"
	"errors"
	"fmt"

	"mythweaver-server/shared/interfaces"
	"mythweaver-server/shared/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const getWorldRoleQuery = `
    SELECT role
    FROM world_members
    WHERE world_id = $1 AND user_id = $2
`

// Compile-time check to ensure pgWorldMembershipRepository implements WorldMembershipRepository
var _ interfaces.WorldMembershipRepository = (*pgWorldMembershipRepository)(nil)

type pgWorldMembershipRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgWorldMembershipRepository создает новый экземпляр репозитория участников мира.
func NewPgWorldMembershipRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.WorldMembershipRepository {
	return &pgWorldMembershipRepository{
		db:     db,
		logger: logger.Named("PgWorldMembershipRepo"),
	}
}

func (r *pgWorldMembershipRepository) GetRole(ctx context.Context, worldID, userID uuid.UUID) (models.WorldRole, error) {
	var role models.WorldRole
	err := r.db.QueryRow(ctx, getWorldRoleQuery, worldID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrForbidden
		}
		r.logger.Error("Failed to get world role", zap.Error(err),
			zap.String("worldID", worldID.String()), zap.String("userID", userID.String()))
		return "", fmt.Errorf("get world role: %w", err)
	}
	return role, nil
}
