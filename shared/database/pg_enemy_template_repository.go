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

const getEnemyTemplateQuery = `
    SELECT id, world_id, name, max_hp, armor_class
    FROM enemy_templates
    WHERE id = $1
`

// Compile-time check to ensure pgEnemyTemplateRepository implements EnemyTemplateRepository
var _ interfaces.EnemyTemplateRepository = (*pgEnemyTemplateRepository)(nil)

type pgEnemyTemplateRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgEnemyTemplateRepository создает новый экземпляр репозитория шаблонов врагов.
func NewPgEnemyTemplateRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.EnemyTemplateRepository {
	return &pgEnemyTemplateRepository{
		db:     db,
		logger: logger.Named("PgEnemyTemplateRepo"),
	}
}

func (r *pgEnemyTemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EnemyTemplate, error) {
	var tmpl models.EnemyTemplate
	err := pgxscan.Get(ctx, r.db, &tmpl, getEnemyTemplateQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrTemplateNotFound
		}
		r.logger.Error("Failed to get enemy template", zap.Error(err), zap.String("templateID", id.String()))
		return nil, fmt.Errorf("get enemy template: %w", err)
	}
	return &tmpl, nil
}
