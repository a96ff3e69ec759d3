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
	combatantFields = `id, session_id, source_kind, character_id, enemy_template_id, name, current_hp, max_hp, armor_class, initiative, statuses, is_active, show_hp, economy, version, created_at, updated_at`

	insertCombatantQuery = `
        INSERT INTO combatants
            (id, session_id, source_kind, character_id, enemy_template_id, name, current_hp, max_hp, armor_class, initiative, statuses, is_active, show_hp, economy, version, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1, NOW(), NOW())
    `
	getCombatantByIDQuery = `
        SELECT ` + combatantFields + `
        FROM combatants
        WHERE id = $1
    `
	listCombatantsBySessionQuery = `
        SELECT ` + combatantFields + `
        FROM combatants
        WHERE session_id = $1 AND ($2 = FALSE OR is_active)
        ORDER BY initiative DESC, created_at ASC
    `
	// Оптимистичная блокировка: строка пишется только если версия не изменилась.
	updateCombatantQuery = `
        UPDATE combatants SET
            name = $3,
            current_hp = $4,
            max_hp = $5,
            armor_class = $6,
            initiative = $7,
            statuses = $8,
            is_active = $9,
            show_hp = $10,
            economy = $11,
            version = version + 1,
            updated_at = NOW()
        WHERE id = $1 AND version = $2
    `
	combatantExistsQuery = `SELECT EXISTS (SELECT 1 FROM combatants WHERE id = $1)`

	deactivateCombatantsBySessionQuery = `
        UPDATE combatants SET
            is_active = FALSE,
            version = version + 1,
            updated_at = NOW()
        WHERE session_id = $1 AND is_active
    `
)

// Compile-time check to ensure pgCombatantRepository implements CombatantRepository
var _ interfaces.CombatantRepository = (*pgCombatantRepository)(nil)

type pgCombatantRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgCombatantRepository создает новый экземпляр репозитория комбатантов.
func NewPgCombatantRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.CombatantRepository {
	return &pgCombatantRepository{
		db:     db,
		logger: logger.Named("PgCombatantRepo"),
	}
}

// sourceColumns раскладывает тегированный источник в пару nullable-колонок.
func sourceColumns(src models.CombatantSource) (characterID, templateID *uuid.UUID) {
	switch src.Kind {
	case models.SourceCharacter:
		id := src.RefID
		return &id, nil
	case models.SourceTemplate:
		id := src.RefID
		return nil, &id
	}
	return nil, nil
}

func sourceFromColumns(kind models.SourceKind, characterID, templateID *uuid.UUID) models.CombatantSource {
	src := models.CombatantSource{Kind: kind}
	switch kind {
	case models.SourceCharacter:
		if characterID != nil {
			src.RefID = *characterID
		}
	case models.SourceTemplate:
		if templateID != nil {
			src.RefID = *templateID
		}
	}
	return src
}

func (r *pgCombatantRepository) Create(ctx context.Context, c *models.Combatant) error {
	characterID, templateID := sourceColumns(c.Source)
	economyJSON, err := json.Marshal(c.Economy)
	if err != nil {
		return fmt.Errorf("marshal economy: %w", err)
	}

	statuses := c.Statuses
	if statuses == nil {
		statuses = []string{}
	}

	_, err = r.db.Exec(ctx, insertCombatantQuery,
		c.ID, c.SessionID, c.Source.Kind, characterID, templateID,
		c.Name, c.CurrentHP, c.MaxHP, c.ArmorClass, c.Initiative,
		statuses, c.IsActive, c.ShowHP, economyJSON,
	)
	if err != nil {
		r.logger.Error("Failed to insert combatant", zap.Error(err), zap.String("combatantID", c.ID.String()))
		return fmt.Errorf("insert combatant: %w", err)
	}
	c.Version = 1
	return nil
}

func (r *pgCombatantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Combatant, error) {
	row := r.db.QueryRow(ctx, getCombatantByIDQuery, id)
	c, err := scanCombatant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrCombatantNotFound
		}
		r.logger.Error("Failed to get combatant", zap.Error(err), zap.String("combatantID", id.String()))
		return nil, fmt.Errorf("get combatant: %w", err)
	}
	return c, nil
}

func (r *pgCombatantRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, activeOnly bool) ([]models.Combatant, error) {
	rows, err := r.db.Query(ctx, listCombatantsBySessionQuery, sessionID, activeOnly)
	if err != nil {
		r.logger.Error("Failed to list combatants", zap.Error(err), zap.String("sessionID", sessionID.String()))
		return nil, fmt.Errorf("list combatants: %w", err)
	}
	defer rows.Close()

	combatants := make([]models.Combatant, 0)
	for rows.Next() {
		c, err := scanCombatant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan combatant: %w", err)
		}
		combatants = append(combatants, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate combatants: %w", err)
	}
	return combatants, nil
}

func (r *pgCombatantRepository) Update(ctx context.Context, c *models.Combatant) error {
	economyJSON, err := json.Marshal(c.Economy)
	if err != nil {
		return fmt.Errorf("marshal economy: %w", err)
	}

	statuses := c.Statuses
	if statuses == nil {
		statuses = []string{}
	}

	tag, err := r.db.Exec(ctx, updateCombatantQuery,
		c.ID, c.Version,
		c.Name, c.CurrentHP, c.MaxHP, c.ArmorClass, c.Initiative,
		statuses, c.IsActive, c.ShowHP, economyJSON,
	)
	if err != nil {
		r.logger.Error("Failed to update combatant", zap.Error(err), zap.String("combatantID", c.ID.String()))
		return fmt.Errorf("update combatant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Либо строки нет, либо версия устарела — различаем для вызывающего.
		var exists bool
		if err := r.db.QueryRow(ctx, combatantExistsQuery, c.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check combatant existence: %w", err)
		}
		if !exists {
			return models.ErrCombatantNotFound
		}
		r.logger.Warn("Combatant version conflict",
			zap.String("combatantID", c.ID.String()),
			zap.Int("staleVersion", c.Version),
		)
		return models.ErrVersionConflict
	}

	c.Version++
	return nil
}

func (r *pgCombatantRepository) DeactivateBySession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.db.Exec(ctx, deactivateCombatantsBySessionQuery, sessionID)
	if err != nil {
		r.logger.Error("Failed to deactivate combatants", zap.Error(err), zap.String("sessionID", sessionID.String()))
		return fmt.Errorf("deactivate combatants: %w", err)
	}
	return nil
}

// scanCombatant читает одну строку комбатанта, восстанавливая
// тегированный источник и экономику из колонок.
func scanCombatant(row pgx.Row) (*models.Combatant, error) {
	var (
		c           models.Combatant
		kind        models.SourceKind
		characterID *uuid.UUID
		templateID  *uuid.UUID
		economyJSON []byte
	)

	err := row.Scan(
		&c.ID, &c.SessionID, &kind, &characterID, &templateID,
		&c.Name, &c.CurrentHP, &c.MaxHP, &c.ArmorClass, &c.Initiative,
		&c.Statuses, &c.IsActive, &c.ShowHP, &economyJSON, &c.Version,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Source = sourceFromColumns(kind, characterID, templateID)
	if len(economyJSON) > 0 {
		if err := json.Unmarshal(economyJSON, &c.Economy); err != nil {
			return nil, fmt.Errorf("unmarshal economy: %w", err)
		}
	}
	return &c, nil
}
