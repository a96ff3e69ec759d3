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
	insertChatMessageQuery = `
        INSERT INTO chat_messages
            (id, session_id, author_id, author_name, body, is_system, created_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, NOW())
    `
	// Берем последние limit сообщений и возвращаем их в хронологическом порядке.
	listRecentChatMessagesQuery = `
        SELECT id, session_id, author_id, author_name, body, is_system, created_at
        FROM (
            SELECT id, session_id, author_id, author_name, body, is_system, created_at
            FROM chat_messages
            WHERE session_id = $1
            ORDER BY created_at DESC
            LIMIT $2
        ) recent
        ORDER BY created_at ASC
    `
)

// Compile-time check to ensure pgChatMessageRepository implements ChatMessageRepository
var _ interfaces.ChatMessageRepository = (*pgChatMessageRepository)(nil)

type pgChatMessageRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgChatMessageRepository создает новый экземпляр репозитория чата.
func NewPgChatMessageRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ChatMessageRepository {
	return &pgChatMessageRepository{
		db:     db,
		logger: logger.Named("PgChatMessageRepo"),
	}
}

func (r *pgChatMessageRepository) Append(ctx context.Context, msg *models.ChatMessage) error {
	_, err := r.db.Exec(ctx, insertChatMessageQuery,
		msg.ID, msg.SessionID, msg.AuthorID, msg.AuthorName, msg.Body, msg.IsSystem,
	)
	if err != nil {
		r.logger.Error("Failed to append chat message", zap.Error(err), zap.String("sessionID", msg.SessionID.String()))
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

func (r *pgChatMessageRepository) ListRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	messages := make([]models.ChatMessage, 0)
	err := pgxscan.Select(ctx, r.db, &messages, listRecentChatMessagesQuery, sessionID, limit)
	if err != nil {
		r.logger.Error("Failed to list chat messages", zap.Error(err), zap.String("sessionID", sessionID.String()))
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return messages, nil
}
