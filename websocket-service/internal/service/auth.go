package service

import (
	"context"
	"fmt"

	"mythweaver-server/shared/authutils"
	"mythweaver-server/shared/interfaces"
	"mythweaver-server/shared/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ChannelAuthorizer решает, можно ли пользователю подписаться на канал
// сессии. Подписка требует валидного токена, активной сессии и членства
// в мире сессии (ГМ или игрок). Любая ошибка проверки закрывает доступ.
type ChannelAuthorizer struct {
	verifier    *authutils.JWTVerifier
	sessions    interfaces.SessionRepository
	memberships interfaces.WorldMembershipRepository
	logger      zerolog.Logger
}

// NewChannelAuthorizer создает новый экземпляр ChannelAuthorizer.
func NewChannelAuthorizer(
	verifier *authutils.JWTVerifier,
	sessions interfaces.SessionRepository,
	memberships interfaces.WorldMembershipRepository,
	logger zerolog.Logger,
) *ChannelAuthorizer {
	return &ChannelAuthorizer{
		verifier:    verifier,
		sessions:    sessions,
		memberships: memberships,
		logger:      logger.With().Str("component", "ChannelAuthorizer").Logger(),
	}
}

// Authorize проверяет токен и право подписки на канал сессии.
// Возвращает claims токена при успехе.
func (a *ChannelAuthorizer) Authorize(ctx context.Context, tokenString string, sessionID uuid.UUID) (*models.Claims, error) {
	claims, err := a.verifier.VerifyToken(ctx, tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}

	session, err := a.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, models.ErrSessionNotActive
	}

	role, err := a.memberships.GetRole(ctx, session.WorldID, claims.UserID)
	if err != nil {
		return nil, err
	}

	a.logger.Debug().
		Str("userID", claims.UserID.String()).
		Str("sessionID", sessionID.String()).
		Str("role", string(role)).
		Msg("Channel subscription authorized")
	return claims, nil
}
