package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"mythweaver-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenVerifier определяет функцию, которая проверяет строку токена и возвращает claims.
// Ошибки могут быть models.ErrTokenInvalid, models.ErrTokenExpired, models.ErrTokenMalformed и т.д.
type TokenVerifier func(ctx context.Context, tokenString string) (*models.Claims, error)

// GinAuthMiddleware создает Gin middleware для проверки JWT.
// Извлекает токен из заголовка Authorization, верифицирует его и кладет
// UserID/имя/роли в контекст запроса. Fail closed: без валидного токена
// ни один обработчик не выполняется.
func GinAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.With(zap.String("path", c.Request.URL.Path))

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: "Unauthorized: Missing token"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Malformed Authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: "Unauthorized: Malformed token header"})
			return
		}
		tokenString := parts[1]

		claims, err := verifier(c.Request.Context(), tokenString)
		if err != nil {
			status := http.StatusUnauthorized
			msg := "Unauthorized: Invalid token"
			if errors.Is(err, models.ErrTokenExpired) {
				msg = "Unauthorized: Token expired"
			} else if !errors.Is(err, models.ErrTokenMalformed) && !errors.Is(err, models.ErrTokenInvalid) {
				// Для неожиданных ошибок верификации
				log.Error("Unexpected token verification error", zap.Error(err))
				status = http.StatusInternalServerError
				msg = "Internal server error during token verification"
			}
			c.AbortWithStatusJSON(status, models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: msg})
			return
		}

		// Сохраняем информацию о пользователе в контексте Gin
		c.Set(string(models.UserContextKey), claims.UserID)
		c.Set(string(models.NameContextKey), claims.DisplayName)
		c.Set(string(models.RolesContextKey), claims.Roles)

		c.Next()
	}
}

// UserIDFromContext извлекает uuid.UUID пользователя, положенный middleware.
// Второе значение false, если запрос не прошел аутентификацию.
func UserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(string(models.UserContextKey))
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// DisplayNameFromContext извлекает отображаемое имя пользователя.
func DisplayNameFromContext(c *gin.Context) string {
	v, ok := c.Get(string(models.NameContextKey))
	if !ok {
		return ""
	}
	name, _ := v.(string)
	return name
}
