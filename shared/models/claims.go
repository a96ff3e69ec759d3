package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims представляет стандартные поля JWT и пользовательские данные,
// которые мы включаем в токен. Сервис авторизации (внешний по отношению
// к ядру сессии) выпускает эти токены; мы их только верифицируем.
type Claims struct {
	UserID               uuid.UUID `json:"user_id"`
	DisplayName          string    `json:"display_name"`
	Roles                []string  `json:"roles"`
	jwt.RegisteredClaims           // Встраиваем стандартные поля: Issuer, Subject, ExpiresAt, IssuedAt, ID (JTI)
}
