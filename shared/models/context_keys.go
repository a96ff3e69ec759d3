package models

// ContextKey — отдельный тип для ключей контекста, чтобы избежать коллизий.
type ContextKey string

const (
	// UserContextKey — ключ, под которым middleware кладет uuid.UUID пользователя.
	UserContextKey ContextKey = "userID"
	// NameContextKey — ключ отображаемого имени пользователя.
	NameContextKey ContextKey = "displayName"
	// RolesContextKey — ключ глобальных ролей пользователя ([]string).
	RolesContextKey ContextKey = "userRoles"
)
