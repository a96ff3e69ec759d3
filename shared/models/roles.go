package models

// WorldRole — роль пользователя внутри конкретного мира.
// Совпадает с типом ENUM 'world_role' в БД.
type WorldRole string

const (
	WorldRoleGameMaster WorldRole = "gm"
	WorldRolePlayer     WorldRole = "player"
)

// Глобальные роли приложения (клеймы JWT).
const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
)

// HasRole проверяет, есть ли у пользователя указанная глобальная роль.
func HasRole(userRoles []string, targetRole string) bool {
	for _, role := range userRoles {
		if role == targetRole {
			return true
		}
	}
	return false
}
