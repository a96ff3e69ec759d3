package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound          = errors.New("resource not found") // General not found
	ErrSessionNotFound   = errors.New("session not found")
	ErrCombatantNotFound = errors.New("combatant not found")
	ErrCharacterNotFound = errors.New("character not found")
	ErrTemplateNotFound  = errors.New("enemy template not found")
	ErrWorldNotFound     = errors.New("world not found")

	// Authentication / Authorization Errors
	ErrUnauthorized = errors.New("unauthorized") // Authentication required or failed
	ErrForbidden    = errors.New("forbidden")    // Authenticated, but lacks permission

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// Precondition / Validation Errors (terminal, but expected and user-recoverable)
	ErrSessionNotActive    = errors.New("session not active")
	ErrCombatNotActive     = errors.New("combat is not active")
	ErrCombatAlreadyActive = errors.New("combat is already active")
	ErrNoCombatants        = errors.New("no active combatants in session")
	ErrCategoryUsed        = errors.New("category already used this turn")
	ErrInvalidDiceNotation = errors.New("invalid dice notation")
	ErrNotParticipant      = errors.New("user is not a participant of this session")

	// Concurrency Errors
	// Возвращается при несовпадении версии комбатанта; конфликт можно повторить.
	ErrVersionConflict = errors.New("combatant was modified concurrently, retry with fresh state")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
)
