package handler

import (
	"errors"
	"net/http"

	"mythweaver-server/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: "Authentication required"}
	case errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeForbidden, Message: err.Error()}
	case errors.Is(err, models.ErrNotParticipant):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeForbidden, Message: "You are not in this session"}
	case errors.Is(err, models.ErrSessionNotFound),
		errors.Is(err, models.ErrCombatantNotFound),
		errors.Is(err, models.ErrCharacterNotFound),
		errors.Is(err, models.ErrTemplateNotFound),
		errors.Is(err, models.ErrWorldNotFound),
		errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: err.Error()}
	case errors.Is(err, models.ErrVersionConflict):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeConflict, Message: "Combatant was modified concurrently, refetch and retry"}
	case errors.Is(err, models.ErrCombatAlreadyActive):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeConflict, Message: "Combat is already active"}
	case errors.Is(err, models.ErrCategoryUsed):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeConflict, Message: "Category already used this turn"}
	case errors.Is(err, models.ErrSessionNotActive),
		errors.Is(err, models.ErrCombatNotActive),
		errors.Is(err, models.ErrNoCombatants),
		errors.Is(err, models.ErrInvalidDiceNotation),
		errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}
