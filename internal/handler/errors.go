package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-timer/internal/response"
	"github.com/stemsi/exstem-timer/internal/service"
)

// failFromError maps service errors onto the response envelope.
func failFromError(c *gin.Context, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrTestNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrTestNotFound)
	case errors.Is(err, service.ErrTestNotActive):
		response.Fail(c, http.StatusConflict, response.ErrTestNotActive)
	case errors.Is(err, service.ErrQuestionOutOfRange):
		response.Fail(c, http.StatusNotFound, response.ErrQuestionOutOfRange)
	case errors.Is(err, service.ErrInvalidDuration):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidDuration,
			map[string]string{"detail": err.Error()})
	case errors.Is(err, service.ErrInvalidMode):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"detail": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
