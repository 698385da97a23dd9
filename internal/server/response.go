package server

import (
	"net/http"

	"github.com/careerpilot/backend/internal/repositories"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type apiError struct {
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func respondError(c *gin.Context, status int, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, errorEnvelope{Error: apiError{Message: msg}})
}

// respondRepositoryError maps repository sentinels onto HTTP statuses.
func respondRepositoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		respondError(c, http.StatusNotFound, err)
	case errors.Is(err, repositories.ErrBuiltInSource):
		respondError(c, http.StatusForbidden, err)
	case errors.Is(err, repositories.ErrValidation):
		respondError(c, http.StatusBadRequest, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}
