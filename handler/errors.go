package handler

import (
	"errors"
	"net/http"

	"github.com/AnTengye/docsign/middleware"
	"github.com/AnTengye/docsign/pkg/logger"
	"github.com/AnTengye/docsign/repository"
	"github.com/AnTengye/docsign/signing"
	"github.com/gin-gonic/gin"
)

const (
	kindInvalidRequest = "InvalidRequest"
	kindNotFound       = "NotFound"
	kindConflict       = "Conflict"
	kindInternal       = "Internal"
)

// statusForKind maps generation failures onto HTTP status codes.
func statusForKind(kind signing.Kind) int {
	switch kind {
	case signing.KindEmptyContent:
		return http.StatusBadRequest
	case signing.KindTemplateNotFound:
		return http.StatusNotFound
	case signing.KindMissingSignatureField:
		return http.StatusUnprocessableEntity
	case signing.KindRenderFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a structured error body.
func respondError(c *gin.Context, err error) {
	var perr *signing.Error
	switch {
	case errors.As(err, &perr):
		middleware.AbortWithError(c, statusForKind(perr.Kind), middleware.ErrorDetail{
			Kind:         string(perr.Kind),
			Message:      perr.Message,
			MissingRoles: perr.MissingRoles,
		})
	case errors.Is(err, repository.ErrNotFound):
		middleware.Abort(c, http.StatusNotFound, kindNotFound, "Not found")
	case errors.Is(err, repository.ErrTemplateInUse):
		middleware.Abort(c, http.StatusConflict, kindConflict, err.Error())
	default:
		logger.Error(c.Request.Context(), "request failed", "error", err)
		middleware.Abort(c, http.StatusInternalServerError, kindInternal, "Internal server error")
	}
}

func badRequest(c *gin.Context, message string) {
	middleware.Abort(c, http.StatusBadRequest, kindInvalidRequest, message)
}

func notFound(c *gin.Context, message string) {
	middleware.Abort(c, http.StatusNotFound, kindNotFound, message)
}
