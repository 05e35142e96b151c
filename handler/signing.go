package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/AnTengye/docsign/middleware"
	"github.com/AnTengye/docsign/model"
	"github.com/AnTengye/docsign/pkg/logger"
	"github.com/AnTengye/docsign/repository"
	"github.com/AnTengye/docsign/service"
	"github.com/gin-gonic/gin"
)

const kindTokenExpired = "TokenExpired"

// SigningHandler serves pending documents to the external signing UI.
// The token in the path is the only credential.
type SigningHandler struct {
	documents repository.DocumentRepository
	storage   service.ObjectStorage
	now       func() time.Time
}

func NewSigningHandler(documents repository.DocumentRepository, storage service.ObjectStorage) *SigningHandler {
	return &SigningHandler{
		documents: documents,
		storage:   storage,
		now:       time.Now,
	}
}

type SigningResponse struct {
	DocumentID           string                     `json:"document_id"`
	Title                string                     `json:"title"`
	Status               string                     `json:"status"`
	SignatureStatus      string                     `json:"signature_status"`
	ExpiresAt            time.Time                  `json:"expires_at"`
	OfficerName          string                     `json:"officer_name,omitempty"`
	RequiredSigners      []string                   `json:"required_signers"`
	SignerRoles          map[string]bool            `json:"signer_roles"`
	SignatureFieldLayout []model.RenderedFieldEntry `json:"signature_field_layout"`
	FileURL              string                     `json:"file_url,omitempty"`
}

// Lookup resolves a signing token to its pending document
func (h *SigningHandler) Lookup(c *gin.Context) {
	ctx := c.Request.Context()
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		notFound(c, "Signing link not found")
		return
	}

	doc, err := h.documents.FindBySignatureToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		notFound(c, "Signing link not found")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	ctx = logger.With(ctx, logger.DocumentIDKey, doc.ID)

	if doc.SignatureTokenExpiresAt == nil || !h.now().Before(*doc.SignatureTokenExpiresAt) {
		logger.Info(ctx, "expired signing token presented")
		middleware.Abort(c, http.StatusGone, kindTokenExpired, "Signing link has expired")
		return
	}
	if doc.SignatureStatus == nil || *doc.SignatureStatus != model.SignatureStatusPending {
		middleware.Abort(c, http.StatusGone, kindTokenExpired, "Document is no longer awaiting signature")
		return
	}

	url, err := h.storage.GetPresignedURL(ctx, doc.FileObject)
	if err != nil {
		logger.Warn(ctx, "failed to presign document URL", "error", err)
	}

	c.JSON(http.StatusOK, SigningResponse{
		DocumentID:           doc.ID,
		Title:                doc.Title,
		Status:               doc.Status,
		SignatureStatus:      *doc.SignatureStatus,
		ExpiresAt:            *doc.SignatureTokenExpiresAt,
		OfficerName:          doc.SignerMetadata.Data().OfficerName,
		RequiredSigners:      doc.RequiredSigners.Data(),
		SignerRoles:          doc.SignerRoles.Data(),
		SignatureFieldLayout: layoutOf(doc),
		FileURL:              url,
	})
}
