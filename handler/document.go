package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/AnTengye/docsign/middleware"
	"github.com/AnTengye/docsign/model"
	"github.com/AnTengye/docsign/pkg/logger"
	"github.com/AnTengye/docsign/repository"
	"github.com/AnTengye/docsign/service"
	"github.com/AnTengye/docsign/service/statemachine"
	"github.com/AnTengye/docsign/signing"
	"github.com/gin-gonic/gin"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	maxIdempotencyKeyLen = 128
)

// DocumentGenerator runs one generation request.
type DocumentGenerator interface {
	Generate(ctx context.Context, req service.GenerateRequest) (*service.GenerateResult, error)
}

type DocumentHandler struct {
	generator DocumentGenerator
	documents repository.DocumentRepository
	storage   service.ObjectStorage
	states    *statemachine.DocumentStateMachine
}

func NewDocumentHandler(generator DocumentGenerator, documents repository.DocumentRepository, storage service.ObjectStorage) *DocumentHandler {
	return &DocumentHandler{
		generator: generator,
		documents: documents,
		storage:   storage,
		states:    statemachine.NewDocumentStateMachine(),
	}
}

// GenerateDocumentRequest is the body of POST /api/documents/generate.
// Packet fields sit at the top level.
type GenerateDocumentRequest struct {
	TemplateID      uint                 `json:"template_id"`
	TemplateKey     string               `json:"template_key"`
	Title           string               `json:"title"`
	Content         string               `json:"content"`
	ExecutiveID     string               `json:"executive_id"`
	SignerMetadata  model.SignerMetadata `json:"signer_metadata"`
	RequiredSigners []string             `json:"required_signers"`
	SignerRoles     map[string]bool      `json:"signer_roles"`
	signing.PacketInfo
}

type DocumentResponse struct {
	Document             *model.GeneratedDocument   `json:"document"`
	FileURL              string                     `json:"file_url,omitempty"`
	SignatureFieldLayout []model.RenderedFieldEntry `json:"signature_field_layout"`
	Replayed             bool                       `json:"replayed,omitempty"`
	// AllowedTransitions lists the lifecycle states external events may move the document to.
	AllowedTransitions []statemachine.DocumentStatus `json:"allowed_transitions,omitempty"`
}

// Generate renders, places signature fields and stores a new document
func (h *DocumentHandler) Generate(c *gin.Context) {
	var req GenerateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLen {
		badRequest(c, "Idempotency-Key is too long")
		return
	}

	result, err := h.generator.Generate(c.Request.Context(), service.GenerateRequest{
		Tenant:          middleware.GetTenant(c),
		TemplateID:      req.TemplateID,
		TemplateKey:     req.TemplateKey,
		Title:           req.Title,
		Content:         req.Content,
		ExecutiveID:     req.ExecutiveID,
		SignerMetadata:  req.SignerMetadata,
		Packet:          req.PacketInfo,
		RequiredSigners: req.RequiredSigners,
		SignerRoles:     req.SignerRoles,
		IdempotencyKey:  key,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
		c.Header("Idempotent-Replayed", "true")
	}
	c.JSON(status, DocumentResponse{
		Document:             result.Document,
		FileURL:              result.FileURL,
		SignatureFieldLayout: layoutOf(result.Document),
		Replayed:             result.Replayed,
	})
}

// Get returns a document of the current tenant
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, ok := h.load(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, DocumentResponse{
		Document:             doc,
		FileURL:              h.presign(c.Request.Context(), doc),
		SignatureFieldLayout: layoutOf(doc),
		AllowedTransitions:   h.states.Allowed(statemachine.DocumentStatus(doc.Status)),
	})
}

// File streams the stored PDF
func (h *DocumentHandler) File(c *gin.Context) {
	doc, ok := h.load(c)
	if !ok {
		return
	}

	data, err := h.storage.DownloadFile(c.Request.Context(), doc.FileObject)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+doc.ID+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// ListPacket returns the tenant's documents of one packet in signing order
func (h *DocumentHandler) ListPacket(c *gin.Context) {
	packetID := strings.TrimSpace(c.Param("packet_id"))
	if packetID == "" {
		badRequest(c, "packet_id is required")
		return
	}

	docs, err := h.documents.ListByPacket(c.Request.Context(), middleware.GetTenant(c), packetID)
	if err != nil {
		respondError(c, err)
		return
	}

	result := make([]gin.H, len(docs))
	for i := range docs {
		d := &docs[i]
		result[i] = gin.H{
			"id":                     d.ID,
			"title":                  d.Title,
			"template_key":           d.TemplateKey,
			"status":                 d.Status,
			"signature_status":       d.SignatureStatus,
			"signing_stage":          d.SigningStage,
			"signing_order":          d.SigningOrder,
			"depends_on_document_id": d.DependsOnDocumentID,
			"required_signers":       d.RequiredSigners.Data(),
			"signer_roles":           d.SignerRoles.Data(),
			"created_at":             d.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{"packet_id": packetID, "documents": result})
}

// load fetches the :id document, hiding other tenants' documents.
func (h *DocumentHandler) load(c *gin.Context) (*model.GeneratedDocument, bool) {
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) || (err == nil && doc.Tenant != middleware.GetTenant(c)) {
		notFound(c, "Document not found")
		return nil, false
	}
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	c.Request = c.Request.WithContext(logger.With(c.Request.Context(), logger.DocumentIDKey, doc.ID))
	return doc, true
}

func (h *DocumentHandler) presign(ctx context.Context, doc *model.GeneratedDocument) string {
	url, err := h.storage.GetPresignedURL(ctx, doc.FileObject)
	if err != nil {
		logger.Warn(ctx, "failed to presign document URL", "error", err)
		return ""
	}
	return url
}

func layoutOf(doc *model.GeneratedDocument) []model.RenderedFieldEntry {
	layout := doc.Layout()
	if layout == nil {
		return []model.RenderedFieldEntry{}
	}
	return layout
}
