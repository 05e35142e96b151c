package service

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AnTengye/docsign/model"
	"github.com/AnTengye/docsign/pkg/logger"
	"github.com/AnTengye/docsign/pkg/pdfs"
	"github.com/AnTengye/docsign/repository"
	"github.com/AnTengye/docsign/service/statemachine"
	"github.com/AnTengye/docsign/signing"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const defaultMinContentLength = 20

// GenerateRequest is one document generation run.
type GenerateRequest struct {
	Tenant          string
	TemplateID      uint
	TemplateKey     string
	Title           string
	Content         string
	ExecutiveID     string
	SignerMetadata  model.SignerMetadata
	Packet          signing.PacketInfo
	RequiredSigners []string
	// SignerRoles seeds extra role keys; values are recomputed.
	SignerRoles    map[string]bool
	IdempotencyKey string
}

func (r *GenerateRequest) templateRef() string {
	if r.TemplateID > 0 {
		return strconv.FormatUint(uint64(r.TemplateID), 10)
	}
	return r.TemplateKey
}

// GenerateResult is the persisted record plus a retrievable file URL.
type GenerateResult struct {
	Document *model.GeneratedDocument
	FileURL  string
	// Replayed is set when an earlier run with the same idempotency key is returned.
	Replayed bool
}

// GeneratorDeps wires the generator to its collaborators.
type GeneratorDeps struct {
	Templates   repository.TemplateRepository
	Documents   repository.DocumentRepository
	Audits      repository.AuditRepository
	Renderer    Renderer
	Storage     ObjectStorage
	Idempotency IdempotencyStore
	Authority   *signing.Authority

	MinContentLength int
	TokenTTL         time.Duration
}

// Generator runs the synchronous generation pipeline: validate, render,
// place fields, issue a token, upload and persist.
type Generator struct {
	templates   repository.TemplateRepository
	documents   repository.DocumentRepository
	audits      repository.AuditRepository
	renderer    Renderer
	storage     ObjectStorage
	idempotency IdempotencyStore
	placer      *signing.Placer
	tokens      *signing.TokenIssuer
	states      *statemachine.DocumentStateMachine
	minContent  int

	now   func() time.Time
	newID func() string
}

func NewGenerator(deps GeneratorDeps) *Generator {
	minContent := deps.MinContentLength
	if minContent <= 0 {
		minContent = defaultMinContentLength
	}
	return &Generator{
		templates:   deps.Templates,
		documents:   deps.Documents,
		audits:      deps.Audits,
		renderer:    deps.Renderer,
		storage:     deps.Storage,
		idempotency: deps.Idempotency,
		placer:      &signing.Placer{Authority: deps.Authority},
		tokens:      signing.NewTokenIssuer(deps.TokenTTL),
		states:      statemachine.NewDocumentStateMachine(),
		minContent:  minContent,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Generate produces, stores and records one document. Nothing is persisted
// unless every step before the record write succeeds.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	ctx = logger.With(ctx, logger.PacketIDKey, strings.TrimSpace(req.Packet.PacketID))

	if res, ok := g.replay(ctx, req); ok {
		return res, nil
	}

	if n := utf8.RuneCountInString(strings.TrimSpace(req.Content)); n < g.minContent {
		return nil, signing.EmptyContent(n, g.minContent)
	}

	tpl, err := g.loadTemplate(ctx, req)
	if err != nil {
		return nil, err
	}

	required := signing.UniqueRoles(req.RequiredSigners)
	if required == nil {
		required = []string{}
	}
	if err := signing.CheckCoverage(tpl.Fields, required); err != nil {
		logger.Warn(ctx, "required signers not covered by template", "template", tpl.Key, "error", err)
		return nil, err
	}

	doc, err := g.render(ctx, req)
	if err != nil {
		return nil, err
	}

	layout, err := g.placer.Place(doc, tpl.Fields, required)
	if err != nil {
		return nil, signing.RenderFailure(0, "failed to place signature fields", err)
	}
	pageCount := doc.PageCount()
	pdfBytes, err := doc.Bytes()
	if err != nil {
		return nil, signing.RenderFailure(0, "failed to write document", err)
	}

	createdAt := g.now().UTC()
	record := &model.GeneratedDocument{
		ID:                   g.newID(),
		Tenant:               req.Tenant,
		Title:                req.Title,
		TemplateID:           tpl.ID,
		TemplateKey:          tpl.Key,
		ExecutiveID:          strings.TrimSpace(req.ExecutiveID),
		SignerMetadata:       datatypes.NewJSONType(req.SignerMetadata.WithDefaults()),
		PageCount:            pageCount,
		RequiredSigners:      datatypes.NewJSONType(required),
		SignerRoles:          datatypes.NewJSONType(signing.SignerRoles(required, req.SignerRoles, layout)),
		SignatureFieldLayout: datatypes.NewJSONType(layout),
		CreatedAt:            createdAt,
	}
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		record.IdempotencyKey = &key
	}
	req.Packet.Apply(record)
	ctx = logger.With(ctx, logger.DocumentIDKey, record.ID)

	token, err := g.tokens.Issue(required, layout, createdAt)
	if err != nil {
		return nil, signing.PersistenceFailure("failed to issue signing token", err)
	}
	if token != nil {
		pending := model.SignatureStatusPending
		expires := token.ExpiresAt
		record.SignatureToken = &token.Value
		record.SignatureTokenExpiresAt = &expires
		record.SignatureStatus = &pending
	}
	status, err := g.states.InitialStatus(token != nil, record.ID)
	if err != nil {
		return nil, signing.PersistenceFailure("invalid initial status", err)
	}
	record.Status = string(status)

	record.FileObject = DocumentObjectName(req.Tenant, record.ID)
	if err := g.storage.UploadFile(ctx, record.FileObject, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), pdfContentType); err != nil {
		logger.Error(ctx, "failed to upload document", "error", err)
		return nil, signing.PersistenceFailure("failed to store document", err)
	}

	if err := g.documents.Create(ctx, record); err != nil {
		if derr := g.storage.DeleteFile(ctx, record.FileObject); derr != nil {
			logger.Warn(ctx, "failed to remove orphaned document", "object", record.FileObject, "error", derr)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			// A concurrent request with the same key committed first.
			if res, ok := g.replay(ctx, req); ok {
				return res, nil
			}
		}
		logger.Error(ctx, "failed to persist document record", "error", err)
		return nil, signing.PersistenceFailure("failed to persist document", err)
	}

	g.writeAudit(ctx, record, layout)
	g.rememberKey(ctx, req, record.ID)

	logger.Info(ctx, "document generated",
		"template", tpl.Key,
		"status", record.Status,
		"pages", pageCount,
		"fields", len(layout),
		"token_issued", token != nil,
	)
	return &GenerateResult{Document: record, FileURL: g.fileURL(ctx, record)}, nil
}

func (g *Generator) loadTemplate(ctx context.Context, req GenerateRequest) (*model.Template, error) {
	var (
		tpl *model.Template
		err error
	)
	switch {
	case req.TemplateID > 0:
		tpl, err = g.templates.GetByID(ctx, req.TemplateID)
	case strings.TrimSpace(req.TemplateKey) != "":
		tpl, err = g.templates.GetByKey(ctx, strings.TrimSpace(req.TemplateKey))
	default:
		return nil, signing.TemplateNotFound("")
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, signing.TemplateNotFound(req.templateRef())
	}
	if err != nil {
		return nil, signing.PersistenceFailure("failed to load template", err)
	}
	return tpl, nil
}

// render calls the external renderer once and opens its output for drawing.
// An empty body counts as zero pages and yields one blank Letter page.
func (g *Generator) render(ctx context.Context, req GenerateRequest) (*pdfs.Document, error) {
	body, err := g.renderer.Render(ctx, NormalizeContent(req.Content, req.Title))
	if err != nil {
		logger.Error(ctx, "renderer failed", "error", err)
		if signing.KindOf(err) != "" {
			return nil, err
		}
		return nil, signing.RenderFailure(0, err.Error(), err)
	}

	doc, err := pdfs.Open(body)
	if err != nil {
		logger.Error(ctx, "renderer returned an unreadable document", "bytes", len(body), "error", err)
		return nil, signing.RenderFailure(0, "renderer returned an unreadable document", err)
	}
	logger.Debug(ctx, "content rendered", "pages", doc.PageCount(), "bytes", len(body))
	return doc, nil
}

// writeAudit records auto-applied authority signatures. The document record
// is already committed, so failures are logged and not returned.
func (g *Generator) writeAudit(ctx context.Context, record *model.GeneratedDocument, layout []model.RenderedFieldEntry) {
	authority := g.placer.Authority
	if authority == nil || g.audits == nil {
		return
	}
	var rows []model.AuthoritySignatureAudit
	for _, e := range layout {
		if !e.AutoFilled {
			continue
		}
		rows = append(rows, model.AuthoritySignatureAudit{
			DocumentID:  record.ID,
			FieldID:     e.ID,
			SignerName:  authority.TypedName,
			SignerTitle: authority.Title,
			ImageObject: authority.ImageObject,
			Provenance:  model.ProvenanceAutoSign,
			SignedAt:    record.CreatedAt,
		})
	}
	if err := g.audits.Create(ctx, rows); err != nil {
		logger.Warn(ctx, "failed to write authority signature audit", "rows", len(rows), "error", err)
	}
}

func (g *Generator) rememberKey(ctx context.Context, req GenerateRequest, documentID string) {
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" || g.idempotency == nil {
		return
	}
	if err := g.idempotency.Save(ctx, req.Tenant, key, documentID); err != nil {
		logger.Warn(ctx, "failed to save idempotency key", "error", err)
	}
}

// replay returns the document an earlier run stored under the same key. The
// key store is consulted first, then the record store.
func (g *Generator) replay(ctx context.Context, req GenerateRequest) (*GenerateResult, bool) {
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		return nil, false
	}

	var doc *model.GeneratedDocument
	if g.idempotency != nil {
		id, found, err := g.idempotency.Lookup(ctx, req.Tenant, key)
		if err != nil {
			logger.Warn(ctx, "idempotency lookup failed", "error", err)
		}
		if found {
			if d, err := g.documents.Get(ctx, id); err == nil {
				doc = d
			}
		}
	}
	if doc == nil {
		d, err := g.documents.FindByIdempotencyKey(ctx, req.Tenant, key)
		if err != nil {
			return nil, false
		}
		doc = d
	}

	logger.Info(ctx, "replaying generated document", "document_id", doc.ID)
	return &GenerateResult{Document: doc, FileURL: g.fileURL(ctx, doc), Replayed: true}, true
}

// FileURL returns a presigned URL for a stored document.
func (g *Generator) FileURL(ctx context.Context, doc *model.GeneratedDocument) (string, error) {
	return g.storage.GetPresignedURL(ctx, doc.FileObject)
}

func (g *Generator) fileURL(ctx context.Context, doc *model.GeneratedDocument) string {
	url, err := g.FileURL(ctx, doc)
	if err != nil {
		logger.Warn(ctx, "failed to presign document URL", "error", err)
		return ""
	}
	return url
}
