package repository

import (
	"context"
	"errors"

	"github.com/AnTengye/docsign/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a write collides with a unique key, such as
// a second document for the same tenant and idempotency key.
var ErrDuplicate = errors.New("duplicate record")

// ErrTemplateInUse is returned when a template's fields are replaced after a
// document has been generated from it.
var ErrTemplateInUse = errors.New("template is referenced by generated documents")

type TemplateRepository interface {
	Create(ctx context.Context, tpl *model.Template) error
	List(ctx context.Context) ([]model.Template, error)
	// GetByID and GetByKey load the template with its fields in sort order.
	GetByID(ctx context.Context, id uint) (*model.Template, error)
	GetByKey(ctx context.Context, key string) (*model.Template, error)
	ReplaceFields(ctx context.Context, templateID uint, fields []model.SignatureField) error
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *model.GeneratedDocument) error
	Get(ctx context.Context, id string) (*model.GeneratedDocument, error)
	FindBySignatureToken(ctx context.Context, token string) (*model.GeneratedDocument, error)
	FindByIdempotencyKey(ctx context.Context, tenant, key string) (*model.GeneratedDocument, error)
	ListByPacket(ctx context.Context, tenant, packetID string) ([]model.GeneratedDocument, error)
	CountByTemplate(ctx context.Context, templateID uint) (int64, error)
}

type AuditRepository interface {
	Create(ctx context.Context, rows []model.AuthoritySignatureAudit) error
	ListByDocument(ctx context.Context, documentID string) ([]model.AuthoritySignatureAudit, error)
}

type AuthorityRepository interface {
	// Current returns the registered authority or ErrNotFound.
	Current(ctx context.Context) (*model.AuthoritySignature, error)
	Save(ctx context.Context, a *model.AuthoritySignature) error
}
