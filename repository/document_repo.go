package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/AnTengye/docsign/model"
	"gorm.io/gorm"
)

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.GeneratedDocument) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(doc).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func (r *documentRepository) Get(ctx context.Context, id string) (*model.GeneratedDocument, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *documentRepository) FindBySignatureToken(ctx context.Context, token string) (*model.GeneratedDocument, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return r.first(ctx, "signature_token = ?", token)
}

func (r *documentRepository) FindByIdempotencyKey(ctx context.Context, tenant, key string) (*model.GeneratedDocument, error) {
	if key == "" {
		return nil, ErrNotFound
	}
	return r.first(ctx, "tenant = ? AND idempotency_key = ?", tenant, key)
}

func (r *documentRepository) first(ctx context.Context, query string, args ...interface{}) (*model.GeneratedDocument, error) {
	var doc model.GeneratedDocument
	err := r.db.WithContext(ctx).Where(query, args...).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// ListByPacket returns a packet's documents in signing sequence.
func (r *documentRepository) ListByPacket(ctx context.Context, tenant, packetID string) ([]model.GeneratedDocument, error) {
	var docs []model.GeneratedDocument
	err := r.db.WithContext(ctx).
		Where("tenant = ? AND packet_id = ?", tenant, packetID).
		Order("signing_stage, signing_order, created_at").
		Find(&docs).Error
	return docs, err
}

func (r *documentRepository) CountByTemplate(ctx context.Context, templateID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.GeneratedDocument{}).
		Where("template_id = ?", templateID).
		Count(&n).Error
	return n, err
}
