package repository

import (
	"context"

	"github.com/AnTengye/docsign/model"
	"gorm.io/gorm"
)

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, rows []model.AuthoritySignatureAudit) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *auditRepository) ListByDocument(ctx context.Context, documentID string) ([]model.AuthoritySignatureAudit, error) {
	var rows []model.AuthoritySignatureAudit
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("id").
		Find(&rows).Error
	return rows, err
}
