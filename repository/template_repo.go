package repository

import (
	"context"
	"errors"
	"time"

	"github.com/AnTengye/docsign/model"
	"gorm.io/gorm"
)

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func orderedFields(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order, row_id")
}

func (r *templateRepository) Create(ctx context.Context, tpl *model.Template) error {
	for i := range tpl.Fields {
		tpl.Fields[i].SortOrder = i
	}
	return r.db.WithContext(ctx).Create(tpl).Error
}

func (r *templateRepository) List(ctx context.Context) ([]model.Template, error) {
	var tpls []model.Template
	err := r.db.WithContext(ctx).
		Preload("Fields", orderedFields).
		Order("id").
		Find(&tpls).Error
	return tpls, err
}

func (r *templateRepository) GetByID(ctx context.Context, id uint) (*model.Template, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *templateRepository) GetByKey(ctx context.Context, key string) (*model.Template, error) {
	if key == "" {
		return nil, ErrNotFound
	}
	return r.first(ctx, "`key` = ?", key)
}

func (r *templateRepository) first(ctx context.Context, query string, arg interface{}) (*model.Template, error) {
	var tpl model.Template
	err := r.db.WithContext(ctx).
		Preload("Fields", orderedFields).
		Where(query, arg).
		First(&tpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

// ReplaceFields swaps a template's whole field layout. Layouts of templates
// that already produced documents are frozen.
func (r *templateRepository) ReplaceFields(ctx context.Context, templateID uint, fields []model.SignatureField) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tpl model.Template
		if err := tx.First(&tpl, templateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var refs int64
		if err := tx.Model(&model.GeneratedDocument{}).
			Where("template_id = ?", templateID).
			Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrTemplateInUse
		}

		if err := tx.Where("template_id = ?", templateID).Delete(&model.SignatureField{}).Error; err != nil {
			return err
		}
		if len(fields) > 0 {
			for i := range fields {
				fields[i].RowID = 0
				fields[i].TemplateID = templateID
				fields[i].SortOrder = i
			}
			if err := tx.Create(&fields).Error; err != nil {
				return err
			}
		}
		return tx.Model(&tpl).Update("updated_at", time.Now()).Error
	})
}
