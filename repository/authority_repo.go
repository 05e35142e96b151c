package repository

import (
	"context"
	"errors"

	"github.com/AnTengye/docsign/model"
	"gorm.io/gorm"
)

type authorityRepository struct {
	db *gorm.DB
}

func NewAuthorityRepository(db *gorm.DB) AuthorityRepository {
	return &authorityRepository{db: db}
}

// Current returns the most recently updated authority row.
func (r *authorityRepository) Current(ctx context.Context) (*model.AuthoritySignature, error) {
	var a model.AuthoritySignature
	err := r.db.WithContext(ctx).Order("updated_at DESC, id DESC").First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Save replaces the registered authority, keeping a single row.
func (r *authorityRepository) Save(ctx context.Context, a *model.AuthoritySignature) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.AuthoritySignature
		err := tx.Order("id").First(&existing).Error
		switch {
		case err == nil:
			a.ID = existing.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			a.ID = 0
		default:
			return err
		}
		return tx.Save(a).Error
	})
}
