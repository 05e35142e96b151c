package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/AnTengye/docsign/model"
	"github.com/AnTengye/docsign/repository"
	"github.com/AnTengye/docsign/signing"
)

// LoadAuthority builds the read-only authority snapshot used by generation.
// It returns nil when no authority is registered. An image that cannot be
// fetched or decoded leaves the authority without an image, which disables
// auto-signing.
func LoadAuthority(ctx context.Context, repo repository.AuthorityRepository, storage ObjectStorage) (*signing.Authority, error) {
	row, err := repo.Current(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		slog.Info("no signing authority registered, auto-signing disabled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var img []byte
	if row.ImageObject != "" {
		img, err = storage.DownloadFile(ctx, row.ImageObject)
		if err != nil {
			slog.Warn("failed to fetch authority signature image", "object", row.ImageObject, "error", err)
			img = nil
		}
	}

	a, err := signing.NewAuthority(row.TypedName, row.Title, row.ImageObject, img, row.UpdatedAt)
	if err != nil {
		slog.Warn("authority signature image unusable", "object", row.ImageObject, "error", err)
		a, err = signing.NewAuthority(row.TypedName, row.Title, row.ImageObject, nil, row.UpdatedAt)
		if err != nil {
			return nil, err
		}
	}

	slog.Info("signing authority loaded",
		"typed_name", a.TypedName,
		"auto_sign", a.CanAutoSign(),
	)
	return a, nil
}

// RegisterAuthority stores the authority identity, replacing any earlier one.
func RegisterAuthority(ctx context.Context, repo repository.AuthorityRepository, typedName, title, imageObject string) error {
	row := &model.AuthoritySignature{
		TypedName:   typedName,
		Title:       title,
		ImageObject: imageObject,
		UpdatedAt:   time.Now(),
	}
	if imageObject != "" {
		row.ImageContentType = contentTypeFor(imageObject)
	}
	return repo.Save(ctx, row)
}

func contentTypeFor(objectName string) string {
	name := strings.ToLower(objectName)
	if strings.HasSuffix(name, ".jpg") || strings.HasSuffix(name, ".jpeg") {
		return "image/jpeg"
	}
	return "image/png"
}
