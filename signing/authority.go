package signing

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"
)

// Authority is an immutable snapshot of the registered auto-sign identity.
// A nil *Authority means no authority is registered.
type Authority struct {
	TypedName   string
	Title       string
	ImageObject string
	Image       []byte
	ImageType   string // "PNG" or "JPG"
	ImageWidth  int
	ImageHeight int
	UpdatedAt   time.Time
}

// NewAuthority builds a snapshot and reads the image dimensions. An empty
// image is allowed and disables auto-signing.
func NewAuthority(typedName, title, imageObject string, img []byte, updatedAt time.Time) (*Authority, error) {
	a := &Authority{
		TypedName:   typedName,
		Title:       title,
		ImageObject: imageObject,
		UpdatedAt:   updatedAt,
	}
	if len(img) == 0 {
		return a, nil
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("failed to decode authority signature image: %w", err)
	}
	switch format {
	case "png":
		a.ImageType = "PNG"
	case "jpeg":
		a.ImageType = "JPG"
	default:
		return nil, fmt.Errorf("unsupported authority signature image format %q", format)
	}
	a.Image = img
	a.ImageWidth = cfg.Width
	a.ImageHeight = cfg.Height
	return a, nil
}

// CanAutoSign reports whether a signature image is available.
func (a *Authority) CanAutoSign() bool {
	return a != nil && len(a.Image) > 0 && a.ImageWidth > 0 && a.ImageHeight > 0
}
