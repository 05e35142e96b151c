package model

import "time"

// Template is a content template together with its signature field layout.
type Template struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	Key       string           `gorm:"size:100;uniqueIndex;not null" json:"key"`
	Name      string           `gorm:"size:255" json:"name"`
	Fields    []SignatureField `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE;" json:"fields"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (Template) TableName() string {
	return "templates"
}

// SignatureField is a region on a page, in percent of the page size
// measured from the top-left corner, where a signer must act.
type SignatureField struct {
	RowID         uint    `gorm:"primaryKey" json:"-"`
	TemplateID    uint    `gorm:"index;not null" json:"-"`
	FieldID       string  `gorm:"size:64;not null" json:"id"`
	FieldType     string  `gorm:"size:16;not null" json:"field_type"`
	SignerRole    string  `gorm:"size:100" json:"signer_role"`
	PageNumber    int     `json:"page_number"`
	XPercent      float64 `json:"x_percent"`
	YPercent      float64 `json:"y_percent"`
	WidthPercent  float64 `json:"width_percent"`
	HeightPercent float64 `json:"height_percent"`
	Label         string  `gorm:"size:255" json:"label"`
	Required      bool    `json:"required"`
	SortOrder     int     `json:"-"`
}

func (SignatureField) TableName() string {
	return "signature_fields"
}

// Field types.
const (
	FieldTypeSignature = "signature"
	FieldTypeInitials  = "initials"
	FieldTypeDate      = "date"
	FieldTypeText      = "text"
)

// ValidFieldType reports whether t is one of the known field types.
func ValidFieldType(t string) bool {
	switch t {
	case FieldTypeSignature, FieldTypeInitials, FieldTypeDate, FieldTypeText:
		return true
	}
	return false
}

// NeedsSigner reports whether a field of this type asks for a signer's mark.
func NeedsSigner(t string) bool {
	return t == FieldTypeSignature || t == FieldTypeInitials
}
