package model

import "time"

// AuthoritySignature is the registered auto-sign identity. One row is expected.
type AuthoritySignature struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	TypedName        string    `gorm:"size:255;not null" json:"typed_name"`
	Title            string    `gorm:"size:255" json:"title"`
	ImageObject      string    `gorm:"size:512" json:"image_object"`
	ImageContentType string    `gorm:"size:64" json:"image_content_type"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (AuthoritySignature) TableName() string {
	return "authority_signatures"
}

// ProvenanceAutoSign tags audit rows written by the generation pipeline.
const ProvenanceAutoSign = "authority_auto_sign"

// AuthoritySignatureAudit records one auto-applied authority signature.
// Rows are only ever inserted.
type AuthoritySignatureAudit struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DocumentID  string    `gorm:"size:36;index;not null" json:"document_id"`
	FieldID     string    `gorm:"size:64" json:"field_id"`
	SignerName  string    `gorm:"size:255" json:"signer_name"`
	SignerTitle string    `gorm:"size:255" json:"signer_title"`
	ImageObject string    `gorm:"size:512" json:"image_object"`
	Provenance  string    `gorm:"size:64" json:"provenance"`
	SignedAt    time.Time `json:"signed_at"`
}

func (AuthoritySignatureAudit) TableName() string {
	return "authority_signature_audits"
}
