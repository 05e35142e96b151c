package model

import (
	"time"

	"gorm.io/datatypes"
)

// GeneratedDocument is the permanent record of one generation run.
type GeneratedDocument struct {
	ID                      string                                   `gorm:"primaryKey;size:36" json:"id"`
	Tenant                  string                                   `gorm:"size:100;index;uniqueIndex:idx_documents_tenant_idempotency,priority:1" json:"tenant"`
	Title                   string                                   `gorm:"size:255" json:"title"`
	TemplateID              uint                                     `gorm:"index" json:"template_id"`
	TemplateKey             string                                   `gorm:"size:100" json:"template_key"`
	ExecutiveID             string                                   `gorm:"size:100;index" json:"executive_id,omitempty"`
	SignerMetadata          datatypes.JSONType[SignerMetadata]       `json:"signer_metadata"`
	Status                  string                                   `gorm:"size:32;index" json:"status"`
	FileObject              string                                   `gorm:"size:512" json:"file_pointer"`
	PageCount               int                                      `json:"page_count"`
	SignatureToken          *string                                  `gorm:"size:128;uniqueIndex" json:"signature_token,omitempty"`
	SignatureTokenExpiresAt *time.Time                               `json:"signature_token_expires_at,omitempty"`
	SignatureStatus         *string                                  `gorm:"size:32" json:"signature_status,omitempty"`
	PacketID                *string                                  `gorm:"size:100;index" json:"packet_id,omitempty"`
	SigningStage            *int                                     `json:"signing_stage,omitempty"`
	SigningOrder            *int                                     `json:"signing_order,omitempty"`
	DependsOnDocumentID     *string                                  `gorm:"size:36" json:"depends_on_document_id,omitempty"`
	RequiredSigners         datatypes.JSONType[[]string]             `json:"required_signers"`
	SignerRoles             datatypes.JSONType[map[string]bool]      `json:"signer_roles"`
	SignatureFieldLayout    datatypes.JSONType[[]RenderedFieldEntry] `json:"signature_field_layout"`
	IdempotencyKey          *string                                  `gorm:"size:128;uniqueIndex:idx_documents_tenant_idempotency,priority:2" json:"-"`
	CreatedAt               time.Time                                `json:"created_at"`
}

// TableName pins the table name.
func (GeneratedDocument) TableName() string {
	return "generated_documents"
}

// Layout returns the rendered field entries.
func (d *GeneratedDocument) Layout() []RenderedFieldEntry {
	return d.SignatureFieldLayout.Data()
}

// Document status values.
const (
	StatusGenerated        = "generated"
	StatusPendingSignature = "pending_signature"
	StatusSigned           = "signed"
	StatusArchived         = "archived"
)

// SignatureStatusPending marks a document waiting on a human signer.
const SignatureStatusPending = "pending"

// Rect is an absolute box in PDF points, origin at the bottom-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RenderedFieldEntry is the as-drawn snapshot of a signature field.
type RenderedFieldEntry struct {
	ID            string  `json:"id"`
	FieldType     string  `json:"field_type"`
	SignerRole    string  `json:"signer_role"`
	PageNumber    int     `json:"page_number"`
	XPercent      float64 `json:"x_percent"`
	YPercent      float64 `json:"y_percent"`
	WidthPercent  float64 `json:"width_percent"`
	HeightPercent float64 `json:"height_percent"`
	Label         string  `json:"label"`
	Required      bool    `json:"required"`
	AutoFilled    bool    `json:"auto_filled"`
	RenderedValue *string `json:"rendered_value,omitempty"`
	Box           Rect    `json:"box"`
}

// SignerMetadata describes the person the document is prepared for.
type SignerMetadata struct {
	OfficerName  string            `json:"officer_name"`
	Role         string            `json:"role"`
	Email        string            `json:"email,omitempty"`
	Equity       EquityTerms       `json:"equity"`
	Compensation CompensationTerms `json:"compensation"`
}

type EquityTerms struct {
	Shares        int64   `json:"shares"`
	ShareClass    string  `json:"share_class"`
	VestingMonths int     `json:"vesting_months"`
	CliffMonths   int     `json:"cliff_months"`
	StrikePrice   float64 `json:"strike_price"`
}

type CompensationTerms struct {
	BaseSalary   float64 `json:"base_salary"`
	Currency     string  `json:"currency"`
	PayFrequency string  `json:"pay_frequency"`
}

// DefaultEquityTerms is a standard four-year grant with a one-year cliff.
func DefaultEquityTerms() EquityTerms {
	return EquityTerms{
		ShareClass:    "common",
		VestingMonths: 48,
		CliffMonths:   12,
	}
}

func DefaultCompensationTerms() CompensationTerms {
	return CompensationTerms{
		Currency:     "USD",
		PayFrequency: "annual",
	}
}

// WithDefaults fills unset equity and compensation settings.
func (m SignerMetadata) WithDefaults() SignerMetadata {
	eq := DefaultEquityTerms()
	if m.Equity.ShareClass == "" {
		m.Equity.ShareClass = eq.ShareClass
	}
	if m.Equity.VestingMonths <= 0 {
		m.Equity.VestingMonths = eq.VestingMonths
		if m.Equity.CliffMonths == 0 {
			m.Equity.CliffMonths = eq.CliffMonths
		}
	}
	if m.Equity.CliffMonths < 0 || m.Equity.CliffMonths > m.Equity.VestingMonths {
		m.Equity.CliffMonths = min(eq.CliffMonths, m.Equity.VestingMonths)
	}
	if m.Equity.Shares < 0 {
		m.Equity.Shares = 0
	}

	comp := DefaultCompensationTerms()
	if m.Compensation.Currency == "" {
		m.Compensation.Currency = comp.Currency
	}
	if m.Compensation.PayFrequency == "" {
		m.Compensation.PayFrequency = comp.PayFrequency
	}
	return m
}
