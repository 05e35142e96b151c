package signing

import (
	"testing"
	"time"

	"github.com/AnTengye/docsign/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerAuthorityOnly(t *testing.T) {
	name := "Jane Authority"
	layout := []model.RenderedFieldEntry{
		{ID: "1", FieldType: model.FieldTypeSignature, SignerRole: "ceo", AutoFilled: true, RenderedValue: &name},
		{ID: "2", FieldType: model.FieldTypeDate, SignerRole: "ceo"},
	}

	tok, err := NewTokenIssuer(0).Issue([]string{"ceo"}, layout, time.Now())
	require.NoError(t, err)
	assert.Nil(t, tok)
}

func TestTokenIssuerHumanSigner(t *testing.T) {
	name := "Jane Authority"
	layout := []model.RenderedFieldEntry{
		{ID: "1", FieldType: model.FieldTypeSignature, SignerRole: "ceo", AutoFilled: true, RenderedValue: &name},
		{ID: "2", FieldType: model.FieldTypeSignature, SignerRole: "employee"},
	}
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tok, err := NewTokenIssuer(DefaultTokenTTL).Issue([]string{"ceo", "employee"}, layout, created)
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.True(t, created.AddDate(0, 0, 30).Equal(tok.ExpiresAt))
	assert.GreaterOrEqual(t, len(tok.Value), 43)
}

func TestNeedsHumanSigner(t *testing.T) {
	tests := []struct {
		name     string
		required []string
		layout   []model.RenderedFieldEntry
		want     bool
	}{
		{"nothing required", nil, nil, false},
		{"human role required", []string{"employee"}, nil, true},
		{"unfilled ceo signature", []string{"ceo"}, []model.RenderedFieldEntry{{FieldType: model.FieldTypeSignature, SignerRole: "ceo"}}, true},
		{"unfilled initials", nil, []model.RenderedFieldEntry{{FieldType: model.FieldTypeInitials, SignerRole: "witness"}}, true},
		{"text field only", []string{"board"}, []model.RenderedFieldEntry{{FieldType: model.FieldTypeText, SignerRole: "board"}}, false},
		{"optional ceo date", []string{"ceo"}, []model.RenderedFieldEntry{
			{FieldType: model.FieldTypeSignature, SignerRole: "ceo", AutoFilled: true},
			{FieldType: model.FieldTypeDate, SignerRole: "ceo"},
		}, false},
		{"required ceo date left blank", []string{"ceo"}, []model.RenderedFieldEntry{
			{FieldType: model.FieldTypeSignature, SignerRole: "ceo", AutoFilled: true},
			{FieldType: model.FieldTypeDate, SignerRole: "ceo", Required: true},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsHumanSigner(tt.required, tt.layout))
		})
	}
}

func TestGenerateOpaqueTokenUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		tok, err := GenerateOpaqueToken(32)
		require.NoError(t, err)
		assert.False(t, seen[tok])
		seen[tok] = true
	}
}
