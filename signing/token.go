package signing

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/AnTengye/docsign/model"
)

const (
	DefaultTokenTTL   = 30 * 24 * time.Hour
	defaultTokenBytes = 32
)

// SigningToken grants an external signer access to one pending document.
type SigningToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenIssuer issues signing tokens for documents that wait on a human.
type TokenIssuer struct {
	TTL   time.Duration
	Bytes int
}

func NewTokenIssuer(ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{TTL: ttl, Bytes: defaultTokenBytes}
}

// NeedsHumanSigner is true when a required signer falls outside the
// auto-signable roles, or a signature, initials or required entry was not
// auto-filled. The authority only draws signatures, so a required date box
// for an auto-signable role still waits on a person.
func NeedsHumanSigner(required []string, layout []model.RenderedFieldEntry) bool {
	for _, r := range UniqueRoles(required) {
		if !IsAutoSignableRole(r) {
			return true
		}
	}
	for _, e := range layout {
		if (model.NeedsSigner(e.FieldType) || e.Required) && !e.AutoFilled {
			return true
		}
	}
	return false
}

// Issue returns a token expiring TTL after createdAt, or nil when no human
// signer is needed.
func (t *TokenIssuer) Issue(required []string, layout []model.RenderedFieldEntry, createdAt time.Time) (*SigningToken, error) {
	if !NeedsHumanSigner(required, layout) {
		return nil, nil
	}
	value, err := GenerateOpaqueToken(t.Bytes)
	if err != nil {
		return nil, err
	}
	return &SigningToken{Value: value, ExpiresAt: createdAt.Add(t.TTL)}, nil
}

// GenerateOpaqueToken returns a URL-safe base64 string of byteLength random bytes.
func GenerateOpaqueToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = defaultTokenBytes
	}
	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
