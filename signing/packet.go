package signing

import (
	"strings"

	"github.com/AnTengye/docsign/model"
)

// PacketInfo is the opaque workflow metadata carried onto the record.
// Dependencies are recorded, not enforced.
type PacketInfo struct {
	PacketID            string `json:"packet_id,omitempty"`
	SigningStage        *int   `json:"signing_stage,omitempty"`
	SigningOrder        *int   `json:"signing_order,omitempty"`
	DependsOnDocumentID string `json:"depends_on_document_id,omitempty"`
}

// Apply copies the metadata onto doc, leaving blank values unset.
func (p PacketInfo) Apply(doc *model.GeneratedDocument) {
	doc.PacketID = optionalString(p.PacketID)
	doc.DependsOnDocumentID = optionalString(p.DependsOnDocumentID)
	if p.SigningStage != nil {
		v := *p.SigningStage
		doc.SigningStage = &v
	}
	if p.SigningOrder != nil {
		v := *p.SigningOrder
		doc.SigningOrder = &v
	}
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// CheckCoverage fails with MissingSignatureField when a required signer
// that the authority cannot satisfy has no matching field in the template.
func CheckCoverage(fields []model.SignatureField, required []string) error {
	var missing []string
	for _, r := range UniqueRoles(required) {
		if IsAutoSignableRole(r) {
			continue
		}
		covered := false
		for _, f := range fields {
			if RoleMatches(f.SignerRole, r) {
				covered = true
				break
			}
		}
		if !covered {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return MissingSignatureField(missing)
	}
	return nil
}

// SignerRoles builds the role map of a document. Keys are the required
// signers, every seeded role and every non-blank field role in the layout,
// deduplicated case-insensitively with the first spelling kept.
// A role is true only when an auto-filled entry covers it; seeded values
// never set a role to true.
func SignerRoles(required []string, seed map[string]bool, layout []model.RenderedFieldEntry) map[string]bool {
	roles := make(map[string]bool)
	// keys holds the first spelling seen for each normalized role.
	keys := make(map[string]string)
	add := func(role string) {
		t := strings.TrimSpace(role)
		n := NormalizeRole(t)
		if n == "" {
			return
		}
		if _, ok := keys[n]; !ok {
			keys[n] = t
			roles[t] = false
		}
	}

	for _, r := range UniqueRoles(required) {
		add(r)
	}
	seeded := make([]string, 0, len(seed))
	for r := range seed {
		seeded = append(seeded, r)
	}
	for _, r := range SortedRoles(seeded) {
		add(r)
	}
	for _, e := range layout {
		add(e.SignerRole)
	}

	for _, e := range layout {
		if !e.AutoFilled {
			continue
		}
		if k, ok := keys[NormalizeRole(e.SignerRole)]; ok {
			roles[k] = true
		}
		// A global entry proves every required role it covers.
		for _, r := range MatchedRoles(e.SignerRole, required) {
			if IsAutoSignableRole(r) {
				roles[keys[NormalizeRole(r)]] = true
			}
		}
	}
	return roles
}
