package signing

import (
	"fmt"
	"math"
	"strings"

	"github.com/AnTengye/docsign/model"
)

// Color is an RGB triple, 0-255 per channel.
type Color struct{ R, G, B int }

// BoxStyle controls how a placeholder rectangle is painted.
type BoxStyle struct {
	Fill      Color
	Border    Color
	LineWidth float64
}

var (
	SignatureBoxStyle = BoxStyle{Fill: Color{255, 248, 220}, Border: Color{37, 99, 235}, LineWidth: 1}
	EntryBoxStyle     = BoxStyle{Fill: Color{243, 244, 246}, Border: Color{107, 114, 128}, LineWidth: 0.75}
)

// Canvas is a paginated drawing surface in PDF coordinates: points, origin
// at the bottom-left of each page. Pages are numbered from 1.
type Canvas interface {
	PageCount() int
	PageSize(page int) (width, height float64)
	AppendPage(width, height float64) int
	DrawBox(page int, r model.Rect, style BoxStyle)
	// DrawText places text with its baseline at y.
	DrawText(page int, x, y, size float64, text string)
	TextWidth(text string, size float64) float64
	DrawImage(page int, r model.Rect, img []byte, imageType string) error
}

const (
	imageWidthFrac  = 0.88
	imageHeightFrac = 0.65

	// FallbackFieldID identifies the synthetic entry of an authority page.
	FallbackFieldID = "authority-fallback"
	fallbackLabel   = "Authorized Signature"
	disclosureLine  = "Signed electronically by the registered signing authority."
)

// Placer draws signature fields onto a rendered document.
type Placer struct {
	Authority *Authority
}

// Place draws every field and returns one entry per field, in field order.
// When there are no fields, an auto-signable role is required and the
// authority has an image, one authority page is appended and its entry is
// the only one returned.
func (p *Placer) Place(c Canvas, fields []model.SignatureField, required []string) ([]model.RenderedFieldEntry, error) {
	if len(fields) == 0 {
		if role, ok := firstAutoSignable(required); ok && p.Authority.CanAutoSign() {
			entry, err := p.appendAuthorityPage(c, role)
			if err != nil {
				return nil, err
			}
			return []model.RenderedFieldEntry{entry}, nil
		}
		return []model.RenderedFieldEntry{}, nil
	}

	layout := make([]model.RenderedFieldEntry, 0, len(fields))
	for _, f := range fields {
		entry, err := p.placeField(c, f, required)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.FieldID, err)
		}
		layout = append(layout, entry)
	}
	return layout, nil
}

func (p *Placer) placeField(c Canvas, f model.SignatureField, required []string) (model.RenderedFieldEntry, error) {
	page := ClampPage(f.PageNumber, c.PageCount())
	pw, ph := c.PageSize(page)
	box := FieldBox(pw, ph, f.XPercent, f.YPercent, f.WidthPercent, f.HeightPercent)
	res := ResolveRole(f.SignerRole, required)

	entry := model.RenderedFieldEntry{
		ID:         f.FieldID,
		FieldType:  f.FieldType,
		SignerRole: f.SignerRole,
		PageNumber: page,
		Label:      f.Label,
		Required:   f.Required,
		Box:        box,
	}
	entry.XPercent, entry.YPercent, entry.WidthPercent, entry.HeightPercent = snapshotPercents(f, box, pw, ph)

	if res.Class == ClassAutoSignable && f.FieldType == model.FieldTypeSignature && p.Authority.CanAutoSign() {
		if err := p.drawAuthorityInBox(c, page, box); err != nil {
			return entry, err
		}
		name := p.Authority.TypedName
		entry.AutoFilled = true
		entry.RenderedValue = &name
		return entry, nil
	}

	drawPlaceholder(c, page, box, f)
	return entry, nil
}

// snapshotPercents keeps the declared percents when they describe the drawn
// box exactly, and otherwise reports the percents of the box after clamping.
func snapshotPercents(f model.SignatureField, box model.Rect, pw, ph float64) (float64, float64, float64, float64) {
	raw := model.Rect{
		X:      pw * f.XPercent / 100,
		Width:  pw * f.WidthPercent / 100,
		Height: ph * f.HeightPercent / 100,
	}
	raw.Y = ph - ph*f.YPercent/100 - raw.Height
	if raw == box {
		return f.XPercent, f.YPercent, f.WidthPercent, f.HeightPercent
	}
	return PercentOf(pw, ph, box)
}

func (p *Placer) drawAuthorityInBox(c Canvas, page int, box model.Rect) error {
	a := p.Authority
	drawW, drawH := FitImage(float64(a.ImageWidth), float64(a.ImageHeight), box.Width, box.Height, imageWidthFrac, imageHeightFrac)
	nameSize := clamp(box.Height*0.16, 5, 10)

	imgX := box.X + (box.Width-drawW)/2
	floor := box.Y + nameSize + 4
	imgY := floor + math.Max((box.Y+box.Height-floor-drawH)/2, 0)
	imgY = math.Min(imgY, box.Y+box.Height-drawH)

	if err := c.DrawImage(page, model.Rect{X: imgX, Y: imgY, Width: drawW, Height: drawH}, a.Image, a.ImageType); err != nil {
		return err
	}
	drawCentered(c, page, box.X, box.Width, box.Y+2, nameSize, a.TypedName)
	return nil
}

func drawPlaceholder(c Canvas, page int, box model.Rect, f model.SignatureField) {
	style := EntryBoxStyle
	if model.NeedsSigner(f.FieldType) {
		style = SignatureBoxStyle
	}
	c.DrawBox(page, box, style)

	size := clamp(box.Height*0.2, 5, 8)
	role := strings.ToUpper(strings.TrimSpace(f.SignerRole))
	if role == "" {
		role = "ANY SIGNER"
	}
	maxW := box.Width - 6
	c.DrawText(page, box.X+3, box.Y+box.Height-size-2, size, fitText(c, role, size, maxW))

	label := strings.TrimSpace(f.Label)
	if label == "" {
		label = f.FieldType
	}
	if box.Height >= 2*size+6 {
		c.DrawText(page, box.X+3, box.Y+3, size, fitText(c, label, size, maxW))
	}
}

func (p *Placer) appendAuthorityPage(c Canvas, role string) (model.RenderedFieldEntry, error) {
	a := p.Authority
	pw, ph := c.PageSize(c.PageCount())
	page := c.AppendPage(pw, ph)

	bw := math.Min(pw*0.5, 300)
	bh := bw * 0.4
	block := model.Rect{X: (pw - bw) / 2, Y: (ph - bh) / 2, Width: bw, Height: bh}

	drawCentered(c, page, 0, pw, block.Y+block.Height+14, 12, fallbackLabel)

	drawW, drawH := FitImage(float64(a.ImageWidth), float64(a.ImageHeight), bw, bh, imageWidthFrac, imageHeightFrac)
	img := model.Rect{
		X:      block.X + (bw-drawW)/2,
		Y:      block.Y + (bh-drawH)/2,
		Width:  drawW,
		Height: drawH,
	}
	if err := c.DrawImage(page, img, a.Image, a.ImageType); err != nil {
		return model.RenderedFieldEntry{}, err
	}

	drawCentered(c, page, 0, pw, block.Y-16, 11, a.TypedName)
	if a.Title != "" {
		drawCentered(c, page, 0, pw, block.Y-30, 10, a.Title)
	}
	drawCentered(c, page, 0, pw, block.Y-48, 8, disclosureLine)

	x, y, w, h := PercentOf(pw, ph, block)
	name := a.TypedName
	return model.RenderedFieldEntry{
		ID:            FallbackFieldID,
		FieldType:     model.FieldTypeSignature,
		SignerRole:    role,
		PageNumber:    page,
		XPercent:      x,
		YPercent:      y,
		WidthPercent:  w,
		HeightPercent: h,
		Label:         fallbackLabel,
		Required:      true,
		AutoFilled:    true,
		RenderedValue: &name,
		Box:           block,
	}, nil
}

func drawCentered(c Canvas, page int, left, width, baseline, size float64, text string) {
	text = fitText(c, text, size, width)
	tw := c.TextWidth(text, size)
	x := left + math.Max((width-tw)/2, 0)
	c.DrawText(page, x, baseline, size, text)
}

// fitText shortens text with a trailing "..." until it fits maxW.
func fitText(c Canvas, text string, size, maxW float64) string {
	if c.TextWidth(text, size) <= maxW {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if c.TextWidth(candidate, size) <= maxW {
			return candidate
		}
	}
	return ""
}

func firstAutoSignable(required []string) (string, bool) {
	for _, r := range UniqueRoles(required) {
		if IsAutoSignableRole(r) {
			return r, true
		}
	}
	return "", false
}
