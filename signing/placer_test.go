package signing

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/AnTengye/docsign/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drawnBox struct {
	page  int
	rect  model.Rect
	style BoxStyle
}

type drawnText struct {
	page int
	x, y float64
	text string
}

type drawnImage struct {
	page int
	rect model.Rect
}

// fakeCanvas records drawing calls on pages of fixed size.
type fakeCanvas struct {
	sizes  [][2]float64
	boxes  []drawnBox
	texts  []drawnText
	images []drawnImage
}

func newFakeCanvas(pages int) *fakeCanvas {
	c := &fakeCanvas{}
	for i := 0; i < pages; i++ {
		c.sizes = append(c.sizes, [2]float64{letterW, letterH})
	}
	return c
}

func (c *fakeCanvas) PageCount() int { return len(c.sizes) }

func (c *fakeCanvas) PageSize(page int) (float64, float64) {
	s := c.sizes[page-1]
	return s[0], s[1]
}

func (c *fakeCanvas) AppendPage(w, h float64) int {
	c.sizes = append(c.sizes, [2]float64{w, h})
	return len(c.sizes)
}

func (c *fakeCanvas) DrawBox(page int, r model.Rect, style BoxStyle) {
	c.boxes = append(c.boxes, drawnBox{page, r, style})
}

func (c *fakeCanvas) DrawText(page int, x, y, size float64, text string) {
	c.texts = append(c.texts, drawnText{page, x, y, text})
}

func (c *fakeCanvas) TextWidth(text string, size float64) float64 {
	return float64(len(text)) * size * 0.5
}

func (c *fakeCanvas) DrawImage(page int, r model.Rect, img []byte, imageType string) error {
	c.images = append(c.images, drawnImage{page, r})
	return nil
}

func (c *fakeCanvas) hasText(text string) bool {
	for _, t := range c.texts {
		if t.text == text {
			return true
		}
	}
	return false
}

func testSignaturePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testAuthority(t *testing.T) *Authority {
	t.Helper()
	a, err := NewAuthority("Jane Authority", "Chief Executive Officer", "authority/signature.png", testSignaturePNG(t, 400, 100), time.Now())
	require.NoError(t, err)
	return a
}

func field(id, typ, role string, page int, x, y, w, h float64) model.SignatureField {
	return model.SignatureField{
		FieldID: id, FieldType: typ, SignerRole: role, PageNumber: page,
		XPercent: x, YPercent: y, WidthPercent: w, HeightPercent: h,
		Label: id + " label", Required: true,
	}
}

func TestPlaceOneEntryPerField(t *testing.T) {
	c := newFakeCanvas(2)
	fields := []model.SignatureField{
		field("a", model.FieldTypeSignature, "employee", 1, 10, 80, 30, 10),
		field("b", model.FieldTypeDate, "employee", 2, 60, 80, 20, 5),
		field("c", model.FieldTypeInitials, "employee", 7, 0, 0, 5, 5),
		field("d", model.FieldTypeText, "", 0, 150, 150, 50, 50),
	}
	p := &Placer{Authority: testAuthority(t)}

	layout, err := p.Place(c, fields, []string{"employee"})
	require.NoError(t, err)
	require.Len(t, layout, len(fields))

	for i, e := range layout {
		assert.Equal(t, fields[i].FieldID, e.ID)
		assert.GreaterOrEqual(t, e.PageNumber, 1)
		assert.LessOrEqual(t, e.PageNumber, c.PageCount())
		assert.False(t, e.AutoFilled)
		assert.Nil(t, e.RenderedValue)
	}
	assert.Equal(t, 2, layout[2].PageNumber, "page beyond the end is clamped to the last page")
	assert.Equal(t, 1, layout[3].PageNumber, "page 0 is clamped to the first page")

	// every placeholder box drawn is the box recorded
	require.Len(t, c.boxes, len(fields))
	for i, b := range c.boxes {
		assert.Equal(t, layout[i].Box, b.rect)
		assert.Equal(t, layout[i].PageNumber, b.page)
	}
	assert.Equal(t, SignatureBoxStyle, c.boxes[0].style)
	assert.Equal(t, EntryBoxStyle, c.boxes[1].style)
	assert.Equal(t, SignatureBoxStyle, c.boxes[2].style)
	assert.Empty(t, c.images)
	assert.True(t, c.hasText("EMPLOYEE"))
	assert.True(t, c.hasText("ANY SIGNER"))
}

func TestPlaceExampleEmployeeField(t *testing.T) {
	c := newFakeCanvas(1)
	fields := []model.SignatureField{field("sig", model.FieldTypeSignature, "employee", 1, 10, 80, 30, 10)}

	layout, err := (&Placer{}).Place(c, fields, []string{"employee"})
	require.NoError(t, err)
	require.Len(t, layout, 1)

	e := layout[0]
	assert.False(t, e.AutoFilled)
	assert.Equal(t, 10.0, e.XPercent)
	assert.Equal(t, 80.0, e.YPercent)
	assert.Equal(t, 30.0, e.WidthPercent)
	assert.Equal(t, 10.0, e.HeightPercent)
	assert.InDelta(t, 61.2, e.Box.X, 1e-9)
	assert.InDelta(t, 79.2, e.Box.Y, 1e-9)
}

func TestPlaceAutoSignsAuthorityRoles(t *testing.T) {
	c := newFakeCanvas(1)
	fields := []model.SignatureField{
		field("ceo-sig", model.FieldTypeSignature, "CEO", 1, 10, 70, 40, 10),
		field("ceo-date", model.FieldTypeDate, "ceo", 1, 60, 70, 20, 5),
		field("emp-sig", model.FieldTypeSignature, "employee", 1, 10, 85, 40, 10),
	}
	a := testAuthority(t)

	layout, err := (&Placer{Authority: a}).Place(c, fields, []string{"ceo", "employee"})
	require.NoError(t, err)
	require.Len(t, layout, 3)

	assert.True(t, layout[0].AutoFilled)
	require.NotNil(t, layout[0].RenderedValue)
	assert.Equal(t, "Jane Authority", *layout[0].RenderedValue)
	assert.False(t, layout[1].AutoFilled, "date fields are never auto-filled")
	assert.False(t, layout[2].AutoFilled)

	require.Len(t, c.images, 1)
	img := c.images[0].rect
	box := layout[0].Box
	assert.LessOrEqual(t, img.Width, box.Width*imageWidthFrac+1e-9)
	assert.LessOrEqual(t, img.Height, box.Height*imageHeightFrac+1e-9)
	assert.InDelta(t, img.Width/img.Height, 4.0, 1e-9, "aspect ratio preserved")
	assert.InDelta(t, box.X+box.Width/2, img.X+img.Width/2, 1e-9, "image centered horizontally")
	assert.GreaterOrEqual(t, img.Y, box.Y)
	assert.LessOrEqual(t, img.Y+img.Height, box.Y+box.Height+1e-9)
	assert.True(t, c.hasText("Jane Authority"))
	assert.Len(t, c.boxes, 2, "only non-auto-filled fields get placeholders")
}

func TestPlaceWithoutAuthorityImage(t *testing.T) {
	a, err := NewAuthority("Jane Authority", "CEO", "", nil, time.Now())
	require.NoError(t, err)
	fields := []model.SignatureField{field("ceo-sig", model.FieldTypeSignature, "ceo", 1, 10, 70, 40, 10)}

	for _, auth := range []*Authority{nil, a} {
		c := newFakeCanvas(1)
		layout, err := (&Placer{Authority: auth}).Place(c, fields, []string{"ceo"})
		require.NoError(t, err)
		require.Len(t, layout, 1)
		assert.False(t, layout[0].AutoFilled)
		assert.Empty(t, c.images)
	}
}

func TestPlaceFallbackAuthorityPage(t *testing.T) {
	c := newFakeCanvas(2)

	layout, err := (&Placer{Authority: testAuthority(t)}).Place(c, nil, []string{"employee", "Board"})
	require.NoError(t, err)
	require.Len(t, layout, 1)
	assert.Equal(t, 3, c.PageCount())

	e := layout[0]
	assert.Equal(t, FallbackFieldID, e.ID)
	assert.Equal(t, "Board", e.SignerRole)
	assert.Equal(t, 3, e.PageNumber)
	assert.True(t, e.AutoFilled)
	require.Len(t, c.images, 1)
	assert.Equal(t, 3, c.images[0].page)
	assert.True(t, c.hasText("Jane Authority"))
	assert.True(t, c.hasText("Chief Executive Officer"))
	assert.True(t, c.hasText(disclosureLine))

	// block is centered on the page
	assert.InDelta(t, letterW/2, e.Box.X+e.Box.Width/2, 1e-9)
	assert.InDelta(t, letterH/2, e.Box.Y+e.Box.Height/2, 1e-9)
}

func TestPlaceNoFallback(t *testing.T) {
	tests := []struct {
		name      string
		authority *Authority
		required  []string
	}{
		{"no auto-signable role", testAuthority(t), []string{"employee"}},
		{"no authority", nil, []string{"ceo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newFakeCanvas(1)
			layout, err := (&Placer{Authority: tt.authority}).Place(c, nil, tt.required)
			require.NoError(t, err)
			assert.Empty(t, layout)
			assert.Equal(t, 1, c.PageCount())
		})
	}
}

func TestPlaceClampedFieldRecordsDrawnPercents(t *testing.T) {
	c := newFakeCanvas(1)
	fields := []model.SignatureField{field("x", model.FieldTypeSignature, "employee", 1, 95, 120, 30, 10)}

	layout, err := (&Placer{}).Place(c, fields, []string{"employee"})
	require.NoError(t, err)

	e := layout[0]
	assert.InDelta(t, 70, e.XPercent, 1e-9)
	assert.InDelta(t, 90, e.YPercent, 1e-9)
	assert.Equal(t, 0.0, e.Box.Y)
	assert.InDelta(t, letterW, e.Box.X+e.Box.Width, 1e-9)
}
