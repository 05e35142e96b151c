package pdfs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/AnTengye/docsign/model"
	"github.com/AnTengye/docsign/signing"
	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/gofpdi"
	pdfreader "github.com/phpdave11/gofpdi"
)

const (
	mediaBox   = "/MediaBox"
	fontFamily = "Helvetica"
)

// ErrUnreadable is returned when the source bytes cannot be parsed as a PDF.
var ErrUnreadable = errors.New("unreadable pdf")

// Document is an editable copy of a PDF: every source page is imported as a
// template and drawn on a page of the same size. Coordinates follow PDF
// conventions (points, origin bottom-left); conversion to fpdf's top-down
// space happens here only.
type Document struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	sizes []PaperSize
}

// Ensure Document implements signing.Canvas
var _ signing.Canvas = (*Document)(nil)

func newFpdf() *fpdf.Fpdf {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: LetterSize.Width, Ht: LetterSize.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreator("docsign", true)
	return pdf
}

// New returns a document with a single blank page.
func New(size PaperSize) *Document {
	d := &Document{pdf: newFpdf()}
	d.tr = d.pdf.UnicodeTranslatorFromDescriptor("")
	d.AppendPage(size.Width, size.Height)
	return d
}

// Open imports every page of data. An empty input or a PDF with no pages
// yields one blank Letter page so callers never see a document without pages.
func Open(data []byte) (doc *Document, err error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return New(LetterSize), nil
	}

	// gofpdi reports parse failures by panicking.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %v", ErrUnreadable, r)
		}
	}()

	sizes := pageSizes(data)
	if len(sizes) == 0 {
		return New(LetterSize), nil
	}

	pdf := newFpdf()
	d := &Document{pdf: pdf}
	d.tr = pdf.UnicodeTranslatorFromDescriptor("")

	imp := gofpdi.NewImporter()
	var rs io.ReadSeeker = bytes.NewReader(data)
	for page := 1; page <= len(sizes); page++ {
		tpl := imp.ImportPageFromStream(pdf, &rs, page, mediaBox)
		w, h := sizes[page][mediaBox]["w"], sizes[page][mediaBox]["h"]
		if w <= 0 || h <= 0 {
			w, h = LetterSize.Width, LetterSize.Height
		}
		d.AppendPage(w, h)
		imp.UseImportedTemplate(pdf, tpl, 0, 0, w, h)
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return d, nil
}

// pageSizes parses data and returns the page boxes keyed by 1-based page
// number. A well-formed PDF whose page tree is empty yields an empty map.
func pageSizes(data []byte) map[int]map[string]map[string]float64 {
	var rs io.ReadSeeker = bytes.NewReader(data)
	reader := pdfreader.NewImporter()
	reader.SetSourceStream(&rs)
	return reader.GetPageSizes()
}

func (d *Document) PageCount() int {
	return len(d.sizes)
}

func (d *Document) PageSize(page int) (float64, float64) {
	s := d.sizes[page-1]
	return s.Width, s.Height
}

// AppendPage adds a blank page after the last one and returns its number.
func (d *Document) AppendPage(width, height float64) int {
	if n := d.pdf.PageCount(); n > 0 {
		d.pdf.SetPage(n)
	}
	d.pdf.AddPageFormat("P", fpdf.SizeType{Wd: width, Ht: height})
	d.sizes = append(d.sizes, PaperSize{Name: "custom", Width: width, Height: height})
	return len(d.sizes)
}

// top converts a PDF y coordinate of a top edge into fpdf's space. fpdf
// flips y using the height of the most recently added page, whichever page
// is selected, so that height is used here too.
func (d *Document) top(pdfY float64) float64 {
	_, h := d.pdf.GetPageSize()
	return h - pdfY
}

func (d *Document) DrawBox(page int, r model.Rect, style signing.BoxStyle) {
	d.pdf.SetPage(page)
	d.pdf.SetFillColor(style.Fill.R, style.Fill.G, style.Fill.B)
	d.pdf.SetDrawColor(style.Border.R, style.Border.G, style.Border.B)
	d.pdf.SetLineWidth(style.LineWidth)
	d.pdf.Rect(r.X, d.top(r.Y+r.Height), r.Width, r.Height, "FD")
}

func (d *Document) DrawText(page int, x, y, size float64, text string) {
	d.pdf.SetPage(page)
	d.pdf.SetFont(fontFamily, "", size)
	// SetFont skips unchanged fonts; the selected page may not have it yet.
	d.pdf.SetFontSize(size)
	d.pdf.SetTextColor(17, 24, 39)
	d.pdf.Text(x, d.top(y), d.tr(text))
}

func (d *Document) TextWidth(text string, size float64) float64 {
	d.pdf.SetFont(fontFamily, "", size)
	return d.pdf.GetStringWidth(d.tr(text))
}

func (d *Document) DrawImage(page int, r model.Rect, img []byte, imageType string) error {
	sum := sha256.Sum256(img)
	name := "img-" + hex.EncodeToString(sum[:8])
	opts := fpdf.ImageOptions{ImageType: imageType}

	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
	if err := d.pdf.Error(); err != nil {
		return fmt.Errorf("failed to register image: %w", err)
	}
	d.pdf.SetPage(page)
	d.pdf.ImageOptions(name, r.X, d.top(r.Y+r.Height), r.Width, r.Height, false, opts, 0, "")
	return d.pdf.Error()
}

// Bytes serializes the document. The document cannot be drawn on afterwards.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
