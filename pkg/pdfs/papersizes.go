package pdfs

import "strings"

type PaperSize struct {
	Name   string
	Width  float64 // in `pt` (1" = 72pts)
	Height float64 // in `pt`
}

var (
	LetterSize = PaperSize{Name: "Letter", Width: 612, Height: 792}         // 8.5" x 11"
	LegalSize  = PaperSize{Name: "Legal", Width: 612, Height: 1008}         // 8.5" x 14"
	A4Size     = PaperSize{Name: "A4", Width: 595.27559, Height: 841.88976} // 210mm x 297mm
)

// PaperSizeByName looks up a size case-insensitively, defaulting to Letter.
func PaperSizeByName(name string) PaperSize {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "a4":
		return A4Size
	case "legal":
		return LegalSize
	default:
		return LetterSize
	}
}
