package signing

import (
	"math"

	"github.com/AnTengye/docsign/model"
)

// MinBoxSize is the smallest width or height of a placed field, in points.
const MinBoxSize = 10.0

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ClampPage maps a requested page number into [1, pageCount].
func ClampPage(page, pageCount int) int {
	if pageCount < 1 {
		return 1
	}
	if page < 1 {
		return 1
	}
	if page > pageCount {
		return pageCount
	}
	return page
}

// FieldBox converts percent geometry, measured from the top-left corner,
// into an absolute box in PDF coordinates whose origin is the bottom-left
// corner. The box never leaves the page. On a page smaller than
// MinBoxSize the page bound wins over the minimum size.
func FieldBox(pageWidth, pageHeight, xPct, yPct, wPct, hPct float64) model.Rect {
	w := clamp(pageWidth*finite(wPct)/100, MinBoxSize, pageWidth)
	h := clamp(pageHeight*finite(hPct)/100, MinBoxSize, pageHeight)
	x := clamp(pageWidth*finite(xPct)/100, 0, pageWidth-w)
	y := clamp(pageHeight-pageHeight*finite(yPct)/100-h, 0, pageHeight-h)
	return model.Rect{X: x, Y: y, Width: w, Height: h}
}

// PercentOf is the inverse of FieldBox for a box already inside the page.
// It returns x, y, width, height percents measured from the top-left.
func PercentOf(pageWidth, pageHeight float64, r model.Rect) (float64, float64, float64, float64) {
	if pageWidth <= 0 || pageHeight <= 0 {
		return 0, 0, 0, 0
	}
	x := r.X / pageWidth * 100
	y := (pageHeight - r.Y - r.Height) / pageHeight * 100
	return x, y, r.Width / pageWidth * 100, r.Height / pageHeight * 100
}

// FitImage scales an image of iw x ih into a box, preserving aspect ratio,
// using at most maxWFrac of the box width and maxHFrac of its height.
func FitImage(iw, ih, boxW, boxH, maxWFrac, maxHFrac float64) (float64, float64) {
	if iw <= 0 || ih <= 0 {
		return 0, 0
	}
	scale := math.Min(boxW*maxWFrac/iw, boxH*maxHFrac/ih)
	return iw * scale, ih * scale
}
