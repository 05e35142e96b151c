package signing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	letterW = 612.0
	letterH = 792.0
)

func TestFieldBoxTopLeftTouchesTopEdge(t *testing.T) {
	box := FieldBox(letterW, letterH, 0, 0, 30, 10)
	assert.Equal(t, 0.0, box.X)
	assert.InDelta(t, letterH, box.Y+box.Height, 1e-9)
	assert.InDelta(t, letterW*0.3, box.Width, 1e-9)
	assert.InDelta(t, letterH*0.1, box.Height, 1e-9)
}

func TestFieldBoxBottomTouchesBottomEdge(t *testing.T) {
	box := FieldBox(letterW, letterH, 10, 100, 30, 10)
	assert.Equal(t, 0.0, box.Y)
	assert.InDelta(t, letterW*0.1, box.X, 1e-9)
}

func TestFieldBoxExample(t *testing.T) {
	box := FieldBox(letterW, letterH, 10, 80, 30, 10)
	assert.InDelta(t, 61.2, box.X, 1e-9)
	assert.InDelta(t, 183.6, box.Width, 1e-9)
	assert.InDelta(t, 79.2, box.Height, 1e-9)
	// top edge sits 80% down the page
	assert.InDelta(t, letterH*0.2, box.Y+box.Height, 1e-9)
}

func TestFieldBoxNeverLeavesPage(t *testing.T) {
	cases := [][4]float64{
		{150, 150, 50, 50},
		{-20, -20, 10, 10},
		{95, 95, 200, 200},
		{0, 0, 0, 0},
		{100, 0, 0.1, 0.1},
		{math.NaN(), math.Inf(1), math.Inf(-1), math.NaN()},
	}
	for _, c := range cases {
		box := FieldBox(letterW, letterH, c[0], c[1], c[2], c[3])
		assert.GreaterOrEqual(t, box.X, 0.0, "case %v", c)
		assert.GreaterOrEqual(t, box.Y, 0.0, "case %v", c)
		assert.LessOrEqual(t, box.X+box.Width, letterW+1e-9, "case %v", c)
		assert.LessOrEqual(t, box.Y+box.Height, letterH+1e-9, "case %v", c)
		assert.GreaterOrEqual(t, box.Width, MinBoxSize, "case %v", c)
		assert.GreaterOrEqual(t, box.Height, MinBoxSize, "case %v", c)
	}
}

func TestFieldBoxMinimumSize(t *testing.T) {
	box := FieldBox(letterW, letterH, 50, 50, 0.5, 0.5)
	assert.Equal(t, MinBoxSize, box.Width)
	assert.Equal(t, MinBoxSize, box.Height)
}

func TestFieldBoxTinyPage(t *testing.T) {
	box := FieldBox(6, 4, 50, 50, 50, 50)
	assert.Equal(t, 6.0, box.Width)
	assert.Equal(t, 4.0, box.Height)
	assert.Equal(t, 0.0, box.X)
	assert.Equal(t, 0.0, box.Y)
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 3))
	assert.Equal(t, 1, ClampPage(-4, 3))
	assert.Equal(t, 2, ClampPage(2, 3))
	assert.Equal(t, 3, ClampPage(9, 3))
	assert.Equal(t, 1, ClampPage(5, 0))
}

func TestPercentOfInvertsFieldBox(t *testing.T) {
	box := FieldBox(letterW, letterH, 12.5, 40, 25, 8)
	x, y, w, h := PercentOf(letterW, letterH, box)
	assert.InDelta(t, 12.5, x, 1e-9)
	assert.InDelta(t, 40, y, 1e-9)
	assert.InDelta(t, 25, w, 1e-9)
	assert.InDelta(t, 8, h, 1e-9)
}

func TestFitImage(t *testing.T) {
	// wide image is bound by width
	w, h := FitImage(400, 100, 200, 100, 0.88, 0.65)
	assert.InDelta(t, 176, w, 1e-9)
	assert.InDelta(t, 44, h, 1e-9)

	// tall image is bound by height
	w, h = FitImage(100, 400, 200, 100, 0.88, 0.65)
	assert.InDelta(t, 65, h, 1e-9)
	assert.InDelta(t, 16.25, w, 1e-9)

	w, h = FitImage(0, 10, 200, 100, 0.88, 0.65)
	assert.Zero(t, w)
	assert.Zero(t, h)
}
