package geometry

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quadrantImage returns a w x h image with a distinct color per quadrant.
func quadrantImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill := func(r image.Rectangle, c color.RGBA) {
		draw.Draw(img, r, &image.Uniform{c}, image.Point{}, draw.Src)
	}
	fill(image.Rect(0, 0, w/2, h/2), color.RGBA{R: 255, A: 255})
	fill(image.Rect(w/2, 0, w, h/2), color.RGBA{G: 255, A: 255})
	fill(image.Rect(0, h/2, w/2, h), color.RGBA{B: 255, A: 255})
	fill(image.Rect(w/2, h/2, w, h), color.RGBA{R: 255, G: 255, A: 255})
	return img
}

func TestExtractCrops_Identity(t *testing.T) {
	img := quadrantImage(40, 30)
	crops, err := ExtractCrops(img, []Box{NewBox(0, 0, 1, 1)})
	require.NoError(t, err)
	require.Len(t, crops, 1)
	assert.Equal(t, 40, crops[0].Bounds().Dx())
	assert.Equal(t, 30, crops[0].Bounds().Dy())
}

func TestExtractCrops_QuadrantContent(t *testing.T) {
	img := quadrantImage(40, 40)
	crops, err := ExtractCrops(img, []Box{
		NewBox(0, 0, 0.5, 0.5),
		NewBox(0.5, 0.5, 1, 1),
	})
	require.NoError(t, err)
	require.Len(t, crops, 2)

	for i, crop := range crops {
		assert.Equal(t, 20, crop.Bounds().Dx(), "crop %d", i)
		assert.Equal(t, 20, crop.Bounds().Dy(), "crop %d", i)
	}
	r, _, _, _ := crops[0].At(crops[0].Bounds().Min.X+5, crops[0].Bounds().Min.Y+5).RGBA()
	assert.EqualValues(t, 0xffff, r, "top-left crop should be red")
	r2, g2, _, _ := crops[1].At(crops[1].Bounds().Min.X+5, crops[1].Bounds().Min.Y+5).RGBA()
	assert.EqualValues(t, 0xffff, r2, "bottom-right crop should be yellow")
	assert.EqualValues(t, 0xffff, g2, "bottom-right crop should be yellow")
}

func TestExtractCrops_EmptyList(t *testing.T) {
	crops, err := ExtractCrops(quadrantImage(10, 10), nil)
	require.NoError(t, err)
	assert.Empty(t, crops)
	assert.NotNil(t, crops)
}

func TestExtractCrops_Validation(t *testing.T) {
	img := quadrantImage(10, 10)

	_, err := ExtractCrops(img, []Box{{MinX: -0.1, MinY: 0, MaxX: 0.5, MaxY: 0.5}})
	assert.ErrorIs(t, err, ErrRelativeCoords)

	_, err = ExtractCrops(img, []Box{{MinX: 0, MinY: 0, MaxX: 1.2, MaxY: 0.5}})
	assert.ErrorIs(t, err, ErrRelativeCoords)

	_, err = ExtractCrops(img, []Box{{MinX: 0.5, MinY: 0.2, MaxX: 0.5, MaxY: 0.4}})
	assert.ErrorIs(t, err, ErrEmptyBox)

	_, err = ExtractCrops(nil, []Box{NewBox(0, 0, 1, 1)})
	assert.Error(t, err)
}

func TestExtractRotatedCrops_ClockwiseDimensions(t *testing.T) {
	img := quadrantImage(100, 80)
	boxes := []RotatedBox{
		{CenterX: 0.5, CenterY: 0.5, Width: 0.5, Height: 0.25, Angle: 0},
	}
	crops, err := ExtractRotatedCrops(img, boxes)
	require.NoError(t, err)
	require.Len(t, crops, 1)
	// sumW > sumH picks the clockwise ordering: output is width x height.
	assert.Equal(t, 50, crops[0].Bounds().Dx())
	assert.Equal(t, 20, crops[0].Bounds().Dy())
}

func TestExtractRotatedCrops_CounterClockwiseDimensions(t *testing.T) {
	img := quadrantImage(100, 80)
	boxes := []RotatedBox{
		{CenterX: 0.5, CenterY: 0.5, Width: 0.2, Height: 0.6, Angle: 0},
	}
	crops, err := ExtractRotatedCrops(img, boxes)
	require.NoError(t, err)
	require.Len(t, crops, 1)
	// Taller-than-wide batch flips a quarter turn: output is height x width.
	assert.Equal(t, 48, crops[0].Bounds().Dx())
	assert.Equal(t, 20, crops[0].Bounds().Dy())
}

func TestExtractRotatedCrops_AxisAlignedContent(t *testing.T) {
	img := quadrantImage(80, 80)
	// A box fully inside the red quadrant.
	boxes := []RotatedBox{
		{CenterX: 0.25, CenterY: 0.25, Width: 0.25, Height: 0.125, Angle: 0},
	}
	crops, err := ExtractRotatedCrops(img, boxes)
	require.NoError(t, err)
	require.Len(t, crops, 1)
	c := crops[0]
	r, g, b, _ := c.At(c.Bounds().Min.X+c.Bounds().Dx()/2, c.Bounds().Min.Y+c.Bounds().Dy()/2).RGBA()
	assert.EqualValues(t, 0xffff, r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestExtractRotatedCrops_EmptyAndValidation(t *testing.T) {
	img := quadrantImage(10, 10)

	crops, err := ExtractRotatedCrops(img, nil)
	require.NoError(t, err)
	assert.Empty(t, crops)

	_, err = ExtractRotatedCrops(img, []RotatedBox{{CenterX: 0.5, CenterY: 0.5, Width: 0, Height: 0.1}})
	assert.ErrorIs(t, err, ErrEmptyBox)

	_, err = ExtractRotatedCrops(img, []RotatedBox{{CenterX: 1.5, CenterY: 0.5, Width: 0.2, Height: 0.1}})
	assert.ErrorIs(t, err, ErrRelativeCoords)
}
