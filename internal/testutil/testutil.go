// Package testutil builds the synthetic inputs the pipeline tests feed into
// the post-processors: probability maps with known blobs, logits spelling
// known words, and rendered text images.
package testutil

import (
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/MeKo-Tech/pageread/internal/detection"
	"github.com/MeKo-Tech/pageread/internal/recognition"
)

// RectHeatmap returns a w x h probability map with the given rectangles set
// to value and zero elsewhere. Rectangles use half-open image coordinates.
func RectHeatmap(w, h int, value float32, rects ...image.Rectangle) detection.Heatmap {
	m := detection.Heatmap{Data: make([]float32, w*h), Width: w, Height: h}
	for _, r := range rects {
		r = r.Intersect(image.Rect(0, 0, w, h))
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				m.Data[y*w+x] = value
			}
		}
	}
	return m
}

// LogitsForWords builds one probability-style sequence per word: the word's
// characters at the given probability, then end-of-sequence, then padding up
// to steps. Panics on characters outside the vocabulary; test fixtures are
// expected to match it.
func LogitsForWords(v *recognition.Vocabulary, words []string, prob float64, steps int) recognition.Logits {
	classes := v.Classes()
	data := make([]float32, 0, len(words)*steps*classes)
	for _, word := range words {
		runes := []rune(word)
		if len(runes)+1 > steps {
			panic("testutil: word longer than step budget: " + word)
		}
		for t := 0; t < steps; t++ {
			idx := v.PAD()
			switch {
			case t < len(runes):
				idx = v.Index(runes[t])
				if idx < 0 {
					panic("testutil: character outside vocabulary in " + word)
				}
			case t == len(runes):
				idx = v.EOS()
			}
			data = append(data, probRow(classes, idx, prob)...)
		}
	}
	return recognition.Logits{Data: data, Batch: len(words), Steps: steps, Classes: classes}
}

func probRow(classes, idx int, p float64) []float32 {
	row := make([]float32, classes)
	rest := float32((1 - p) / float64(classes-1))
	for i := range row {
		row[i] = rest
	}
	row[idx] = float32(p)
	return row
}

// TextImage renders a line of text with the basicfont face onto a white
// w x h canvas, roughly centered.
func TextImage(text string, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: face,
	}
	width := d.MeasureString(text).Ceil()
	d.Dot = fixed.P((w-width)/2, (h+face.Metrics().Ascent.Ceil())/2)
	d.DrawString(text)
	return img
}
