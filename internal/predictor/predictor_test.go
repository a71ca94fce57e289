package predictor

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/pageread/internal/detection"
	"github.com/MeKo-Tech/pageread/internal/recognition"
	"github.com/MeKo-Tech/pageread/internal/testutil"
)

type fakeDetection struct {
	fn    func(img image.Image) (detection.Heatmap, error)
	calls int
}

func (f *fakeDetection) Predict(img image.Image) (detection.Heatmap, error) {
	f.calls++
	return f.fn(img)
}

type fakeRecognition struct {
	fn    func(crops []image.Image) (recognition.Logits, error)
	calls int
}

func (f *fakeRecognition) Predict(crops []image.Image) (recognition.Logits, error) {
	f.calls++
	return f.fn(crops)
}

func whitePage(w, h int) image.Image {
	return imaging.New(w, h, color.White)
}

func heatmapFor(rects ...image.Rectangle) func(image.Image) (detection.Heatmap, error) {
	return func(img image.Image) (detection.Heatmap, error) {
		b := img.Bounds()
		return testutil.RectHeatmap(b.Dx(), b.Dy(), 0.9, rects...), nil
	}
}

func wordsFor(words ...string) func([]image.Image) (recognition.Logits, error) {
	return func(crops []image.Image) (recognition.Logits, error) {
		return testutil.LogitsForWords(recognition.Latin(), words[:len(crops)], 0.9, 16), nil
	}
}

func TestBuild_RequiresModels(t *testing.T) {
	_, err := NewBuilder().Build()
	assert.ErrorIs(t, err, ErrNoDetectionModel)

	_, err = NewBuilder().WithDetectionModel(&fakeDetection{}).Build()
	assert.ErrorIs(t, err, ErrNoRecognitionModel)
}

func TestBuild_PropagatesComponentErrors(t *testing.T) {
	cfg := detection.DefaultConfig()
	cfg.UnclipRatio = -1
	_, err := NewBuilder().
		WithDetectionModel(&fakeDetection{}).
		WithRecognitionModel(&fakeRecognition{}).
		WithDetectionConfig(cfg).
		Build()
	assert.Error(t, err)

	_, err = NewBuilder().
		WithDetectionModel(&fakeDetection{}).
		WithRecognitionModel(&fakeRecognition{}).
		WithVocabulary("aa").
		Build()
	assert.ErrorIs(t, err, recognition.ErrDuplicateRune)
}

func TestRegistry(t *testing.T) {
	RegisterDetectionModel("test-det", func() (DetectionModel, error) {
		return &fakeDetection{fn: heatmapFor()}, nil
	})
	RegisterRecognitionModel("test-rec", func() (RecognitionModel, error) {
		return &fakeRecognition{fn: wordsFor()}, nil
	})

	p, err := NewBuilder().
		WithDetectionArch("test-det").
		WithRecognitionArch("test-rec").
		Build()
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = NewBuilder().WithDetectionArch("nope").Build()
	assert.Error(t, err)

	_, err = NewRecognitionModel("nope")
	assert.Error(t, err)
}

func TestPredict_TwoPages(t *testing.T) {
	det := &fakeDetection{fn: heatmapFor(
		image.Rect(10, 10, 60, 25),
		image.Rect(10, 50, 80, 65),
	)}
	rec := &fakeRecognition{fn: wordsFor("hello", "world")}

	p, err := NewBuilder().
		WithDetectionModel(det).
		WithRecognitionModel(rec).
		Build()
	require.NoError(t, err)

	// Second page is too small to hold either rectangle fully but still maps
	// through the same fake; give it an empty heatmap instead.
	emptyDet := det.fn
	det.fn = func(img image.Image) (detection.Heatmap, error) {
		if img.Bounds().Dx() < 100 {
			b := img.Bounds()
			return testutil.RectHeatmap(b.Dx(), b.Dy(), 0), nil
		}
		return emptyDet(img)
	}

	pages, err := p.Predict([]image.Image{whitePage(128, 96), whitePage(64, 48)})
	require.NoError(t, err)
	require.Len(t, pages, 2)

	require.Len(t, pages[0].Words, 2)
	assert.Equal(t, "hello", pages[0].Words[0].Text)
	assert.Equal(t, "world", pages[0].Words[1].Text)
	for _, w := range pages[0].Words {
		assert.True(t, w.Box.IsRelative())
		assert.InDelta(t, 0.9, w.Confidence, 1e-6)
		assert.InDelta(t, 0.9, w.DetectionScore, 1e-3)
		assert.Nil(t, w.Rotated)
	}
	assert.Equal(t, 128, pages[0].Width)
	assert.Equal(t, 96, pages[0].Height)

	assert.Empty(t, pages[1].Words)
	assert.Equal(t, 1, rec.calls, "one recognition batch for the whole call")
}

func TestPredict_NoBoxesSkipsRecognition(t *testing.T) {
	det := &fakeDetection{fn: heatmapFor()}
	rec := &fakeRecognition{fn: wordsFor()}

	p, err := NewBuilder().WithDetectionModel(det).WithRecognitionModel(rec).Build()
	require.NoError(t, err)

	pages, err := p.Predict([]image.Image{whitePage(64, 64), whitePage(64, 64)})
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Empty(t, pages[0].Words)
	assert.Empty(t, pages[1].Words)
	assert.Zero(t, rec.calls)
}

func TestPredict_CrossPageAttribution(t *testing.T) {
	// Page 0 contributes one crop, page 1 none, page 2 two crops; the single
	// recognition batch must be re-split back onto the right pages in order.
	det := &fakeDetection{}
	calls := 0
	det.fn = func(img image.Image) (detection.Heatmap, error) {
		b := img.Bounds()
		calls++
		switch calls {
		case 1:
			return testutil.RectHeatmap(b.Dx(), b.Dy(), 0.9, image.Rect(10, 10, 50, 22)), nil
		case 2:
			return testutil.RectHeatmap(b.Dx(), b.Dy(), 0), nil
		default:
			return testutil.RectHeatmap(b.Dx(), b.Dy(), 0.9,
				image.Rect(10, 10, 50, 22), image.Rect(10, 40, 70, 52)), nil
		}
	}
	rec := &fakeRecognition{fn: wordsFor("one", "two", "three")}

	p, err := NewBuilder().WithDetectionModel(det).WithRecognitionModel(rec).Build()
	require.NoError(t, err)

	pages, err := p.Predict([]image.Image{
		whitePage(100, 80), whitePage(100, 80), whitePage(100, 80),
	})
	require.NoError(t, err)
	require.Len(t, pages, 3)
	require.Len(t, pages[0].Words, 1)
	assert.Equal(t, "one", pages[0].Words[0].Text)
	assert.Empty(t, pages[1].Words)
	require.Len(t, pages[2].Words, 2)
	assert.Equal(t, "two", pages[2].Words[0].Text)
	assert.Equal(t, "three", pages[2].Words[1].Text)
}

func TestPredict_RotatedMode(t *testing.T) {
	det := &fakeDetection{fn: heatmapFor(image.Rect(20, 30, 100, 50))}
	rec := &fakeRecognition{fn: wordsFor("tilt")}

	p, err := NewBuilder().
		WithDetectionModel(det).
		WithRecognitionModel(rec).
		WithAssumeStraightPages(false).
		Build()
	require.NoError(t, err)

	pages, err := p.Predict([]image.Image{whitePage(128, 128)})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Len(t, pages[0].Words, 1)

	w := pages[0].Words[0]
	assert.Equal(t, "tilt", w.Text)
	require.NotNil(t, w.Rotated)
	assert.Positive(t, w.Rotated.Width)
	assert.Positive(t, w.Rotated.Height)
	assert.GreaterOrEqual(t, w.Rotated.Angle, -90.0)
	assert.Less(t, w.Rotated.Angle, 90.0)
}

func TestPredict_OrientationCompensation(t *testing.T) {
	det := &fakeDetection{fn: func(img image.Image) (detection.Heatmap, error) {
		b := img.Bounds()
		return skewedBarHeatmap(b.Dx(), b.Dy(), 30), nil
	}}
	rec := &fakeRecognition{fn: func(crops []image.Image) (recognition.Logits, error) {
		words := make([]string, len(crops))
		for i := range words {
			words[i] = "w"
		}
		return testutil.LogitsForWords(recognition.Latin(), words, 0.9, 4), nil
	}}

	p, err := NewBuilder().
		WithDetectionModel(det).
		WithRecognitionModel(rec).
		WithEstimateOrientation(true).
		Build()
	require.NoError(t, err)

	pages, err := p.Predict([]image.Image{whitePage(200, 200)})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.InDelta(t, 30.0, pages[0].Angle, 1.5)
	assert.Equal(t, 2, det.calls, "detection reruns on the straightened page")
	require.NotEmpty(t, pages[0].Words)
	for _, w := range pages[0].Words {
		require.NotNil(t, w.Rotated, "straightened words report rotated geometry")
		assert.InDelta(t, pages[0].Angle, w.Rotated.Angle, 1e-9)
	}
}

func TestPredict_Errors(t *testing.T) {
	detErr := &fakeDetection{fn: func(image.Image) (detection.Heatmap, error) {
		return detection.Heatmap{}, errors.New("boom")
	}}
	rec := &fakeRecognition{fn: wordsFor("x")}

	p, err := NewBuilder().WithDetectionModel(detErr).WithRecognitionModel(rec).Build()
	require.NoError(t, err)
	_, err = p.Predict([]image.Image{whitePage(32, 32)})
	assert.ErrorContains(t, err, "boom")

	_, err = p.Predict([]image.Image{nil})
	assert.ErrorContains(t, err, "nil")

	det := &fakeDetection{fn: heatmapFor(image.Rect(5, 5, 25, 12))}
	short := &fakeRecognition{fn: func(crops []image.Image) (recognition.Logits, error) {
		return testutil.LogitsForWords(recognition.Latin(), nil, 0.9, 4), nil
	}}
	p, err = NewBuilder().WithDetectionModel(det).WithRecognitionModel(short).Build()
	require.NoError(t, err)
	_, err = p.Predict([]image.Image{whitePage(64, 64)})
	assert.Error(t, err)
}

// skewedBarHeatmap rasterizes parallel bars tilted counter-clockwise by
// visualDeg, mimicking a scanned page with skewed text lines.
func skewedBarHeatmap(w, h int, visualDeg float64) detection.Heatmap {
	m := detection.Heatmap{Data: make([]float32, w*h), Width: w, Height: h}
	rad := -visualDeg * math.Pi / 180
	dx, dy := math.Cos(rad), math.Sin(rad)
	px, py := -dy, dx
	for i := 0; i < 4; i++ {
		cx, cy := float64(w)/2, float64(h)/5*float64(i+1)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				rx, ry := float64(x)-cx, float64(y)-cy
				if math.Abs(rx*dx+ry*dy) <= 60 && math.Abs(rx*px+ry*py) <= 3.5 {
					m.Data[y*w+x] = 0.9
				}
			}
		}
	}
	return m
}
