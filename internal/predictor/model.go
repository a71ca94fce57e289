package predictor

import (
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/MeKo-Tech/pageread/internal/detection"
	"github.com/MeKo-Tech/pageread/internal/recognition"
)

// DetectionModel produces a text probability map for one page image. The
// predictor treats the network as a black box over already-materialized
// arrays; post-processing of the map happens in the detection package.
type DetectionModel interface {
	Predict(img image.Image) (detection.Heatmap, error)
}

// RecognitionModel produces per-timestep classification logits for a batch
// of word crops. The returned batch dimension must match len(crops).
type RecognitionModel interface {
	Predict(crops []image.Image) (recognition.Logits, error)
}

var (
	registryMu           sync.RWMutex
	detectionFactories   = map[string]func() (DetectionModel, error){}
	recognitionFactories = map[string]func() (RecognitionModel, error){}
)

// RegisterDetectionModel makes a detection architecture available by name.
// Registration typically happens in the model package's init.
func RegisterDetectionModel(name string, factory func() (DetectionModel, error)) {
	registryMu.Lock()
	defer registryMu.Unlock()
	detectionFactories[name] = factory
}

// RegisterRecognitionModel makes a recognition architecture available by name.
func RegisterRecognitionModel(name string, factory func() (RecognitionModel, error)) {
	registryMu.Lock()
	defer registryMu.Unlock()
	recognitionFactories[name] = factory
}

// NewDetectionModel instantiates a registered detection architecture.
func NewDetectionModel(name string) (DetectionModel, error) {
	registryMu.RLock()
	factory, ok := detectionFactories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("predictor: unknown detection architecture %q (have %v)",
			name, registeredNames(detectionFactories))
	}
	return factory()
}

// NewRecognitionModel instantiates a registered recognition architecture.
func NewRecognitionModel(name string) (RecognitionModel, error) {
	registryMu.RLock()
	factory, ok := recognitionFactories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("predictor: unknown recognition architecture %q (have %v)",
			name, registeredNames(recognitionFactories))
	}
	return factory()
}

func registeredNames[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
