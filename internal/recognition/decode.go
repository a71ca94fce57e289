package recognition

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrLogitsShape reports a logits tensor whose data length does not match
	// its declared dimensions.
	ErrLogitsShape = errors.New("recognition: logits data length must equal batch*steps*classes")
	// ErrVocabularyMismatch reports logits with fewer classes than the
	// vocabulary plus its end-of-sequence marker.
	ErrVocabularyMismatch = errors.New("recognition: logits class count smaller than vocabulary")
)

// Logits is a batch of per-timestep classification outputs, row-major:
// Data[(b*Steps+t)*Classes+c]. Values may be raw logits or already-softmaxed
// probabilities; the decoder detects which.
type Logits struct {
	Data    []float32
	Batch   int
	Steps   int
	Classes int
}

// Validate checks the shape contract. A zero batch with no data is valid.
func (l Logits) Validate() error {
	if l.Batch == 0 && len(l.Data) == 0 {
		return nil
	}
	if l.Batch < 0 || l.Steps <= 0 || l.Classes <= 0 ||
		len(l.Data) != l.Batch*l.Steps*l.Classes {
		return fmt.Errorf("%w: %dx%dx%d with %d values",
			ErrLogitsShape, l.Batch, l.Steps, l.Classes, len(l.Data))
	}
	return nil
}

func (l Logits) row(b, t int) []float32 {
	off := (b*l.Steps + t) * l.Classes
	return l.Data[off : off+l.Classes]
}

// Word is one decoded sequence with its weakest-link confidence.
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// PostProcessor decodes recognition logits against a fixed vocabulary. It is
// immutable after construction and safe for concurrent use.
type PostProcessor struct {
	vocab *Vocabulary
	clean CleanOptions
}

// NewPostProcessor builds a decoder for the given vocabulary.
func NewPostProcessor(vocab *Vocabulary, clean CleanOptions) (*PostProcessor, error) {
	if vocab == nil || vocab.Len() == 0 {
		return nil, ErrEmptyVocabulary
	}
	return &PostProcessor{vocab: vocab, clean: clean}, nil
}

// Vocabulary returns the decoder's character set.
func (p *PostProcessor) Vocabulary() *Vocabulary { return p.vocab }

// Decode turns logits into one Word per sequence, order-preserving. Each
// timestep contributes its arg-max class; the text stops at the first
// end-of-sequence marker while the confidence is the minimum arg-max
// probability over the full raw sequence. A sequence without an
// end-of-sequence marker decodes to its full length; that is a length-cap
// condition, not an error.
func (p *PostProcessor) Decode(l Logits) ([]Word, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if l.Batch == 0 {
		return []Word{}, nil
	}
	if l.Classes < p.vocab.Len()+1 {
		return nil, fmt.Errorf("%w: %d classes for %d characters",
			ErrVocabularyMismatch, l.Classes, p.vocab.Len())
	}

	words := make([]Word, l.Batch)
	for b := 0; b < l.Batch; b++ {
		var sb strings.Builder
		minProb := math.Inf(1)
		ended := false
		for t := 0; t < l.Steps; t++ {
			row := l.row(b, t)
			idx := argmax(row)
			minProb = math.Min(minProb, classProb(row, idx))
			if ended {
				continue
			}
			if idx == p.vocab.EOS() {
				ended = true
				continue
			}
			// Start-of-sequence and padding decode to nothing but still
			// weigh on the confidence.
			if r, ok := p.vocab.Rune(idx); ok {
				sb.WriteRune(r)
			}
		}
		words[b] = Word{
			Text:       Clean(sb.String(), p.clean),
			Confidence: minProb,
		}
	}
	return words, nil
}

func argmax(v []float32) int {
	idx := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[idx] {
			idx = i
		}
	}
	return idx
}

// classProb returns the softmax probability of v[idx] among v. Rows that
// already look like a probability distribution are passed through.
func classProb(v []float32, idx int) float64 {
	var sum float64
	minV, maxV := v[0], v[0]
	for _, x := range v {
		sum += float64(x)
		minV = min(minV, x)
		maxV = max(maxV, x)
	}
	if sum > 0.99 && sum < 1.01 && minV >= 0 && maxV <= 1 {
		return float64(v[idx])
	}
	var denom float64
	for _, x := range v {
		denom += math.Exp(float64(x - maxV))
	}
	if denom == 0 {
		return 0
	}
	return math.Exp(float64(v[idx]-maxV)) / denom
}
