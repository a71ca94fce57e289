// Package recognition decodes per-timestep classification logits from a text
// recognition model into strings with a conservative per-word confidence.
package recognition

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyVocabulary reports a vocabulary with no characters.
	ErrEmptyVocabulary = errors.New("recognition: vocabulary must not be empty")
	// ErrDuplicateRune reports a vocabulary listing the same character twice.
	ErrDuplicateRune = errors.New("recognition: vocabulary contains duplicate characters")
)

// Vocabulary is an ordered character set with reserved special classes
// appended after the characters: end-of-sequence at index Len(), then
// start-of-sequence and padding for permutation-aware decoders.
type Vocabulary struct {
	runes []rune
	index map[rune]int
}

// NewVocabulary builds a vocabulary from an ordered character string.
func NewVocabulary(chars string) (*Vocabulary, error) {
	runes := []rune(chars)
	if len(runes) == 0 {
		return nil, ErrEmptyVocabulary
	}
	index := make(map[rune]int, len(runes))
	for i, r := range runes {
		if _, dup := index[r]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRune, r)
		}
		index[r] = i
	}
	return &Vocabulary{runes: runes, index: index}, nil
}

// Len returns the number of characters, excluding special classes.
func (v *Vocabulary) Len() int { return len(v.runes) }

// EOS returns the end-of-sequence class index.
func (v *Vocabulary) EOS() int { return len(v.runes) }

// SOS returns the start-of-sequence class index.
func (v *Vocabulary) SOS() int { return len(v.runes) + 1 }

// PAD returns the padding class index.
func (v *Vocabulary) PAD() int { return len(v.runes) + 2 }

// Classes returns the total class count including the special classes.
func (v *Vocabulary) Classes() int { return len(v.runes) + 3 }

// Rune returns the character for a class index and whether the index maps to
// a character at all (special classes and out-of-range indices do not).
func (v *Vocabulary) Rune(i int) (rune, bool) {
	if i < 0 || i >= len(v.runes) {
		return 0, false
	}
	return v.runes[i], true
}

// Index returns the class index of a character, or -1 if absent.
func (v *Vocabulary) Index(r rune) int {
	if i, ok := v.index[r]; ok {
		return i
	}
	return -1
}

// String returns the ordered character set.
func (v *Vocabulary) String() string { return string(v.runes) }

const latinChars = "0123456789abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~ "

// Latin returns the built-in default vocabulary: digits, ASCII letters,
// punctuation and space.
func Latin() *Vocabulary {
	v, err := NewVocabulary(latinChars)
	if err != nil {
		panic(err) // static character set
	}
	return v
}

type vocabularyFile struct {
	Characters string `yaml:"characters"`
}

// LoadVocabulary reads an ordered character set from a yaml file with a
// single `characters` entry.
func LoadVocabulary(path string) (*Vocabulary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("recognition: read vocabulary: %w", err)
	}
	var f vocabularyFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("recognition: parse vocabulary %s: %w", path, err)
	}
	v, err := NewVocabulary(f.Characters)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return v, nil
}
