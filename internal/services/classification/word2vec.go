package classification

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/killallgit/waskita-api/internal/services/cleaning"
)

// WordVectors is a word2vec embedding table loaded from the text format
type WordVectors struct {
	dim     int
	vectors map[string][]float64
}

// NewWordVectors builds a table from an in-memory map. Every vector must have length dim.
func NewWordVectors(dim int, vectors map[string][]float64) (*WordVectors, error) {
	for w, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector for %q has %d values, want %d", w, len(v), dim)
		}
	}
	return &WordVectors{dim: dim, vectors: vectors}, nil
}

// LoadWordVectors reads a word2vec text file: a "<count> <dim>" header, then one word per line
func LoadWordVectors(path string) (*WordVectors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening word vectors: %w", err)
	}
	defer f.Close()
	return ReadWordVectors(f)
}

// ReadWordVectors parses the word2vec text format from r
func ReadWordVectors(r io.Reader) (*WordVectors, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading word vectors header: %w", err)
		}
		return nil, fmt.Errorf("word vectors file is empty")
	}
	header := strings.Fields(sc.Text())
	if len(header) != 2 {
		return nil, fmt.Errorf("invalid word vectors header %q", sc.Text())
	}
	count, err := strconv.Atoi(header[0])
	if err != nil {
		return nil, fmt.Errorf("invalid word count: %w", err)
	}
	dim, err := strconv.Atoi(header[1])
	if err != nil || dim <= 0 {
		return nil, fmt.Errorf("invalid vector size %q", header[1])
	}

	wv := &WordVectors{dim: dim, vectors: make(map[string][]float64, count)}
	line := 1
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != dim+1 {
			return nil, fmt.Errorf("line %d: got %d values, want %d", line, len(fields)-1, dim)
		}
		vec := make([]float64, dim)
		for i, s := range fields[1:] {
			if vec[i], err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		wv.vectors[fields[0]] = vec
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading word vectors: %w", err)
	}
	return wv, nil
}

// Dimension returns the vector length
func (w *WordVectors) Dimension() int {
	return w.dim
}

// Len returns the vocabulary size
func (w *WordVectors) Len() int {
	return len(w.vectors)
}

// Vectorize averages the vectors of known words. Text is cleaned first and
// single-character tokens are dropped.
func (w *WordVectors) Vectorize(text string) []float64 {
	out := make([]float64, w.dim)
	var n int
	for _, word := range Tokenize(text) {
		vec, ok := w.vectors[word]
		if !ok {
			continue
		}
		for i, v := range vec {
			out[i] += v
		}
		n++
	}
	if n == 0 {
		return out
	}
	for i := range out {
		out[i] /= float64(n)
	}
	return out
}

// Tokenize splits cleaned text into words longer than one character
func Tokenize(text string) []string {
	fields := strings.Fields(cleaning.Clean(text))
	words := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 1 {
			words = append(words, f)
		}
	}
	return words
}

// IsZero reports whether every component of vec is zero
func IsZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
