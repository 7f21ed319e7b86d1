// Package keywords loads the keyword list and the embedding matrix the prompt
// builder and the keyword suggester read from. Both are loaded once at
// startup and never change afterwards.
package keywords

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/a-h/listingwriter/failure"
	"gopkg.in/yaml.v3"
)

// Set is an immutable keyword list, optionally with one embedding per keyword.
type Set struct {
	keywords   []string
	embeddings [][]float32
}

// New validates that keywords and embeddings line up. Either may be empty.
func New(keywords []string, embeddings [][]float32) (*Set, error) {
	if len(keywords) > 0 && len(embeddings) > 0 && len(keywords) != len(embeddings) {
		return nil, failure.New(failure.Configuration,
			fmt.Sprintf("keyword count (%d) doesn't match embedding count (%d)", len(keywords), len(embeddings)))
	}
	width := -1
	for i, e := range embeddings {
		if width == -1 {
			width = len(e)
		}
		if len(e) != width || width == 0 {
			return nil, failure.New(failure.Configuration,
				fmt.Sprintf("embedding %d has %d dimensions, expected %d", i, len(e), width))
		}
	}
	return &Set{
		keywords:   clone(keywords),
		embeddings: cloneMatrix(embeddings),
	}, nil
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return max(len(s.keywords), len(s.embeddings))
}

func (s *Set) HasKeywords() bool {
	return s != nil && len(s.keywords) > 0
}

func (s *Set) HasEmbeddings() bool {
	return s != nil && len(s.embeddings) > 0
}

// Keywords returns a copy of the keyword list.
func (s *Set) Keywords() []string {
	if s == nil {
		return nil
	}
	return clone(s.keywords)
}

// Keyword returns the keyword at index i.
func (s *Set) Keyword(i int) string {
	return s.keywords[i]
}

// Embeddings returns a copy of the first n rows of the matrix, or all of it when n < 0.
func (s *Set) Embeddings(n int) [][]float32 {
	if s == nil {
		return nil
	}
	if n < 0 || n > len(s.embeddings) {
		n = len(s.embeddings)
	}
	return cloneMatrix(s.embeddings[:n])
}

// Range calls f with each embedding row in index order, stopping if f returns false.
// Rows must not be modified.
func (s *Set) Range(f func(i int, embedding []float32) bool) {
	if s == nil {
		return
	}
	for i, e := range s.embeddings {
		if !f(i, e) {
			return
		}
	}
}

// Load reads the keyword file and the embedding file. Either path may be
// empty, but a path that is given must exist.
func Load(keywordsPath, embeddingsPath string) (s *Set, err error) {
	var kws []string
	if keywordsPath != "" {
		if kws, err = LoadKeywords(keywordsPath); err != nil {
			return nil, err
		}
	}
	var embs [][]float32
	if embeddingsPath != "" {
		if embs, err = LoadEmbeddings(embeddingsPath); err != nil {
			return nil, err
		}
		if keywordsPath == "" {
			return nil, failure.New(failure.Configuration, "an embeddings file was given without a keywords file")
		}
	}
	return New(kws, embs)
}

// LoadKeywords reads a JSON or YAML list of strings, a JSON or YAML object
// with a "keywords" list, or the first column of a CSV file.
func LoadKeywords(name string) (keywords []string, err error) {
	f, err := open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		keywords, err = decodeKeywordsJSON(f)
	case ".yaml", ".yml":
		keywords, err = decodeKeywordsYAML(f)
	case ".csv":
		keywords, err = decodeKeywordsCSV(f)
	default:
		err = fmt.Errorf("unsupported file type %q", filepath.Ext(name))
	}
	if err != nil {
		return nil, failure.Wrap(failure.Configuration, fmt.Sprintf("failed to read keywords from %q", name), err)
	}
	return keywords, nil
}

func decodeKeywordsJSON(r io.Reader) (keywords []string, err error) {
	var raw json.RawMessage
	if err = json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	if err = json.Unmarshal(raw, &keywords); err == nil {
		return keywords, nil
	}
	var wrapped struct {
		Keywords []string `json:"keywords"`
	}
	if err = json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Keywords, nil
}

func decodeKeywordsYAML(r io.Reader) (keywords []string, err error) {
	var node yaml.Node
	if err = yaml.NewDecoder(r).Decode(&node); err != nil {
		return nil, err
	}
	if err = node.Decode(&keywords); err == nil {
		return keywords, nil
	}
	var wrapped struct {
		Keywords []string `yaml:"keywords"`
	}
	if err = node.Decode(&wrapped); err != nil {
		return nil, err
	}
	return wrapped.Keywords, nil
}

func decodeKeywordsCSV(r io.Reader) (keywords []string, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	for i := 0; ; i++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		kw := strings.TrimSpace(record[0])
		if i == 0 && strings.EqualFold(kw, "keyword") {
			continue
		}
		if kw == "" {
			return nil, fmt.Errorf("line %d: empty keyword", i+1)
		}
		keywords = append(keywords, kw)
	}
	return keywords, nil
}

// LoadEmbeddings reads one vector per CSV row. A non-numeric first row is
// treated as a header.
func LoadEmbeddings(name string) (embeddings [][]float32, err error) {
	f, err := open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if embeddings, err = decodeEmbeddingsCSV(f); err != nil {
		return nil, failure.Wrap(failure.Configuration, fmt.Sprintf("failed to read embeddings from %q", name), err)
	}
	return embeddings, nil
}

func decodeEmbeddingsCSV(r io.Reader) (embeddings [][]float32, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	for line := 1; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row, err := parseRow(record)
		if err != nil {
			if line == 1 && !errors.Is(err, errNotFinite) {
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		embeddings = append(embeddings, row)
	}
	return embeddings, nil
}

var errNotFinite = errors.New("value is not a finite number")

func parseRow(record []string) (row []float32, err error) {
	row = make([]float32, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 32)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+1, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("column %d: %w", i+1, errNotFinite)
		}
		row[i] = float32(v)
	}
	return row, nil
}

func open(name string) (*os.File, error) {
	f, err := os.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, failure.Wrap(failure.Configuration, fmt.Sprintf("data file %q not found", name), err)
		}
		return nil, failure.Wrap(failure.Configuration, fmt.Sprintf("failed to open data file %q", name), err)
	}
	return f, nil
}

func clone(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneMatrix(m [][]float32) [][]float32 {
	if m == nil {
		return nil
	}
	out := make([][]float32, len(m))
	for i, row := range m {
		out[i] = append([]float32(nil), row...)
	}
	return out
}
