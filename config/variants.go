package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/listingwriter/failure"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTemperature   = 0.7
	DefaultMaxTokens     = 300
	DefaultBulletMarker  = "-"
	DefaultEmbeddingRows = 5
	// MaxEmbeddingRows bounds how much of the embedding matrix a prompt may carry.
	MaxEmbeddingRows = 20
)

var validMarkers = map[string]bool{"-": true, "•": true, "": true}

// Variant is one revision of the prompt: its wording, the model it was
// written for and how its output is rendered.
type Variant struct {
	Name              string  `yaml:"name"`
	Description       string  `yaml:"description"`
	Model             string  `yaml:"model"`
	Template          string  `yaml:"template"`
	MaxTokens         int     `yaml:"max_tokens"`
	Temperature       float64 `yaml:"temperature"`
	BulletMarker      string  `yaml:"bullet_marker"`
	IncludeKeywords   bool    `yaml:"include_keywords"`
	IncludeEmbeddings bool    `yaml:"include_embeddings"`
	EmbeddingRows     int     `yaml:"embedding_rows"`
}

func defaultVariant() Variant {
	return Variant{
		MaxTokens:     DefaultMaxTokens,
		Temperature:   DefaultTemperature,
		BulletMarker:  DefaultBulletMarker,
		EmbeddingRows: DefaultEmbeddingRows,
	}
}

func (v *Variant) UnmarshalYAML(value *yaml.Node) error {
	type plain Variant
	p := plain(defaultVariant())
	if err := value.Decode(&p); err != nil {
		return err
	}
	*v = Variant(p)
	return nil
}

func (v Variant) Validate() error {
	var errs []error
	if v.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if !strings.Contains(v.Template, ".user_input") {
		errs = append(errs, errors.New("template must reference .user_input"))
	}
	if v.IncludeKeywords && !strings.Contains(v.Template, ".keywords") {
		errs = append(errs, errors.New("include_keywords is set but the template doesn't reference .keywords"))
	}
	if v.IncludeEmbeddings {
		if !strings.Contains(v.Template, ".rank_embeddings") {
			errs = append(errs, errors.New("include_embeddings is set but the template doesn't reference .rank_embeddings"))
		}
		if v.EmbeddingRows <= 0 || v.EmbeddingRows > MaxEmbeddingRows {
			errs = append(errs, fmt.Errorf("embedding_rows must be between 1 and %d, got %d", MaxEmbeddingRows, v.EmbeddingRows))
		}
	}
	if v.MaxTokens < 1 || v.MaxTokens > 4096 {
		errs = append(errs, fmt.Errorf("max_tokens must be between 1 and 4096, got %d", v.MaxTokens))
	}
	if v.Temperature < 0 || v.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be between 0 and 2, got %g", v.Temperature))
	}
	if !validMarkers[v.BulletMarker] {
		errs = append(errs, fmt.Errorf("unsupported bullet_marker %q", v.BulletMarker))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("variant %q: %w", v.Name, err)
	}
	return nil
}

type Variants struct {
	Default  string    `yaml:"default"`
	Variants []Variant `yaml:"variants"`
}

// Get returns the named variant, or the default one when name is empty.
func (vs Variants) Get(name string) (v Variant, ok bool) {
	if name == "" {
		name = vs.Default
	}
	for _, v := range vs.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return v, false
}

// WithModel returns a copy where every variant uses model. An empty model
// leaves the variants unchanged.
func (vs Variants) WithModel(model string) Variants {
	if model == "" {
		return vs
	}
	variants := make([]Variant, len(vs.Variants))
	for i, v := range vs.Variants {
		v.Model = model
		variants[i] = v
	}
	vs.Variants = variants
	return vs
}

func (vs Variants) Validate() error {
	if len(vs.Variants) == 0 {
		return failure.New(failure.Configuration, "no prompt variants configured")
	}
	seen := make(map[string]bool, len(vs.Variants))
	var errs []error
	for _, v := range vs.Variants {
		if seen[v.Name] {
			errs = append(errs, fmt.Errorf("duplicate variant %q", v.Name))
		}
		seen[v.Name] = true
		errs = append(errs, v.Validate())
	}
	if _, ok := vs.Get(""); !ok {
		errs = append(errs, fmt.Errorf("default variant %q is not defined", vs.Default))
	}
	if err := errors.Join(errs...); err != nil {
		return failure.Wrap(failure.Configuration, "invalid prompt variants", err)
	}
	return nil
}

func LoadVariants(r io.Reader) (vs Variants, err error) {
	if err = yaml.NewDecoder(r).Decode(&vs); err != nil {
		return vs, failure.Wrap(failure.Configuration, "failed to decode prompt variants", err)
	}
	if vs.Default == "" && len(vs.Variants) > 0 {
		vs.Default = vs.Variants[0].Name
	}
	return vs, vs.Validate()
}

//go:embed variants.yaml
var defaultVariants []byte

func DefaultVariants() Variants {
	vs, err := LoadVariants(bytes.NewReader(defaultVariants))
	if err != nil {
		panic(fmt.Sprintf("config: embedded variants are invalid: %v", err))
	}
	return vs
}
