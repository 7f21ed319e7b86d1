package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/a-h/listingwriter/config"
	"github.com/a-h/listingwriter/failure"
	"github.com/tmc/langchaingo/prompts"
)

const (
	SlotUserInput      = "user_input"
	SlotKeywords       = "keywords"
	SlotRankEmbeddings = "rank_embeddings"
)

type Input struct {
	UserText   string
	Keywords   []string
	Embeddings [][]float32
}

type Builder struct {
	variant  config.Variant
	template prompts.PromptTemplate
}

func New(variant config.Variant) (*Builder, error) {
	if err := variant.Validate(); err != nil {
		return nil, failure.Wrap(failure.Configuration, "invalid prompt variant", err)
	}
	b := &Builder{
		variant:  variant,
		template: prompts.NewPromptTemplate(variant.Template, []string{SlotUserInput, SlotKeywords, SlotRankEmbeddings}),
	}
	if _, err := b.template.Format(map[string]any{SlotUserInput: "x", SlotKeywords: "", SlotRankEmbeddings: ""}); err != nil {
		return nil, failure.Wrap(failure.Configuration, fmt.Sprintf("variant %q: invalid template", variant.Name), err)
	}
	return b, nil
}

// Build renders the template. The user text is inserted exactly as given.
func (b *Builder) Build(in Input) (string, error) {
	if strings.TrimSpace(in.UserText) == "" {
		return "", failure.New(failure.EmptyInput, "please enter a product description before generating")
	}
	values := map[string]any{
		SlotUserInput:      in.UserText,
		SlotKeywords:       "",
		SlotRankEmbeddings: "",
	}
	if b.variant.IncludeKeywords {
		values[SlotKeywords] = strings.Join(in.Keywords, ", ")
	}
	if b.variant.IncludeEmbeddings {
		values[SlotRankEmbeddings] = FormatEmbeddings(in.Embeddings, b.variant.EmbeddingRows)
	}
	p, err := b.template.Format(values)
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return p, nil
}

// FormatEmbeddings writes at most rows vectors, one per line.
func FormatEmbeddings(embeddings [][]float32, rows int) string {
	if rows < len(embeddings) {
		embeddings = embeddings[:max(rows, 0)]
	}
	var sb strings.Builder
	for i, e := range embeddings {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("[")
		for j, v := range e {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
		}
		sb.WriteString("]")
	}
	return sb.String()
}
