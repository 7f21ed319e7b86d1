package get

import (
	"net/http"

	"github.com/a-h/listingwriter/models"
	"github.com/a-h/listingwriter/workflow"
	"github.com/a-h/respond"
)

func New(generator *workflow.Generator) Handler {
	return Handler{
		generator: generator,
	}
}

type Handler struct {
	generator *workflow.Generator
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := models.VariantsGetResponse{
		Default: h.generator.DefaultVariant(),
	}
	for _, v := range h.generator.Variants() {
		resp.Variants = append(resp.Variants, models.Variant{
			Name:        v.Name,
			Description: v.Description,
			Model:       v.Model,
		})
	}
	respond.WithJSON(w, resp, http.StatusOK)
}
