// Package fallback synthesizes deterministic, schema-valid placeholder
// catalog data for requests that no live endpoint answered. The data lives
// in an embedded fixture file so the generator is a pure lookup/filter over
// data rather than logic interleaved with literals.
package fallback

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	_ "embed"

	"github.com/GE3O/fence-catalog/internal/model"
)

//go:embed fixtures.json
var fixturesJSON []byte

// fixtures mirrors the structure of fixtures.json.
type fixtures struct {
	Categories     []model.Category `json:"categories"`
	Products       []model.Product  `json:"products"`
	DefaultProduct model.Product    `json:"default_product"`
}

// Generator serves synthetic catalog resources from the fixture set.
// Safe for concurrent use; all methods return fresh copies.
type Generator struct {
	fx fixtures
}

// New parses the embedded fixture set. Called once at startup.
func New() (*Generator, error) {
	var fx fixtures
	if err := json.Unmarshal(fixturesJSON, &fx); err != nil {
		return nil, fmt.Errorf("parsing fallback fixtures: %w", err)
	}
	if len(fx.Categories) == 0 || len(fx.Products) == 0 {
		return nil, fmt.Errorf("fallback fixtures incomplete")
	}
	return &Generator{fx: fx}, nil
}

// Synthesize produces a placeholder resource for the given logical path and
// query parameters. Pure and deterministic: identical arguments yield
// structurally identical output. Returns an error for resource shapes that
// have no synthetic equivalent (the cascade then propagates its last
// recorded transport failure instead).
func (g *Generator) Synthesize(path string, params url.Values) (any, error) {
	clean := strings.Trim(path, "/")

	switch {
	case clean == "products/categories":
		return g.categories(), nil

	case clean == "products":
		return g.collection(params), nil

	default:
		if rest, ok := strings.CutPrefix(clean, "products/"); ok {
			if id, err := strconv.Atoi(rest); err == nil {
				return g.product(id), nil
			}
		}
		return nil, fmt.Errorf("no synthetic data for resource %q", path)
	}
}

// categories returns the full fixed catalog taxonomy.
func (g *Generator) categories() []model.Category {
	out := make([]model.Category, len(g.fx.Categories))
	copy(out, g.fx.Categories)
	return out
}

// product returns the curated record for a well-known id, or the fallback
// template (flagged via is_fallback) for ids the fixture set doesn't cover.
func (g *Generator) product(id int) model.Product {
	for i := range g.fx.Products {
		if g.fx.Products[i].ID == id {
			return g.expand(g.fx.Products[i])
		}
	}
	p := g.expand(g.fx.DefaultProduct)
	p.ID = id
	return p
}

// collection returns fixture products honoring the same category and search
// filters the live API accepts: category matches numeric id or slug, search
// matches case-insensitively against the product name. Every entry carries
// the full single-product shape.
func (g *Generator) collection(params url.Values) []model.Product {
	category := params.Get("category")
	search := strings.ToLower(params.Get("search"))

	out := make([]model.Product, 0, len(g.fx.Products))
	for i := range g.fx.Products {
		p := &g.fx.Products[i]
		if category != "" && !p.InCategory(category) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, g.expand(*p))
	}
	return out
}

// expand deep-copies a fixture product and fills gaps from the default
// template so every synthetic product conforms to the full field set of a
// genuine single-product response.
func (g *Generator) expand(p model.Product) model.Product {
	def := &g.fx.DefaultProduct

	if p.Price == "" {
		p.Price = def.Price
	}
	if p.StockStatus == "" {
		p.StockStatus = def.StockStatus
	}

	attrs := p.Attributes
	if len(attrs) == 0 {
		attrs = def.Attributes
	}
	p.Attributes = make([]model.ProductAttribute, len(attrs))
	for i, a := range attrs {
		opts := make([]string, len(a.Options))
		copy(opts, a.Options)
		p.Attributes[i] = model.ProductAttribute{Name: a.Name, Options: opts}
	}

	cats := make([]model.CategoryRef, len(p.Categories))
	copy(cats, p.Categories)
	p.Categories = cats

	vars := make([]int, len(p.Variations))
	copy(vars, p.Variations)
	p.Variations = vars

	if p.StockQuantity != nil {
		qty := *p.StockQuantity
		p.StockQuantity = &qty
	}

	return p
}
