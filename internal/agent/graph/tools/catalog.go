package tools

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/aura-core/server/internal/agent/model"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog is an in-memory, read-only product catalog.
type Catalog struct {
	products []model.Product
	byID     map[string]model.Product
}

type catalogFile struct {
	Products []model.Product `yaml:"products"`
}

// LoadCatalog parses a YAML catalog document. Product ids must be unique and
// every product needs a title and an image.
func LoadCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{byID: make(map[string]model.Product, len(f.Products))}
	for i, p := range f.Products {
		if p.ID == "" || p.Title == "" || p.Image == "" {
			return nil, fmt.Errorf("catalog product %d: id, title and image are required", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog product %d: duplicate id %q", i, p.ID)
		}
		c.byID[p.ID] = p
		c.products = append(c.products, p)
	}
	return c, nil
}

var (
	defaultCatalog     *Catalog
	defaultCatalogErr  error
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = LoadCatalog(catalogYAML)
	})
	return defaultCatalog, defaultCatalogErr
}

func (c *Catalog) Len() int { return len(c.products) }

// Get looks a product up by id.
func (c *Catalog) Get(id string) (model.Product, bool) {
	p, ok := c.byID[strings.TrimSpace(id)]
	return p, ok
}

// SearchParams narrows a catalog search. Category and Occasion are matched
// by substring, case-insensitively, and rank matching products higher.
type SearchParams struct {
	Query      string
	Category   string
	Occasion   string
	MaxResults int
}

// Search ranks products by query terms found, then category and occasion
// matches. A product must match at least one query term or the category; an
// empty search returns the whole catalog. Ties keep catalog order, in-stock
// items first.
func (c *Catalog) Search(p SearchParams) []model.Product {
	terms := strings.Fields(strings.ToLower(p.Query))
	category := strings.ToLower(strings.TrimSpace(p.Category))
	occasion := strings.ToLower(strings.TrimSpace(p.Occasion))

	type scored struct {
		product model.Product
		score   int
	}
	var hits []scored
	for _, prod := range c.products {
		text := searchText(prod)
		termHits := 0
		for _, t := range terms {
			if strings.Contains(text, t) {
				termHits++
			}
		}
		catHit := category != "" && matchesCategory(prod.Category, category)
		occHit := occasion != "" && matchesOccasion(prod.Occasions, occasion)

		if termHits == 0 && !catHit && (len(terms) > 0 || category != "") {
			continue
		}

		score := termHits * 2
		if catHit {
			score += 3
		}
		if occHit {
			score += 2
		}
		score *= 2
		if prod.InStock {
			score++
		}
		hits = append(hits, scored{product: prod, score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if p.MaxResults > 0 && len(hits) > p.MaxResults {
		hits = hits[:p.MaxResults]
	}
	out := make([]model.Product, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.product)
	}
	return out
}

func searchText(p model.Product) string {
	return strings.ToLower(strings.Join([]string{
		p.Title, p.Category, p.Description, strings.Join(p.Occasions, " "),
	}, " "))
}

// matchesCategory accepts plurals and loose phrasing ("dresses", "evening dress").
func matchesCategory(category, want string) bool {
	c := strings.ToLower(category)
	return strings.Contains(want, c) || strings.Contains(c, strings.TrimSuffix(want, "s"))
}

func matchesOccasion(occasions []string, want string) bool {
	for _, o := range occasions {
		o = strings.ToLower(o)
		if strings.Contains(want, o) || strings.Contains(o, want) {
			return true
		}
	}
	return false
}
