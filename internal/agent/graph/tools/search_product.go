package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/aura-core/server/internal/agent/model"
)

// ===================================
// Search Product Tool
// ===================================

const (
	DefaultMaxResults = 5
	MaxResultsLimit   = 20
)

type SearchProductInput struct {
	Query      string `json:"query"`
	Category   string `json:"category,omitempty"`
	Occasion   string `json:"occasion,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

type SearchProductOutput struct {
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
}

// searchProducts is the tool body, kept separate so it can be called without
// the JSON round trip.
func searchProducts(c *Catalog, defaultMax int) func(context.Context, *SearchProductInput) (*SearchProductOutput, error) {
	if defaultMax <= 0 {
		defaultMax = DefaultMaxResults
	}
	return func(ctx context.Context, in *SearchProductInput) (*SearchProductOutput, error) {
		if in == nil || strings.TrimSpace(in.Query) == "" {
			return nil, fmt.Errorf("query is required")
		}
		max := in.MaxResults
		if max <= 0 {
			max = defaultMax
		}
		max = clampInt(max, 1, MaxResultsLimit)

		products := c.Search(SearchParams{
			Query:      in.Query,
			Category:   in.Category,
			Occasion:   in.Occasion,
			MaxResults: max,
		})
		if products == nil {
			products = []model.Product{}
		}
		return &SearchProductOutput{Products: products, Total: len(products)}, nil
	}
}

func createSearchProductTool(c *Catalog, defaultMax int) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolSearchProduct,
			Desc: "Search the fashion catalog. Returns products with id, title, image, category, occasions, price and availability. Call this before recommending anything.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     schema.String,
					Desc:     "Search keywords: product type plus style, material or color. Examples: linen dress, navy suit, white sneakers.",
					Required: true,
				},
				"category": {
					Type: schema.String,
					Desc: "Optional product type filter: dress, suit, coat, shoes, shirt, jacket, bag.",
				},
				"occasion": {
					Type: schema.String,
					Desc: "Optional occasion, e.g. wedding, business, beach, evening.",
				},
				"max_results": {
					Type: schema.Integer,
					Desc: fmt.Sprintf("Maximum number of products to return (default: %d, max: %d)", defaultMax, MaxResultsLimit),
				},
			}),
		},
		searchProducts(c, defaultMax),
	)
}

// clampInt returns v limited to [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
