package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/aura-core/server/internal/agent/model"
)

const (
	ToolSearchProduct     = "search_product"
	ToolGetProductDetails = "get_product_details"
)

// GetResearchTools returns the tools bound to the research model.
func GetResearchTools(c *Catalog, defaultMaxResults int) []tool.BaseTool {
	return []tool.BaseTool{
		createSearchProductTool(c, defaultMaxResults),
		createGetProductDetailsTool(c),
	}
}

// GetToolInfos collects tool schemas for model binding.
func GetToolInfos(ctx context.Context, tools []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ProductsFromResult extracts products from a tool result payload. Both the
// search and the details output shapes are recognised; anything else yields nil.
func ProductsFromResult(content string) []model.Product {
	content = strings.TrimSpace(content)
	if content == "" || content[0] != '{' {
		return nil
	}
	var out struct {
		Products []model.Product `json:"products"`
		Product  *model.Product  `json:"product"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil
	}
	if out.Product != nil && out.Product.ID != "" {
		return append(out.Products, *out.Product)
	}
	return out.Products
}

// MergeProducts appends incoming products not already present, by id, keeping
// first-seen order.
func MergeProducts(existing []model.Product, incoming ...model.Product) []model.Product {
	seen := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		seen[p.ID] = struct{}{}
	}
	for _, p := range incoming {
		if p.ID == "" {
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		existing = append(existing, p)
	}
	return existing
}

// SanitizeArguments normalises model-produced tool arguments. It never fails;
// input that is not a JSON object is returned unchanged.
func SanitizeArguments(name, arguments string) string {
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		return arguments
	}

	switch name {
	case ToolSearchProduct:
		if v, ok := m["query"]; ok {
			m["query"] = strings.TrimSpace(toString(v))
		}
		for _, k := range []string{"category", "occasion"} {
			if v, ok := m[k]; ok {
				if s, isStr := v.(string); isStr {
					m[k] = strings.TrimSpace(s)
				} else {
					delete(m, k)
				}
			}
		}
		if v, ok := m["max_results"]; ok {
			switch vv := v.(type) {
			case float64:
				// JSON numbers decode as float64
				m["max_results"] = clampInt(int(vv), 1, MaxResultsLimit)
			case string:
				var n int
				if _, err := fmt.Sscanf(strings.TrimSpace(vv), "%d", &n); err == nil {
					m["max_results"] = clampInt(n, 1, MaxResultsLimit)
				} else {
					delete(m, "max_results")
				}
			default:
				delete(m, "max_results")
			}
		}
	case ToolGetProductDetails:
		if v, ok := m["product_id"]; ok {
			m["product_id"] = strings.TrimSpace(toString(v))
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return arguments
	}
	return string(b)
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
