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

type GetProductDetailsInput struct {
	ProductID string `json:"product_id"`
}

type GetProductDetailsOutput struct {
	Product model.Product `json:"product"`
}

func getProductDetails(c *Catalog) func(context.Context, *GetProductDetailsInput) (*GetProductDetailsOutput, error) {
	return func(ctx context.Context, in *GetProductDetailsInput) (*GetProductDetailsOutput, error) {
		if in == nil || strings.TrimSpace(in.ProductID) == "" {
			return nil, fmt.Errorf("product_id is required")
		}
		p, ok := c.Get(in.ProductID)
		if !ok {
			return nil, fmt.Errorf("product not found: %s", in.ProductID)
		}
		return &GetProductDetailsOutput{Product: p}, nil
	}
}

func createGetProductDetailsTool(c *Catalog) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetProductDetails,
			Desc: "Get the full record of one catalog product: description, occasions, price, link and availability.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product_id": {
					Type:     schema.String,
					Desc:     "Exact product id from search_product results (e.g. aura-001).",
					Required: true,
				},
			}),
		},
		getProductDetails(c),
	)
}
