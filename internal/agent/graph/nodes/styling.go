package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/aura-core/server/internal/agent/model"
	"github.com/aura-core/server/internal/agent/styling"
)

// Styler visualizes products on the user's photos.
type Styler interface {
	Style(ctx context.Context, products []model.Product, photoURLs []string) styling.Result
}

// NewStylingNode runs the styling orchestrator over the research results and
// the user's profile photos.
func NewStylingNode(styler Styler, profiles model.ProfileRepository) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ *schema.Message) (*schema.Message, error) {
		var (
			products []model.Product
			userID   string
		)
		if err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			products = append(products, state.SearchResults...)
			userID = state.UserID
			if state.Session != nil {
				state.Session.CurrentAgent = model.AgentStyling
			}
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		var photos []string
		if len(products) > 0 {
			profile, err := profiles.Get(ctx, userID)
			if err != nil {
				return nil, fmt.Errorf("load user profile: %w", err)
			}
			photos = profile.PhotoURLs
		}

		res := styler.Style(ctx, products, photos)

		if err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			if state.Session == nil {
				return nil
			}
			state.Session.SearchResults = products
			state.Session.Embeddings = res.Embeddings
			state.Session.SelectedItem = res.Selected
			state.Session.NextStep = model.StageEnd
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		return schema.AssistantMessage(res.Message, nil), nil
	})
}
