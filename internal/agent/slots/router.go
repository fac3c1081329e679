// Package slots holds the context stage's deterministic slot filling: merging a
// turn's extraction into the thread's query and deciding where the turn goes next.
package slots

import (
	"fmt"
	"strings"

	"github.com/aura-core/server/internal/agent/model"
)

const (
	ProceedMessage = "Great! I have all the details. Searching for products and generating styling visualizations... This may take a moment."

	clarifyFormat = "To generate the best recommendations, I need to know the %s."
)

// required lists the fields a query needs before research, in reporting order.
var required = []struct {
	label string
	get   func(model.Query) string
}{
	{"destination", func(q model.Query) string { return q.Destination }},
	{"product type", func(q model.Query) string { return q.Category }},
	{"occasion", func(q model.Query) string { return q.Occasion }},
}

// Input is everything the router needs for one turn.
type Input struct {
	Intent     model.IntentResult
	Existing   *model.Query
	Extraction *model.Extraction
}

// Merge applies ext onto existing. Absent or empty extracted values never clear a
// field. A nil existing query starts from the extraction alone.
func Merge(existing *model.Query, ext model.Extraction) model.Query {
	var q model.Query
	if existing != nil {
		q = *existing
	}
	set(&q.Destination, ext.Destination)
	set(&q.Category, ext.Category)
	set(&q.Occasion, ext.Occasion)
	set(&q.Budget, ext.Budget)
	set(&q.Style, ext.Style)
	set(&q.Color, ext.Color)
	set(&q.Size, ext.Size)
	set(&q.Gender, ext.Gender)
	return q
}

func set(dst *string, v *string) {
	if v == nil {
		return
	}
	if s := strings.TrimSpace(*v); s != "" {
		*dst = s
	}
}

// Missing returns the labels of unset required fields in fixed order.
func Missing(q model.Query) []string {
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.get(q)) == "" {
			missing = append(missing, f.label)
		}
	}
	return missing
}

// Route decides the outcome of the context stage.
func Route(in Input) model.RouteDecision {
	if !in.Intent.IsShoppingRelated {
		return model.RouteDecision{
			Outcome: model.OutcomeGeneralChat,
			Next:    model.StageEnd,
			Message: in.Intent.ResponseIfNotRelated,
		}
	}

	var ext model.Extraction
	if in.Extraction != nil {
		ext = *in.Extraction
	}
	merged := Merge(in.Existing, ext)

	if missing := Missing(merged); len(missing) > 0 {
		return model.RouteDecision{
			Outcome: model.OutcomeClarification,
			Next:    model.StageEnd,
			Message: fmt.Sprintf(clarifyFormat, strings.Join(missing, ", ")),
			Missing: missing,
		}
	}

	return model.RouteDecision{
		Outcome: model.OutcomeRecommendation,
		Next:    model.StageResearch,
		Message: ProceedMessage,
		Query:   &merged,
	}
}
