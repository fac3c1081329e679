package parsers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/aura-core/server/internal/agent/model"
	errx "github.com/aura-core/server/internal/core/error"
	logx "github.com/aura-core/server/pkg/logger"
)

// noneValues are the spellings models use for "not mentioned".
var noneValues = map[string]struct{}{
	"": {}, "none": {}, "null": {}, "n/a": {}, "unknown": {}, "-": {},
}

// ParseExtraction reads one (slot<||>name<||>value<||>confidence) record per
// mentioned field. Unknown slot names and empty values are skipped; the
// returned hints describe every skipped record.
func ParseExtraction(content string) (ext *model.Extraction, hints []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "extraction_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("extraction parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			ext, hints = nil, nil
		}
	}()

	ext = &model.Extraction{Confidence: map[string]float64{}}
	addErr := func(msg string) { hints = append(hints, msg) }

	recs, truncated, capped := records("extraction_parser", content)
	if truncated {
		addErr("truncated")
	}
	if capped {
		addErr("records_capped")
	}

	for _, rec := range recs {
		rt, rerr := parseRawTuple(rec, 4)
		if rerr != nil {
			addErr(fmt.Sprintf("bad_record: %s", safeSnippet(rec)))
			continue
		}
		if rt.Type != "slot" {
			addErr("unknown tuple type")
			continue
		}
		if len(rt.Parts) < 3 {
			addErr("slot: insufficient parts")
			continue
		}
		name := strings.ToLower(rt.Parts[1])
		value := rt.Parts[2]
		if mustValidUTF8(value, "slot.value") != nil {
			addErr("slot: invalid value utf8")
			continue
		}
		if _, none := noneValues[strings.ToLower(value)]; none {
			continue
		}

		field := slotField(ext, name)
		if field == nil {
			addErr(fmt.Sprintf("slot: unknown name %q", safeSnippet(name)))
			continue
		}
		v := value
		*field = &v

		if len(rt.Parts) >= 4 {
			if conf, cerr := parseFloatInRange(rt.Parts[3], "slot.confidence", 0, 1); cerr == nil {
				ext.Confidence[name] = conf
			} else {
				addErr("slot: invalid confidence")
			}
		}
	}
	return ext, hints, nil
}

func slotField(ext *model.Extraction, name string) **string {
	switch name {
	case "destination":
		return &ext.Destination
	case "category", "product_type", "product type":
		return &ext.Category
	case "occasion":
		return &ext.Occasion
	case "budget":
		return &ext.Budget
	case "style":
		return &ext.Style
	case "color", "colour":
		return &ext.Color
	case "size":
		return &ext.Size
	case "gender":
		return &ext.Gender
	}
	return nil
}
