package parsers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/aura-core/server/internal/agent/model"
	errx "github.com/aura-core/server/internal/core/error"
	logx "github.com/aura-core/server/pkg/logger"
)

// DefaultNotRelatedResponse is used when the model flags a turn as general
// chat but leaves the reply empty.
const DefaultNotRelatedResponse = "I'm Aura, your fashion shopping assistant. Tell me what you're looking for and where you're going, and I'll find something for you."

// ParseIntent reads the intent tuple
//
//	(intent<||>shopping|general<||>confidence<||>response_if_not_related)
//
// A payload without a usable intent record is treated as shopping related so
// the turn still reaches extraction; the problem is kept in ParsingErrors.
func ParseIntent(content string) (res *model.IntentResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "intent_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("intent parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			res = nil
		}
	}()

	res = &model.IntentResult{IsShoppingRelated: true}
	addErr := func(msg string) { res.ParsingErrors = append(res.ParsingErrors, msg) }

	recs, truncated, capped := records("intent_parser", content)
	if truncated {
		addErr("truncated")
	}
	if capped {
		addErr("records_capped")
	}

	found := false
	for _, rec := range recs {
		rt, rerr := parseRawTuple(rec, 4)
		if rerr != nil {
			addErr(fmt.Sprintf("bad_record: %s", safeSnippet(rec)))
			continue
		}
		if rt.Type != "intent" {
			addErr("unknown tuple type")
			continue
		}
		if found {
			addErr("intent: duplicate record ignored")
			continue
		}
		if len(rt.Parts) < 3 {
			addErr("intent: insufficient parts")
			continue
		}

		var shopping bool
		switch strings.ToLower(rt.Parts[1]) {
		case "shopping", "shopping_related", "true", "yes":
			shopping = true
		case "general", "general_chat", "false", "no":
			shopping = false
		default:
			addErr("intent: invalid label")
			continue
		}
		conf, cerr := parseFloatInRange(rt.Parts[2], "intent.confidence", 0, 1)
		if cerr != nil {
			addErr("intent: invalid confidence")
			conf = 0
		}

		reply := ""
		if len(rt.Parts) >= 4 {
			reply = rt.Parts[3]
			if mustValidUTF8(reply, "intent.response") != nil {
				addErr("intent: invalid response utf8")
				reply = ""
			}
		}
		if !shopping && reply == "" {
			reply = DefaultNotRelatedResponse
		}

		res.IsShoppingRelated = shopping
		res.Confidence = conf
		if !shopping {
			res.ResponseIfNotRelated = reply
		}
		found = true
	}

	if !found {
		addErr("intent: no record")
	}
	return res, nil
}
