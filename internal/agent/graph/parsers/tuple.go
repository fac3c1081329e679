package parsers

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	logx "github.com/aura-core/server/pkg/logger"
)

const (
	recDelim = "##"
	tupDelim = "<||>"
	endDelim = "<|COMPLETE|>"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 32 * 1024
	maxRecords    = 64
	maxTupleLen   = 4 * 1024
	maxErrSnippet = 200
)

type rawTuple struct {
	Type  string
	Parts []string
}

func parseRawTuple(s string, maxParts int) (*rawTuple, error) {
	if s == "" {
		return nil, fmt.Errorf("empty tuple")
	}
	if len(s) > maxTupleLen {
		return nil, fmt.Errorf("tuple too large")
	}

	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, fmt.Errorf("invalid tuple parens")
	}
	// remove the outermost parens only
	inner := s[1 : len(s)-1]
	// the last field may itself contain the delimiter
	parts := strings.SplitN(inner, tupDelim, maxParts)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid tuple parts")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return &rawTuple{Type: strings.ToLower(parts[0]), Parts: parts}, nil
}

// records trims the payload to the completion marker and splits it into
// non-empty records. The returned flags report truncation and capping.
func records(component, content string) (recs []string, truncated, capped bool) {
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", component).
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
		truncated = true
	}
	if idx := strings.Index(content, endDelim); idx >= 0 {
		content = content[:idx]
	}
	// models sometimes wrap the payload in a code fence
	content = strings.Trim(strings.TrimSpace(content), "`")

	for _, rec := range strings.Split(content, recDelim) {
		rec = strings.TrimSpace(rec)
		if rec == "" {
			continue
		}
		if len(recs) >= maxRecords {
			capped = true
			logx.Warn().Str("component", component).Int("max_records", maxRecords).Msg("record processing capped")
			break
		}
		recs = append(recs, rec)
	}
	return recs, truncated, capped
}

func mustValidUTF8(s string, name string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%s invalid utf8", name)
	}
	return nil
}

func parseFloatInRange(s, name string, min, max float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse: %w", name, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s invalid number", name)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s out of range", name)
	}
	return v, nil
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
