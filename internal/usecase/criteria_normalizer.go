package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/prodfilter/backend/internal/domain"
)

// leadingNumberRegex matches the numeric prefix of a string ("19.99 USD" -> "19.99")
var leadingNumberRegex = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// NormalizeCriteria turns raw form input into filter criteria.
// It never fails: missing or unparseable price bounds fall back to 0 and
// domain.NoUpperBound, and text fields become lowercase, trimmed strings
// where "" matches any value.
func NormalizeCriteria(raw *domain.RawCriteria) domain.Criteria {
	if raw == nil {
		raw = &domain.RawCriteria{}
	}

	criteria := domain.Criteria{
		MinPrice: 0,
		MaxPrice: domain.NoUpperBound,
		Color:    normalizeCriterionText(raw.Color),
		Size:     normalizeCriterionText(raw.Size),
		Gender:   normalizeCriterionText(raw.Gender),
	}

	if v, ok := parseNumber(raw.MinPrice); ok {
		criteria.MinPrice = v
	}
	if v, ok := parseNumber(raw.MaxPrice); ok {
		criteria.MaxPrice = v
	}

	return criteria
}

// normalizeText lowercases and trims a cell value's string form
func normalizeText(value any) string {
	return strings.TrimSpace(strings.ToLower(toText(value)))
}

// normalizeCriterionText is normalizeText with form semantics:
// falsy inputs (nil, false, 0, NaN, "") are the wildcard.
func normalizeCriterionText(value any) string {
	if isFalsy(value) {
		return ""
	}
	return normalizeText(value)
}

// toText renders a cell value as text
func toText(value any) string {
	if value == nil {
		return ""
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return s
}

// parseNumber coerces a raw value to a float.
// ok is false when the value is absent, not numeric, or NaN.
func parseNumber(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case nil, bool:
		return 0, false
	case string:
		parsed, err := parseLeadingFloat(v)
		if err != nil {
			return 0, false
		}
		f = parsed
	case json.Number:
		parsed, err := parseLeadingFloat(v.String())
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		parsed, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, false
		}
		f = parsed
	}

	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// parseLeadingFloat parses the longest numeric prefix of s after trimming whitespace.
// "Infinity" and "-Infinity" are accepted as unbounded values.
func parseLeadingFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "Infinity"), strings.HasPrefix(s, "+Infinity"):
		return math.Inf(1), nil
	case strings.HasPrefix(s, "-Infinity"):
		return math.Inf(-1), nil
	}

	prefix := leadingNumberRegex.FindString(s)
	if prefix == "" {
		return 0, strconv.ErrSyntax
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if errors.Is(err, strconv.ErrRange) {
		// out of range parses to a signed infinity, like Number() does
		return f, nil
	}
	return f, err
}

// isFalsy reports whether a form value carries no information
func isFalsy(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	case float64:
		return v == 0 || math.IsNaN(v)
	case float32:
		return v == 0 || math.IsNaN(float64(v))
	case json.Number:
		f, err := v.Float64()
		return err == nil && f == 0
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return cast.ToFloat64(v) == 0
	}
	return false
}
