// backend/src/parsers/smsbackup/amount.go
package smsbackup

import (
	"regexp"
	"strconv"
	"strings"
)

// The extraction rules are tuned to one known mobile-money SMS vocabulary
// and are applied as a strict short-circuiting chain: once a rule matches,
// later rules are never consulted. Only the first match per rule is used.
var (
	// Rule 1: a number immediately followed by the RWF currency code.
	currencyTaggedRe = regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?)\s*RWF`)

	// Rule 2: a number immediately preceded by a known transaction phrase.
	keywordAnchoredRe = regexp.MustCompile(`(?i)(?:received|payment of|is:|balance:|Total:)\s*(\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?)`)

	// Rule 3: first standalone number with at least two integer digits.
	// Low confidence on purpose: it can pick up transaction IDs and similar
	// numeric noise, and callers depend on that best-effort behavior.
	bareNumberRe = regexp.MustCompile(`(\d{2,}(?:,\d{3})*(?:\.\d{1,2})?)`)
)

// ExtractAmount pulls a monetary amount out of an SMS body. It returns nil
// when the body is absent or empty, or when no rule matches. The function is
// pure: same body, same result.
func ExtractAmount(body *string) *float64 {
	if body == nil || *body == "" {
		return nil
	}

	if m := currencyTaggedRe.FindStringSubmatch(*body); m != nil {
		return parseMatchedNumber(m[1])
	}

	if m := keywordAnchoredRe.FindStringSubmatch(*body); m != nil {
		return parseMatchedNumber(m[1])
	}

	if m := bareNumberRe.FindStringSubmatch(*body); m != nil {
		return parseMatchedNumber(m[1])
	}

	return nil
}

// parseMatchedNumber strips thousands separators and converts to float.
func parseMatchedNumber(s string) *float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}
