package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// SizeRange is a parsed bucketed notional-value disclosure.
type SizeRange struct {
	Low  float64
	High float64
}

// Midpoint returns the midpoint of the range in dollars. This is the
// estimate used for cost-basis accumulation when no exact value is disclosed.
func (s SizeRange) Midpoint() float64 {
	return (s.Low + s.High) / 2
}

// ParseSizeRange parses the bucketed range grammar used by disclosure forms:
// "<number>[K|M]-<number>[K|M]", case-insensitive, accepting either a hyphen
// or an en-dash separator and optional "$" prefixes.
//
//	"15K-50K" -> {15000, 50000}
//	"1M-5M"   -> {1000000, 5000000}
func ParseSizeRange(text string) (SizeRange, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return SizeRange{}, fmt.Errorf("empty size range")
	}

	// En-dash appears in scraped disclosure tables; normalize to hyphen.
	cleaned = strings.ReplaceAll(cleaned, "–", "-")
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	parts := strings.Split(cleaned, "-")
	if len(parts) != 2 {
		return SizeRange{}, fmt.Errorf("invalid size range %q: expected two bounds", text)
	}

	low, err := parseAmount(parts[0])
	if err != nil {
		return SizeRange{}, fmt.Errorf("invalid size range %q: %w", text, err)
	}
	high, err := parseAmount(parts[1])
	if err != nil {
		return SizeRange{}, fmt.Errorf("invalid size range %q: %w", text, err)
	}

	if high < low {
		return SizeRange{}, fmt.Errorf("invalid size range %q: upper bound below lower", text)
	}

	return SizeRange{Low: low, High: high}, nil
}

// parseAmount parses a single bound like "15K", "1.5M" or "50000".
func parseAmount(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(strings.ToUpper(s), "K"):
		multiplier = 1_000
		s = s[:len(s)-1]
	case strings.HasSuffix(strings.ToUpper(s), "M"):
		multiplier = 1_000_000
		s = s[:len(s)-1]
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable amount %q", s)
	}
	if val < 0 {
		return 0, fmt.Errorf("negative amount %q", s)
	}

	return val * multiplier, nil
}
