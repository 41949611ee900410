package normalize

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// MaxCLB is the highest Canadian Language Benchmark level.
const MaxCLB = 10

var (
	clbPattern   = regexp.MustCompile(`(?i)\bCLB\s*(\d+)`)
	teerPattern  = regexp.MustCompile(`(?i)\bTEER\s*(\d(?:\s*(?:,|/|&|\bor\b|\band\b)\s*\d)*)`)
	nocPattern   = regexp.MustCompile(`(?i)\bNOC\s+(\d)\b`)
	digitPattern = regexp.MustCompile(`\d`)
)

// LanguageMinimum is a language threshold resolved once from its prose form,
// e.g. "CLB 7 for NOC TEER 0 or 1; CLB 5 for NOC TEER 2 or 3".
type LanguageMinimum struct {
	Text string
	// None is set for empty text, "no minimum" wording and text without any CLB mention.
	None bool
	// ByTier holds the first CLB of the first segment naming a tier.
	ByTier map[string]int
	// Fallback is the lowest CLB mentioned anywhere in the text.
	Fallback int
}

// ParseLanguageMinimum parses a threshold text. It fails only when the text
// names a CLB level outside 0-10.
func ParseLanguageMinimum(text string) (LanguageMinimum, error) {
	m := LanguageMinimum{Text: text}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.Contains(strings.ToLower(trimmed), "no minimum") {
		m.None = true
		return m, nil
	}

	all, err := clbLevels(trimmed)
	if err != nil {
		return m, err
	}
	if len(all) == 0 {
		m.None = true
		return m, nil
	}
	m.Fallback = slices.Min(all)

	for _, segment := range strings.Split(trimmed, ";") {
		levels, _ := clbLevels(segment)
		if len(levels) == 0 {
			continue
		}

		for _, tier := range segmentTiers(segment) {
			if m.ByTier == nil {
				m.ByTier = make(map[string]int)
			}
			if _, seen := m.ByTier[tier]; !seen {
				m.ByTier[tier] = levels[0]
			}
		}
	}

	return m, nil
}

// For returns the minimum CLB that applies to the given occupation tier.
// Zero means there is no minimum.
func (m LanguageMinimum) For(tier string) int {
	if m.None {
		return 0
	}
	if level, ok := m.ByTier[strings.TrimSpace(tier)]; ok {
		return level
	}
	return m.Fallback
}

// MinimumCLB parses text and resolves it for tier in one call.
func MinimumCLB(text, tier string) (int, error) {
	m, err := ParseLanguageMinimum(text)
	if err != nil {
		return 0, err
	}
	return m.For(tier), nil
}

func clbLevels(text string) ([]int, error) {
	matches := clbPattern.FindAllStringSubmatch(text, -1)
	levels := make([]int, 0, len(matches))
	for _, match := range matches {
		level, err := strconv.Atoi(match[1])
		if err != nil || level > MaxCLB {
			return nil, fmt.Errorf("CLB %s is outside 0-%d", match[1], MaxCLB)
		}
		levels = append(levels, level)
	}
	return levels, nil
}

func segmentTiers(segment string) []string {
	var tiers []string
	for _, match := range teerPattern.FindAllStringSubmatch(segment, -1) {
		tiers = append(tiers, digitPattern.FindAllString(match[1], -1)...)
	}
	for _, match := range nocPattern.FindAllStringSubmatch(segment, -1) {
		tiers = append(tiers, match[1])
	}
	return tiers
}
