// Package query provides pure, side-effect-free views over the current
// signal set. Same inputs always give the same output, which keeps the
// functions trivially testable and cache-friendly.
package query

import (
	"strings"

	"SignalDesk/internal/domain/models"
)

// Filter returns the stable-order subsequence of signals whose symbol,
// decision, AI explanation, or any reason contains term
// case-insensitively. An empty term returns signals unchanged. Absent
// text fields never match and never error. No tokenization, no fuzzy
// matching.
func Filter(signals []models.Signal, term string) []models.Signal {
	if term == "" {
		return signals
	}
	needle := strings.ToLower(term)
	out := make([]models.Signal, 0, len(signals))
	for _, s := range signals {
		if matches(&s, needle) {
			out = append(out, s)
		}
	}
	return out
}

func matches(s *models.Signal, needle string) bool {
	if strings.Contains(strings.ToLower(s.Symbol), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(string(s.Decision)), needle) {
		return true
	}
	if s.AIExplanation != "" && strings.Contains(strings.ToLower(s.AIExplanation), needle) {
		return true
	}
	for _, r := range s.Reasons {
		if strings.Contains(strings.ToLower(r), needle) {
			return true
		}
	}
	return false
}
