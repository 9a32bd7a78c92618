package mealdraft

import (
	"strings"

	"github.com/macrolens/mealdraft/internal/domain"
)

// Glycemic load thresholds per serving
const (
	glycemicLowMax    = 10.0
	glycemicMediumMax = 20.0
)

var glycemicAliases = map[string]domain.GlycemicLevel{
	"low":      domain.GlycemicLow,
	"medium":   domain.GlycemicMedium,
	"high":     domain.GlycemicHigh,
	"niski":    domain.GlycemicLow,
	"średni":   domain.GlycemicMedium,
	"sredni":   domain.GlycemicMedium,
	"wysoki":   domain.GlycemicHigh,
	"moderate": domain.GlycemicMedium,
}

var glycemicLabels = map[string]map[domain.GlycemicLevel]string{
	"en": {
		domain.GlycemicLow:    "Low",
		domain.GlycemicMedium: "Medium",
		domain.GlycemicHigh:   "High",
	},
	"pl": {
		domain.GlycemicLow:    "Niski",
		domain.GlycemicMedium: "Średni",
		domain.GlycemicHigh:   "Wysoki",
	},
}

// ParseGlycemicLevel accepts English or Polish tokens. The second result is false for
// anything else.
func ParseGlycemicLevel(token string) (domain.GlycemicLevel, bool) {
	level, ok := glycemicAliases[strings.ToLower(strings.TrimSpace(token))]
	return level, ok
}

// ClassifyGlycemicLoad maps a numeric glycemic load onto a level.
func ClassifyGlycemicLoad(load float64) domain.GlycemicLevel {
	switch {
	case load <= glycemicLowMax:
		return domain.GlycemicLow
	case load < glycemicMediumMax:
		return domain.GlycemicMedium
	default:
		return domain.GlycemicHigh
	}
}

// GlycemicLabel returns the display label of a level in the given locale.
// Empty levels render as an empty string.
func GlycemicLabel(level domain.GlycemicLevel, locale string) string {
	if level == "" {
		return ""
	}
	labels, ok := glycemicLabels[strings.ToLower(locale)]
	if !ok {
		labels = glycemicLabels[DefaultLocale]
	}
	if label, ok := labels[level]; ok {
		return label
	}
	return string(level)
}
