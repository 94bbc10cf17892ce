package scanresult

import (
	"strings"

	"github.com/y0ug/scanvault/internal/models"
)

// ParseRiskLevel maps a free-form risk string onto a display category.
// Matching is case-insensitive; anything unrecognised is RiskUnknown.
func ParseRiskLevel(level string) models.RiskLevel {
	switch models.RiskLevel(strings.ToLower(strings.TrimSpace(level))) {
	case models.RiskHigh:
		return models.RiskHigh
	case models.RiskMedium:
		return models.RiskMedium
	case models.RiskLow:
		return models.RiskLow
	default:
		return models.RiskUnknown
	}
}

// Classify returns the risk category of a normalized result.
func Classify(result models.ScanResult) models.RiskLevel {
	return ParseRiskLevel(result.RiskLevel)
}

// TotalMatches is the number of findings in a result: every regex hit plus
// every YARA rule match. Every figure shown or exported must come from here.
func TotalMatches(result models.ScanResult) int {
	return len(result.RegexMatches.Emails) +
		len(result.RegexMatches.IPs) +
		len(result.RegexMatches.Patterns) +
		len(result.YaraMatches)
}

// Entry decorates a result with its derived metrics.
func Entry(result models.ScanResult) models.HistoryEntry {
	return models.HistoryEntry{
		ScanResult:     result.Clone(),
		Classification: Classify(result),
		TotalMatches:   TotalMatches(result),
	}
}

// Canonical returns a deep copy of result with every invariant of a
// normalized record restored. Hand-built records pass through it before they
// reach the history.
func Canonical(result models.ScanResult) models.ScanResult {
	out := result.Clone()
	if strings.TrimSpace(out.ID) == "" {
		out.ID = defaultNormalizer.newID()
	}
	if out.UploadedAt.IsZero() {
		out.UploadedAt = defaultNormalizer.now()
	}
	out.RiskLevel = strings.ToLower(strings.TrimSpace(out.RiskLevel))
	if out.ScanStats.TotalRules < 0 {
		out.ScanStats.TotalRules = 0
	}
	if out.ScanStats.MatchedRules < 0 {
		out.ScanStats.MatchedRules = 0
	}
	if strings.TrimSpace(out.ScanStats.ScanDuration) == "" {
		out.ScanStats.ScanDuration = models.DefaultScanDuration
	}
	return out
}
