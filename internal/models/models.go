package models

import (
	"time"
)

// DefaultScanDuration is used when the scanning service did not report a duration.
const DefaultScanDuration = "00:00:00"

// RiskLevel is the display category of a scan result.
type RiskLevel string

const (
	RiskHigh    RiskLevel = "high"
	RiskMedium  RiskLevel = "medium"
	RiskLow     RiskLevel = "low"
	RiskUnknown RiskLevel = "unknown"
)

// RiskLevels lists every category, most severe first.
var RiskLevels = []RiskLevel{RiskHigh, RiskMedium, RiskLow, RiskUnknown}

// RegexMatches groups the pattern hits reported by the scanning service.
type RegexMatches struct {
	Emails   []string `json:"emails"`
	IPs      []string `json:"ips"`
	Patterns []string `json:"patterns"`
}

// ScanStats holds the rule counters reported for a scan.
type ScanStats struct {
	TotalRules   int    `json:"totalRules"`
	MatchedRules int    `json:"matchedRules"`
	ScanDuration string `json:"scanDuration"`
}

// ScanResult is a normalized scan record. Every field is always populated.
type ScanResult struct {
	ID           string       `json:"id"`
	Filename     string       `json:"filename"`
	UploadedAt   time.Time    `json:"uploadedAt"`
	RiskLevel    string       `json:"riskLevel"`
	YaraMatches  []string     `json:"yaraMatches"`
	RegexMatches RegexMatches `json:"regexMatches"`
	ScanStats    ScanStats    `json:"scanStats"`
}

// EmptyRegexMatches returns a RegexMatches with every list allocated.
func EmptyRegexMatches() RegexMatches {
	return RegexMatches{
		Emails:   []string{},
		IPs:      []string{},
		Patterns: []string{},
	}
}

// DefaultScanStats returns the stats used when none were reported.
func DefaultScanStats() ScanStats {
	return ScanStats{ScanDuration: DefaultScanDuration}
}

// Clone returns a deep copy so callers never share slices with the history.
func (r ScanResult) Clone() ScanResult {
	out := r
	out.YaraMatches = cloneStrings(r.YaraMatches)
	out.RegexMatches = RegexMatches{
		Emails:   cloneStrings(r.RegexMatches.Emails),
		IPs:      cloneStrings(r.RegexMatches.IPs),
		Patterns: cloneStrings(r.RegexMatches.Patterns),
	}
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// HistoryEntry is a ScanResult decorated with its derived metrics for display.
type HistoryEntry struct {
	ScanResult
	Classification RiskLevel `json:"classification"`
	TotalMatches   int       `json:"totalMatches"`
}

// HistoryResponse is the body of the history listing endpoint.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
	Total   int            `json:"total"`
}

// StatsResponse summarises the current history.
type StatsResponse struct {
	TotalEntries int               `json:"total_entries"`
	TotalMatches int               `json:"total_matches"`
	ByRisk       map[RiskLevel]int `json:"by_risk"`
	LastScanAt   time.Time         `json:"last_scan_at"`
}

// RuleSet describes one group of signature rules run by the scanning service.
type RuleSet struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ScanFailure names an uploaded file that produced no result.
type ScanFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// ScanResponse is the body of the upload endpoint.
type ScanResponse struct {
	Results  []HistoryEntry `json:"results"`
	Failures []ScanFailure  `json:"failures"`
}

// RuleSetsResponse lists the rule sets and the accepted upload categories.
type RuleSetsResponse struct {
	RuleSets   []RuleSet `json:"rule_sets"`
	Categories []string  `json:"categories"`
}
