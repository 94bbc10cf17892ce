package scanner

import "github.com/y0ug/scanvault/internal/models"

// RuleSets are the signature groups the scanning service evaluates, in the
// order it reports progress for them.
var RuleSets = []models.RuleSet{
	{Name: "Malware Signatures", Description: "Scanning for known malware patterns"},
	{Name: "Suspicious Network Activity", Description: "Analyzing network communications"},
	{Name: "Phishing & Social Engineering", Description: "Detecting phishing attempts"},
	{Name: "Cryptocurrency Miners", Description: "Checking for hidden mining code"},
	{Name: "System File Integrity", Description: "Verifying system file authenticity"},
}
