package notifications

import (
	"fmt"
	"os"
	"strings"

	"github.com/y0ug/scanvault/internal/models"
)

// NotificationConfig holds the notification-related configuration.
type NotificationConfig struct {
	ShoutrrrURLs []string
	RiskLevels   []models.RiskLevel
}

// Enabled reports whether any notification service is configured.
func (c *NotificationConfig) Enabled() bool {
	return c != nil && len(c.ShoutrrrURLs) > 0
}

// LoadNotificationConfig loads notification configuration from environment variables.
// Notifications are optional: without SHOUTRRR_URLS the config is simply disabled.
func LoadNotificationConfig() (*NotificationConfig, error) {
	levels, err := parseRiskLevels(os.Getenv("NOTIFY_RISK_LEVELS"))
	if err != nil {
		return nil, err
	}

	return &NotificationConfig{
		ShoutrrrURLs: splitList(os.Getenv("SHOUTRRR_URLS")),
		RiskLevels:   levels,
	}, nil
}

// parseRiskLevels parses a comma-separated list of classifications, defaulting to high.
func parseRiskLevels(s string) ([]models.RiskLevel, error) {
	items := splitList(s)
	if len(items) == 0 {
		return []models.RiskLevel{models.RiskHigh}, nil
	}

	var levels []models.RiskLevel
	for _, item := range items {
		level := models.RiskLevel(strings.ToLower(item))
		valid := false
		for _, known := range models.RiskLevels {
			if level == known {
				valid = true
				break
			}
		}
		if !valid {
			return nil, fmt.Errorf("invalid NOTIFY_RISK_LEVELS entry: %s", item)
		}
		levels = append(levels, level)
	}
	return levels, nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var result []string
	for _, item := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
