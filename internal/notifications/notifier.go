package notifications

import (
	"fmt"
	"strings"

	"github.com/containrrr/shoutrrr/pkg/router"
	"github.com/containrrr/shoutrrr/pkg/types"
	"github.com/sirupsen/logrus"

	"github.com/y0ug/scanvault/internal/models"
	"github.com/y0ug/scanvault/internal/scanresult"
)

// sender is the part of the Shoutrrr router the Notifier uses.
type sender interface {
	Send(message string, params *types.Params) []error
}

// Notifier handles sending notifications via Shoutrrr.
type Notifier struct {
	sr     sender
	levels map[models.RiskLevel]bool
	logger *logrus.Logger
}

// NewNotifier initializes a new Notifier from cfg.
func NewNotifier(cfg *NotificationConfig, logger *logrus.Logger) (*Notifier, error) {
	sr, err := router.New(nil, cfg.ShoutrrrURLs...)
	if err != nil {
		return nil, err
	}
	return newNotifier(sr, cfg.RiskLevels, logger), nil
}

func newNotifier(sr sender, levels []models.RiskLevel, logger *logrus.Logger) *Notifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	n := &Notifier{sr: sr, levels: make(map[models.RiskLevel]bool), logger: logger}
	for _, l := range levels {
		n.levels[l] = true
	}
	return n
}

// Send sends a notification message to all configured services.
func (n *Notifier) Send(title, message string) {
	params := types.Params{
		"title": title,
	}
	failed := false
	for _, err := range n.sr.Send(message, &params) {
		if err != nil {
			failed = true
			n.logger.WithError(err).Error("Failed to send notification")
		}
	}
	if !failed {
		n.logger.WithField("title", title).Info("Notification sent successfully")
	}
}

// NotifyResult sends an alert when the result's classification is one of
// the configured levels. It reports whether an alert was sent.
func (n *Notifier) NotifyResult(result models.ScanResult) bool {
	level := scanresult.Classify(result)
	if !n.levels[level] {
		return false
	}

	title := fmt.Sprintf("Scan alert: %s risk in %s", level, displayName(result.Filename))
	n.Send(title, formatResult(result))
	return true
}

func formatResult(result models.ScanResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", displayName(result.Filename))
	fmt.Fprintf(&b, "Risk level: %s\n", result.RiskLevel)
	fmt.Fprintf(&b, "Total matches: %d\n", scanresult.TotalMatches(result))
	if len(result.YaraMatches) > 0 {
		fmt.Fprintf(&b, "YARA: %s\n", strings.Join(result.YaraMatches, ", "))
	}
	fmt.Fprintf(&b, "Rules matched: %d/%d in %s\n",
		result.ScanStats.MatchedRules, result.ScanStats.TotalRules, result.ScanStats.ScanDuration)
	return b.String()
}

func displayName(name string) string {
	if name == "" {
		return "(unnamed)"
	}
	return name
}
