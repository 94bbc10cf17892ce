package notifications

import (
	"bytes"
	"errors"
	"testing"

	"github.com/containrrr/shoutrrr/pkg/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/y0ug/scanvault/internal/models"
)

type recordingSender struct {
	messages []string
	titles   []string
	err      error
}

func (r *recordingSender) Send(message string, params *types.Params) []error {
	r.messages = append(r.messages, message)
	r.titles = append(r.titles, (*params)["title"])
	return []error{r.err}
}

func TestNotifyResultFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	rec := &recordingSender{}
	n := newNotifier(rec, []models.RiskLevel{models.RiskHigh}, logger)

	assert.False(t, n.NotifyResult(models.ScanResult{Filename: "a.txt", RiskLevel: "low"}))
	assert.True(t, n.NotifyResult(models.ScanResult{
		Filename:    "evil.exe",
		RiskLevel:   "HIGH",
		YaraMatches: []string{"Trojan.Generic"},
		ScanStats:   models.ScanStats{TotalRules: 10, MatchedRules: 1, ScanDuration: "00:00:01"},
	}))

	require.Len(t, rec.messages, 1)
	assert.Equal(t, "Scan alert: high risk in evil.exe", rec.titles[0])
	assert.Contains(t, rec.messages[0], "Trojan.Generic")
	assert.Contains(t, rec.messages[0], "Rules matched: 1/10")
	assert.Contains(t, buf.String(), "Notification sent successfully")
}

func TestSendLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	n := newNotifier(&recordingSender{err: errors.New("smtp down")}, nil, logger)
	n.Send("title", "body")

	assert.Contains(t, buf.String(), "smtp down")
	assert.NotContains(t, buf.String(), "Notification sent successfully")
}

func TestLoadNotificationConfig(t *testing.T) {
	t.Setenv("SHOUTRRR_URLS", " logger:// , ,generic://example.com ")
	t.Setenv("NOTIFY_RISK_LEVELS", "High,medium")

	cfg, err := LoadNotificationConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Enabled())
	assert.Equal(t, []string{"logger://", "generic://example.com"}, cfg.ShoutrrrURLs)
	assert.Equal(t, []models.RiskLevel{models.RiskHigh, models.RiskMedium}, cfg.RiskLevels)
}

func TestLoadNotificationConfigDefaults(t *testing.T) {
	t.Setenv("SHOUTRRR_URLS", "")
	t.Setenv("NOTIFY_RISK_LEVELS", "")

	cfg, err := LoadNotificationConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Enabled())
	assert.Equal(t, []models.RiskLevel{models.RiskHigh}, cfg.RiskLevels)
}

func TestLoadNotificationConfigInvalidLevel(t *testing.T) {
	t.Setenv("NOTIFY_RISK_LEVELS", "critical")

	_, err := LoadNotificationConfig()
	assert.Error(t, err)
}

func TestNewNotifierUnknownService(t *testing.T) {
	_, err := NewNotifier(&NotificationConfig{ShoutrrrURLs: []string{"carrierpigeon://coop"}}, nil)
	assert.Error(t, err)
}
