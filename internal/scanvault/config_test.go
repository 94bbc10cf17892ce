package scanvault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/y0ug/scanvault/internal/scanner"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"SCANNER_URL", "SCAN_TIMEOUT_SECONDS", "SCAN_CONCURRENCY", "SCAN_RATE_LIMIT", "REPORT_TIMEZONE"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, scanner.DefaultURL, cfg.ScannerURL)
	assert.Equal(t, 60*time.Second, cfg.ScanTimeout)
	assert.Equal(t, int64(2), cfg.MaxConcurrency)
	assert.Nil(t, cfg.RateLimit)
	assert.Equal(t, time.Local, cfg.ReportLocation)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SCANNER_URL", "http://scanner:4000/scan")
	t.Setenv("SCAN_TIMEOUT_SECONDS", "5")
	t.Setenv("SCAN_CONCURRENCY", "8")
	t.Setenv("SCAN_RATE_LIMIT", "0.5:2")
	t.Setenv("REPORT_TIMEZONE", "UTC")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://scanner:4000/scan", cfg.ScannerURL)
	assert.Equal(t, 5*time.Second, cfg.ScanTimeout)
	assert.Equal(t, int64(8), cfg.MaxConcurrency)
	require.NotNil(t, cfg.RateLimit)
	assert.Equal(t, rate.Limit(0.5), cfg.RateLimit.Rate)
	assert.Equal(t, 2, cfg.RateLimit.Burst)
	assert.Equal(t, "UTC", cfg.ReportLocation.String())

	limiter := cfg.RateLimit.Limiter()
	assert.Equal(t, 2, limiter.Limiter.Burst())
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("SCAN_RATE_LIMIT", "")
	t.Setenv("REPORT_TIMEZONE", "Not/AZone")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("REPORT_TIMEZONE", "")
	t.Setenv("SCAN_RATE_LIMIT", "fast")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestParseRateLimit(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"1:1", true},
		{" 2.5 : 10 ", true},
		{"1", false},
		{"1:2:3", false},
		{"x:1", false},
		{"1:y", false},
		{"0:1", false},
		{"1:0", false},
	}
	for _, tt := range tests {
		_, err := parseRateLimit(tt.input)
		if tt.ok {
			assert.NoError(t, err, tt.input)
		} else {
			assert.Error(t, err, tt.input)
		}
	}
}
