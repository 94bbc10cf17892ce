package scanvault

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/y0ug/scanvault/internal/scanner"
)

// Config holds the scanvault-specific configuration.
type Config struct {
	ScannerURL     string
	ScanTimeout    time.Duration
	MaxConcurrency int64
	RateLimit      *RateLimitConfig
	ReportLocation *time.Location
}

// RateLimitConfig defines rate limiting settings for the scanning service.
type RateLimitConfig struct {
	Rate  rate.Limit // Requests per second
	Burst int        // Maximum burst size
}

// Limiter builds the uploader rate limiter described by c.
func (c *RateLimitConfig) Limiter() *scanner.RateLimiter {
	return &scanner.RateLimiter{
		Limiter: rate.NewLimiter(c.Rate, c.Burst),
		Rate:    c.Rate,
		Burst:   c.Burst,
	}
}

// LoadConfig loads scanvault-specific configuration from environment variables.
func LoadConfig() (*Config, error) {
	scannerURL := os.Getenv("SCANNER_URL")
	if scannerURL == "" {
		scannerURL = scanner.DefaultURL
	}

	timeout, err := strconv.Atoi(os.Getenv("SCAN_TIMEOUT_SECONDS"))
	if err != nil || timeout <= 0 {
		timeout = 60 // Default to 60 seconds
		logrus.Debugf("Invalid or missing SCAN_TIMEOUT_SECONDS. Defaulting to %d seconds.", timeout)
	}

	concurrency, err := strconv.Atoi(os.Getenv("SCAN_CONCURRENCY"))
	if err != nil || concurrency <= 0 {
		concurrency = 2
		logrus.Debugf("Invalid or missing SCAN_CONCURRENCY. Defaulting to %d.", concurrency)
	}

	rateLimit, err := parseRateLimit(os.Getenv("SCAN_RATE_LIMIT"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SCAN_RATE_LIMIT: %v", err)
	}

	loc := time.Local
	if tz := os.Getenv("REPORT_TIMEZONE"); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid REPORT_TIMEZONE: %w", err)
		}
	}

	return &Config{
		ScannerURL:     scannerURL,
		ScanTimeout:    time.Duration(timeout) * time.Second,
		MaxConcurrency: int64(concurrency),
		RateLimit:      rateLimit,
		ReportLocation: loc,
	}, nil
}

// parseRateLimit parses "rate:burst". An empty input disables rate limiting.
func parseRateLimit(input string) (*RateLimitConfig, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	parts := strings.Split(input, ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid rate limit entry: %s", input)
	}
	rateValue, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || rateValue <= 0 {
		return nil, fmt.Errorf("invalid rate value in entry '%s'", input)
	}
	burstValue, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || burstValue <= 0 {
		return nil, fmt.Errorf("invalid burst value in entry '%s'", input)
	}
	return &RateLimitConfig{
		Rate:  rate.Limit(rateValue),
		Burst: burstValue,
	}, nil
}
