package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/y0ug/scanvault/internal/scanresult"
)

// DefaultURL is where the scanning service listens by default.
const DefaultURL = "http://localhost:4000/scan"

// maxResponseSize caps how much of a scan response is read.
const maxResponseSize = 10 << 20

var ErrScanFailed = errors.New("scan failed")

// Uploader sends a file to the scanning service and returns the raw results.
type Uploader interface {
	Scan(ctx context.Context, name string, content io.Reader) ([]json.RawMessage, error)
}

type RateLimiter struct {
	Limiter *rate.Limiter
	Burst   int
	Rate    rate.Limit // Requests per second
}

// Client implements Uploader against the scanning service HTTP endpoint.
type Client struct {
	URL         string
	Client      *http.Client
	RateLimiter *RateLimiter
	Logger      *logrus.Logger
}

// NewClient initializes a new Client.
func NewClient(url string, timeout time.Duration, logger *logrus.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
		Logger: logger,
	}
}

// SetRateLimiter sets the rate limiter for the Client.
func (c *Client) SetRateLimiter(limiter *RateLimiter) {
	c.RateLimiter = limiter
}

// Scan uploads content as the multipart field "file". The service answers
// with either one result object or an array of them; both come back as a
// batch of undecoded results.
func (c *Client) Scan(ctx context.Context, name string, content io.Reader) ([]json.RawMessage, error) {
	if c.RateLimiter != nil {
		// Wait for permission to proceed based on rate limiter
		if err := c.RateLimiter.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("copy %s: %w", name, err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	logger := c.Logger.WithFields(logrus.Fields{
		"filename": name,
		"url":      c.URL,
	})

	start := time.Now()
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScanFailed, err)
	}
	defer resp.Body.Close()

	logger.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Info("Scanning service responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: scanning service returned status %d", ErrScanFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrScanFailed, err)
	}
	return splitResults(data)
}

func splitResults(data []byte) ([]json.RawMessage, error) {
	batch, err := scanresult.SplitBatch(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScanFailed, err)
	}
	return batch, nil
}
