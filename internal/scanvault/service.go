package scanvault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/y0ug/scanvault/internal/history"
	"github.com/y0ug/scanvault/internal/models"
	"github.com/y0ug/scanvault/internal/report"
	"github.com/y0ug/scanvault/internal/scanner"
	"github.com/y0ug/scanvault/internal/scanresult"
)

var (
	ErrEntryNotFound = errors.New("history entry not found")
	ErrNoFiles       = errors.New("no files to scan")
)

// ResultNotifier is told about every newly ingested result.
type ResultNotifier interface {
	NotifyResult(result models.ScanResult) bool
}

// ServiceConfig holds the collaborators of a Service.
type ServiceConfig struct {
	Uploader       scanner.Uploader
	History        *history.Cache
	Notifier       ResultNotifier // optional
	Exporter       *report.Exporter
	Normalizer     *scanresult.Normalizer
	MaxConcurrency int64
	Logger         *logrus.Logger
	Now            func() time.Time
}

// Service ingests scan results into the history and serves it back.
type Service struct {
	Config ServiceConfig
	mu     sync.Mutex
}

// FileError records a file that produced no results.
type FileError struct {
	Filename string
	Err      error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Filename, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// ScanReport is the outcome of ScanFiles. Results hold every ingested
// record in upload order; Failures the files that yielded nothing.
type ScanReport struct {
	Results  []models.ScanResult
	Failures []FileError
}

// NewService initializes a new Service, filling unset optional fields.
func NewService(config ServiceConfig) *Service {
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}
	if config.Exporter == nil {
		config.Exporter = report.NewExporter(nil)
	}
	if config.Normalizer == nil {
		config.Normalizer = scanresult.NewNormalizer()
	}
	if config.MaxConcurrency < 1 {
		config.MaxConcurrency = 1
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Service{Config: config}
}

// ScanFiles checks each file against category, uploads the accepted ones
// and ingests whatever the scanning service returns. A failed upload leaves
// the history untouched for that file.
func (s *Service) ScanFiles(ctx context.Context, category string, files []scanner.File) (ScanReport, error) {
	var rep ScanReport
	if len(files) == 0 {
		return rep, ErrNoFiles
	}

	accepted := make([]scanner.File, 0, len(files))
	for _, f := range files {
		if err := scanner.CheckFileType(category, f.Name, f.Data); err != nil {
			s.Config.Logger.WithError(err).WithField("filename", f.Name).Warn("Rejected upload")
			rep.Failures = append(rep.Failures, FileError{Filename: f.Name, Err: err})
			continue
		}
		accepted = append(accepted, f)
	}

	var raws []json.RawMessage
	for _, outcome := range scanner.ScanBatch(ctx, s.Config.Uploader, accepted, s.Config.MaxConcurrency) {
		if outcome.Err != nil {
			s.Config.Logger.WithError(outcome.Err).WithField("filename", outcome.Name).Error("Scan failed")
			rep.Failures = append(rep.Failures, FileError{Filename: outcome.Name, Err: outcome.Err})
			continue
		}
		raws = append(raws, outcome.Results...)
	}

	rep.Results = s.IngestRaw(ctx, raws)
	return rep, nil
}

// IngestRaw normalizes freshly produced results, assigns them a new
// identity and prepends them to the history.
func (s *Service) IngestRaw(ctx context.Context, raws []json.RawMessage) []models.ScanResult {
	if len(raws) == 0 {
		return []models.ScanResult{}
	}

	results := make([]models.ScanResult, 0, len(raws))
	for _, raw := range raws {
		results = append(results, s.Config.Normalizer.Ingest(scanresult.ParseRaw(raw)))
	}

	s.mu.Lock()
	s.Config.History.Insert(ctx, results...)
	s.mu.Unlock()

	for _, r := range results {
		s.Config.Logger.WithFields(logrus.Fields{
			"id":            r.ID,
			"filename":      r.Filename,
			"risk_level":    scanresult.Classify(r),
			"total_matches": scanresult.TotalMatches(r),
		}).Info("Scan result ingested")

		if s.Config.Notifier != nil {
			s.Config.Notifier.NotifyResult(r)
		}
	}
	return results
}

// ImportHistoryFromFile merges a saved history dump, a JSON array or a
// single result object, into the history. Imported records keep their
// identity; the file's first element ends up newest.
func (s *Service) ImportHistoryFromFile(ctx context.Context, filePath string) ([]models.ScanResult, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	elems, err := scanresult.SplitBatch(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse history file %s: %w", filePath, err)
	}

	results := make([]models.ScanResult, 0, len(elems))
	for _, elem := range elems {
		results = append(results, s.Config.Normalizer.NormalizeJSON(elem))
	}

	s.mu.Lock()
	s.Config.History.Insert(ctx, results...)
	s.mu.Unlock()

	s.Config.Logger.WithFields(logrus.Fields{
		"file":         filePath,
		"record_count": len(results),
	}).Info("Imported scan history successfully")
	return results, nil
}

// History returns the entries newest first, decorated with derived metrics.
func (s *Service) History() []models.HistoryEntry {
	s.mu.Lock()
	results := s.Config.History.List()
	s.mu.Unlock()

	entries := make([]models.HistoryEntry, 0, len(results))
	for _, r := range results {
		entries = append(entries, scanresult.Entry(r))
	}
	return entries
}

// Entry returns a single history entry.
func (s *Service) Entry(id string) (models.HistoryEntry, error) {
	s.mu.Lock()
	r, ok := s.Config.History.Get(id)
	s.mu.Unlock()

	if !ok {
		return models.HistoryEntry{}, ErrEntryNotFound
	}
	return scanresult.Entry(r), nil
}

// Remove deletes a single history entry.
func (s *Service) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Config.History.Remove(ctx, id) {
		return ErrEntryNotFound
	}
	return nil
}

// ClearHistory empties the history and its persisted copy.
func (s *Service) ClearHistory(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Config.History.Clear(ctx)
	s.Config.Logger.Info("Scan history cleared")
}

// Stats summarises the current history.
func (s *Service) Stats() models.StatsResponse {
	s.mu.Lock()
	results := s.Config.History.List()
	s.mu.Unlock()

	stats := models.StatsResponse{
		TotalEntries: len(results),
		ByRisk:       make(map[models.RiskLevel]int, len(models.RiskLevels)),
	}
	for _, level := range models.RiskLevels {
		stats.ByRisk[level] = 0
	}
	for _, r := range results {
		stats.ByRisk[scanresult.Classify(r)]++
		stats.TotalMatches += scanresult.TotalMatches(r)
		if r.UploadedAt.After(stats.LastScanAt) {
			stats.LastScanAt = r.UploadedAt
		}
	}
	return stats
}

// ExportEntry builds the report for one entry together with its suggested
// file name.
func (s *Service) ExportEntry(id string) (report.Document, string, error) {
	s.mu.Lock()
	r, ok := s.Config.History.Get(id)
	s.mu.Unlock()

	if !ok {
		return report.Document{}, "", ErrEntryNotFound
	}
	return s.Config.Exporter.ExportOne(r), report.FileName(r.Filename, s.today()), nil
}

// ExportHistory builds the reports for the whole history, newest first,
// together with the suggested file name.
func (s *Service) ExportHistory() ([]report.Document, string) {
	s.mu.Lock()
	results := s.Config.History.List()
	s.mu.Unlock()

	return s.Config.Exporter.ExportMany(results), report.BulkFileName(s.today())
}

func (s *Service) today() time.Time {
	now := s.Config.Now()
	if loc := s.Config.Exporter.Location; loc != nil {
		now = now.In(loc)
	}
	return now
}
