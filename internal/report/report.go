// Package report projects scan results into portable report documents.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/y0ug/scanvault/internal/models"
	"github.com/y0ug/scanvault/internal/scanresult"
)

// ScanDateLayout renders timestamps the way a US-English locale would.
const ScanDateLayout = "1/2/2006, 3:04:05 PM"

// Document is the exported form of one scan result.
type Document struct {
	Filename     string              `json:"filename"`
	ScanDate     string              `json:"scanDate"`
	RiskLevel    string              `json:"riskLevel"`
	ScanStats    models.ScanStats    `json:"scanStats"`
	YaraMatches  []string            `json:"yaraMatches"`
	RegexMatches models.RegexMatches `json:"regexMatches"`
	TotalMatches int                 `json:"totalMatches"`
}

// Exporter builds Documents. ScanDate is rendered in Location at export time.
type Exporter struct {
	Location *time.Location
}

// NewExporter returns an Exporter rendering dates in loc (Local when nil).
func NewExporter(loc *time.Location) *Exporter {
	if loc == nil {
		loc = time.Local
	}
	return &Exporter{Location: loc}
}

// ExportOne projects a single result. The result is not modified.
func (e *Exporter) ExportOne(result models.ScanResult) Document {
	r := result.Clone()
	return Document{
		Filename:     r.Filename,
		ScanDate:     e.scanDate(r.UploadedAt),
		RiskLevel:    r.RiskLevel,
		ScanStats:    r.ScanStats,
		YaraMatches:  r.YaraMatches,
		RegexMatches: r.RegexMatches,
		TotalMatches: scanresult.TotalMatches(r),
	}
}

// ExportMany projects results element-wise, preserving order.
func (e *Exporter) ExportMany(results []models.ScanResult) []Document {
	docs := make([]Document, 0, len(results))
	for _, r := range results {
		docs = append(docs, e.ExportOne(r))
	}
	return docs
}

func (e *Exporter) scanDate(t time.Time) string {
	loc := e.Location
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(ScanDateLayout)
}

// Encode writes v as UTF-8, two-space indented JSON.
func Encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}

// FileName is the suggested download name for a single report.
func FileName(filename string, now time.Time) string {
	return fmt.Sprintf("scan-report-%s-%s.json", safeName(filename), now.Format("2006-01-02"))
}

// BulkFileName is the suggested download name for a history export.
func BulkFileName(now time.Time) string {
	return fmt.Sprintf("all-scan-history-%s.json", now.Format("2006-01-02"))
}

// safeName reduces an untrusted filename to a single path element without
// separators, quotes or control characters.
func safeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r), r == '"', r == '/', r == ':':
			return '_'
		}
		return r
	}, name)
	if name == "." || name == ".." || name == "/" || strings.TrimSpace(name) == "" {
		return "unnamed"
	}
	return name
}
