// Package scanresult turns loosely structured scan payloads into normalized
// records and derives the risk metrics shown for them.
package scanresult

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/y0ug/scanvault/internal/models"
)

// Raw is a scan result as received from the scanning service or read back
// from storage, before any validation. Keys are the JSON field names.
type Raw map[string]json.RawMessage

// ParseRaw decodes any serialized value into a Raw. Anything that is not a
// JSON object yields an empty Raw, which normalizes to an all-default record.
func ParseRaw(data []byte) Raw {
	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return Raw{}
	}
	return raw
}

// Normalizer builds ScanResult records. Now and NewID are replaceable so
// tests get deterministic ids and timestamps.
type Normalizer struct {
	Now   func() time.Time
	NewID func() string
}

// NewNormalizer returns a Normalizer using the wall clock and random UUIDs.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		Now:   time.Now,
		NewID: func() string { return uuid.NewString() },
	}
}

var defaultNormalizer = NewNormalizer()

// Normalize uses the package default Normalizer.
func Normalize(raw Raw) models.ScanResult {
	return defaultNormalizer.Normalize(raw)
}

// NormalizeJSON uses the package default Normalizer.
func NormalizeJSON(data []byte) models.ScanResult {
	return defaultNormalizer.NormalizeJSON(data)
}

// Ingest uses the package default Normalizer.
func Ingest(raw Raw) models.ScanResult {
	return defaultNormalizer.Ingest(raw)
}

// Normalize converts raw into a fully populated ScanResult. It never fails:
// each missing or malformed field is replaced by its default. An existing id
// and upload time are kept, so normalizing a stored record is a no-op.
func (n *Normalizer) Normalize(raw Raw) models.ScanResult {
	result := models.ScanResult{
		ID:           n.newID(),
		UploadedAt:   n.now(),
		YaraMatches:  decodeStringList(raw["yaraMatches"]),
		RegexMatches: decodeRegexMatches(raw["regexMatches"]),
		ScanStats:    decodeScanStats(raw["scanStats"]),
	}

	if id, ok := decodeID(raw["id"]); ok {
		result.ID = id
	}
	if filename, ok := decodeString(raw["filename"]); ok {
		result.Filename = filename
	}
	if level, ok := decodeString(raw["riskLevel"]); ok {
		result.RiskLevel = strings.ToLower(strings.TrimSpace(level))
	}
	if t, ok := decodeTimestamp(raw["uploadedAt"]); ok {
		result.UploadedAt = t
	}

	return result
}

// HasIdentity reports whether raw carries a usable id and upload time, in
// which case Normalize keeps both instead of generating them.
func HasIdentity(raw Raw) bool {
	_, hasID := decodeID(raw["id"])
	_, hasTime := decodeTimestamp(raw["uploadedAt"])
	return hasID && hasTime
}

// NormalizeJSON normalizes any serialized value.
func (n *Normalizer) NormalizeJSON(data []byte) models.ScanResult {
	return n.Normalize(ParseRaw(data))
}

// Ingest normalizes a freshly completed scan and stamps it with a new id and
// upload time, whatever the scanning service sent for those fields.
func (n *Normalizer) Ingest(raw Raw) models.ScanResult {
	result := n.Normalize(raw)
	result.ID = n.newID()
	result.UploadedAt = n.now()
	return result
}

func (n *Normalizer) now() time.Time {
	if n.Now == nil {
		return time.Now().UTC()
	}
	return n.Now().UTC()
}

func (n *Normalizer) newID() string {
	if n.NewID == nil {
		return uuid.NewString()
	}
	return n.NewID()
}

// decodeField is the single fallback policy for nested structured fields.
// The value may be absent, doubly encoded (a JSON string holding JSON, as the
// scanning service sends it) or already decoded (as stored history holds it):
//
//	absent, null, empty, unparseable -> def
//	parseable but not shaped like T  -> def
//	otherwise                        -> parsed value
func decodeField[T any](raw json.RawMessage, def T) T {
	data, ok := unwrap(raw)
	if !ok {
		return def
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return def
	}
	return out
}

// unwrap strips one level of string encoding and reports whether anything
// decodable is left.
func unwrap(raw json.RawMessage) ([]byte, bool) {
	data := bytes.TrimSpace(raw)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, false
	}
	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, false
		}
		data = bytes.TrimSpace([]byte(inner))
		if len(data) == 0 || bytes.Equal(data, []byte("null")) {
			return nil, false
		}
	}
	return data, true
}

func decodeRegexMatches(raw json.RawMessage) models.RegexMatches {
	fields := decodeField(raw, map[string]json.RawMessage{})
	return models.RegexMatches{
		Emails:   decodeStringList(fields["emails"]),
		IPs:      decodeStringList(fields["ips"]),
		Patterns: decodeStringList(fields["patterns"]),
	}
}

// decodeStringList checks only that raw is a list. String elements are kept
// verbatim and any other element as its compact JSON text, so every element
// still counts as a match.
func decodeStringList(raw json.RawMessage) []string {
	elems := decodeField(raw, []json.RawMessage{})
	out := make([]string, 0, len(elems))
	for _, elem := range elems {
		if s, ok := decodeString(elem); ok && !isNull(elem) {
			out = append(out, s)
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, elem); err != nil {
			out = append(out, string(elem))
			continue
		}
		out = append(out, buf.String())
	}
	return out
}

// decodeScanStats substitutes defaults directly; the stats object is never
// string encoded by the scanning service.
func decodeScanStats(raw json.RawMessage) models.ScanStats {
	stats := models.DefaultScanStats()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return stats
	}

	stats.TotalRules = decodeCount(fields["totalRules"])
	stats.MatchedRules = decodeCount(fields["matchedRules"])
	if d, ok := decodeString(fields["scanDuration"]); ok && strings.TrimSpace(d) != "" {
		stats.ScanDuration = d
	}
	return stats
}

// decodeCount accepts any JSON number and clamps it to a non-negative int.
func decodeCount(raw json.RawMessage) int {
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return 0
	}
	f, err := num.Float64()
	// float64(maxInt) rounds up to 2^63, which no int can hold.
	if err != nil || f < 0 || f >= float64(maxInt) {
		return 0
	}
	return int(f)
}

const maxInt = int(^uint(0) >> 1)

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func decodeID(raw json.RawMessage) (string, bool) {
	id, ok := decodeString(raw)
	if !ok || strings.TrimSpace(id) == "" {
		return "", false
	}
	return id, true
}

func decodeTimestamp(raw json.RawMessage) (time.Time, bool) {
	ts, ok := decodeString(raw)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
