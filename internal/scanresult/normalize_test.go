package scanresult

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/y0ug/scanvault/internal/models"
)

var fixedNow = time.Date(2024, 3, 14, 15, 9, 26, 0, time.UTC)

func newTestNormalizer() *Normalizer {
	seq := 0
	return &Normalizer{
		Now: func() time.Time { return fixedNow },
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	}
}

func assertWellFormed(t *testing.T, r models.ScanResult) {
	t.Helper()
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.UploadedAt.IsZero())
	assert.NotNil(t, r.YaraMatches)
	assert.NotNil(t, r.RegexMatches.Emails)
	assert.NotNil(t, r.RegexMatches.IPs)
	assert.NotNil(t, r.RegexMatches.Patterns)
	assert.GreaterOrEqual(t, r.ScanStats.TotalRules, 0)
	assert.GreaterOrEqual(t, r.ScanStats.MatchedRules, 0)
	assert.NotEmpty(t, r.ScanStats.ScanDuration)
}

func TestNormalizeMalformedInputs(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "empty object", payload: `{}`},
		{name: "not an object", payload: `[1,2,3]`},
		{name: "garbage bytes", payload: `not json at all`},
		{name: "null", payload: `null`},
		{
			name:    "garbage strings in structured fields",
			payload: `{"filename":"x.bin","yaraMatches":"{{{","regexMatches":"nope","scanStats":"00:00:01"}`,
		},
		{
			name:    "wrong shapes",
			payload: `{"yaraMatches":"{\"a\":1}","regexMatches":"[1,2]","scanStats":[1,2,3]}`,
		},
		{
			name:    "wrong scalar types",
			payload: `{"id":42,"filename":7,"riskLevel":true,"uploadedAt":"yesterday","yaraMatches":12,"regexMatches":false}`,
		},
		{
			name:    "lists that are not lists",
			payload: `{"regexMatches":{"emails":"a@b.c","ips":{"x":1},"patterns":7},"yaraMatches":{"rule":"x"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestNormalizer().NormalizeJSON([]byte(tt.payload))
			assertWellFormed(t, r)
			assert.Empty(t, r.YaraMatches)
			assert.Empty(t, r.RegexMatches.Emails)
			assert.Empty(t, r.RegexMatches.IPs)
			assert.Empty(t, r.RegexMatches.Patterns)
			assert.Equal(t, 0, TotalMatches(r))
			assert.Equal(t, models.RiskUnknown, Classify(r))
		})
	}
}

func TestNormalizeDefaults(t *testing.T) {
	r := newTestNormalizer().Normalize(Raw{})

	assert.Equal(t, "id-1", r.ID)
	assert.Equal(t, fixedNow, r.UploadedAt)
	assert.Equal(t, "", r.Filename)
	assert.Equal(t, "", r.RiskLevel)
	assert.Equal(t, models.ScanStats{TotalRules: 0, MatchedRules: 0, ScanDuration: "00:00:00"}, r.ScanStats)
}

func TestNormalizeRegexFieldsDefaultIndependently(t *testing.T) {
	payload := `{"regexMatches":"{\"emails\":[\"x@y.com\"],\"ips\":\"broken\"}"}`
	r := newTestNormalizer().NormalizeJSON([]byte(payload))

	assert.Equal(t, []string{"x@y.com"}, r.RegexMatches.Emails)
	assert.Equal(t, []string{}, r.RegexMatches.IPs)
	assert.Equal(t, []string{}, r.RegexMatches.Patterns)
}

func TestNormalizeKeepsNonStringListElements(t *testing.T) {
	payload := `{
		"riskLevel": "high",
		"yaraMatches": "[\"Trojan.Win32.Generic\", 42]",
		"regexMatches": "{\"emails\":[\"x@y.com\", {\"v\": 1}],\"ips\":[null],\"patterns\":[true, \"crypto_miner\"]}"
	}`
	r := newTestNormalizer().NormalizeJSON([]byte(payload))

	assertWellFormed(t, r)
	assert.Equal(t, []string{"Trojan.Win32.Generic", "42"}, r.YaraMatches)
	assert.Equal(t, []string{"x@y.com", `{"v":1}`}, r.RegexMatches.Emails)
	assert.Equal(t, []string{"null"}, r.RegexMatches.IPs)
	assert.Equal(t, []string{"true", "crypto_miner"}, r.RegexMatches.Patterns)
	assert.Equal(t, 7, TotalMatches(r))

	data, err := json.Marshal(r)
	require.NoError(t, err)
	again := newTestNormalizer().NormalizeJSON(data)
	assert.True(t, r.UploadedAt.Equal(again.UploadedAt))
	again.UploadedAt = r.UploadedAt
	assert.Equal(t, r, again)
}

func TestNormalizeHugeCountsStayNonNegative(t *testing.T) {
	for _, n := range []string{"9223372036854775807", "9223372036854775808", "1e300", "-1"} {
		payload := `{"scanStats":{"totalRules":` + n + `,"matchedRules":` + n + `}}`
		r := newTestNormalizer().NormalizeJSON([]byte(payload))

		assertWellFormed(t, r)
		assert.Equal(t, 0, r.ScanStats.TotalRules, n)
		assert.Equal(t, 0, r.ScanStats.MatchedRules, n)
	}

	r := newTestNormalizer().NormalizeJSON([]byte(`{"scanStats":{"totalRules":1099511627776}}`))
	assert.Equal(t, 1099511627776, r.ScanStats.TotalRules)
}

func TestNormalizePartialScanStats(t *testing.T) {
	payload := `{"scanStats":{"totalRules":150,"matchedRules":-3}}`
	r := newTestNormalizer().NormalizeJSON([]byte(payload))

	assert.Equal(t, 150, r.ScanStats.TotalRules)
	assert.Equal(t, 0, r.ScanStats.MatchedRules)
	assert.Equal(t, models.DefaultScanDuration, r.ScanStats.ScanDuration)
}

func TestNormalizeAcceptsDecodedFields(t *testing.T) {
	payload := `{"yaraMatches":["A","B"],"regexMatches":{"emails":[],"ips":["10.0.0.1"],"patterns":[]}}`
	r := newTestNormalizer().NormalizeJSON([]byte(payload))

	assert.Equal(t, []string{"A", "B"}, r.YaraMatches)
	assert.Equal(t, []string{"10.0.0.1"}, r.RegexMatches.IPs)
	assert.Equal(t, 3, TotalMatches(r))
}

func TestNormalizeKeepsIdentity(t *testing.T) {
	payload := `{"id":"abc","uploadedAt":"2023-01-02T03:04:05Z","riskLevel":"MEDIUM"}`
	r := newTestNormalizer().NormalizeJSON([]byte(payload))

	assert.Equal(t, "abc", r.ID)
	assert.True(t, r.UploadedAt.Equal(time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.Equal(t, "medium", r.RiskLevel)
}

func TestNormalizeRoundTrip(t *testing.T) {
	n := newTestNormalizer()
	first := n.Ingest(ParseRaw([]byte(`{
		"filename": "suspicious.exe",
		"riskLevel": "High",
		"yaraMatches": "[\"Trojan.Win32.Generic\", \"Malware.Suspicious\"]",
		"regexMatches": "{\"emails\":[\"malware@bad.com\"],\"ips\":[\"192.168.1.100\"],\"patterns\":[\"crypto_miner\"]}",
		"scanStats": {"totalRules": 150, "matchedRules": 3, "scanDuration": "00:02:45"}
	}`)))

	data, err := json.Marshal(first)
	require.NoError(t, err)

	second := n.NormalizeJSON(data)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.UploadedAt.Equal(second.UploadedAt))
	second.UploadedAt = first.UploadedAt
	assert.Equal(t, first, second)
}

func TestIngestOverridesIdentity(t *testing.T) {
	n := newTestNormalizer()
	r := n.Ingest(Raw{
		"id":         json.RawMessage(`"from-scanner"`),
		"uploadedAt": json.RawMessage(`"2001-01-01T00:00:00Z"`),
	})

	assert.NotEqual(t, "from-scanner", r.ID)
	assert.Equal(t, fixedNow, r.UploadedAt)
}

func TestIngestScenarioCleanFile(t *testing.T) {
	raw := ParseRaw([]byte(`{
		"filename": "a.pdf",
		"riskLevel": "low",
		"yaraMatches": "[]",
		"regexMatches": "{\"emails\":[],\"ips\":[],\"patterns\":[]}",
		"scanStats": {"totalRules": 150, "matchedRules": 0, "scanDuration": "00:01:23"}
	}`))
	r := Ingest(raw)

	assertWellFormed(t, r)
	assert.Equal(t, "a.pdf", r.Filename)
	assert.Equal(t, "low", r.RiskLevel)
	assert.Equal(t, 0, TotalMatches(r))
	assert.Equal(t, models.ScanStats{TotalRules: 150, MatchedRules: 0, ScanDuration: "00:01:23"}, r.ScanStats)
}

func TestIngestScenarioInfectedFile(t *testing.T) {
	raw := ParseRaw([]byte(`{
		"filename": "b.exe",
		"riskLevel": "high",
		"yaraMatches": "[\"Trojan.Win32.Generic\",\"Malware.Suspicious\"]",
		"regexMatches": "{\"emails\":[\"x@y.com\"],\"ips\":[\"1.2.3.4\"],\"patterns\":[\"crypto_miner\"]}"
	}`))
	r := Ingest(raw)

	assert.Equal(t, 5, TotalMatches(r))
	assert.Equal(t, models.RiskHigh, Classify(r))
	assert.Equal(t, models.DefaultScanStats(), r.ScanStats)
}
