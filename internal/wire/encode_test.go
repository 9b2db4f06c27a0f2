package wire

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/smukkama/weathercloud-bridge/internal/record"
	"github.com/smukkama/weathercloud-bridge/internal/units"
)

var testIdentity = Identity{
	ID:              "abc123",
	Key:             "s3cret",
	SoftwareVersion: "0.12",
}

func TestEncodeHeader(t *testing.T) {
	rec := record.New(1700000000, units.MetricWX) // 2023-11-14 22:13:20 UTC

	values := Encode(rec, testIdentity, DefaultFieldMap)

	tests := []struct {
		key  string
		want string
	}{
		{"ver", "0.12"},
		{"type", "251"},
		{"wid", "abc123"},
		{"key", "s3cret"},
		{"date", "20231114"},
		{"time", "2213"},
	}
	for _, tt := range tests {
		if got := values.Get(tt.key); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestEncodeTimeZeroPadded(t *testing.T) {
	rec := record.New(1704068520, units.MetricWX) // 2024-01-01 00:22:00 UTC

	values := Encode(rec, testIdentity, DefaultFieldMap)
	if got := values.Get("time"); got != "0022" {
		t.Errorf("time: got %q, want %q", got, "0022")
	}
	if got := values.Get("date"); got != "20240101" {
		t.Errorf("date: got %q, want %q", got, "20240101")
	}
}

func TestEncodeScalesTemperature(t *testing.T) {
	rec := record.New(1700000000, units.MetricWX)
	rec.SetValue("outTemp", 21.5)
	rec.SetValue("outHumidity", 55.0)

	values := Encode(rec, testIdentity, DefaultFieldMap)

	if got := values.Get("temp"); got != "215" {
		t.Errorf("temp: got %q, want %q", got, "215")
	}
	if got := values.Get("hum"); got != "55" {
		t.Errorf("hum: got %q, want %q", got, "55")
	}
}

func TestEncodeWindDirection(t *testing.T) {
	rec := record.New(1700000000, units.MetricWX)
	rec.SetValue("windDir", 10.0) // already normalized by enrichment

	values := Encode(rec, testIdentity, DefaultFieldMap)
	if got := values.Get("wdir"); got != "10" {
		t.Errorf("wdir: got %q, want %q", got, "10")
	}
}

func TestEncodeOmitsMissingFields(t *testing.T) {
	rec := record.New(1700000000, units.MetricWX)
	rec.SetValue("outTemp", 21.5)
	rec.Set("windSpeed", nil) // sensor present, no reading
	// windavg entirely absent: empty historical window

	values := Encode(rec, testIdentity, DefaultFieldMap)

	if _, ok := values["wspd"]; ok {
		t.Error("Expected wspd to be omitted for a nil reading")
	}
	if _, ok := values["wspdavg"]; ok {
		t.Error("Expected wspdavg to be omitted for an absent field")
	}
	if _, ok := values["hum"]; ok {
		t.Error("Expected hum to be omitted for an absent field")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	// decode(encode(v)) must land within the fixed-point precision
	cases := []struct {
		field   string
		wireKey string
		mult    float64
		v       float64
	}{
		{"outTemp", "temp", 10.0, 21.57},
		{"outTemp", "temp", 10.0, -3.22},
		{"windSpeed", "wspd", 10.0, 7.83},
		{"outHumidity", "hum", 1.0, 55.0},
		{"consBatteryVoltage", "battery", 100.0, 12.47},
	}

	for _, tt := range cases {
		rec := record.New(1700000000, units.MetricWX)
		rec.SetValue(tt.field, tt.v)

		values := Encode(rec, testIdentity, DefaultFieldMap)
		encoded := values.Get(tt.wireKey)
		if encoded == "" {
			t.Fatalf("%s: missing wire value", tt.wireKey)
		}

		n, err := strconv.Atoi(encoded)
		if err != nil {
			t.Fatalf("%s: wire value %q is not an integer literal: %v",
				tt.wireKey, encoded, err)
		}

		decoded := float64(n) / tt.mult
		if math.Abs(decoded-tt.v) > 1.0/tt.mult {
			t.Errorf("%s: round trip %v -> %q -> %v exceeds precision 1/%v",
				tt.wireKey, tt.v, encoded, decoded, tt.mult)
		}
	}
}

func TestEncodeValuesAreIntegerLiterals(t *testing.T) {
	rec := record.New(1700000000, units.MetricWX)
	rec.SetValue("outTemp", 21.5)
	rec.SetValue("barometer", 1012.7)
	rec.SetValue("dayRain", 3.14)

	values := Encode(rec, testIdentity, DefaultFieldMap)
	for _, entry := range DefaultFieldMap {
		v := values.Get(entry.WireKey)
		if v == "" {
			continue
		}
		if _, err := strconv.Atoi(v); err != nil {
			t.Errorf("%s: value %q is not a valid integer literal", entry.WireKey, v)
		}
	}
}

func TestRedact(t *testing.T) {
	rec := record.New(1700000000, units.MetricWX)
	rec.SetValue("outTemp", 21.5)

	u := RequestURL(DefaultServerURL, Encode(rec, testIdentity, DefaultFieldMap))
	redacted := Redact(u)

	if strings.Contains(redacted, "s3cret") {
		t.Error("Secret key leaked into redacted URL")
	}
	if !strings.Contains(redacted, "key=XXX") {
		t.Error("Expected key=XXX marker in redacted URL")
	}
	if !strings.Contains(redacted, "wid=abc123") {
		t.Error("Redaction must leave other parameters alone")
	}
}

func TestRequestURL(t *testing.T) {
	rec := record.New(1700000000, units.MetricWX)
	u := RequestURL("http://example.com/v01/set", Encode(rec, testIdentity, DefaultFieldMap))

	if !strings.HasPrefix(u, "http://example.com/v01/set?") {
		t.Errorf("Unexpected URL shape: %s", u)
	}
}
