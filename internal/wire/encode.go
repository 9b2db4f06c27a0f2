package wire

import (
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/smukkama/weathercloud-bridge/internal/record"
)

// clientType is the integration identifier WeatherCloud assigned to the
// upstream weewx ecosystem this bridge speaks for.
const clientType = "251"

// DefaultServerURL is the WeatherCloud ingestion endpoint.
const DefaultServerURL = "http://api.weathercloud.net/v01/set"

// Identity carries the account credentials stamped onto every upload.
type Identity struct {
	ID              string
	Key             string
	SoftwareVersion string
}

// Entry describes one wire field: which record field feeds it, how it is
// formatted, and the fixed-point scale factor applied first.
type Entry struct {
	WireKey string
	Field   string
	Format  string
	Mult    float64
}

// FieldMap is the ordered wire-field table. It is built once at startup
// and never mutated.
type FieldMap []Entry

// DefaultFieldMap supports the default archive schema.
var DefaultFieldMap = FieldMap{
	{"temp", "outTemp", "%.0f", 10.0},            // C * 10
	{"hum", "outHumidity", "%.0f", 1.0},          // percent
	{"wdir", "windDir", "%.0f", 1.0},             // degree
	{"wspd", "windSpeed", "%.0f", 10.0},          // m/s * 10
	{"bar", "barometer", "%.0f", 10.0},           // hPa * 10
	{"rain", "dayRain", "%.0f", 10.0},            // mm * 10
	{"rainrate", "rainRate", "%.0f", 10.0},       // mm/hr * 10
	{"tempin", "inTemp", "%.0f", 10.0},           // C * 10
	{"humin", "inHumidity", "%.0f", 1.0},         // percent
	{"uvi", "UV", "%.0f", 10.0},                  // index * 10
	{"solarrad", "radiation", "%.0f", 10.0},      // W/m^2 * 10
	{"et", "ET", "%.0f", 10.0},                   // mm * 10
	{"chill", "windchill", "%.0f", 10.0},         // C * 10
	{"heat", "heatindex", "%.0f", 10.0},          // C * 10
	{"dew", "dewpoint", "%.0f", 10.0},            // C * 10
	{"battery", "consBatteryVoltage", "%.0f", 100.0}, // V * 100
	{"temp01", "extraTemp1", "%.0f", 10.0},       // C * 10
	{"temp02", "extraTemp2", "%.0f", 10.0},       // C * 10
	{"temp03", "extraTemp3", "%.0f", 10.0},       // C * 10
	{"temp04", "leafTemp1", "%.0f", 10.0},        // C * 10
	{"temp05", "leafTemp2", "%.0f", 10.0},        // C * 10
	{"temp06", "soilTemp1", "%.0f", 10.0},        // C * 10
	{"temp07", "soilTemp2", "%.0f", 10.0},        // C * 10
	{"temp08", "soilTemp3", "%.0f", 10.0},        // C * 10
	{"temp09", "soilTemp4", "%.0f", 10.0},        // C * 10
	{"temp10", "heatingTemp4", "%.0f", 10.0},     // C * 10
	{"leafwet01", "leafWet1", "%.0f", 1.0},       // [0,15]
	{"leafwet02", "leafWet2", "%.0f", 1.0},       // [0,15]
	{"hum01", "extraHumid1", "%.0f", 1.0},        // percent
	{"hum02", "extraHumid2", "%.0f", 1.0},        // percent
	{"soilmoist01", "soilMoist1", "%.0f", 1.0},   // Cb [0,200]
	{"soilmoist02", "soilMoist2", "%.0f", 1.0},   // Cb [0,200]
	{"soilmoist03", "soilMoist3", "%.0f", 1.0},   // Cb [0,200]
	{"soilmoist04", "soilMoist4", "%.0f", 1.0},   // Cb [0,200]

	// computed by this bridge
	{"wspdhi", "windhi", "%.0f", 10.0},     // m/s * 10
	{"wspdavg", "windavg", "%.0f", 10.0},   // m/s * 10
	{"wdiravg", "winddiravg", "%.0f", 1.0}, // degree
	{"heatin", "inheatindex", "%.0f", 10.0}, // C * 10
	{"dewin", "indewpoint", "%.0f", 10.0},  // C * 10
	{"battery01", "bat01", "%.0f", 1.0},    // 0 or 1
	{"battery02", "bat02", "%.0f", 1.0},    // 0 or 1
	{"battery03", "bat03", "%.0f", 1.0},    // 0 or 1
	{"battery04", "bat04", "%.0f", 1.0},    // 0 or 1
	{"battery05", "bat05", "%.0f", 1.0},    // 0 or 1
}

// Encode assembles the WeatherCloud request parameters for a derived
// record. Fields that are absent or have no reading are omitted, not sent
// as a sentinel. Pure transform; callers must redact the key before
// logging the assembled URL.
func Encode(rec *record.Archive, id Identity, fm FieldMap) url.Values {
	t := time.Unix(rec.DateTime, 0).UTC()

	values := url.Values{}
	values.Set("ver", id.SoftwareVersion)
	values.Set("type", clientType)
	values.Set("wid", id.ID)
	values.Set("key", id.Key)
	values.Set("time", t.Format("1504"))
	values.Set("date", t.Format("20060102"))

	for _, entry := range fm {
		v := rec.Get(entry.Field)
		if v == nil {
			continue
		}
		values.Set(entry.WireKey, fmt.Sprintf(entry.Format, *v*entry.Mult))
	}

	return values
}

// RequestURL builds the full GET URL for an upload.
func RequestURL(serverURL string, values url.Values) string {
	return serverURL + "?" + values.Encode()
}

var keyPattern = regexp.MustCompile(`key=[^&]*`)

// Redact masks the account key in an assembled URL so it never reaches
// the logs.
func Redact(u string) string {
	return keyPattern.ReplaceAllString(u, "key=XXX")
}
