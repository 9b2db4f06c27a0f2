package derive

import (
	"context"
	"fmt"
	"time"

	"github.com/smukkama/weathercloud-bridge/internal/record"
	"github.com/smukkama/weathercloud-bridge/internal/units"
)

// DefaultWindow is the trailing interval the windowed aggregates cover.
const DefaultWindow = 600 * time.Second

// ScalarStore is the narrow view of the archive database the enricher
// needs: scalar aggregates over a (lower, upper] timestamp window.
// An empty window yields nil, never zero.
type ScalarStore interface {
	WindowAvg(ctx context.Context, field string, lower, upper int64) (*float64, error)
	WindowMaxGust(ctx context.Context, lower, upper int64) (*float64, error)
}

// batteryChannels maps station battery status fields to the derived flag
// fields, in wire order battery01..battery05.
var batteryChannels = []struct {
	source  string
	derived string
}{
	{"txBatteryStatus", "bat01"},
	{"windBatteryStatus", "bat02"},
	{"rainBatteryStatus", "bat03"},
	{"outTempBatteryStatus", "bat04"},
	{"inTempBatteryStatus", "bat05"},
}

// Enricher computes the derived quantities WeatherCloud wants on top of a
// raw archive record: 10-minute wind aggregates, indoor comfort indices,
// and inverted battery flags.
type Enricher struct {
	store  ScalarStore
	window time.Duration
}

// NewEnricher creates an enricher over the given store. A zero window
// falls back to DefaultWindow.
func NewEnricher(store ScalarStore, window time.Duration) *Enricher {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Enricher{store: store, window: window}
}

// Enrich returns a copy of rec in canonical MetricWX units with the derived
// fields merged in. The original record is never touched. A store failure
// is reported through the returned error, but the returned record is still
// usable: the affected derived fields are simply absent.
func (e *Enricher) Enrich(ctx context.Context, rec *record.Archive) (*record.Archive, error) {
	out, err := toMetricWX(rec)
	if err != nil {
		return nil, err
	}

	var firstErr error
	upper := rec.DateTime
	lower := upper - int64(e.window.Seconds())

	windavg, err := e.store.WindowAvg(ctx, "windSpeed", lower, upper)
	if err != nil {
		firstErr = fmt.Errorf("wind average query: %w", err)
	}
	windhi, err := e.store.WindowMaxGust(ctx, lower, upper)
	if err != nil && firstErr == nil {
		firstErr = fmt.Errorf("wind gust query: %w", err)
	}
	winddiravg, err := e.store.WindowAvg(ctx, "windDir", lower, upper)
	if err != nil && firstErr == nil {
		firstErr = fmt.Errorf("wind direction query: %w", err)
	}

	// The store keeps values in the record's unit system; the wind speed
	// aggregates still need converting. Direction is degrees everywhere.
	if windavg, err = units.ConvertWindSpeed(windavg, rec.Units); err != nil {
		return nil, err
	}
	if windhi, err = units.ConvertWindSpeed(windhi, rec.Units); err != nil {
		return nil, err
	}

	out.Set("windavg", windavg)
	out.Set("windhi", windhi)
	out.Set("winddiravg", winddiravg)

	out.Set("windDir", normalizeDirection(out.Get("windDir")))
	out.Set("winddiravg", normalizeDirection(out.Get("winddiravg")))

	if out.Has("inTemp") && out.Has("inHumidity") {
		out.Set("inheatindex", heatIndexC(out.Get("inTemp"), out.Get("inHumidity")))
		out.Set("indewpoint", dewPointC(out.Get("inTemp"), out.Get("inHumidity")))
	}

	// Battery presence is judged on the raw record: a station without a
	// battery channel must not report one.
	for _, ch := range batteryChannels {
		if rec.Has(ch.source) {
			out.Set(ch.derived, invertBattery(rec.Get(ch.source)))
		}
	}

	return out, firstErr
}

// toMetricWX clones the record and converts every field with a known
// measurement group into canonical MetricWX units. Unmapped fields pass
// through unchanged.
func toMetricWX(rec *record.Archive) (*record.Archive, error) {
	out := rec.Clone()
	out.Units = units.MetricWX
	if rec.Units == units.MetricWX {
		return out, nil
	}
	for field, v := range out.Fields {
		if v == nil {
			continue
		}
		group, ok := units.GroupFor(field)
		if !ok {
			continue
		}
		converted, err := units.Convert(*v, group, rec.Units)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", field, err)
		}
		out.SetValue(field, converted)
	}
	return out, nil
}
