package units

import "fmt"

// System identifies the unit system a record's values are expressed in.
// The numeric values match the weewx archive convention so records coming
// off the wire can be tagged directly.
type System int

const (
	US       System = 0x01 // degree_F, mph, inHg, inch
	Metric   System = 0x10 // degree_C, km/h, hPa, cm
	MetricWX System = 0x11 // degree_C, m/s, hPa, mm (canonical)
)

func (s System) String() string {
	switch s {
	case US:
		return "US"
	case Metric:
		return "METRIC"
	case MetricWX:
		return "METRICWX"
	}
	return fmt.Sprintf("System(%#x)", int(s))
}

// Group classifies a measurement so the right conversion applies.
type Group string

const (
	GroupTemperature Group = "temperature"
	GroupSpeed       Group = "speed"
	GroupPressure    Group = "pressure"
	GroupRain        Group = "rain"
	GroupRainRate    Group = "rainrate"
	GroupDirection   Group = "direction"
	GroupPercent     Group = "percent"
	GroupVolt        Group = "volt"
	GroupCount       Group = "count"
	GroupUV          Group = "uv"
	GroupRadiation   Group = "radiation"
)

// fieldGroups maps the archive fields this bridge handles to their
// measurement group. Fields absent from this table pass through
// conversion unchanged.
var fieldGroups = map[string]Group{
	"outTemp":      GroupTemperature,
	"inTemp":       GroupTemperature,
	"extraTemp1":   GroupTemperature,
	"extraTemp2":   GroupTemperature,
	"extraTemp3":   GroupTemperature,
	"leafTemp1":    GroupTemperature,
	"leafTemp2":    GroupTemperature,
	"soilTemp1":    GroupTemperature,
	"soilTemp2":    GroupTemperature,
	"soilTemp3":    GroupTemperature,
	"soilTemp4":    GroupTemperature,
	"heatingTemp4": GroupTemperature,
	"windchill":    GroupTemperature,
	"heatindex":    GroupTemperature,
	"dewpoint":     GroupTemperature,
	"windSpeed":    GroupSpeed,
	"windGust":     GroupSpeed,
	"barometer":    GroupPressure,
	"dayRain":      GroupRain,
	"ET":           GroupRain,
	"rainRate":     GroupRainRate,
	"windDir":      GroupDirection,
	"windGustDir":  GroupDirection,
	"outHumidity":  GroupPercent,
	"inHumidity":   GroupPercent,
	"extraHumid1":  GroupPercent,
	"extraHumid2":  GroupPercent,
	"UV":           GroupUV,
	"radiation":    GroupRadiation,

	"consBatteryVoltage": GroupVolt,
}

// GroupFor returns the measurement group for an archive field name.
func GroupFor(field string) (Group, bool) {
	g, ok := fieldGroups[field]
	return g, ok
}

// Scale factors into MetricWX, per source system. Temperature is affine
// and handled separately.
var usToMetricWX = map[Group]float64{
	GroupSpeed:    0.44704,  // mph -> m/s
	GroupPressure: 33.86386, // inHg -> hPa
	GroupRain:     25.4,     // inch -> mm
	GroupRainRate: 25.4,     // inch/h -> mm/h
}

var metricToMetricWX = map[Group]float64{
	GroupSpeed:    1.0 / 3.6, // km/h -> m/s
	GroupRain:     10.0,      // cm -> mm
	GroupRainRate: 10.0,      // cm/h -> mm/h
}

// unscaled groups carry the same value in every system.
var unscaled = map[Group]bool{
	GroupDirection: true,
	GroupPercent:   true,
	GroupVolt:      true,
	GroupCount:     true,
	GroupUV:        true,
	GroupRadiation: true,
}

// Convert maps a value from the given unit system into MetricWX.
// An unknown group or source system is an error, never a silent pass-through.
func Convert(v float64, g Group, from System) (float64, error) {
	if from == MetricWX || unscaled[g] {
		return v, nil
	}

	switch from {
	case US:
		if g == GroupTemperature {
			return (v - 32.0) * 5.0 / 9.0, nil
		}
		if factor, ok := usToMetricWX[g]; ok {
			return v * factor, nil
		}
	case Metric:
		if g == GroupTemperature || g == GroupPressure {
			return v, nil
		}
		if factor, ok := metricToMetricWX[g]; ok {
			return v * factor, nil
		}
	default:
		return 0, fmt.Errorf("unknown unit system %s", from)
	}

	return 0, fmt.Errorf("no conversion for group %q from %s", g, from)
}

// ConvertWindSpeed converts a wind speed reading into m/s, propagating
// absent readings as nil.
func ConvertWindSpeed(v *float64, from System) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	converted, err := Convert(*v, GroupSpeed, from)
	if err != nil {
		return nil, err
	}
	return &converted, nil
}
