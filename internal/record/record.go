package record

import (
	"github.com/smukkama/weathercloud-bridge/internal/units"
)

// Archive is one periodic summarized observation from a weather station.
// A key mapped to nil means the sensor exists but produced no reading;
// an absent key means the station has no such sensor. Records are never
// mutated after they are handed to the delivery queue; consumers work on
// a Clone.
type Archive struct {
	DateTime int64 // epoch seconds
	Units    units.System
	Fields   map[string]*float64
}

// New creates an empty archive record for the given timestamp and unit system.
func New(dateTime int64, sys units.System) *Archive {
	return &Archive{
		DateTime: dateTime,
		Units:    sys,
		Fields:   make(map[string]*float64),
	}
}

// Get returns the value for a field, or nil if the field is absent or
// has no reading.
func (a *Archive) Get(field string) *float64 {
	return a.Fields[field]
}

// Has reports whether the field exists in the record, reading or not.
func (a *Archive) Has(field string) bool {
	_, ok := a.Fields[field]
	return ok
}

// Set stores a field value. A nil value records "sensor present, no reading".
func (a *Archive) Set(field string, v *float64) {
	a.Fields[field] = v
}

// SetValue stores a concrete field value.
func (a *Archive) SetValue(field string, v float64) {
	a.Fields[field] = &v
}

// Clone returns a deep copy so enrichment never touches the queued original.
func (a *Archive) Clone() *Archive {
	out := &Archive{
		DateTime: a.DateTime,
		Units:    a.Units,
		Fields:   make(map[string]*float64, len(a.Fields)),
	}
	for k, v := range a.Fields {
		if v == nil {
			out.Fields[k] = nil
			continue
		}
		val := *v
		out.Fields[k] = &val
	}
	return out
}
