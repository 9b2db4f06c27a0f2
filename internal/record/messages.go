package record

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/smukkama/weathercloud-bridge/internal/units"
)

// ArchiveMessage is the Kafka envelope the host publishes when a new
// archive record is ready.
type ArchiveMessage struct {
	StationID  string              `json:"station_id"`
	ReceivedAt time.Time           `json:"received_at"`
	DateTime   int64               `json:"date_time"`
	UnitSystem int                 `json:"unit_system"`
	Fields     map[string]*float64 `json:"fields"`
}

// EncodeArchiveMessage encodes an ArchiveMessage to JSON.
func EncodeArchiveMessage(msg *ArchiveMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeArchiveMessage decodes JSON to an ArchiveMessage and validates it.
func DecodeArchiveMessage(data []byte) (*ArchiveMessage, error) {
	var msg ArchiveMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if msg.DateTime <= 0 {
		return nil, fmt.Errorf("date_time is required")
	}
	switch units.System(msg.UnitSystem) {
	case units.US, units.Metric, units.MetricWX:
	default:
		return nil, fmt.Errorf("unknown unit system %#x", msg.UnitSystem)
	}
	return &msg, nil
}

// Record converts the message into an Archive record.
func (m *ArchiveMessage) Record() *Archive {
	rec := &Archive{
		DateTime: m.DateTime,
		Units:    units.System(m.UnitSystem),
		Fields:   make(map[string]*float64, len(m.Fields)),
	}
	for k, v := range m.Fields {
		if v == nil {
			rec.Fields[k] = nil
			continue
		}
		val := *v
		rec.Fields[k] = &val
	}
	return rec
}
