package appliance

import (
	"encoding/hex"

	"github.com/airlync/airlync/pkg/appmsg"
)

// Generic is the Adapter implementation for every known appliance family.
// Per-appliance body layouts (the actual set/status fields an air
// conditioner or dehumidifier reports) are not specified here: Generic
// treats every body as an opaque payload, surfacing it as a status map
// with an availability flag and the raw hex so that a caller with
// appliance-specific knowledge can decode it further. A product that
// needs richer decoding implements Adapter directly instead of using
// Generic.
type Generic struct {
	applianceType byte
}

// NewAirConditioner returns the adapter for TypeAirConditioner devices.
func NewAirConditioner() *Generic { return &Generic{applianceType: TypeAirConditioner} }

// NewDehumidifier returns the adapter for TypeDehumidifier devices.
func NewDehumidifier() *Generic { return &Generic{applianceType: TypeDehumidifier} }

// NewFan returns the adapter for TypeFan devices.
func NewFan() *Generic { return &Generic{applianceType: TypeFan} }

// NewWaterHeater returns the adapter for TypeWaterHeater devices.
func NewWaterHeater() *Generic { return &Generic{applianceType: TypeWaterHeater} }

// ApplianceType implements Adapter.
func (g *Generic) ApplianceType() byte { return g.applianceType }

// BuildQueries implements Adapter. Generic has no appliance-specific
// queries beyond the QUERY_APPLIANCE the session engine always sends.
func (g *Generic) BuildQueries() []*appmsg.Message { return nil }

// ProcessMessage implements Adapter, reporting availability and the raw
// body bytes as hex.
func (g *Generic) ProcessMessage(body []byte) map[string]any {
	return map[string]any{
		"available": true,
		"raw":       hex.EncodeToString(body),
	}
}

var (
	_ Adapter = (*Generic)(nil)
)
