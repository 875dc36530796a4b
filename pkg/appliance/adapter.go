// Package appliance defines the capability interface the device session
// engine dispatches through: one adapter per appliance family, each
// knowing how to build its own status queries and interpret its own
// application message bodies. The session engine never special-cases a
// product category; it holds a single Adapter by interface.
package appliance

import "github.com/airlync/airlync/pkg/appmsg"

// Known appliance type tags (header offset 2 of every application
// message).
const (
	TypeAirConditioner byte = 0xAC
	TypeDehumidifier    byte = 0xA1
	TypeFan             byte = 0xFA
	TypeWaterHeater     byte = 0xE2
)

// Adapter is the capability set a device session needs from an appliance
// family: build its own status queries, and turn a decrypted inner
// packet body into a status map. Body encodings beyond the common
// QUERY_APPLIANCE exchange are appliance-specific and out of scope here;
// adapters are free to return an empty map for bodies they don't
// recognize.
type Adapter interface {
	// ApplianceType returns the appliance type tag this adapter builds
	// messages for.
	ApplianceType() byte

	// BuildQueries returns the application messages refresh_status sends
	// in addition to QUERY_APPLIANCE.
	BuildQueries() []*appmsg.Message

	// ProcessMessage interprets a decrypted inner packet body and
	// returns the status fields it carries. May return an empty map.
	ProcessMessage(body []byte) map[string]any
}
