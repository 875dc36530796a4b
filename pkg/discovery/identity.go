package discovery

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/airlync/airlync/pkg/crypto"
)

// IdentityVariant selects one of the three byte layouts used to derive
// a device's cloud-lookup identity hash from its numeric appliance ID.
type IdentityVariant int

const (
	// IdentityVariant0 writes the ID big-endian over 8 bytes, then
	// reverses the result.
	IdentityVariant0 IdentityVariant = iota
	// IdentityVariant1 writes the low 6 bytes of the ID, big-endian.
	IdentityVariant1
	// IdentityVariant2 writes the low 6 bytes of the ID, little-endian.
	IdentityVariant2
)

// UDPID derives the 32-character lowercase hex identity used for
// cloud-assisted credential lookup: SHA-256 over the variant's byte
// layout of applianceID, then the first half XORed with the second.
func UDPID(applianceID uint64, variant IdentityVariant) string {
	var b []byte
	switch variant {
	case IdentityVariant0:
		b = make([]byte, 8)
		binary.BigEndian.PutUint64(b, applianceID)
		for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
			b[i], b[j] = b[j], b[i]
		}
	case IdentityVariant1:
		b = make([]byte, 6)
		full := make([]byte, 8)
		binary.BigEndian.PutUint64(full, applianceID)
		copy(b, full[2:])
	case IdentityVariant2:
		b = make([]byte, 6)
		full := make([]byte, 8)
		binary.LittleEndian.PutUint64(full, applianceID)
		copy(b, full[:6])
	}

	d := crypto.SHA256Slice(b)
	half := len(d) / 2
	out := crypto.XOR(d[:half], d[half:])
	return hex.EncodeToString(out)
}
