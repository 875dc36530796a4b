package crypto

import "crypto/md5" //nolint:gosec // protocol-mandated integrity tag, not used for security

// md5Salt is appended to the inner packet before hashing to produce its
// trailing integrity tag. It is a fixed protocol constant.
var md5Salt = [32]byte{
	0xa3, 0x24, 0xac, 0x3e, 0x19, 0x8a, 0x10, 0x52,
	0x76, 0xbc, 0xec, 0x8a, 0x4e, 0xc9, 0xa7, 0x58,
	0x90, 0x97, 0x41, 0xe1, 0x14, 0x06, 0x7d, 0x70,
	0x8b, 0x49, 0x16, 0x56, 0x0c, 0x55, 0x9e, 0x51,
}

// MD5TagSize is the size in bytes of the salted MD5 integrity tag.
const MD5TagSize = md5.Size

// MD5SaltedTag computes MD5(data ‖ salt), the integrity tag appended to
// every inner packet.
func MD5SaltedTag(data []byte) [MD5TagSize]byte {
	h := md5.New() //nolint:gosec
	h.Write(data)
	h.Write(md5Salt[:])
	var out [MD5TagSize]byte
	copy(out[:], h.Sum(nil))
	return out
}
