package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
)

// ErrCBCNotBlockAligned is returned when plaintext or ciphertext is not a
// multiple of the AES block size. The outer v3 frame and handshake
// payloads are sized to guarantee this never happens in practice; this
// error exists to catch a malformed peer rather than to support padding.
var ErrCBCNotBlockAligned = errors.New("crypto: cbc input is not block-aligned")

var zeroIV [16]byte

// EncryptCBC encrypts plain under key using AES-CBC with a zero IV and
// no padding. The AES variant follows the key length (16, 24, or 32
// bytes); the 32-byte handshake and session keys select AES-256.
// len(plain) must be a non-zero multiple of 16.
func EncryptCBC(plain, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(plain) == 0 || len(plain)%block.BlockSize() != 0 {
		return nil, ErrCBCNotBlockAligned
	}

	out := make([]byte, len(plain))
	mode := cipher.NewCBCEncrypter(block, zeroIV[:])
	mode.CryptBlocks(out, plain)
	return out, nil
}

// DecryptCBC decrypts cipherText under key using AES-CBC with a zero IV
// and no padding, the AES variant following the key length as for
// EncryptCBC. len(cipherText) must be a non-zero multiple of 16.
func DecryptCBC(cipherText, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(cipherText) == 0 || len(cipherText)%block.BlockSize() != 0 {
		return nil, ErrCBCNotBlockAligned
	}

	out := make([]byte, len(cipherText))
	mode := cipher.NewCBCDecrypter(block, zeroIV[:])
	mode.CryptBlocks(out, cipherText)
	return out, nil
}
