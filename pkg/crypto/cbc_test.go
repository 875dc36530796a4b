package crypto

import (
	"bytes"
	"testing"
)

func TestCBCRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x11}, 16)
	plain := bytes.Repeat([]byte{0xAB}, 48)

	cipherText, err := EncryptCBC(plain, key)
	if err != nil {
		t.Fatalf("EncryptCBC: %v", err)
	}

	got, err := DecryptCBC(cipherText, key)
	if err != nil {
		t.Fatalf("DecryptCBC: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("round trip mismatch")
	}
}

func TestCBCZeroKeyVector(t *testing.T) {
	key := make([]byte, 32)
	plain := make([]byte, 32)
	for i := range plain {
		plain[i] = byte(i)
	}

	cipherText, err := EncryptCBC(plain, key)
	if err != nil {
		t.Fatalf("EncryptCBC: %v", err)
	}
	got, err := DecryptCBC(cipherText, key)
	if err != nil {
		t.Fatalf("DecryptCBC: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("round trip mismatch with zero key")
	}
}

func TestCBCNotBlockAligned(t *testing.T) {
	key := make([]byte, 16)
	if _, err := EncryptCBC([]byte("not16"), key); err != ErrCBCNotBlockAligned {
		t.Errorf("EncryptCBC: got %v, want ErrCBCNotBlockAligned", err)
	}
	if _, err := DecryptCBC([]byte("not16"), key); err != ErrCBCNotBlockAligned {
		t.Errorf("DecryptCBC: got %v, want ErrCBCNotBlockAligned", err)
	}
}
