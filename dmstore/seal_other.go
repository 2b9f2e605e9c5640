//go:build !windows

package dmstore

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/nacl/secretbox"
)

// sealFormat tags secretbox payloads: a 24 byte nonce, then the box.
const sealFormat byte = 's'

var sealKey = [32]byte{
	0x4c, 0xe1, 0x07, 0x9a, 0x36, 0xd2, 0x8b, 0x5f,
	0xa3, 0x10, 0x6e, 0xc7, 0x29, 0xf4, 0x95, 0x3b,
	0x71, 0x0d, 0xbe, 0x48, 0xe5, 0x62, 0x1a, 0x9f,
	0xd8, 0x34, 0x87, 0x2c, 0xf0, 0x5b, 0xa6, 0x13,
}

func sealPayload(plain []byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &sealKey), nil
}

func openPayload(payload []byte) ([]byte, error) {
	var nonce [24]byte
	if len(payload) < len(nonce)+secretbox.Overhead {
		return nil, errors.New("payload truncated")
	}
	copy(nonce[:], payload)
	plain, ok := secretbox.Open(nil, payload[len(nonce):], &nonce, &sealKey)
	if !ok {
		return nil, errors.New("authentication failed")
	}
	return plain, nil
}
