package dmstore

import (
	"errors"
	"fmt"
)

// ErrUnsealable is returned when a stored value is not a secret this build
// can open: it was written by another platform, or it was corrupted.
var ErrUnsealable = errors.New("dmstore: value cannot be unsealed")

// seal protects plain for storage. The result is the platform's format tag
// followed by its payload.
func seal(plain []byte) ([]byte, error) {
	payload, err := sealPayload(plain)
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}
	out := make([]byte, 0, 1+len(payload))
	out = append(out, sealFormat)
	return append(out, payload...), nil
}

// unseal reverses seal.
func unseal(sealed []byte) ([]byte, error) {
	if len(sealed) == 0 {
		return nil, fmt.Errorf("%w: empty value", ErrUnsealable)
	}
	if sealed[0] != sealFormat {
		return nil, fmt.Errorf("%w: format %q, want %q", ErrUnsealable, sealed[0], sealFormat)
	}
	plain, err := openPayload(sealed[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsealable, err)
	}
	return plain, nil
}
