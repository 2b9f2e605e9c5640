//go:build windows

package dmstore

import (
	"github.com/billgraziano/dpapi"
)

// sealFormat tags DPAPI blobs bound to the current user.
const sealFormat byte = 'd'

func sealPayload(plain []byte) ([]byte, error) {
	return dpapi.EncryptBytes(plain)
}

func openPayload(payload []byte) ([]byte, error) {
	return dpapi.DecryptBytes(payload)
}
