package dmapi

import (
	"crypto/tls"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
)

// defaultKeepalivePeriod for quic protocol.
const defaultKeepalivePeriod = 45 * time.Second

func newHTTP3Transport() *http3.Transport {
	return &http3.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS13,
		},
		QUICConfig: &quic.Config{
			KeepAlivePeriod: defaultKeepalivePeriod,
		},
	}
}
