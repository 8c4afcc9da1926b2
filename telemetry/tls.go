package telemetry

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"software.sslmate.com/src/go-pkcs12"

	"sensoralert/shared"
)

var ErrBadCA = errors.New("no certificates found in CA file")

// NewTLSConfig builds a client TLS config from a PEM CA, a PEM certificate
// and key pair or a PKCS#12 bundle. It returns nil when nothing is set.
func NewTLSConfig(cfg shared.TLSConfig) (*tls.Config, error) {
	if cfg == (shared.TLSConfig{}) {
		return nil, nil
	}
	tc := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.Insecure,
	}

	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("%w: %s", ErrBadCA, cfg.CAFile)
		}
		tc.RootCAs = pool
	}

	switch {
	case cfg.PKCS12File != "":
		data, err := os.ReadFile(cfg.PKCS12File)
		if err != nil {
			return nil, fmt.Errorf("read pkcs12: %w", err)
		}
		key, cert, chain, err := pkcs12.DecodeChain(data, cfg.PKCS12Password)
		if err != nil {
			return nil, fmt.Errorf("decode pkcs12: %w", err)
		}
		tlsCert := tls.Certificate{Certificate: [][]byte{cert.Raw}, PrivateKey: key, Leaf: cert}
		for _, c := range chain {
			tlsCert.Certificate = append(tlsCert.Certificate, c.Raw)
		}
		tc.Certificates = []tls.Certificate{tlsCert}
	case cfg.CertFile != "":
		pair, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load key pair: %w", err)
		}
		tc.Certificates = []tls.Certificate{pair}
	}
	return tc, nil
}
