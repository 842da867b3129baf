package storage

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

// DefaultTimeout bounds every call to the records API.
const DefaultTimeout = 10 * time.Second

// LoadClientCertificate builds an HTTP client that presents the device
// certificate and trusts only caFile. The certificate CN is the owner
// identity seen by the server.
func LoadClientCertificate(certFile, keyFile, caFile string) (*http.Client, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client cert/key: %w", err)
	}
	caPool, err := loadCAPool(caFile)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			Certificates: []tls.Certificate{cert},
			RootCAs:      caPool,
			MinVersion:   tls.VersionTLS12,
		},
	}
	return &http.Client{Transport: transport, Timeout: DefaultTimeout}, nil
}

// NewHTTPClient returns a mutual-TLS client when a certificate is given, a
// client trusting caFile when only a CA is given, and a plain client
// otherwise.
func NewHTTPClient(certFile, keyFile, caFile string) (*http.Client, error) {
	if certFile != "" {
		return LoadClientCertificate(certFile, keyFile, caFile)
	}
	if caFile == "" {
		return &http.Client{Timeout: DefaultTimeout}, nil
	}
	caPool, err := loadCAPool(caFile)
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{TLSClientConfig: &tls.Config{RootCAs: caPool, MinVersion: tls.VersionTLS12}}
	return &http.Client{Transport: transport, Timeout: DefaultTimeout}, nil
}

func loadCAPool(caFile string) (*x509.CertPool, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA cert")
	}
	return caPool, nil
}
