// Package certgen creates the certificate authority of a deployment and
// issues the server and per-owner device certificates signed by it. The
// Common Name of a device certificate is the owner ID the records API scopes
// data by.
package certgen

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	// CAValidity is how long a generated CA stays valid.
	CAValidity = 10 * 365 * 24 * time.Hour
	// LeafValidity is how long server and device certificates stay valid.
	LeafValidity = 365 * 24 * time.Hour
)

// Credentials is a PEM-encoded certificate with its private key.
type Credentials struct {
	CertPEM []byte
	KeyPEM  []byte
}

// Write stores the certificate and key under dir as <name>.crt and
// <name>.key. The key file is readable by the owner only.
func (c Credentials) Write(dir, name string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".crt"), c.CertPEM, 0o644); err != nil {
		return fmt.Errorf("write %s cert: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".key"), c.KeyPEM, 0o600); err != nil {
		return fmt.Errorf("write %s key: %w", name, err)
	}
	return nil
}

func serialNumber() (*big.Int, error) {
	return rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
}

func encode(der []byte, priv *ecdsa.PrivateKey) (Credentials, error) {
	keyDER, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return Credentials{}, fmt.Errorf("marshal priv key: %w", err)
	}
	return Credentials{
		CertPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		KeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}),
	}, nil
}

// GenerateCA creates a self-signed ECDSA P-256 certificate authority.
func GenerateCA(commonName string) (Credentials, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return Credentials{}, fmt.Errorf("gen key: %w", err)
	}
	serial, err := serialNumber()
	if err != nil {
		return Credentials{}, fmt.Errorf("serial: %w", err)
	}
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(CAValidity),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		return Credentials{}, fmt.Errorf("create cert: %w", err)
	}
	return encode(der, priv)
}

// LoadCACredentials loads a CA certificate and its private key from PEM files.
// It returns the parsed *x509.Certificate, the private key (either *ecdsa.PrivateKey or *rsa.PrivateKey),
// or an error if reading or parsing fails.
func LoadCACredentials(certPath, keyPath string) (*x509.Certificate, any, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read ca cert: %w", err)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read ca key: %w", err)
	}
	return ParseCA(Credentials{CertPEM: certPEM, KeyPEM: keyPEM})
}

// ParseCA decodes CA credentials held in memory.
func ParseCA(ca Credentials) (*x509.Certificate, any, error) {
	certBlock, _ := pem.Decode(ca.CertPEM)
	if certBlock == nil || certBlock.Type != "CERTIFICATE" {
		return nil, nil, errors.New("invalid CA cert PEM")
	}
	caCert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("parse ca cert: %w", err)
	}

	keyBlock, _ := pem.Decode(ca.KeyPEM)
	if keyBlock == nil {
		return nil, nil, errors.New("invalid CA key PEM")
	}
	var caKey any
	switch keyBlock.Type {
	case "EC PRIVATE KEY":
		caKey, err = x509.ParseECPrivateKey(keyBlock.Bytes)
	case "RSA PRIVATE KEY":
		caKey, err = x509.ParsePKCS1PrivateKey(keyBlock.Bytes)
	default:
		return nil, nil, fmt.Errorf("unsupported key type: %s", keyBlock.Type)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("parse ca key: %w", err)
	}

	return caCert, caKey, nil
}

func issue(template *x509.Certificate, caCert *x509.Certificate, caKey any) (Credentials, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return Credentials{}, fmt.Errorf("gen key: %w", err)
	}
	serial, err := serialNumber()
	if err != nil {
		return Credentials{}, fmt.Errorf("serial: %w", err)
	}
	template.SerialNumber = serial
	template.NotBefore = time.Now().Add(-1 * time.Minute)
	template.NotAfter = time.Now().Add(LeafValidity)
	template.KeyUsage = x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment

	der, err := x509.CreateCertificate(rand.Reader, template, caCert, &priv.PublicKey, caKey)
	if err != nil {
		return Credentials{}, fmt.Errorf("create cert: %w", err)
	}
	return encode(der, priv)
}

// GenerateServerCertificate issues a TLS server certificate for hosts. Each
// host is added as an IP SAN when it parses as an IP and as a DNS SAN
// otherwise.
func GenerateServerCertificate(hosts []string, caCert *x509.Certificate, caKey any) (Credentials, error) {
	if len(hosts) == 0 {
		return Credentials{}, errors.New("at least one host is required")
	}
	template := &x509.Certificate{
		Subject:     pkix.Name{CommonName: hosts[0]},
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}
	return issue(template, caCert, caKey)
}

// GenerateUserCertificate generates an ECDSA P-256 device certificate for
// an owner, signed by the provided CA certificate and key.
// It returns the PEM-encoded certificate and private key, or an error.
//
//	commonName: owner ID placed in the Common Name
//	caCert:     parsed CA *x509.Certificate for signing
//	caKey:      CA private key (*ecdsa.PrivateKey or *rsa.PrivateKey)
func GenerateUserCertificate(commonName string, caCert *x509.Certificate, caKey any) ([]byte, []byte, error) {
	if commonName == "" {
		return nil, nil, errors.New("owner ID must not be empty")
	}
	creds, err := issue(&x509.Certificate{
		Subject:     pkix.Name{CommonName: commonName},
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}, caCert, caKey)
	if err != nil {
		return nil, nil, err
	}
	return creds.CertPEM, creds.KeyPEM, nil
}
