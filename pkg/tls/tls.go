// SPDX-License-Identifier: Apache-2.0

package tls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// Config describes the TLS settings of the Redis connection. Certificates can
// be given either as a file path or as inline PEM content, the file taking
// precedence.
type Config struct {
	// Enabled determines if TLS should be used. A rediss:// URL enables TLS
	// regardless of this setting.
	Enabled bool
	// CA certificate. The system certificate pool is used when not provided.
	CaCertFile string
	CaCertPEM  string
	// Client certificate and key, for mutual TLS.
	ClientCertFile string
	ClientCertPEM  string
	ClientKeyFile  string
	ClientKeyPEM   string
	// ServerName overrides the host name used to verify the server
	// certificate.
	ServerName string
}

var errNoCACertificate = errors.New("no valid PEM certificate found in CA certificate")

// NewConfig returns the TLS configuration to use, or nil when TLS is not
// enabled.
func NewConfig(cfg *Config) (*tls.Config, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	certPool, err := getCertPool(cfg)
	if err != nil {
		return nil, err
	}

	certificates, err := getCertificates(cfg)
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: certificates,
		RootCAs:      certPool,
		ServerName:   cfg.ServerName,
	}, nil
}

func getCertPool(cfg *Config) (*x509.CertPool, error) {
	pemCertBytes, err := readPEMBytes(cfg.CaCertFile, cfg.CaCertPEM)
	if err != nil {
		return nil, fmt.Errorf("reading CA certificate file: %w", err)
	}

	if len(pemCertBytes) == 0 {
		return x509.SystemCertPool()
	}

	certPool := x509.NewCertPool()
	if !certPool.AppendCertsFromPEM(pemCertBytes) {
		return nil, errNoCACertificate
	}
	return certPool, nil
}

func getCertificates(cfg *Config) ([]tls.Certificate, error) {
	if !cfg.IsClientCertProvided() {
		return []tls.Certificate{}, nil
	}

	pemCertBytes, err := readPEMBytes(cfg.ClientCertFile, cfg.ClientCertPEM)
	if err != nil {
		return nil, fmt.Errorf("reading client certificate: %w", err)
	}
	pemKeyBytes, err := readPEMBytes(cfg.ClientKeyFile, cfg.ClientKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("reading client key: %w", err)
	}
	cert, err := tls.X509KeyPair(pemCertBytes, pemKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("loading client key pair: %w", err)
	}
	return []tls.Certificate{cert}, nil
}

// readPEMBytes returns the PEM content of the file if provided, or the inline
// PEM otherwise.
func readPEMBytes(certFile, certPEM string) ([]byte, error) {
	if certFile != "" {
		return os.ReadFile(certFile)
	}
	return []byte(certPEM), nil
}

func (c *Config) IsClientCertProvided() bool {
	return (c.ClientCertFile != "" || c.ClientCertPEM != "") && (c.ClientKeyFile != "" || c.ClientKeyPEM != "")
}
