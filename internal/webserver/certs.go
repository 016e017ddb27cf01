package webserver

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/go-acme/lego/v4/certcrypto"

	"github.com/forgeup/forgeup/internal/config"
	"github.com/forgeup/forgeup/pkg/logger"
)

const (
	CertFile = "gitea.crt"
	KeyFile  = "gitea.key"

	// 825 days is the longest lifetime client stacks still accept.
	certValidity = 825 * 24 * time.Hour

	// Pairs expiring within this window are rotated early.
	renewBefore = 30 * 24 * time.Hour
)

// EnsureCertificate makes sure certDir holds a self-signed pair valid for
// the configured server name. An existing pair is kept when it still
// matches the name and is not close to expiry.
func EnsureCertificate(cfg *config.Install, certDir string) error {
	certPath := filepath.Join(certDir, CertFile)
	keyPath := filepath.Join(certDir, KeyFile)

	if keep, reason := reusable(certPath, keyPath, cfg.ServerName()); keep {
		logger.Debug("Keeping existing certificate pair", "cert", certPath)
		return nil
	} else if reason != "" {
		logger.Info("Regenerating certificate pair", "reason", reason)
	}

	certPEM, keyPEM, err := selfSigned(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(certDir, 0o755); err != nil {
		return fmt.Errorf("creating certificate directory: %w", err)
	}
	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return fmt.Errorf("writing certificate: %w", err)
	}
	// The key never needs to be readable by anyone but the proxy.
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}

	logger.Info("Generated self-signed certificate",
		"server_name", cfg.ServerName(), "cert", certPath)
	return nil
}

// reusable reports whether the existing pair can be kept, and if not, why.
// An empty reason means there was no pair at all.
func reusable(certPath, keyPath, serverName string) (bool, string) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return false, ""
	}
	if _, err := os.Stat(keyPath); err != nil {
		return false, "private key is missing"
	}

	cert, err := certcrypto.ParsePEMCertificate(certPEM)
	if err != nil {
		return false, "existing certificate does not parse"
	}
	if err := cert.VerifyHostname(serverName); err != nil {
		return false, fmt.Sprintf("certificate is for %q, not %q", cert.Subject.CommonName, serverName)
	}
	if time.Until(cert.NotAfter) < renewBefore {
		return false, "certificate expires soon"
	}
	return true, ""
}

// selfSigned produces a PEM-encoded certificate and key for the server
// name. IP-addressed deployments get an IP SAN, named ones a DNS SAN.
func selfSigned(cfg *config.Install) (certPEM, keyPEM []byte, err error) {
	privateKey, err := certcrypto.GeneratePrivateKey(certcrypto.RSA2048)
	if err != nil {
		return nil, nil, fmt.Errorf("generating private key: %w", err)
	}
	rsaKey, ok := privateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected key type %T", privateKey)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("generating serial number: %w", err)
	}

	serverName := cfg.ServerName()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   serverName,
			Organization: []string{"forgeup self-signed"},
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(certValidity),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	if ip := net.ParseIP(serverName); ip != nil {
		template.IPAddresses = []net.IP{ip}
	} else {
		template.DNSNames = []string{serverName}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &rsaKey.PublicKey, rsaKey)
	if err != nil {
		return nil, nil, fmt.Errorf("creating certificate: %w", err)
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = certcrypto.PEMEncode(privateKey)
	return certPEM, keyPEM, nil
}
