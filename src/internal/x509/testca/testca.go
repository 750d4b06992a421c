// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package testca generates RSA certificates and key material for tests.
// Nothing here touches disk; every test works against freshly generated
// identities instead of checked-in fixtures.
package testca

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"
)

// Options controls the generated certificate.
type Options struct {
	// CommonName is the subject CN. Defaults to "smimevault test".
	CommonName string
	// Emails populates the subjectAltName rfc822 names.
	Emails []string
	// NotBefore/NotAfter bound the validity window. Defaults: one hour ago
	// to one year from now.
	NotBefore time.Time
	NotAfter  time.Time
	// KeyUsage sets the keyUsage extension bits. Zero omits the extension
	// entirely.
	KeyUsage x509.KeyUsage
	// Issuer signs the certificate; nil produces a self-signed one.
	Issuer *Identity
	// IsCA marks the certificate as a CA (for issuing intermediates/roots).
	IsCA bool
}

// Identity is a generated certificate together with its private key.
type Identity struct {
	Cert *x509.Certificate
	Key  *rsa.PrivateKey
}

// New generates a certificate per opts, failing the test on any error.
func New(t *testing.T, opts Options) *Identity {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	if opts.CommonName == "" {
		opts.CommonName = "smimevault test"
	}
	if opts.NotBefore.IsZero() {
		opts.NotBefore = time.Now().Add(-time.Hour)
	}
	if opts.NotAfter.IsZero() {
		opts.NotAfter = time.Now().Add(365 * 24 * time.Hour)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		t.Fatalf("generate serial: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: opts.CommonName},
		EmailAddresses:        opts.Emails,
		NotBefore:             opts.NotBefore,
		NotAfter:              opts.NotAfter,
		KeyUsage:              opts.KeyUsage,
		IsCA:                  opts.IsCA,
		BasicConstraintsValid: opts.IsCA,
	}

	parent := template
	signer := key
	if opts.Issuer != nil {
		parent = opts.Issuer.Cert
		signer = opts.Issuer.Key
	}

	der, err := x509.CreateCertificate(rand.Reader, template, parent, &key.PublicKey, signer)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse generated certificate: %v", err)
	}

	return &Identity{Cert: cert, Key: key}
}

// CertPEM returns the certificate as a PEM block.
func (id *Identity) CertPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: id.Cert.Raw})
}

// KeyPEM returns the private key as an unencrypted PKCS#1 PEM block.
func (id *Identity) KeyPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(id.Key),
	})
}

// EncryptedKeyPEM returns the private key as a PKCS#1 PEM block protected
// with legacy PEM encryption under secret.
func (id *Identity) EncryptedKeyPEM(t *testing.T, secret string) []byte {
	t.Helper()

	//nolint:staticcheck // legacy PEM encryption is the import wire format under test
	block, err := x509.EncryptPEMBlock(rand.Reader, "RSA PRIVATE KEY",
		x509.MarshalPKCS1PrivateKey(id.Key), []byte(secret), x509.PEMCipherAES256)
	if err != nil {
		t.Fatalf("encrypt key: %v", err)
	}
	return pem.EncodeToMemory(block)
}
