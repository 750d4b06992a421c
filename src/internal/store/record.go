// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package store

import (
	"crypto/x509"
	"time"

	x509certs "github.com/FedericoGabusi/smimevault/src/internal/x509/certs"
)

// decoder is the shared parser instance backing record-level decoding.
// It is stateless apart from its block-type configuration.
var decoder = x509certs.New()

// Record is one stored certificate: its identity fields, validity window,
// raw PEM material, and optional private key with its decryption secret.
//
// The parsed certificate handle and the subjectAltName email list are
// derived lazily and cached per Record instance; replacing the raw material
// invalidates both caches.
type Record struct {
	ID               int64
	Subject          string
	Fingerprint      string
	Modulus          string
	NotBefore        time.Time
	NotAfter         time.Time
	Raw              string // certificate PEM
	PrivateKey       string // private key PEM, empty when absent
	PrivateKeySecret string
	CreatedAt        time.Time

	cert   *x509.Certificate
	emails []string
	parsed bool
}

// NewRecord builds a Record from an already-parsed certificate, deriving
// all identity fields. The certificate handle is cached on the record.
func NewRecord(cert *x509.Certificate) *Record {
	return &Record{
		Subject:     cert.Subject.String(),
		Fingerprint: x509certs.Fingerprint(cert),
		Modulus:     x509certs.Modulus(cert),
		NotBefore:   cert.NotBefore,
		NotAfter:    cert.NotAfter,
		Raw:         string(decoder.EncodePEM(cert)),
		cert:        cert,
	}
}

// Certificate returns the parsed certificate, decoding the raw PEM on
// first use and caching the result for the record's lifetime.
func (r *Record) Certificate() (*x509.Certificate, error) {
	if r.cert != nil {
		return r.cert, nil
	}

	cert, err := decoder.Decode([]byte(r.Raw))
	if err != nil {
		return nil, err
	}
	r.cert = cert
	return cert, nil
}

// EmailAddresses returns the lowercase subjectAltName email addresses,
// computed once per record instance.
func (r *Record) EmailAddresses() ([]string, error) {
	if r.parsed {
		return r.emails, nil
	}

	cert, err := r.Certificate()
	if err != nil {
		return nil, err
	}
	r.emails = x509certs.EmailAddresses(cert)
	r.parsed = true
	return r.emails, nil
}

// HasPrivateKey reports whether private-key material is attached.
func (r *Record) HasPrivateKey() bool { return r.PrivateKey != "" }

// ValidAt reports whether t falls inside the certificate's validity window.
func (r *Record) ValidAt(t time.Time) bool {
	return !t.Before(r.NotBefore) && !t.After(r.NotAfter)
}

// SetRaw replaces the raw certificate material and invalidates the cached
// certificate handle and email list.
func (r *Record) SetRaw(raw string) {
	r.Raw = raw
	r.cert = nil
	r.emails = nil
	r.parsed = false
}
