// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/hex"
	"strings"
)

// Fingerprint derives the stable content identity of a certificate:
// the uppercase hex SHA-1 digest of its DER encoding. Two certificates
// share a fingerprint only when they are byte-identical.
func Fingerprint(cert *x509.Certificate) string {
	sum := sha1.Sum(cert.Raw)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Modulus returns the uppercase hex RSA modulus of the certificate's
// public key. It returns the empty string for non-RSA keys; such
// certificates can never be matched to an imported private key.
func Modulus(cert *x509.Certificate) string {
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return ""
	}
	return strings.ToUpper(pub.N.Text(16))
}

// EmailAddresses returns the rfc822 names from the certificate's
// subjectAltName extension, normalized to lowercase. All address
// comparisons in the resolver are case-insensitive on the full address,
// so lowercase is the canonical stored form.
func EmailAddresses(cert *x509.Certificate) []string {
	if len(cert.EmailAddresses) == 0 {
		return nil
	}

	addresses := make([]string, 0, len(cert.EmailAddresses))
	for _, addr := range cert.EmailAddresses {
		addresses = append(addresses, strings.ToLower(addr))
	}
	return addresses
}
