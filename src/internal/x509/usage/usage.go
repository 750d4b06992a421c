// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package usage

import (
	"crypto/x509"
	"encoding/asn1"
)

// Intents evaluated against the keyUsage extension. Signing certificates
// must carry digitalSignature, encryption targets must carry
// keyEncipherment, per RFC 5280 usage conventions for S/MIME.
const (
	Signing    = x509.KeyUsageDigitalSignature
	Encryption = x509.KeyUsageKeyEncipherment
)

// oidKeyUsage is the id-ce-keyUsage extension identifier (2.5.29.15).
var oidKeyUsage = asn1.ObjectIdentifier{2, 5, 29, 15}

// Prohibits reports whether the certificate's keyUsage extension forbids
// the intended usage.
//
// A certificate without the extension prohibits nothing: absence imposes no
// restriction. Presence is detected by the extension OID, not the parsed
// bitmask, so an extension that declares zero usages still prohibits
// everything.
func Prohibits(cert *x509.Certificate, intended x509.KeyUsage) bool {
	if !hasKeyUsageExtension(cert) {
		return false
	}
	return cert.KeyUsage&intended == 0
}

func hasKeyUsageExtension(cert *x509.Certificate) bool {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oidKeyUsage) {
			return true
		}
	}
	return false
}
