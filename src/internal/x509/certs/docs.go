// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509certs extracts, decodes, and encodes X.509 certificate and
// RSA private-key material, and derives the stable identity fields
// (fingerprint, modulus, subjectAltName email addresses) the certificate
// store is keyed on.
package x509certs
