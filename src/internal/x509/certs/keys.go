// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrKeyDecryption indicates the secret does not decrypt the private key,
	// or the key material is corrupt.
	ErrKeyDecryption = errors.New("x509certs: private key decryption failed")

	// ErrUnsupportedKey indicates private-key material in a format this
	// package cannot handle (non-RSA keys, encrypted PKCS#8 envelopes).
	ErrUnsupportedKey = errors.New("x509certs: unsupported private key format")
)

// DecodePrivateKey decodes an RSA private key from a PEM block, decrypting
// it with secret when the block carries legacy PEM encryption headers.
//
// Supported block types are RSA PRIVATE KEY (PKCS#1) and PRIVATE KEY
// (PKCS#8). An encrypted PKCS#8 envelope (ENCRYPTED PRIVATE KEY) fails with
// [ErrUnsupportedKey]; a wrong secret or garbage key bytes fail with
// [ErrKeyDecryption].
func (c *Certificate) DecodePrivateKey(data []byte, secret string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrInvalidPEMBlock
	}

	switch block.Type {
	case "RSA PRIVATE KEY", "PRIVATE KEY":
	case "ENCRYPTED PRIVATE KEY":
		return nil, fmt.Errorf("%w: encrypted PKCS#8", ErrUnsupportedKey)
	case "EC PRIVATE KEY":
		return nil, fmt.Errorf("%w: EC keys cannot be matched by modulus", ErrUnsupportedKey)
	default:
		return nil, ErrInvalidBlockType
	}

	der := block.Bytes
	//nolint:staticcheck // legacy PEM encryption is the wire format of the import feed
	if x509.IsEncryptedPEMBlock(block) {
		//nolint:staticcheck
		decrypted, err := x509.DecryptPEMBlock(block, []byte(secret))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyDecryption, err)
		}
		der = decrypted
	}

	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		// The block decoded but the DER inside is not a key: either the
		// secret decrypted to garbage or the material is corrupt.
		return nil, fmt.Errorf("%w: %v", ErrKeyDecryption, err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, parsed)
	}
	return key, nil
}

// KeyModulus returns the uppercase hex modulus of an RSA private key,
// matching the format produced by [Modulus] so a key can be paired with
// the certificate it belongs to.
func KeyModulus(key *rsa.PrivateKey) string {
	return strings.ToUpper(key.N.Text(16))
}

// EncodePrivateKeyPEM encodes an RSA private key to unencrypted PKCS#1 PEM,
// the armor used when exporting key material from the store.
func (c *Certificate) EncodePrivateKeyPEM(key *rsa.PrivateKey) []byte {
	block := pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	return pem.EncodeToMemory(&block)
}
