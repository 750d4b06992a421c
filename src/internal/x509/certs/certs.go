// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"regexp"

	"github.com/cloudflare/cfssl/crypto/pkcs7"
)

var (
	// ErrInvalidPEMBlock indicates that the provided data does not contain a valid PEM block.
	ErrInvalidPEMBlock = errors.New("x509certs: invalid PEM block")

	// ErrInvalidBlockType indicates that the PEM block type is not the expected type.
	ErrInvalidBlockType = errors.New("x509certs: invalid block type")

	// ErrMalformedCertificate indicates a failure to decode a certificate from the provided data.
	ErrMalformedCertificate = errors.New("x509certs: malformed certificate")

	// ErrNoCertificatesInPKCS indicates that no certificates were found in the PKCS7 data.
	ErrNoCertificatesInPKCS = errors.New("x509certs: no certificates found in PKCS7 data")
)

// pemBlockPattern matches a single armored PEM block, BEGIN through END
// marker lines inclusive. Blocks are non-overlapping by construction.
var pemBlockPattern = regexp.MustCompile(`(?s)-----BEGIN [^-]+-----.*?-----END [^-]+-----`)

const (
	certBlockType        = "CERTIFICATE"
	trustedCertBlockType = "TRUSTED CERTIFICATE"
)

// Certificate provides methods to decode and encode [X.509] certificates
// and to extract PEM-armored material from arbitrary input text.
//
// [X.509]: https://en.wikipedia.org/wiki/X.509
type Certificate struct {
	certBlockType string
}

// New creates a new Certificate with default settings.
func New() *Certificate {
	return &Certificate{
		certBlockType: certBlockType,
	}
}

// ExtractPEMBlocks scans raw input for all non-overlapping PEM blocks and
// returns them in input order. Surrounding text is ignored, so certificate
// and key material may be embedded in email bodies, config files, or any
// other carrier. It has no side effects.
func (c *Certificate) ExtractPEMBlocks(data []byte) [][]byte {
	return pemBlockPattern.FindAll(data, -1)
}

// IsCertificateBlock reports whether the PEM block holds certificate
// material, including OpenSSL's TRUSTED CERTIFICATE variant.
func (c *Certificate) IsCertificateBlock(block []byte) bool {
	return bytes.Contains(block, []byte("-----BEGIN "+certBlockType+"-----")) ||
		bytes.Contains(block, []byte("-----BEGIN "+trustedCertBlockType+"-----"))
}

// IsPrivateKeyBlock reports whether the PEM block holds private-key material
// of any flavor (PKCS#1, PKCS#8, encrypted or not).
func (c *Certificate) IsPrivateKeyBlock(block []byte) bool {
	return bytes.Contains(block, []byte("PRIVATE KEY-----"))
}

// Normalize rewrites an OpenSSL TRUSTED CERTIFICATE marker to a plain
// CERTIFICATE marker so the block decodes with the standard type.
func (c *Certificate) Normalize(data []byte) []byte {
	data = bytes.ReplaceAll(data,
		[]byte("-----BEGIN "+trustedCertBlockType+"-----"),
		[]byte("-----BEGIN "+certBlockType+"-----"))
	return bytes.ReplaceAll(data,
		[]byte("-----END "+trustedCertBlockType+"-----"),
		[]byte("-----END "+certBlockType+"-----"))
}

// IsPEM checks if the data is in PEM format.
func (c *Certificate) IsPEM(data []byte) bool {
	block, _ := pem.Decode(data)
	return block != nil
}

// decodePEMBlock decodes a PEM block and checks its type.
func (c *Certificate) decodePEMBlock(data []byte) (*pem.Block, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrInvalidPEMBlock
	}
	if block.Type != c.certBlockType {
		return nil, ErrInvalidBlockType
	}
	return block, nil
}

// Decode decodes a single certificate from data.
//
// The input may be a PEM-armored certificate (TRUSTED CERTIFICATE markers
// are normalized first), raw DER, or a PKCS7 bundle, in which case the
// first contained certificate is returned. Undecodable input fails with
// [ErrMalformedCertificate].
func (c *Certificate) Decode(data []byte) (*x509.Certificate, error) {
	data = c.Normalize(data)

	if c.IsPEM(data) {
		block, err := c.decodePEMBlock(data)
		if err != nil {
			return nil, err
		}

		data = block.Bytes
	}

	cert, err := x509.ParseCertificate(data)
	if err == nil {
		return cert, nil
	}

	// Attempt to parse as PKCS7 using Cloudflare's library
	p, err := pkcs7.ParsePKCS7(data)
	if err != nil {
		return nil, ErrMalformedCertificate
	}
	if len(p.Content.SignedData.Certificates) == 0 {
		return nil, ErrNoCertificatesInPKCS
	}

	return p.Content.SignedData.Certificates[0], nil
}

// DecodeMultiple decodes one or more certificates from data.
func (c *Certificate) DecodeMultiple(data []byte) ([]*x509.Certificate, error) {
	data = c.Normalize(data)

	if c.IsPEM(data) {
		var certs []*x509.Certificate

		for len(data) > 0 {
			block, rest := pem.Decode(data)
			if block == nil {
				break
			}
			if block.Type != c.certBlockType {
				return nil, ErrInvalidBlockType
			}

			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, ErrMalformedCertificate
			}

			certs = append(certs, cert)
			data = rest
		}

		return certs, nil
	}

	certs, err := x509.ParseCertificates(data)
	if err != nil {
		return nil, ErrMalformedCertificate
	}

	return certs, nil
}

// EncodePEM encodes a certificate to PEM format.
func (c *Certificate) EncodePEM(cert *x509.Certificate) []byte {
	block := pem.Block{
		Type:  c.certBlockType,
		Bytes: cert.Raw,
	}
	return pem.EncodeToMemory(&block)
}

// EncodeDER encodes a certificate to DER format.
func (c *Certificate) EncodeDER(cert *x509.Certificate) []byte { return cert.Raw }

// EncodeMultiplePEM encodes multiple certificates to PEM format.
func (c *Certificate) EncodeMultiplePEM(certs []*x509.Certificate) []byte {
	var data []byte

	for _, cert := range certs {
		data = append(data, c.EncodePEM(cert)...)
	}

	return data
}

// EncodeMultipleDER encodes multiple certificates to DER format.
func (c *Certificate) EncodeMultipleDER(certs []*x509.Certificate) []byte {
	var data []byte

	for _, cert := range certs {
		data = append(data, c.EncodeDER(cert)...)
	}

	return data
}
