// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package smime

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/FedericoGabusi/smimevault/src/internal/helper/gc"
)

const base64LineLength = 64

// wrapSigned frames a detached signature as a multipart/signed S/MIME
// entity: the body emitted verbatim as the first part, the DER signature
// base64-encoded as the second.
func wrapSigned(body, signature []byte) ([]byte, error) {
	boundary, err := makeBoundary()
	if err != nil {
		return nil, err
	}

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	fmt.Fprintf(buf,
		"Content-Type: multipart/signed; protocol=\"application/pkcs7-signature\"; micalg=sha-256; boundary=%q\r\n"+
			"\r\n"+
			"This is an S/MIME signed message\r\n"+
			"\r\n"+
			"--%s\r\n",
		boundary, boundary)

	// The first part carries the signed content byte-for-byte; the
	// signature was computed over exactly these bytes.
	buf.Write(body)

	fmt.Fprintf(buf,
		"\r\n--%s\r\n"+
			"Content-Type: application/pkcs7-signature; name=\"smime.p7s\"\r\n"+
			"Content-Transfer-Encoding: base64\r\n"+
			"Content-Disposition: attachment; filename=\"smime.p7s\"\r\n"+
			"\r\n",
		boundary)

	writeBase64(buf, signature)
	fmt.Fprintf(buf, "\r\n--%s--\r\n", boundary)

	return append([]byte(nil), buf.Bytes()...), nil
}

// wrapEnveloped frames enveloped-data as an application/pkcs7-mime S/MIME
// entity with a base64 body.
func wrapEnveloped(enveloped []byte) ([]byte, error) {
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	buf.WriteString(
		"Content-Type: application/pkcs7-mime; smime-type=enveloped-data; name=\"smime.p7m\"\r\n" +
			"Content-Transfer-Encoding: base64\r\n" +
			"Content-Disposition: attachment; filename=\"smime.p7m\"\r\n" +
			"\r\n")

	writeBase64(buf, enveloped)
	buf.WriteString("\r\n")

	return append([]byte(nil), buf.Bytes()...), nil
}

// writeBase64 writes standard base64 broken into RFC 2045 compatible lines.
func writeBase64(buf gc.Buffer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > base64LineLength {
		buf.WriteString(encoded[:base64LineLength])
		buf.WriteString("\r\n")
		encoded = encoded[base64LineLength:]
	}
	buf.WriteString(encoded)
}

// makeBoundary generates a random MIME boundary token.
func makeBoundary() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("smime: failed to generate boundary: %w", err)
	}
	return "smime-" + hex.EncodeToString(raw[:]), nil
}
