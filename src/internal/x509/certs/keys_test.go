// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x509certs "github.com/FedericoGabusi/smimevault/src/internal/x509/certs"
	"github.com/FedericoGabusi/smimevault/src/internal/x509/testca"
)

func TestDecodePrivateKeyPlain(t *testing.T) {
	decoder := x509certs.New()
	id := testca.New(t, testca.Options{CommonName: "plainkey"})

	key, err := decoder.DecodePrivateKey(id.KeyPEM(), "")
	require.NoError(t, err)
	assert.Zero(t, key.N.Cmp(id.Key.N))
}

func TestDecodePrivateKeyEncrypted(t *testing.T) {
	decoder := x509certs.New()
	id := testca.New(t, testca.Options{CommonName: "enckey"})
	encrypted := id.EncryptedKeyPEM(t, "hunter2")

	t.Run("Correct Secret", func(t *testing.T) {
		key, err := decoder.DecodePrivateKey(encrypted, "hunter2")
		require.NoError(t, err)
		assert.Zero(t, key.N.Cmp(id.Key.N))
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		_, err := decoder.DecodePrivateKey(encrypted, "wrong")
		assert.ErrorIs(t, err, x509certs.ErrKeyDecryption)
	})

	t.Run("Empty Secret", func(t *testing.T) {
		_, err := decoder.DecodePrivateKey(encrypted, "")
		assert.ErrorIs(t, err, x509certs.ErrKeyDecryption)
	})
}

func TestDecodePrivateKeyUnsupported(t *testing.T) {
	decoder := x509certs.New()

	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalECPrivateKey(ecKey)
	require.NoError(t, err)

	ecPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})

	_, err = decoder.DecodePrivateKey(ecPEM, "")
	assert.ErrorIs(t, err, x509certs.ErrUnsupportedKey)
}

func TestDecodePrivateKeyCorrupt(t *testing.T) {
	decoder := x509certs.New()

	corrupt := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: []byte("not a key")})

	_, err := decoder.DecodePrivateKey(corrupt, "")
	assert.ErrorIs(t, err, x509certs.ErrKeyDecryption)
}

func TestEncodePrivateKeyPEM(t *testing.T) {
	decoder := x509certs.New()
	id := testca.New(t, testca.Options{CommonName: "reencode"})

	encoded := decoder.EncodePrivateKeyPEM(id.Key)
	assert.Contains(t, string(encoded), "BEGIN RSA PRIVATE KEY")

	key, err := decoder.DecodePrivateKey(encoded, "")
	require.NoError(t, err)
	assert.Zero(t, key.N.Cmp(id.Key.N))
}

func TestDecodePrivateKeyNotPEM(t *testing.T) {
	decoder := x509certs.New()

	_, err := decoder.DecodePrivateKey([]byte("no armor here"), "")
	assert.ErrorIs(t, err, x509certs.ErrInvalidPEMBlock)
}
