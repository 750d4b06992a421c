// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver_test

import (
	"crypto/x509"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FedericoGabusi/smimevault/src/internal/resolver"
	"github.com/FedericoGabusi/smimevault/src/internal/store"
	"github.com/FedericoGabusi/smimevault/src/internal/x509/testca"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// addIdentity inserts the certificate and, when withKey is set, attaches its
// unencrypted private key.
func addIdentity(t *testing.T, st *store.Store, id *testca.Identity, withKey bool) *store.Record {
	t.Helper()

	rec := store.NewRecord(id.Cert)
	require.NoError(t, st.Insert(rec))
	if withKey {
		require.NoError(t, st.AttachPrivateKey(rec.Fingerprint, string(id.KeyPEM()), ""))
	}
	return rec
}

func TestSenderCertificate(t *testing.T) {
	now := time.Now()

	t.Run("Newest Eligible Wins Over Expired", func(t *testing.T) {
		st := openStore(t)
		r := resolver.New(st, 0)

		expired := testca.New(t, testca.Options{
			CommonName: "expired",
			Emails:     []string{"alice@example.com"},
			NotBefore:  now.Add(-48 * time.Hour),
			NotAfter:   now.Add(-24 * time.Hour),
		})
		valid := testca.New(t, testca.Options{
			CommonName: "valid",
			Emails:     []string{"alice@example.com"},
		})

		addIdentity(t, st, expired, true)
		addIdentity(t, st, valid, true)

		rec, err := r.SenderCertificate("alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "CN=valid", rec.Subject)
	})

	t.Run("Requires Private Key", func(t *testing.T) {
		st := openStore(t)
		r := resolver.New(st, 0)

		bare := testca.New(t, testca.Options{
			CommonName: "bare",
			Emails:     []string{"alice@example.com"},
		})
		addIdentity(t, st, bare, false)

		rec, err := r.SenderCertificate("alice@example.com")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("Skips Certificates Prohibiting Signatures", func(t *testing.T) {
		st := openStore(t)
		r := resolver.New(st, 0)

		// Newer certificate only allows encipherment; the older one carries
		// no keyUsage extension and stays eligible.
		encipherOnly := testca.New(t, testca.Options{
			CommonName: "encipher-only",
			Emails:     []string{"alice@example.com"},
			KeyUsage:   x509.KeyUsageKeyEncipherment,
			NotAfter:   now.Add(400 * 24 * time.Hour),
		})
		permissive := testca.New(t, testca.Options{
			CommonName: "permissive",
			Emails:     []string{"alice@example.com"},
		})

		addIdentity(t, st, encipherOnly, true)
		addIdentity(t, st, permissive, true)

		rec, err := r.SenderCertificate("alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "CN=permissive", rec.Subject)
	})

	t.Run("Prohibited Only Match Yields Nothing", func(t *testing.T) {
		st := openStore(t)
		r := resolver.New(st, 0)

		encipherOnly := testca.New(t, testca.Options{
			CommonName: "encipher-only",
			Emails:     []string{"alice@example.com"},
			KeyUsage:   x509.KeyUsageKeyEncipherment,
		})
		addIdentity(t, st, encipherOnly, true)

		rec, err := r.SenderCertificate("alice@example.com")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("Address Match Is Case Insensitive", func(t *testing.T) {
		st := openStore(t)
		r := resolver.New(st, 0)

		id := testca.New(t, testca.Options{
			CommonName: "cased",
			Emails:     []string{"Alice@Example.COM"},
		})
		addIdentity(t, st, id, true)

		rec, err := r.SenderCertificate("aLiCe@eXample.com")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "CN=cased", rec.Subject)
	})

	t.Run("No Match Returns Nil Without Error", func(t *testing.T) {
		st := openStore(t)
		r := resolver.New(st, 0)

		rec, err := r.SenderCertificate("ghost@example.com")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestRecipientCertificates(t *testing.T) {
	t.Run("Resolves Every Address", func(t *testing.T) {
		st := openStore(t)
		r := resolver.New(st, 0)

		alice := testca.New(t, testca.Options{CommonName: "alice", Emails: []string{"alice@example.com"}})
		bob := testca.New(t, testca.Options{CommonName: "bob", Emails: []string{"bob@example.com"}})
		addIdentity(t, st, alice, false)
		addIdentity(t, st, bob, false)

		recs, err := r.RecipientCertificates([]string{"Alice@example.com", "bob@EXAMPLE.com"})
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("Newest Eligible Wins Over Expired", func(t *testing.T) {
		st := openStore(t)
		r := resolver.New(st, 0)

		now := time.Now()
		expired := testca.New(t, testca.Options{
			CommonName: "expired",
			Emails:     []string{"alice@example.com"},
			NotBefore:  now.Add(-48 * time.Hour),
			NotAfter:   now.Add(-24 * time.Hour),
		})
		valid := testca.New(t, testca.Options{
			CommonName: "valid",
			Emails:     []string{"alice@example.com"},
		})
		addIdentity(t, st, expired, false)
		addIdentity(t, st, valid, false)

		recs, err := r.RecipientCertificates([]string{"alice@example.com"})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "CN=valid", recs[0].Subject)
	})

	t.Run("One Certificate May Cover Several Addresses", func(t *testing.T) {
		st := openStore(t)
		r := resolver.New(st, 0)

		multi := testca.New(t, testca.Options{
			CommonName: "multi",
			Emails:     []string{"alice@example.com", "shared@example.com"},
		})
		addIdentity(t, st, multi, false)

		recs, err := r.RecipientCertificates([]string{"alice@example.com", "shared@example.com"})
		require.NoError(t, err)
		assert.Len(t, recs, 1)
	})

	t.Run("Unresolved Addresses Are Named Exactly", func(t *testing.T) {
		st := openStore(t)
		r := resolver.New(st, 0)

		alice := testca.New(t, testca.Options{CommonName: "alice", Emails: []string{"alice@example.com"}})
		addIdentity(t, st, alice, false)

		recs, err := r.RecipientCertificates([]string{"alice@example.com", "Bob@example.com", "carol@example.com"})
		assert.Nil(t, recs)

		var notFound *resolver.CertificatesNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, []string{"bob@example.com", "carol@example.com"}, notFound.Addresses)
		assert.NotContains(t, err.Error(), "alice@example.com")
	})

	t.Run("Prohibited Certificate Does Not Consume The Match", func(t *testing.T) {
		st := openStore(t)
		r := resolver.New(st, 0)

		now := time.Now()

		// Newest-first scan hits the signing-only certificate before the
		// permissive one; the address must still resolve to the older record.
		signOnly := testca.New(t, testca.Options{
			CommonName: "sign-only",
			Emails:     []string{"alice@example.com"},
			KeyUsage:   x509.KeyUsageDigitalSignature,
			NotAfter:   now.Add(400 * 24 * time.Hour),
		})
		permissive := testca.New(t, testca.Options{
			CommonName: "permissive",
			Emails:     []string{"alice@example.com"},
		})

		addIdentity(t, st, signOnly, false)
		addIdentity(t, st, permissive, false)

		recs, err := r.RecipientCertificates([]string{"alice@example.com"})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "CN=permissive", recs[0].Subject)
	})

	t.Run("Empty Input Resolves To Nothing", func(t *testing.T) {
		st := openStore(t)
		r := resolver.New(st, 0)

		recs, err := r.RecipientCertificates(nil)
		require.NoError(t, err)
		assert.Nil(t, recs)
	})

	t.Run("Small Batch Size Still Resolves", func(t *testing.T) {
		st := openStore(t)
		r := resolver.New(st, 1)

		for _, name := range []string{"a", "b", "c", "d"} {
			id := testca.New(t, testca.Options{
				CommonName: name,
				Emails:     []string{name + "@example.com"},
			})
			addIdentity(t, st, id, false)
		}

		recs, err := r.RecipientCertificates([]string{"a@example.com", "d@example.com"})
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})
}
