// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FedericoGabusi/smimevault/src/internal/store"
	"github.com/FedericoGabusi/smimevault/src/internal/x509/testca"
)

func TestRenderRecordsEmpty(t *testing.T) {
	assert.Equal(t, "No certificates in store\n", renderRecords(nil))
}

func TestRenderRecords(t *testing.T) {
	alice := testca.New(t, testca.Options{CommonName: "alice", Emails: []string{"alice@example.com"}})
	bob := testca.New(t, testca.Options{CommonName: "bob", Emails: []string{"bob@example.com"}})

	aliceRec := store.NewRecord(alice.Cert)
	aliceRec.PrivateKey = string(alice.KeyPEM())
	bobRec := store.NewRecord(bob.Cert)

	out := renderRecords([]*store.Record{aliceRec, bobRec})

	assert.Contains(t, out, "CN=alice")
	assert.Contains(t, out, "alice@example.com")
	assert.Contains(t, out, aliceRec.Fingerprint)
	assert.Contains(t, out, "yes")

	assert.Contains(t, out, "CN=bob")
	assert.Contains(t, out, bobRec.Fingerprint)
}

func TestJoinEmailsUndecodable(t *testing.T) {
	rec := &store.Record{Raw: "not PEM at all"}
	assert.Equal(t, "(undecodable)", joinEmails(rec))
}
