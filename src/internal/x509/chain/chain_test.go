// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain_test

import (
	"crypto/x509"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FedericoGabusi/smimevault/src/internal/store"
	x509chain "github.com/FedericoGabusi/smimevault/src/internal/x509/chain"
	"github.com/FedericoGabusi/smimevault/src/internal/x509/testca"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestBuildFullChain(t *testing.T) {
	st := openStore(t)

	root := testca.New(t, testca.Options{CommonName: "root", IsCA: true})
	intermediate := testca.New(t, testca.Options{CommonName: "intermediate", IsCA: true, Issuer: root})
	leaf := testca.New(t, testca.Options{CommonName: "leaf", Issuer: intermediate})

	require.NoError(t, st.Insert(store.NewRecord(root.Cert)))
	require.NoError(t, st.Insert(store.NewRecord(intermediate.Cert)))
	require.NoError(t, st.Insert(store.NewRecord(leaf.Cert)))

	builder := x509chain.New(st)
	parents, err := builder.Build(leaf.Cert)
	require.NoError(t, err)

	require.Len(t, parents, 2)
	assert.Equal(t, "intermediate", parents[0].Subject.CommonName)
	assert.Equal(t, "root", parents[1].Subject.CommonName)
}

func TestBuildPartialChain(t *testing.T) {
	st := openStore(t)

	root := testca.New(t, testca.Options{CommonName: "root", IsCA: true})
	intermediate := testca.New(t, testca.Options{CommonName: "intermediate", IsCA: true, Issuer: root})
	leaf := testca.New(t, testca.Options{CommonName: "leaf", Issuer: intermediate})

	// Root is not in the store: the walk ends there without error.
	require.NoError(t, st.Insert(store.NewRecord(intermediate.Cert)))

	builder := x509chain.New(st)
	parents, err := builder.Build(leaf.Cert)
	require.NoError(t, err)

	require.Len(t, parents, 1)
	assert.Equal(t, "intermediate", parents[0].Subject.CommonName)
}

func TestBuildNoIssuerInStore(t *testing.T) {
	st := openStore(t)
	leaf := testca.New(t, testca.Options{CommonName: "leaf"})

	builder := x509chain.New(st)
	parents, err := builder.Build(leaf.Cert)
	require.NoError(t, err)
	assert.Empty(t, parents)
}

func TestBuildSelfSignedLeaf(t *testing.T) {
	st := openStore(t)

	leaf := testca.New(t, testca.Options{CommonName: "solo"})
	require.NoError(t, st.Insert(store.NewRecord(leaf.Cert)))

	builder := x509chain.New(st)
	parents, err := builder.Build(leaf.Cert)
	require.NoError(t, err)

	// The self-signed certificate appears once; the walk does not loop on it.
	require.Len(t, parents, 1)
	assert.Equal(t, "solo", parents[0].Subject.CommonName)
}

func TestBuildTerminatesOnIssuerCycle(t *testing.T) {
	st := openStore(t)

	// Two certificates naming each other as issuer. seedX only exists to give
	// certY an issuer DN of CN=X before the real CN=X certificate is created.
	seedX := testca.New(t, testca.Options{CommonName: "X", IsCA: true})
	certY := testca.New(t, testca.Options{CommonName: "Y", IsCA: true, Issuer: seedX})
	certX := testca.New(t, testca.Options{CommonName: "X", IsCA: true, Issuer: certY})

	require.NoError(t, st.Insert(store.NewRecord(certX.Cert)))
	require.NoError(t, st.Insert(store.NewRecord(certY.Cert)))

	builder := x509chain.New(st)

	done := make(chan struct{})
	go func() {
		defer close(done)
		chain, err := builder.Build(certX.Cert)
		assert.NoError(t, err)
		// Y then X, each visited once.
		assert.Len(t, chain, 2)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("issuer cycle walk did not terminate")
	}
}

func TestIsSelfSigned(t *testing.T) {
	builder := x509chain.New(openStore(t))

	root := testca.New(t, testca.Options{CommonName: "root", IsCA: true})
	leaf := testca.New(t, testca.Options{CommonName: "leaf", Issuer: root})

	assert.True(t, builder.IsSelfSigned(root.Cert))
	assert.False(t, builder.IsSelfSigned(leaf.Cert))
}

func TestFilterIntermediates(t *testing.T) {
	root := testca.New(t, testca.Options{CommonName: "root", IsCA: true})
	intermediate := testca.New(t, testca.Options{CommonName: "intermediate", IsCA: true, Issuer: root})
	leaf := testca.New(t, testca.Options{CommonName: "leaf", Issuer: intermediate})

	assert.Nil(t, x509chain.FilterIntermediates(nil))
	assert.Nil(t, x509chain.FilterIntermediates([]*x509.Certificate{leaf.Cert, root.Cert}))

	mid := x509chain.FilterIntermediates([]*x509.Certificate{leaf.Cert, intermediate.Cert, root.Cert})
	require.Len(t, mid, 1)
	assert.Equal(t, "intermediate", mid[0].Subject.CommonName)
}
