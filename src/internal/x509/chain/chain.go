// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/x509"
	"errors"

	"github.com/FedericoGabusi/smimevault/src/internal/store"
)

// maxDepth caps the issuer walk. Malformed stores can contain issuer
// cycles that never reach a self-signed node; the walk must terminate
// regardless of what was imported.
const maxDepth = 32

// Directory is the subject-lookup surface the builder walks. *store.Store
// satisfies it.
type Directory interface {
	FindBySubject(subject string) (*store.Record, error)
}

// Builder reconstructs issuer chains from the certificate store for
// inclusion in signatures. It performs no trust verification: an
// incomplete chain is returned as-is, never as an error.
type Builder struct {
	dir Directory
}

// New creates a Builder over the given directory.
func New(dir Directory) *Builder {
	return &Builder{dir: dir}
}

// Build walks issuer linkage starting from cert and returns the issuer
// certificates found in the store, in leaf-to-root order. cert itself is
// not included.
//
// The walk ends when no stored certificate matches the current issuer name
// (chain end, possibly incomplete), when a self-signed certificate is
// reached (included once), or when a repeated subject or the depth cap
// signals a cycle.
func (b *Builder) Build(cert *x509.Certificate) ([]*x509.Certificate, error) {
	var parents []*x509.Certificate

	seen := make(map[string]bool)
	issuer := cert.Issuer.String()

	for i := 0; i < maxDepth; i++ {
		if seen[issuer] {
			break
		}

		rec, err := b.dir.FindBySubject(issuer)
		if errors.Is(err, store.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}

		parent, err := rec.Certificate()
		if err != nil {
			return nil, err
		}

		parents = append(parents, parent)
		seen[issuer] = true

		if b.IsSelfSigned(parent) {
			break
		}
		issuer = parent.Issuer.String()
	}

	return parents, nil
}

// IsSelfSigned reports whether the certificate names itself as issuer.
// Chain walks treat such a certificate as the root and stop.
func (b *Builder) IsSelfSigned(cert *x509.Certificate) bool {
	return cert.Subject.String() == cert.Issuer.String()
}

// FilterIntermediates returns the chain without its leaf and root: the
// certificates between the first and last elements.
func FilterIntermediates(chain []*x509.Certificate) []*x509.Certificate {
	if len(chain) <= 2 {
		return nil
	}
	return chain[1 : len(chain)-1]
}
