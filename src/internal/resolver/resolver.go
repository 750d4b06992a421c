// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/FedericoGabusi/smimevault/src/internal/store"
	"github.com/FedericoGabusi/smimevault/src/internal/x509/usage"
)

// CertificatesNotFoundError reports recipient addresses for which no usable
// certificate exists. Addresses carries exactly the unresolved addresses,
// never ones that were satisfied during the scan, so the error can be
// surfaced without leaking which recipients do hold valid certificates.
type CertificatesNotFoundError struct {
	Addresses []string
}

func (e *CertificatesNotFoundError) Error() string {
	return fmt.Sprintf("resolver: no usable certificate for %s", strings.Join(e.Addresses, ", "))
}

// Resolver selects certificates for senders and recipients by scanning the
// store in its default newest-first order, one page at a time.
type Resolver struct {
	store     *store.Store
	batchSize int
}

// New creates a Resolver over the given store. batchSize bounds the paged
// scans; zero or negative selects the store default.
func New(s *store.Store, batchSize int) *Resolver {
	return &Resolver{store: s, batchSize: batchSize}
}

// SenderCertificate returns the newest certificate usable for signing mail
// from address: it must carry a private key, must not prohibit digital
// signatures, and must list the address in its subjectAltName emails.
// Matching is case-insensitive on the full address. It returns (nil, nil)
// when no certificate qualifies.
//
// Because the scan order is newest-first, the first acceptable record is
// always the newest eligible one; records failing the criteria are skipped
// in favor of continuing the scan, never in favor of an older record.
func (r *Resolver) SenderCertificate(address string) (*store.Record, error) {
	address = strings.ToLower(address)

	var match *store.Record
	err := r.store.Walk(store.WalkOptions{
		BatchSize:          r.batchSize,
		WithPrivateKeyOnly: true,
	}, func(rec *store.Record) (bool, error) {
		cert, err := rec.Certificate()
		if err != nil {
			// A record whose raw material no longer decodes cannot serve,
			// but it must not poison the scan for the rest of the store.
			return false, nil
		}
		if usage.Prohibits(cert, usage.Signing) {
			return false, nil
		}

		emails, err := rec.EmailAddresses()
		if err != nil {
			return false, nil
		}
		for _, email := range emails {
			if email == address {
				match = rec
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// RecipientCertificates returns certificates covering every given address,
// newest-first. A certificate is accepted when it matches at least one
// still-unresolved address and does not prohibit key encipherment; its
// matched addresses are then considered resolved. The scan stops early once
// every address is covered.
//
// If any address remains unresolved after the full scan, the call fails
// with a [*CertificatesNotFoundError] naming exactly those addresses.
// Resolution errors are deferred until the scan completes so a late match
// can still satisfy an early-looking-unresolved address.
func (r *Resolver) RecipientCertificates(addresses []string) ([]*store.Record, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	remaining := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		remaining[strings.ToLower(addr)] = struct{}{}
	}

	var matches []*store.Record
	err := r.store.Walk(store.WalkOptions{
		BatchSize: r.batchSize,
	}, func(rec *store.Record) (bool, error) {
		emails, err := rec.EmailAddresses()
		if err != nil {
			return false, nil
		}

		var covered []string
		for _, email := range emails {
			if _, ok := remaining[email]; ok {
				covered = append(covered, email)
			}
		}
		if len(covered) == 0 {
			return false, nil
		}

		cert, err := rec.Certificate()
		if err != nil {
			return false, nil
		}
		if usage.Prohibits(cert, usage.Encryption) {
			// The email match is not consumed: a later (older) certificate
			// may still cover these addresses.
			return false, nil
		}

		matches = append(matches, rec)
		for _, email := range covered {
			delete(remaining, email)
		}
		return len(remaining) == 0, nil
	})
	if err != nil {
		return nil, err
	}

	if len(remaining) > 0 {
		unresolved := make([]string, 0, len(remaining))
		for addr := range remaining {
			unresolved = append(unresolved, addr)
		}
		sort.Strings(unresolved)
		return nil, &CertificatesNotFoundError{Addresses: unresolved}
	}

	return matches, nil
}
