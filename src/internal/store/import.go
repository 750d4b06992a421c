// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package store

import (
	"errors"

	x509certs "github.com/FedericoGabusi/smimevault/src/internal/x509/certs"
)

// ImportCertificates extracts every certificate PEM block from raw input
// text and persists each as a new record.
//
// Errors are raised immediately per affected block: a malformed block or a
// duplicate fingerprint aborts the call, but records created from earlier
// blocks stay persisted and are included in the returned slice.
func (s *Store) ImportCertificates(raw []byte) ([]*Record, error) {
	var created []*Record

	for _, block := range decoder.ExtractPEMBlocks(raw) {
		if !decoder.IsCertificateBlock(block) {
			continue
		}

		cert, err := decoder.Decode(block)
		if err != nil {
			return created, err
		}

		rec := NewRecord(cert)
		if err := s.Insert(rec); err != nil {
			return created, err
		}
		created = append(created, rec)
	}

	return created, nil
}

// ImportPrivateKeys extracts every private-key PEM block from raw input
// text, decrypts each with secret, and attaches it to the stored
// certificate with the matching RSA modulus.
//
// A key that does not decrypt fails with [x509certs.ErrKeyDecryption]; a
// key whose modulus matches no stored certificate fails with
// [ErrCertificateNotFound]. Both abort immediately; keys attached by
// earlier blocks stay attached.
func (s *Store) ImportPrivateKeys(raw []byte, secret string) error {
	for _, block := range decoder.ExtractPEMBlocks(raw) {
		if !decoder.IsPrivateKeyBlock(block) {
			continue
		}

		key, err := decoder.DecodePrivateKey(block, secret)
		if err != nil {
			return err
		}

		rec, err := s.FindByModulus(x509certs.KeyModulus(key))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrCertificateNotFound
			}
			return err
		}

		// The block is stored as imported, still encrypted, together with
		// the secret that unlocks it.
		if err := s.AttachPrivateKey(rec.Fingerprint, string(block), secret); err != nil {
			return err
		}
	}

	return nil
}
