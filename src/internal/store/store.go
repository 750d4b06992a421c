// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrDuplicateFingerprint indicates an insert of a certificate whose DER
	// encoding is already stored. The store is left unchanged.
	ErrDuplicateFingerprint = errors.New("store: certificate fingerprint already exists")

	// ErrCertificateNotFound indicates a private key whose modulus matches no
	// stored certificate.
	ErrCertificateNotFound = errors.New("store: no certificate matches the private key modulus")

	// ErrNotFound indicates a lookup with no matching record.
	ErrNotFound = errors.New("store: record not found")
)

// DefaultBatchSize bounds memory during full-store scans; selection reads
// the table one page at a time instead of materializing it.
const DefaultBatchSize = 500

const schema = `
CREATE TABLE IF NOT EXISTS certificates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	subject TEXT NOT NULL,
	fingerprint TEXT NOT NULL UNIQUE,
	modulus TEXT NOT NULL,
	not_before TIMESTAMP NOT NULL,
	not_after TIMESTAMP NOT NULL,
	raw TEXT NOT NULL,
	private_key TEXT NOT NULL DEFAULT '',
	private_key_secret TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_certificates_modulus ON certificates (modulus);
CREATE INDEX IF NOT EXISTS idx_certificates_subject ON certificates (subject);
`

// defaultOrder is the store's canonical iteration order: longest-valid and
// most recently issued first, fingerprint as the deterministic tie-breaker.
// Selection scans rely on it so the newest eligible certificate always wins
// over older (possibly expired) ones carrying the same address.
const defaultOrder = "ORDER BY not_after DESC, not_before DESC, fingerprint DESC"

const recordColumns = "id, subject, fingerprint, modulus, not_before, not_after, raw, private_key, private_key_secret, created_at"

// Store is the persisted certificate collection, backed by SQLite.
// Fingerprint uniqueness is enforced by the schema's UNIQUE constraint, so
// check-and-insert is atomic even under concurrent imports.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the certificate store at path.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Insert persists a new certificate record and fills in its ID.
// Re-inserting identical DER fails with [ErrDuplicateFingerprint].
func (s *Store) Insert(rec *Record) error {
	res, err := s.db.Exec(
		`INSERT INTO certificates (subject, fingerprint, modulus, not_before, not_after, raw, private_key, private_key_secret)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Subject, rec.Fingerprint, rec.Modulus,
		rec.NotBefore.UTC(), rec.NotAfter.UTC(),
		rec.Raw, rec.PrivateKey, rec.PrivateKeySecret,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateFingerprint
		}
		return fmt.Errorf("store: failed to insert certificate: %w", err)
	}

	rec.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: failed to read insert id: %w", err)
	}
	return nil
}

// FindByModulus returns the newest certificate whose public-key modulus
// equals mod, or [ErrNotFound].
func (s *Store) FindByModulus(mod string) (*Record, error) {
	return s.findOne("modulus = ?", mod)
}

// FindBySubject returns the newest certificate whose subject distinguished
// name equals subject, or [ErrNotFound].
func (s *Store) FindBySubject(subject string) (*Record, error) {
	return s.findOne("subject = ?", subject)
}

// FindByFingerprint returns the certificate with the given fingerprint,
// or [ErrNotFound].
func (s *Store) FindByFingerprint(fingerprint string) (*Record, error) {
	return s.findOne("fingerprint = ?", fingerprint)
}

func (s *Store) findOne(where string, arg any) (*Record, error) {
	row := s.db.QueryRow(
		"SELECT "+recordColumns+" FROM certificates WHERE "+where+" "+defaultOrder+" LIMIT 1", arg)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: lookup failed: %w", err)
	}
	return rec, nil
}

// AttachPrivateKey stores key material and its decryption secret on the
// record identified by fingerprint.
func (s *Store) AttachPrivateKey(fingerprint, keyPEM, secret string) error {
	res, err := s.db.Exec(
		"UPDATE certificates SET private_key = ?, private_key_secret = ? WHERE fingerprint = ?",
		keyPEM, secret, fingerprint,
	)
	if err != nil {
		return fmt.Errorf("store: failed to attach private key: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: failed to attach private key: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the certificate with the given fingerprint.
func (s *Store) Delete(fingerprint string) error {
	res, err := s.db.Exec("DELETE FROM certificates WHERE fingerprint = ?", fingerprint)
	if err != nil {
		return fmt.Errorf("store: failed to delete certificate: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: failed to delete certificate: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored certificates.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM certificates").Scan(&n); err != nil {
		return 0, fmt.Errorf("store: failed to count certificates: %w", err)
	}
	return n, nil
}

// WalkOptions configures a paged scan over the store.
type WalkOptions struct {
	// BatchSize is the page size; DefaultBatchSize when zero or negative.
	BatchSize int
	// WithPrivateKeyOnly restricts the scan to records carrying key material.
	WithPrivateKeyOnly bool
}

// Walk iterates the store in default (newest-first) order, reading one page
// at a time. fn returning stop=true ends the walk early; any error from fn
// aborts the walk and is returned unchanged.
func (s *Store) Walk(opts WalkOptions, fn func(rec *Record) (stop bool, err error)) error {
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	where := "1 = 1"
	if opts.WithPrivateKeyOnly {
		where = "private_key != ''"
	}

	query := "SELECT " + recordColumns + " FROM certificates WHERE " + where + " " + defaultOrder + " LIMIT ? OFFSET ?"

	for offset := 0; ; offset += batch {
		page, err := s.queryPage(query, batch, offset)
		if err != nil {
			return err
		}

		for _, rec := range page {
			stop, err := fn(rec)
			if err != nil {
				return err
			}
			if stop {
				return nil
			}
		}

		if len(page) < batch {
			return nil
		}
	}
}

// All returns every stored record in default order. Intended for listing
// surfaces; selection scans should use Walk.
func (s *Store) All() ([]*Record, error) {
	var all []*Record
	err := s.Walk(WalkOptions{}, func(rec *Record) (bool, error) {
		all = append(all, rec)
		return false, nil
	})
	return all, err
}

func (s *Store) queryPage(query string, limit, offset int) ([]*Record, error) {
	rows, err := s.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("store: scan query failed: %w", err)
	}
	defer rows.Close()

	var page []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan failed: %w", err)
		}
		page = append(page, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan failed: %w", err)
	}
	return page, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var rec Record
	var notBefore, notAfter, createdAt time.Time

	if err := sc.Scan(
		&rec.ID, &rec.Subject, &rec.Fingerprint, &rec.Modulus,
		&notBefore, &notAfter, &rec.Raw, &rec.PrivateKey,
		&rec.PrivateKeySecret, &createdAt,
	); err != nil {
		return nil, err
	}

	rec.NotBefore = notBefore
	rec.NotAfter = notAfter
	rec.CreatedAt = createdAt
	return &rec, nil
}
