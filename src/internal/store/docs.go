// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package store persists the certificate collection in SQLite and exposes
// the lookups, paged scans, and import operations the resolver and the
// secure mail engine are built on.
//
// Iteration order is always newest-first (not_after, then not_before, then
// fingerprint, all descending); fingerprint uniqueness lives in the schema
// so concurrent imports cannot race past the check.
package store
