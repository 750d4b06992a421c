// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509chain reconstructs issuer chains from the certificate store
// so signatures can include the certificates a verifier needs. It collects,
// it does not verify.
package x509chain
