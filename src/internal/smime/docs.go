// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package smime is the secure mail engine: it orchestrates certificate
// resolution, chain building, and private-key decryption to produce
// PKCS#7 signed (detached) and enveloped S/MIME payloads.
package smime
