// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package usage evaluates X.509 keyUsage restrictions against an intended
// cryptographic operation.
package usage
