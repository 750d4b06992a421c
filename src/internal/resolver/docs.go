// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package resolver selects the correct certificate for a sender address or
// a set of recipient addresses, combining store order, subjectAltName email
// matching, and keyUsage policy.
package resolver
