// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Command smimevault manages a persisted X.509 certificate store and
// produces S/MIME signed and encrypted message payloads from it.
package main
