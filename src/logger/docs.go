// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package logger provides the logging interfaces used across the S/MIME vault.
//
// Two implementations are provided: CLILogger for human-readable command-line
// output, and JSONLogger for structured line-delimited JSON. Both also
// implement Sink, the failure-event contract the secure mail engine reports
// through.
package logger
