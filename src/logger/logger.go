// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Logger defines the interface for logging operations.
// It provides methods for formatted output and output redirection.
type Logger interface {
	// Printf formats and prints a log message.
	Printf(format string, v ...any)
	// Println prints a log message with a newline.
	Println(v ...any)
	// SetOutput sets the output destination for the logger.
	SetOutput(w io.Writer)
}

// Sink receives protection-operation failure events.
//
// The secure mail engine reports every sign/encrypt failure through a Sink
// before returning the error unchanged. Messages passed to Event must never
// contain private-key secrets or resolved recipient addresses.
type Sink interface {
	// Event records a single operation outcome.
	Event(operation, outcome, message string)
}

// CLILogger implements Logger using the standard log package.
// It's designed for command-line interface output with human-readable formatting.
type CLILogger struct{ logger *log.Logger }

// NewCLILogger creates a new CLI logger with timestamps disabled.
// This is suitable for user-facing CLI output.
func NewCLILogger() *CLILogger {
	l := log.New(os.Stdout, "", 0)
	return &CLILogger{logger: l}
}

// Printf formats and prints a log message using fmt.Printf semantics.
func (c *CLILogger) Printf(format string, v ...any) { c.logger.Printf(format, v...) }

// Println prints a log message with a newline.
func (c *CLILogger) Println(v ...any) { c.logger.Println(v...) }

// SetOutput sets the output destination for the CLI logger.
func (c *CLILogger) SetOutput(w io.Writer) { c.logger.SetOutput(w) }

// Event records an operation outcome as a single human-readable line.
func (c *CLILogger) Event(operation, outcome, message string) {
	c.logger.Printf("%s %s: %s", operation, outcome, message)
}

// JSONLogger implements Logger and Sink with structured JSON output,
// one object per line. It is suitable for log collection pipelines.
//
// JSONLogger is safe for concurrent use by multiple goroutines.
type JSONLogger struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewJSONLogger creates a new JSON logger writing to w.
// A nil writer discards all output.
func NewJSONLogger(w io.Writer) *JSONLogger {
	if w == nil {
		w = io.Discard
	}
	return &JSONLogger{writer: w}
}

// Printf formats and logs a structured message in JSON format.
//
// Printf is safe for concurrent use by multiple goroutines.
func (j *JSONLogger) Printf(format string, v ...any) {
	j.emit(map[string]any{
		"level":   "info",
		"message": fmt.Sprintf(format, v...),
	})
}

// Println logs a structured message in JSON format.
//
// Println is safe for concurrent use by multiple goroutines.
func (j *JSONLogger) Println(v ...any) {
	j.emit(map[string]any{
		"level":   "info",
		"message": fmt.Sprint(v...),
	})
}

// Event records an operation outcome as a structured JSON object with
// operation, outcome, and message fields.
//
// Event is safe for concurrent use by multiple goroutines.
func (j *JSONLogger) Event(operation, outcome, message string) {
	j.emit(map[string]any{
		"level":     "error",
		"operation": operation,
		"outcome":   outcome,
		"message":   message,
	})
}

// SetOutput sets the output destination for the JSON logger.
//
// SetOutput is safe for concurrent use by multiple goroutines.
func (j *JSONLogger) SetOutput(w io.Writer) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if w == nil {
		j.writer = io.Discard
	} else {
		j.writer = w
	}
}

func (j *JSONLogger) emit(entry map[string]any) {
	data, _ := json.Marshal(entry)

	j.mu.Lock()
	fmt.Fprintln(j.writer, string(data))
	j.mu.Unlock()
}
