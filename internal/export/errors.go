// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// InvalidRequestError reports a malformed export request. It is raised
// synchronously, before any run starts or any worker is scheduled.
type InvalidRequestError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *InvalidRequestError) Error() string {
	return "invalid export request: " + e.Reason
}

// Unwrap returns the underlying error, if any.
func (e *InvalidRequestError) Unwrap() error {
	return e.Err
}

// UnknownFormatError reports a format identifier with no registered
// exporter.
type UnknownFormatError struct {
	Format string
}

// Error implements the error interface.
func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unsupported export format: %q", e.Format)
}

// RenderError reports an exporter failure, carrying the format
// identifier and the data row offset at which rendering failed.
type RenderError struct {
	Format string
	Offset int64
	Err    error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	return fmt.Sprintf("%s render failed at row %d: %v", e.Format, e.Offset, e.Err)
}

// Unwrap returns the underlying error.
func (e *RenderError) Unwrap() error {
	return e.Err
}

// CancelledError is the terminal outcome of a cancelled run. It is not
// a failure: it carries the count of rows actually exported before the
// cancellation was observed.
type CancelledError struct {
	Rows int64
}

// Error implements the error interface.
func (e *CancelledError) Error() string {
	return fmt.Sprintf("export cancelled after %d rows", e.Rows)
}

// IsCancelled reports whether err is (or wraps) a cancelled outcome.
func IsCancelled(err error) bool {
	var c *CancelledError
	return errors.As(err, &c)
}
