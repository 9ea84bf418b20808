// Package types defines the small, copyable identifiers and typed errors shared
// by every slabkit package.
//
// Errors carry a stable ErrKind so callers can branch on intent rather than on
// message text:
//
//	if errors.Is(err, types.ErrOutOfBounds) {
//	    // caller error, the buffer was not touched
//	}
//
// This package has no dependencies beyond the standard library.
package types
