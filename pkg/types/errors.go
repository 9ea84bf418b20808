package types

import "errors"

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindOutOfBounds     ErrKind = iota // offset/length or index outside the valid range
	ErrKindInvalidSize                    // shrink requested where only growth is supported
	ErrKindAllocation                     // host single-allocation or growth ceiling hit
	ErrKindTransientMemory                // per-invocation stack or heap budget exceeded
	ErrKindDecode                         // content interpreted as text is not valid UTF-8
	ErrKindFormat                         // malformed header or signature
	ErrKindCorrupt                        // structural corruption inside a region
	ErrKindNotFound                       // no instance at the derived address
	ErrKindExists                         // instance already initialized
	ErrKindState                          // operation invalid for the current state
)

var kindNames = [...]string{
	ErrKindOutOfBounds:     "out of bounds",
	ErrKindInvalidSize:     "invalid size",
	ErrKindAllocation:      "allocation too large",
	ErrKindTransientMemory: "transient memory exceeded",
	ErrKindDecode:          "utf-8 decode error",
	ErrKindFormat:          "format",
	ErrKindCorrupt:         "corrupt",
	ErrKindNotFound:        "not found",
	ErrKindExists:          "exists",
	ErrKindState:           "state",
}

func (k ErrKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Sentinels commonly returned by implementations. Wrap them with fmt.Errorf
// and %w to add context; errors.Is keeps working.
var (
	// ErrOutOfBounds indicates an offset, length or slot index outside the region.
	ErrOutOfBounds = &Error{Kind: ErrKindOutOfBounds, Msg: "out of bounds"}
	// ErrInvalidSize indicates a capacity change that would shrink a region.
	ErrInvalidSize = &Error{Kind: ErrKindInvalidSize, Msg: "invalid size"}
	// ErrAllocationTooLarge indicates a request above a persisted-storage ceiling.
	ErrAllocationTooLarge = &Error{Kind: ErrKindAllocation, Msg: "allocation too large"}
	// ErrTransientMemoryExceeded indicates the access pattern needs more working
	// memory than one invocation is allowed.
	ErrTransientMemoryExceeded = &Error{Kind: ErrKindTransientMemory, Msg: "transient memory exceeded"}
	// ErrUTF8Decode indicates content read as text is not valid UTF-8.
	ErrUTF8Decode = &Error{Kind: ErrKindDecode, Msg: "invalid utf-8"}
	// ErrNotSlab indicates the file lacks a valid slab header.
	ErrNotSlab = &Error{Kind: ErrKindFormat, Msg: "not a slab file (bad header)"}
	// ErrCorrupt indicates non-recoverable structural inconsistency.
	ErrCorrupt = &Error{Kind: ErrKindCorrupt, Msg: "corrupt slab"}
	// ErrNotFound indicates no instance exists at the derived address.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "not found"}
	// ErrExists indicates an init against an address that is already in use.
	ErrExists = &Error{Kind: ErrKindExists, Msg: "already initialized"}
	// ErrKindMismatch indicates the instance at an address has a different layout.
	ErrKindMismatch = &Error{Kind: ErrKindFormat, Msg: "slab kind mismatch"}
	// ErrClosed indicates use of a closed region.
	ErrClosed = &Error{Kind: ErrKindState, Msg: "slab is closed"}
)

// KindOf returns the ErrKind of the first *Error in err's chain.
func KindOf(err error) (ErrKind, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return 0, false
}
