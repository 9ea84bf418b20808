package types

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	k := KeyFromSeed("alice")
	parsed, err := ParseKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, parsed)

	_, err = ParseKey("abc")
	require.Error(t, err)
	_, err = ParseKey(strings.Repeat("zz", KeySize))
	require.Error(t, err)
}

func TestKeyText(t *testing.T) {
	k := KeyFromSeed("bob")
	b, err := k.MarshalText()
	require.NoError(t, err)

	var got Key
	require.NoError(t, got.UnmarshalText(b))
	assert.Equal(t, k, got)
	assert.False(t, got.IsZero())
	assert.True(t, Key{}.IsZero())
}

func TestDeriveAddress(t *testing.T) {
	program := KeyFromSeed("program")
	alice := KeyFromSeed("alice")
	bob := KeyFromSeed("bob")

	a := DeriveAddress(program, "data_holder_zero_copy_v0", alice)
	assert.Equal(t, a, DeriveAddress(program, "data_holder_zero_copy_v0", alice), "deterministic")
	assert.NotEqual(t, a, DeriveAddress(program, "data_holder_zero_copy_v0", bob), "owner scoped")
	assert.NotEqual(t, a, DeriveAddress(program, "data_holder_no_zero_copy_v0", alice), "tag scoped")
	assert.NotEqual(t, a, DeriveAddress(KeyFromSeed("other"), "data_holder_zero_copy_v0", alice), "program scoped")
}

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("write at 99: %w", ErrOutOfBounds)
	require.ErrorIs(t, wrapped, ErrOutOfBounds)
	assert.False(t, errors.Is(wrapped, ErrInvalidSize))

	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrKindOutOfBounds, kind)
	assert.Equal(t, "out of bounds", kind.String())

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
	assert.Equal(t, "unknown", ErrKind(99).String())
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("disk full")
	err := &Error{Kind: ErrKindAllocation, Msg: "grow", Err: cause}
	assert.Equal(t, "grow: disk full", err.Error())
	require.ErrorIs(t, err, cause)

	var nilErr *Error
	assert.Equal(t, "<nil>", nilErr.Error())
}
