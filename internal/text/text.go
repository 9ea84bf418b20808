// Package text interprets persisted bytes as UTF-8 text. Content is opaque on
// write; validation happens only when a caller asks for a string.
package text

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/joshuapare/slabkit/pkg/types"
)

// Decode validates b as UTF-8 and returns it as a string. Invalid input
// yields an error wrapping types.ErrUTF8Decode that names the first bad byte.
func Decode(b []byte) (string, error) {
	out, n, err := transform.Bytes(encoding.UTF8Validator, b)
	if err != nil {
		if errors.Is(err, encoding.ErrInvalidUTF8) {
			return "", fmt.Errorf("%w at byte %d", types.ErrUTF8Decode, n)
		}
		return "", fmt.Errorf("%w: %v", types.ErrUTF8Decode, err)
	}
	return string(out), nil
}
