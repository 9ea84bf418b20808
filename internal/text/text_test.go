package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/slabkit/pkg/types"
)

func TestDecode(t *testing.T) {
	s, err := Decode([]byte("hello, 世界"))
	require.NoError(t, err)
	assert.Equal(t, "hello, 世界", s)

	s, err = Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte{'o', 'k', 0xff, 'x'})
	require.ErrorIs(t, err, types.ErrUTF8Decode)

	kind, ok := types.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrKindDecode, kind)
}
