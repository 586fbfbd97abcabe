package bptree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	doc := `
leaf_max_size: 32
internal_max_size: 32
comparator: uint64
`
	cfg, err := LoadConfig(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, 32, cfg.LeafMaxSize)
	require.Equal(t, DefaultKeySize, cfg.KeySize)
	require.Equal(t, DefaultValueSize, cfg.ValueSize)
}

func TestComparatorByName(t *testing.T) {
	cmp, err := ComparatorByName("uint64")
	require.NoError(t, err)
	require.Equal(t, -1, cmp(key(1), key(2)))

	_, err = ComparatorByName("nope")
	require.Error(t, err)
}

func TestCompareBytesOrdersLexicographically(t *testing.T) {
	require.True(t, CompareBytes([]byte("a"), []byte("b")) < 0)
	require.Equal(t, 0, CompareBytes([]byte("x"), []byte("x")))
}
