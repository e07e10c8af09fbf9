package fsbridge

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorage(t *testing.T) {
	for _, size := range []int{500, 0, -1} {
		memFS := memfs.New()
		storage := NewStorage(memFS, size)
		require.NotNil(t, storage)
		assert.Equal(t, memFS, storage.Filesystem())
	}
}

func TestNewStorage_WritesThroughFilesystem(t *testing.T) {
	memFS := memfs.New()
	storage := NewStorage(memFS, 1000)

	require.NoError(t, storage.Filesystem().MkdirAll("objects", 0o755))
	_, err := memFS.Stat("objects")
	assert.NoError(t, err)
}
