package util

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuman(t *testing.T) {
	assert.Equal(t, "0 B", Human(0))
	assert.Equal(t, "1023 B", Human(1023))
	assert.Equal(t, "1.00 KB", Human(1024))
	assert.Equal(t, "1.50 MB", Human(3<<19))
	assert.Equal(t, "2.00 GB", Human(2<<30))
}

func TestRemoveEmptyDirs(t *testing.T) {
	root := t.TempDir()
	empty := filepath.Join(root, "images")
	full := filepath.Join(root, "books")
	require.NoError(t, os.Mkdir(empty, 0755))
	require.NoError(t, os.Mkdir(full, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(full, "a.txt"), []byte("x"), 0644))

	RemoveEmptyDirs(io.Discard, empty, full, filepath.Join(root, "missing"))

	_, err := os.Stat(empty)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(full)
	assert.NoError(t, err)
}
