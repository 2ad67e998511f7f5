package download

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	d := Dir{Path: dir}

	path, err := d.Save("inventory-export.csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "inventory-export.csv"), path)

	_, err = d.Save("inventory-export.csv", []byte("c,d\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "c,d\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDirSaveRejectsPaths(t *testing.T) {
	d := Dir{Path: t.TempDir()}
	for _, name := range []string{"", "../escape.csv", "sub/file.csv"} {
		_, err := d.Save(name, nil)
		assert.Error(t, err, name)
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	buf := []byte("x")
	_, err := r.Save("a.json", buf)
	require.NoError(t, err)
	buf[0] = 'y'

	files := r.Files()
	require.Len(t, files, 1)
	assert.Equal(t, "a.json", files[0].Name)
	assert.Equal(t, "x", string(files[0].Data))
}
