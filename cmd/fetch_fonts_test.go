package cmd

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandVars(t *testing.T) {
	vars := map[string]string{"VERSION": "2.004", "OS_NAME": "linux"}

	assert.Equal(t,
		"https://example.org/khmer-2.004-linux.zip",
		expandVars("https://example.org/khmer-{VERSION}-{OS_NAME}.zip", vars))

	// unknown variables expand to nothing, matching shell parameter expansion
	assert.Equal(t, "x--y", expandVars("x-{NOPE}-y", vars))
}

func TestPickExtractor(t *testing.T) {
	for _, url := range []string{"a.zip", "b.tar.gz", "c.tar.xz"} {
		_, err := pickExtractor(url)
		assert.NoError(t, err, url)
	}

	_, err := pickExtractor("d.rar")
	assert.Error(t, err)
}

func TestStripDest(t *testing.T) {
	dest, ok := stripDest("/fonts", "NotoSansKhmer/NotoSansKhmer-Regular.ttf", 1)
	require.True(t, ok)
	assert.Equal(t, filepath.Join("/fonts", "NotoSansKhmer-Regular.ttf"), dest)

	_, ok = stripDest("/fonts", "toplevel.ttf", 1)
	assert.False(t, ok)

	dest, ok = stripDest("/fonts", "a/b/c.ttf", 0)
	require.True(t, ok)
	assert.Equal(t, filepath.Join("/fonts", "a", "b", "c.ttf"), dest)
}

func TestExtractZip(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("pack/KhmerOS.ttf")
	require.NoError(t, err)
	_, err = w.Write([]byte("glyphs"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	archive := filepath.Join(t.TempDir(), "fonts.zip")
	require.NoError(t, os.WriteFile(archive, buf.Bytes(), 0o600))

	handle, err := os.Open(archive)
	require.NoError(t, err)
	defer handle.Close()

	dest := filepath.Join(t.TempDir(), "fonts")
	require.NoError(t, extractZip(handle, dest, fontSpec{Strip: 1}))

	data, err := os.ReadFile(filepath.Join(dest, "KhmerOS.ttf"))
	require.NoError(t, err)
	assert.Equal(t, "glyphs", string(data))
}

func TestExtractTar(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	content := []byte("glyphs")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "pack/KhmerOS.ttf",
		Mode: 0o644,
		Size: int64(len(content)),
	}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	dest := filepath.Join(t.TempDir(), "fonts")
	require.NoError(t, extractTar(&buf, dest, fontSpec{Strip: 1}))

	data, err := os.ReadFile(filepath.Join(dest, "KhmerOS.ttf"))
	require.NoError(t, err)
	assert.Equal(t, "glyphs", string(data))
}
