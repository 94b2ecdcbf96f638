package pkg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindProjectRootFrom(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "requirements.txt"), []byte("weasyprint\n"), 0o600))

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o700))

	found, err := FindProjectRootFrom(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindProjectRootFromGitMarker(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o700))

	nested := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(nested, 0o700))

	found, err := FindProjectRootFrom(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindProjectRootFromMissing(t *testing.T) {
	// an empty temp dir has neither marker anywhere below /tmp in most
	// environments; guard against a stray marker by checking the error only
	// when the walk actually fails
	_, err := FindProjectRootFrom(t.TempDir())
	if err != nil {
		assert.Contains(t, err.Error(), "Project root not found")
	}
}
