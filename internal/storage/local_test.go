package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveOpenDelete(t *testing.T) {
	base := t.TempDir()
	s := NewLocalStorage(base)
	ctx := context.Background()

	path, err := s.Save(ctx, "abc", "my logo.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "abc/my_logo.png", path)

	r, err := s.Open(ctx, path)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, s.Delete(ctx, path))
	_, err = os.Stat(filepath.Join(base, "abc"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, s.Delete(ctx, path))
}

func TestLocalStorage_SaveFailureLeavesNothing(t *testing.T) {
	base := t.TempDir()
	s := NewLocalStorage(base)

	broken := io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(errors.New("connection reset")))
	_, err := s.Save(context.Background(), "abc", "logo.png", broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	_, err = os.Stat(filepath.Join(base, "abc"))
	assert.True(t, os.IsNotExist(err))
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd": "passwd",
		`C:\tmp\a b.jpg`:   "a_b.jpg",
		"100%?.png":        "100.png",
		"..":               "file",
		"":                 "file",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFilename(in), "input %q", in)
	}
}
