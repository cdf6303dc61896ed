package storage_test

import (
	"strings"
	"testing"

	"fiorella/internal/storage"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newStore(t *testing.T) (*storage.ImageStore, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	store, err := storage.NewImageStore(fs, "/wwwroot/img")
	require.NoError(t, err)
	return store, fs
}

func TestImageStore_Save(t *testing.T) {
	store, fs := newStore(t)

	name, err := store.Save([]byte("jpeg-bytes"), "image/jpeg", "img1.jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, " img1.jpg"), "got %q", name)
	assert.Len(t, strings.SplitN(name, " ", 2)[0], 36)

	data, err := afero.ReadFile(fs, "/wwwroot/img/"+name)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	other, err := store.Save([]byte("jpeg-bytes"), "image/jpeg", "img1.jpg")
	require.NoError(t, err)
	assert.NotEqual(t, name, other)
}

func TestImageStore_SaveRejectsNonImage(t *testing.T) {
	store, fs := newStore(t)

	_, err := store.Save([]byte("hello"), "text/plain", "notes.txt")
	assert.ErrorIs(t, err, storage.ErrInvalidMediaType)

	entries, err := afero.ReadDir(fs, "/wwwroot/img")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestImageStore_SaveStripsDirectories(t *testing.T) {
	store, fs := newStore(t)

	name, err := store.Save([]byte("x"), "image/png", "../../etc/passwd.png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, " passwd.png"))

	ok, err := afero.Exists(fs, "/wwwroot/img/"+name)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestImageStore_Delete(t *testing.T) {
	store, fs := newStore(t)

	name, err := store.Save([]byte("x"), "image/png", "a.png")
	require.NoError(t, err)

	require.NoError(t, store.Delete(name))
	ok, err := afero.Exists(fs, "/wwwroot/img/"+name)
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting again is a no-op
	assert.NoError(t, store.Delete(name))
	assert.NoError(t, store.Delete("never-written.png"))
	assert.NoError(t, store.DeleteAll([]string{"x.png", ""}))
}

func TestResolveContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", storage.ResolveContentType("image/jpeg", nil))
	assert.Equal(t, "image/png", storage.ResolveContentType("", pngHeader))
	assert.Equal(t, "image/png", storage.ResolveContentType("application/octet-stream", pngHeader))
	assert.True(t, strings.HasPrefix(storage.ResolveContentType("", []byte("just text")), "text/plain"))
}
